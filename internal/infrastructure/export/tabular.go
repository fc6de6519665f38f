package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// utf8BOM 让表格软件按 UTF-8 打开 CSV
const utf8BOM = "\ufeff"

/**
 * WriteCSV 写出课程汇总 CSV（带 UTF-8 BOM）
 */
func (e *Exporter) WriteCSV(w io.Writer, data *models.ScheduleData) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("写入 CSV 失败: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(courseHeader); err != nil {
		return fmt.Errorf("写入 CSV 表头失败: %w", err)
	}
	for _, row := range courseRows(data) {
		if err := cw.Write(row.strings()); err != nil {
			return fmt.Errorf("写入 CSV 行失败: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("写入 CSV 失败: %w", err)
	}
	return nil
}

const (
	coursesSheet = "Courses"
	weeksSheet   = "Weeks"
)

/**
 * WriteXLSX 写出 Excel 工作簿
 *
 * Courses 表为课程汇总；metrics 不为空时追加 Weeks 表（每周节数与日期范围）
 *
 * Parameters:
 *   - w: 输出
 *   - data: 日程
 *   - metrics: 统计结果，可为 nil
 *
 * Returns: error - 写入失败
 */
func (e *Exporter) WriteXLSX(w io.Writer, data *models.ScheduleData, metrics *models.Metrics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", coursesSheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建样式失败: %w", err)
	}

	header := make([]interface{}, len(courseHeader))
	for i, h := range courseHeader {
		header[i] = h
	}
	if err := writeRow(f, coursesSheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(coursesSheet, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("设置样式失败: %w", err)
	}

	for i, row := range courseRows(data) {
		values := []interface{}{row.code, row.name, row.classes, row.groups, row.courseType, row.periods, row.sessions}
		if err := writeRow(f, coursesSheet, i+2, values); err != nil {
			return err
		}
	}
	widths := map[string]float64{"A": 16, "B": 32, "C": 20, "D": 14, "E": 8, "F": 14, "G": 14}
	for col, width := range widths {
		if err := f.SetColWidth(coursesSheet, col, col, width); err != nil {
			return fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	if metrics != nil {
		if err := writeWeeksSheet(f, data, metrics, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入工作簿失败: %w", err)
	}
	return nil
}

func writeWeeksSheet(f *excelize.File, data *models.ScheduleData, metrics *models.Metrics, style int) error {
	if _, err := f.NewSheet(weeksSheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	if err := writeRow(f, weeksSheet, 1, []interface{}{"Week", "Date Range", "Periods"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(weeksSheet, "A1", "C1", style); err != nil {
		return fmt.Errorf("设置样式失败: %w", err)
	}

	for i, wh := range metrics.HoursByWeek {
		dateRange := ""
		if i < len(data.Weeks) {
			dateRange = data.Weeks[i].DateRange
		}
		if err := writeRow(f, weeksSheet, i+2, []interface{}{wh.Week, dateRange, wh.Hours}); err != nil {
			return err
		}
	}
	return f.SetColWidth(weeksSheet, "B", "B", 32)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("计算单元格失败: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("写入第 %d 行失败: %w", row, err)
	}
	return nil
}

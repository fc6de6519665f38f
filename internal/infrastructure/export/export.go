/**
 * Package export 日程导出
 *
 * 支持四种格式：
 * - ICS：单周日历，可按教师过滤
 * - CSV / XLSX：课程汇总表
 * - JSON：完整备份（含类型覆盖与缩写）
 */

package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
)

// Format 导出格式
type Format string

const (
	FormatICS  Format = "ics"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Formats 全部支持的格式
var Formats = []Format{FormatICS, FormatXLSX, FormatCSV, FormatJSON}

// ParseFormat 解析格式名（大小写不敏感）
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("不支持的导出格式: %q", s)
}

// clock 节次的时:分
type clock struct {
	hour, minute int
}

type periodSpan struct {
	start, end clock
}

/**
 * Exporter 导出器
 *
 * 由导出配置创建，持有解析后的时区与节次时间表
 */
type Exporter struct {
	productID string
	location  *time.Location
	periods   map[int]periodSpan
	now       func() time.Time
}

/**
 * New 创建导出器
 *
 * Parameters:
 *   - cfg: 导出配置，时区为空时使用 UTC，节次时间表为空时使用默认值
 *
 * Returns: *Exporter - 导出器, error - 时区或时间格式错误
 */
func New(cfg config.ExportConfig) (*Exporter, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("加载时区 %s 失败: %w", cfg.Timezone, err)
		}
		loc = l
	}

	table := cfg.PeriodTimes
	if len(table) == 0 {
		table = config.DefaultPeriodTimes()
	}
	periods := make(map[int]periodSpan, len(table))
	for period, pt := range table {
		start, err := parseClock(pt.Start)
		if err != nil {
			return nil, fmt.Errorf("第 %d 节开始时间: %w", period, err)
		}
		end, err := parseClock(pt.End)
		if err != nil {
			return nil, fmt.Errorf("第 %d 节结束时间: %w", period, err)
		}
		periods[period] = periodSpan{start: start, end: end}
	}

	productID := cfg.ProductID
	if productID == "" {
		productID = config.Default().Export.ProductID
	}

	return &Exporter{
		productID: productID,
		location:  loc,
		periods:   periods,
		now:       time.Now,
	}, nil
}

func parseClock(s string) (clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return clock{}, fmt.Errorf("时间格式应为 HH:MM: %q", s)
	}
	return clock{hour: t.Hour(), minute: t.Minute()}, nil
}

// courseHeader 课程汇总表表头
var courseHeader = []string{"Code", "Name", "Classes", "Groups", "Type", "Total Periods", "Total Sessions"}

/**
 * courseRow 课程汇总表的一行
 */
type courseRow struct {
	code, name, classes, groups, courseType string
	periods, sessions                       int
}

func (r courseRow) strings() []string {
	return []string{
		r.code, r.name, r.classes, r.groups, r.courseType,
		fmt.Sprint(r.periods), fmt.Sprint(r.sessions),
	}
}

/**
 * courseRows 按课程代码排序的汇总行
 *
 * 类型优先取覆盖值，否则取课程出现过的类型（多种时以 "/" 连接）
 */
func courseRows(data *models.ScheduleData) []courseRow {
	courses := append([]models.AggregatedCourse(nil), data.AllCourses...)
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })

	rows := make([]courseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, courseRow{
			code:       c.Code,
			name:       c.Name,
			classes:    strings.Join(c.Classes, ", "),
			groups:     strings.Join(c.Groups, ", "),
			courseType: courseTypeLabel(data, c),
			periods:    c.TotalPeriods,
			sessions:   c.TotalSessions,
		})
	}
	return rows
}

func courseTypeLabel(data *models.ScheduleData, c models.AggregatedCourse) string {
	if t, ok := data.Overrides[c.Code]; ok && t.IsValid() {
		return string(t)
	}
	if len(c.Types) == 0 {
		return string(models.CourseTypeTheory)
	}
	labels := make([]string, len(c.Types))
	for i, t := range c.Types {
		labels[i] = string(t)
	}
	return strings.Join(labels, "/")
}

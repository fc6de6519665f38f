/**
 * Package extractor 日程抽取器
 *
 * 将门户导出的 HTML 日程表（或先前保存的 JSON 快照）解析为 ScheduleData。
 * 只有结构性问题（缺少周标记、缺少表格、没有任何周、JSON 缺少必需字段）会导致失败；
 * 单个课次的字段缺失一律降级为占位值。
 */

package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

// 结构性错误，可通过 errors.Is 判断
var (
	ErrEmptyInput         = errors.New("输入内容为空")
	ErrMissingWeekMarkers = errors.New("未找到周标记单元格")
	ErrMissingTable       = errors.New("未找到日程表格")
	ErrNoWeeks            = errors.New("未抽取到任何周数据")
	ErrInvalidJSON        = errors.New("JSON 格式错误")
	ErrInvalidStructure   = errors.New("JSON 结构无效")
)

/**
 * Extractor 日程抽取器
 *
 * 无状态，可并发使用
 */
type Extractor struct {
	cfg      config.ExtractorConfig
	patterns *fieldPatterns
	now      func() time.Time
}

/**
 * Option 抽取器选项
 */
type Option func(*Extractor)

/**
 * WithClock 指定抽取时间来源（测试用）
 */
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

/**
 * New 创建抽取器
 *
 * Parameters:
 *   - cfg: 抽取器配置（选择器、标签、类型标记）
 *   - opts: 可选项
 *
 * Returns:
 *   - *Extractor: 抽取器实例
 *   - error: 配置不可用时返回错误
 */
func New(cfg config.ExtractorConfig, opts ...Option) (*Extractor, error) {
	if cfg.WeekMarkerSelector == "" || cfg.TableSelector == "" {
		return nil, fmt.Errorf("抽取器选择器不能为空")
	}

	patterns, err := compilePatterns(cfg)
	if err != nil {
		return nil, fmt.Errorf("编译字段匹配规则失败: %w", err)
	}

	lowered := make([]string, 0, len(cfg.GroupMarkers))
	for _, m := range cfg.GroupMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}
	cfg.GroupMarkers = lowered

	e := &Extractor{
		cfg:      cfg,
		patterns: patterns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

/**
 * Extract 解析原始文档
 *
 * 首个非空白字符为 '{' 时按 JSON 快照处理，否则按 HTML 处理。
 *
 * Parameters:
 *   - raw: 原始文档内容
 *
 * Returns:
 *   - *models.ScheduleData: 解析结果
 *   - error: 结构性错误
 */
func (e *Extractor) Extract(raw string) (*models.ScheduleData, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	var (
		data   *models.ScheduleData
		err    error
		format string
	)
	if trimmed[0] == '{' {
		format = "json"
		data, err = e.extractJSON(trimmed)
	} else {
		format = "html"
		data, err = e.extractHTML(raw)
	}
	if err != nil {
		logger.Warn("日程抽取失败", zap.String("format", format), zap.Error(err))
		return nil, err
	}

	sessions := 0
	for i := range data.Weeks {
		sessions += data.Weeks[i].SessionCount()
	}
	logger.Info("日程抽取完成",
		zap.String("format", format),
		zap.String("teacher", data.Metadata.Teacher),
		zap.Int("weeks", len(data.Weeks)),
		zap.Int("sessions", sessions),
		zap.Int("courses", len(data.AllCourses)),
		zap.Duration("duration", time.Since(start)),
	)
	return data, nil
}

/**
 * extractHTML HTML 路径
 *
 * 先检查两个结构性前提，再逐行扫描表格：遇到周标记行即新建一周，
 * 随后三行依次为上午、下午、晚上，处理完跳过这三行。
 */
func (e *Extractor) extractHTML(raw string) (*models.ScheduleData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	if doc.Find(e.cfg.WeekMarkerSelector).Length() == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrMissingWeekMarkers, e.cfg.WeekMarkerSelector)
	}
	tables := doc.Find(e.cfg.TableSelector)
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrMissingTable, e.cfg.TableSelector)
	}

	metadata := e.extractMetadata(doc)

	rows := tables.Find("tbody tr")
	weeks := make([]models.WeekSchedule, 0)

	for i := 0; i < rows.Length(); i++ {
		marker := rows.Eq(i).Find(e.cfg.WeekMarkerSelector)
		if marker.Length() == 0 {
			continue
		}

		week := models.NewWeekSchedule(len(weeks)+1, collapseSpace(marker.First().Text()))
		for offset, shift := range models.Shifts {
			if idx := i + 1 + offset; idx < rows.Length() {
				e.processSlotRow(rows.Eq(idx), shift, &week)
			}
		}
		weeks = append(weeks, week)
		i += len(models.Shifts)
	}

	if len(weeks) == 0 {
		return nil, ErrNoWeeks
	}

	return &models.ScheduleData{
		Metadata:   metadata,
		Weeks:      weeks,
		AllCourses: analyzer.AggregateCourses(weeks),
	}, nil
}

/**
 * processSlotRow 处理一个时段行
 *
 * 前七个单元格依次对应周一到周日，每个链接是一个课次
 */
func (e *Extractor) processSlotRow(row *goquery.Selection, shift models.Shift, week *models.WeekSchedule) {
	row.ChildrenFiltered("td").Each(func(dayIdx int, cell *goquery.Selection) {
		if dayIdx >= models.DaysPerWeek {
			return
		}
		day := models.Weekday(dayIdx)

		cell.Find("a").Each(func(_ int, link *goquery.Selection) {
			session := e.parseSession(link)
			session.DayOfWeek = day.String()
			session.SessionTime = shift
			week.Day(day).Add(shift, session)
		})
	})
}

func (e *Extractor) parseSession(link *goquery.Selection) models.Session {
	code := strings.TrimSpace(link.Find("strong").First().Text())
	title, _ := link.Attr("title")
	content, _ := link.Attr("data-content")

	name, group, className := e.splitTitle(title, code)
	fields := e.patterns.parse(content)

	session := models.Session{
		CourseCode: code,
		CourseName: name,
		Group:      group,
		ClassName:  className,
		Room:       fields.room,
		Teacher:    fields.teacher,
		Type:       e.classify(code),
	}
	if fields.hasPeriod {
		session.TimeSlot = models.FormatTimeSlot(fields.start, fields.end)
		session.PeriodCount = fields.end - fields.start + 1
	}
	return session
}

/**
 * splitTitle 拆分 "课程名 - 分组 - 班级" 形式的标题
 *
 * 含分组标记词的片段之前为课程名、之后为班级；
 * 没有分组片段时取第一个片段为课程名，分组与班级留空。
 */
func (e *Extractor) splitTitle(title, code string) (name, group, className string) {
	parts := strings.Split(title, " - ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	groupIdx := -1
	for i, p := range parts {
		if e.isGroupToken(p) {
			groupIdx = i
			break
		}
	}

	if groupIdx >= 0 {
		name = strings.Join(parts[:groupIdx], " - ")
		group = parts[groupIdx]
		className = strings.Join(parts[groupIdx+1:], " - ")
	} else {
		name = parts[0]
	}

	if name == "" {
		name = code
	}
	return name, group, className
}

func (e *Extractor) isGroupToken(token string) bool {
	lowered := strings.ToLower(token)
	for _, marker := range e.cfg.GroupMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

/**
 * classify 按代码中的标记判定课次类型
 *
 * 先判理论标记，再判实践标记，都没有时默认为理论
 */
func (e *Extractor) classify(code string) models.CourseType {
	switch {
	case e.cfg.TheoryMarker != "" && strings.Contains(code, e.cfg.TheoryMarker):
		return models.CourseTypeTheory
	case e.cfg.PracticeMarker != "" && strings.Contains(code, e.cfg.PracticeMarker):
		return models.CourseTypePractice
	default:
		return models.CourseTypeTheory
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package analyzer

import (
	"sort"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

/**
 * Analyzer 工作量统计分析器
 *
 * 无状态：每次调用都从输入完整重新计算，输入不会被修改
 */
type Analyzer struct {
	config config.AnalyzerConfig
}

/**
 * NewAnalyzer 创建分析器
 *
 * Parameters:
 *   - cfg: 分析器配置（阈值、超载边界、教室排行条数）
 *
 * Returns: *Analyzer - 分析器实例
 */
func NewAnalyzer(cfg config.AnalyzerConfig) *Analyzer {
	defaults := config.Default().Analyzer
	if cfg.TopRooms <= 0 {
		cfg.TopRooms = defaults.TopRooms
	}
	if cfg.Weekly.Warning <= 0 {
		cfg.Weekly = defaults.Weekly
	}
	if cfg.Daily.Warning <= 0 {
		cfg.Daily = defaults.Daily
	}
	if cfg.OverloadWeekPeriods <= 0 {
		cfg.OverloadWeekPeriods = defaults.OverloadWeekPeriods
	}
	return &Analyzer{config: cfg}
}

// Config 补齐默认值后的配置
func (a *Analyzer) Config() config.AnalyzerConfig {
	return a.config
}

/**
 * Analyze 计算统计指标
 *
 * Parameters:
 *   - data: 日程（覆盖表参与类型判定，缩写表不影响统计）
 *
 * Returns: *models.Metrics - 统计快照
 */
func (a *Analyzer) Analyze(data *models.ScheduleData) *models.Metrics {
	metrics, _ := a.AnalyzeWithConflicts(data)
	return metrics
}

// accumulator 单次遍历中的累加状态
type accumulator struct {
	rooms    map[string]int
	classes  map[string]int
	subjects map[string]int
	co       map[string]*coTeacherAcc
	coOrder  []string
}

type coTeacherAcc struct {
	periods  int
	subjects []string
}

/**
 * AnalyzeWithConflicts 计算统计指标并返回冲突检测结果
 *
 * 冲突检测作为第一遍执行，其结果只用于冲突计数。
 *
 * Returns:
 *   - *models.Metrics: 统计快照
 *   - *ConflictReport: 冲突检测结果
 */
func (a *Analyzer) AnalyzeWithConflicts(data *models.ScheduleData) (*models.Metrics, *ConflictReport) {
	start := time.Now()

	report := DetectConflicts(data.Weeks)
	matcher := NewTeacherMatcher(data.Metadata.Teacher)

	m := &models.Metrics{
		TotalWeeks:          len(data.Weeks),
		TotalGroups:         len(data.AllCourses),
		BusiestDay:          models.DayLoad{Day: models.Monday.String()},
		BusiestWeek:         models.WeekLoad{Week: 1},
		HoursByWeek:         make([]models.WeekHours, 0, len(data.Weeks)),
		TopRooms:            []models.RoomLoad{},
		ClassDistribution:   []models.ClassLoad{},
		SubjectDistribution: []models.SubjectLoad{},
		CoTeachers:          []models.CoTeacher{},
		Warnings:            []string{},
		Conclusions:         []string{},
		PeakWeekHeatmap:     dayCounts(models.WeekdayValues{}),
		HeatmapData:         make([][models.DaysPerWeek]int, 0, len(data.Weeks)),
	}

	acc := &accumulator{
		rooms:    make(map[string]int),
		classes:  make(map[string]int),
		subjects: make(map[string]int),
		co:       make(map[string]*coTeacherAcc),
	}

	for wi := range data.Weeks {
		week := &data.Weeks[wi]
		var row models.WeekdayValues
		var shifts models.ShiftCounts
		weekTotal := 0

		for di := range week.Days {
			day := models.Weekday(di)
			for _, shift := range models.Shifts {
				for _, s := range *week.Days[di].Bucket(shift) {
					if !matcher.IsMain(s.Teacher) {
						acc.addCoTeacher(&s)
						continue
					}

					stat := m.ShiftStats.At(shift)
					stat.Sessions++
					stat.Hours += s.PeriodCount

					m.TotalSessions++
					m.TotalHours += s.PeriodCount
					m.HoursByDay[day] += s.PeriodCount
					m.TypeDistribution.Add(data.EffectiveType(&s), s.PeriodCount)

					acc.rooms[s.Room] += s.PeriodCount
					if s.ClassName != "" {
						acc.classes[s.ClassName] += s.PeriodCount
					}
					acc.subjects[s.CourseName] += s.PeriodCount

					weekTotal += s.PeriodCount
					row[day] += s.PeriodCount
					shifts.Inc(shift)

					if shift == models.ShiftEvening {
						m.WarningCounts.Evening++
					}
					if day.IsWeekend() {
						m.WarningCounts.Weekend++
					}
					if s.PeriodCount == 1 {
						m.WarningCounts.SinglePeriod++
					}
				}
			}
		}

		m.HeatmapData = append(m.HeatmapData, [models.DaysPerWeek]int(row))
		m.HoursByWeek = append(m.HoursByWeek, models.WeekHours{Week: week.WeekNumber, Hours: weekTotal})

		// 超载边界固定，与可调的周阈值无关
		if weekTotal > a.config.OverloadWeekPeriods {
			m.WarningCounts.OverloadWeeks++
		}

		// 峰值周快照在成为新峰值时记录，首个出现者胜出
		if weekTotal > m.BusiestWeek.Hours {
			m.BusiestWeek = models.WeekLoad{Week: week.WeekNumber, Hours: weekTotal, Range: week.DateRange}
			m.PeakWeekHeatmap = dayCounts(row)
			m.PeakWeekShiftStats = shifts
		}
	}

	for i, hours := range m.HoursByDay {
		if hours > m.BusiestDay.Hours {
			m.BusiestDay = models.DayLoad{Day: models.Weekday(i).String(), Hours: hours}
		}
	}

	m.TotalCourses = len(acc.subjects)
	m.TotalRooms = len(acc.rooms)
	m.TopRooms = acc.topRooms(a.config.TopRooms)
	m.ClassDistribution = acc.classDistribution()
	m.SubjectDistribution = acc.subjectDistribution()
	m.CoTeachers = acc.coTeachers()

	m.TotalConflicts = report.TotalConflicts()
	m.ConflictPairs = report.Pairs()

	m.Warnings = buildWarnings(m, a.config.OverloadWeekPeriods)
	m.Conclusions = buildConclusions(m)

	logger.Debug("工作量统计完成",
		zap.String("teacher", data.Metadata.Teacher),
		zap.Int("weeks", m.TotalWeeks),
		zap.Int("sessions", m.TotalSessions),
		zap.Int("hours", m.TotalHours),
		zap.Int("flagged", report.FlaggedCount()),
		zap.Int("co_teachers", len(m.CoTeachers)),
		zap.Duration("duration", time.Since(start)),
	)

	return m, report
}

func (acc *accumulator) addCoTeacher(s *models.Session) {
	co, ok := acc.co[s.Teacher]
	if !ok {
		co = &coTeacherAcc{subjects: []string{}}
		acc.co[s.Teacher] = co
		acc.coOrder = append(acc.coOrder, s.Teacher)
	}
	co.periods += s.PeriodCount
	co.subjects = appendUnique(co.subjects, s.CourseName)
}

func (acc *accumulator) topRooms(limit int) []models.RoomLoad {
	rooms := make([]models.RoomLoad, 0, len(acc.rooms))
	for room, periods := range acc.rooms {
		rooms = append(rooms, models.RoomLoad{Room: room, Periods: periods})
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Periods != rooms[j].Periods {
			return rooms[i].Periods > rooms[j].Periods
		}
		return rooms[i].Room < rooms[j].Room
	})
	if len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms
}

func (acc *accumulator) classDistribution() []models.ClassLoad {
	classes := make([]models.ClassLoad, 0, len(acc.classes))
	for name, periods := range acc.classes {
		classes = append(classes, models.ClassLoad{ClassName: name, Periods: periods})
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Periods != classes[j].Periods {
			return classes[i].Periods > classes[j].Periods
		}
		return classes[i].ClassName < classes[j].ClassName
	})
	return classes
}

func (acc *accumulator) subjectDistribution() []models.SubjectLoad {
	subjects := make([]models.SubjectLoad, 0, len(acc.subjects))
	for name, periods := range acc.subjects {
		subjects = append(subjects, models.SubjectLoad{Name: name, Periods: periods})
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Periods != subjects[j].Periods {
			return subjects[i].Periods > subjects[j].Periods
		}
		return subjects[i].Name < subjects[j].Name
	})
	return subjects
}

func (acc *accumulator) coTeachers() []models.CoTeacher {
	out := make([]models.CoTeacher, 0, len(acc.coOrder))
	for _, name := range acc.coOrder {
		co := acc.co[name]
		out = append(out, models.CoTeacher{Name: name, Periods: co.periods, Subjects: co.subjects})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Periods > out[j].Periods })
	return out
}

func dayCounts(row models.WeekdayValues) []models.DayCount {
	counts := make([]models.DayCount, models.DaysPerWeek)
	for i, n := range row {
		counts[i] = models.DayCount{Day: models.Weekday(i).String(), Count: n}
	}
	return counts
}

package analyzer

import (
	"testing"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default().Analyzer)
}

// assertReconciled 总节数与按日、按周、按类型的合计一致
func assertReconciled(t *testing.T, m *models.Metrics) {
	t.Helper()

	byWeek := 0
	for _, wh := range m.HoursByWeek {
		byWeek += wh.Hours
	}
	heat := 0
	for _, row := range m.HeatmapData {
		for _, n := range row {
			heat += n
		}
	}

	assert.Equal(t, m.TotalHours, m.HoursByDay.Sum())
	assert.Equal(t, m.TotalHours, byWeek)
	assert.Equal(t, m.TotalHours, m.TypeDistribution.Sum())
	assert.Equal(t, m.TotalHours, heat)
}

// TestAnalyze_SingleSession 单周单课次
func TestAnalyze_SingleSession(t *testing.T) {
	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
	))

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, 2, m.TotalHours)
	assert.Equal(t, 1, m.TotalSessions)
	assert.Equal(t, 2, m.TypeDistribution.Theory)
	assert.Equal(t, 0, m.TotalConflicts)
	assert.Empty(t, m.Warnings)
	assert.Equal(t, models.WarningCounts{}, m.WarningCounts)
	assert.Equal(t, models.DayLoad{Day: "Monday", Hours: 2}, m.BusiestDay)
	assert.Equal(t, 1, m.TotalCourses)
	assert.Equal(t, 1, m.TotalGroups)
	assert.Equal(t, 1, m.TotalRooms)
	assert.Equal(t, []models.RoomLoad{{Room: "A1", Periods: 2}}, m.TopRooms)
	assert.Contains(t, m.Conclusions, "Theory dominates (100%)")
	assert.Contains(t, m.Conclusions, "Morning and Monday are peak times")
	assertReconciled(t, m)
}

// TestAnalyze_Conflict 同教师重叠课次计为一个冲突
func TestAnalyze_Conflict(t *testing.T) {
	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
		at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "2-3", "B2", mainTeacher)),
	))

	m, report := newTestAnalyzer().AnalyzeWithConflicts(data)

	assert.Equal(t, 1, m.TotalConflicts)
	assert.Equal(t, 1, m.ConflictPairs)
	assert.Contains(t, m.Warnings, "1 schedule/room conflicts requiring review")

	annotated := report.Annotate(data)
	assert.True(t, annotated.Weeks[0].Days[models.Monday].Morning[0].HasConflict)
	assert.True(t, annotated.Weeks[0].Days[models.Monday].Morning[1].HasConflict)
	assert.False(t, data.Weeks[0].Days[models.Monday].Morning[0].HasConflict, "分析不修改输入")
}

// TestAnalyze_SinglePeriodWeekend 周六单节课次同时触发两类预警
func TestAnalyze_SinglePeriodWeekend(t *testing.T) {
	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Saturday, models.ShiftMorning, newSession("CS101-LT", "1-1", "A1", mainTeacher)),
	))

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, 1, m.WarningCounts.SinglePeriod)
	assert.Equal(t, 1, m.WarningCounts.Weekend)
	assert.Contains(t, m.Warnings, "1 single-period sessions (low efficiency)")
	assert.Contains(t, m.Warnings, "1 weekend sessions (Sat, Sun)")
	assert.Contains(t, m.Conclusions, ConclusionInefficient)
	assert.Contains(t, m.Conclusions, "Morning and Saturday are peak times")
}

// TestAnalyze_PlaceholderTeacher 占位教师归属主讲教师
func TestAnalyze_PlaceholderTeacher(t *testing.T) {
	data := newSchedule("Someone Else Entirely", newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-3", "A1", models.UnspecifiedTeacher)),
	))

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, 3, m.TotalHours)
	assert.Empty(t, m.CoTeachers)
}

// TestAnalyze_CoTeachersExcluded 合作教师课次不计入主讲统计
func TestAnalyze_CoTeachersExcluded(t *testing.T) {
	co := newSession("CS201-TH", "6-9", "Lab", "TS. Lê Thị Hoa")
	co.ClassName = "K70"
	co2 := newSession("CS202-LT", "1-2", "B1", "TS. Lê Thị Hoa")

	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", "Nguyen Van An")),
		at(models.Monday, models.ShiftAfternoon, co),
		at(models.Tuesday, models.ShiftMorning, co2),
	))

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, 2, m.TotalHours)
	assert.Equal(t, 2, m.HoursByDay[models.Monday])
	assert.Equal(t, 0, m.HoursByDay[models.Tuesday])
	assert.Equal(t, 0, m.TypeDistribution.Practice)
	assert.Equal(t, []models.RoomLoad{{Room: "A1", Periods: 2}}, m.TopRooms)
	for _, c := range m.ClassDistribution {
		assert.NotEqual(t, "K70", c.ClassName)
	}

	require.Len(t, m.CoTeachers, 1)
	assert.Equal(t, "TS. Lê Thị Hoa", m.CoTeachers[0].Name)
	assert.Equal(t, 6, m.CoTeachers[0].Periods)
	assert.Equal(t, []string{"Course CS201", "Course CS202"}, m.CoTeachers[0].Subjects)
	assertReconciled(t, m)
}

// TestAnalyze_Empty 没有课次时所有指标为零且结构稠密
func TestAnalyze_Empty(t *testing.T) {
	data := newSchedule(mainTeacher, newWeek(1), newWeek(2))

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, 2, m.TotalWeeks)
	assert.Equal(t, 0, m.TotalHours)
	assert.Equal(t, []models.WeekHours{{Week: 1, Hours: 0}, {Week: 2, Hours: 0}}, m.HoursByWeek)
	assert.Len(t, m.HeatmapData, 2)
	assert.Len(t, m.PeakWeekHeatmap, models.DaysPerWeek)
	assert.Equal(t, models.WeekLoad{Week: 1}, m.BusiestWeek)
	assert.Equal(t, models.DayLoad{Day: "Monday"}, m.BusiestDay)
	assert.Empty(t, m.Warnings)
	assert.Contains(t, m.Conclusions, "Theory dominates (0%)")
	assert.Contains(t, m.Conclusions, ConclusionBalanced)
	assertReconciled(t, m)
}

// TestAnalyze_BusiestWeekAndOverload 峰值周首个出现者胜出，超载周单独计数
func TestAnalyze_BusiestWeekAndOverload(t *testing.T) {
	heavy := func(number int) models.WeekSchedule {
		sessions := []placed{}
		for _, day := range []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
			sessions = append(sessions,
				at(day, models.ShiftMorning, newSession("CS101-LT", "1-3", "A1", mainTeacher)),
				at(day, models.ShiftAfternoon, newSession("CS102-TH", "6-8", "Lab", mainTeacher)),
			)
		}
		w := newWeek(number, sessions...)
		w.DateRange = "week " + string(rune('0'+number))
		return w
	}

	data := newSchedule(mainTeacher,
		newWeek(1, at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher))),
		heavy(2),
		heavy(3),
	)

	m := newTestAnalyzer().Analyze(data)

	assert.Equal(t, models.WeekLoad{Week: 2, Hours: 30, Range: "week 2"}, m.BusiestWeek)
	assert.Equal(t, 2, m.WarningCounts.OverloadWeeks)
	assert.Contains(t, m.Warnings, "2/3 weeks exceed 25 periods (overload)")
	assert.Equal(t, models.ShiftCounts{Morning: 5, Afternoon: 5}, m.PeakWeekShiftStats)
	assert.Equal(t, models.DayCount{Day: "Monday", Count: 6}, m.PeakWeekHeatmap[0])
	assert.Equal(t, [models.DaysPerWeek]int{2, 0, 0, 0, 0, 0, 0}, m.HeatmapData[0])
	assert.Contains(t, m.Conclusions, ConclusionBackLoaded)
	assertReconciled(t, m)
}

// TestAnalyze_OverloadIgnoresWeeklyThreshold 调高周阈值不影响超载判定
func TestAnalyze_OverloadIgnoresWeeklyThreshold(t *testing.T) {
	cfg := config.Default().Analyzer
	cfg.Weekly = config.LevelThreshold{Warning: 30, Danger: 40}
	a := NewAnalyzer(cfg)

	sessions := []placed{}
	for _, day := range []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
		sessions = append(sessions, at(day, models.ShiftMorning, newSession("CS101-LT", "1-5", "A1", mainTeacher)))
	}
	sessions = append(sessions, at(models.Saturday, models.ShiftMorning, newSession("CS102-TH", "1-3", "Lab", mainTeacher)))
	data := newSchedule(mainTeacher, newWeek(1, sessions...))

	m := a.Analyze(data)

	require.Equal(t, 28, m.TotalHours)
	assert.Equal(t, 1, m.WarningCounts.OverloadWeeks)
	assert.Contains(t, m.Warnings, "1/1 weeks exceed 25 periods (overload)")
	assert.Equal(t, LoadNormal, a.WeekLoadLevel(28))
}

// TestAnalyze_OverridesAffectType 类型覆盖参与统计
func TestAnalyze_OverridesAffectType(t *testing.T) {
	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101", "1-4", "A1", mainTeacher)),
	))

	before := newTestAnalyzer().Analyze(data)
	after := newTestAnalyzer().Analyze(data.WithOverrides(map[string]models.CourseType{"CS101": models.CourseTypePractice}))

	assert.Equal(t, models.TypeDistribution{Theory: 4}, before.TypeDistribution)
	assert.Equal(t, models.TypeDistribution{Practice: 4}, after.TypeDistribution)
	assert.Contains(t, after.Conclusions, "Practice dominates (100%)")
}

// TestAnalyze_TopRoomsLimit 教室排行截断并按节数降序
func TestAnalyze_TopRoomsLimit(t *testing.T) {
	cfg := config.Default().Analyzer
	cfg.TopRooms = 2

	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-1", "R1", mainTeacher)),
		at(models.Tuesday, models.ShiftMorning, newSession("CS102-LT", "1-3", "R2", mainTeacher)),
		at(models.Wednesday, models.ShiftMorning, newSession("CS103-LT", "1-2", "R3", mainTeacher)),
	))

	m := NewAnalyzer(cfg).Analyze(data)

	assert.Equal(t, []models.RoomLoad{{Room: "R2", Periods: 3}, {Room: "R3", Periods: 2}}, m.TopRooms)
	assert.Equal(t, 3, m.TotalRooms)
}

// TestAnalyze_Deterministic 重复计算结果一致
func TestAnalyze_Deterministic(t *testing.T) {
	data := newSchedule(mainTeacher, aggregatorWeeks()...)
	a := newTestAnalyzer()
	assert.Equal(t, a.Analyze(data), a.Analyze(data))
}

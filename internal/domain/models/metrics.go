package models

import (
	"encoding/json"
)

/**
 * WeekdayValues 按星期稠密存储的数值，下标为 Weekday
 *
 * JSON 形式为以星期名称为键的对象，七个键始终存在
 */
type WeekdayValues [DaysPerWeek]int

func (v WeekdayValues) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, DaysPerWeek)
	for i, n := range v {
		m[WeekdayNames[i]] = n
	}
	return json.Marshal(m)
}

func (v *WeekdayValues) UnmarshalJSON(data []byte) error {
	m := make(map[string]int)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*v = WeekdayValues{}
	for name, n := range m {
		if idx, ok := ParseWeekday(name); ok {
			v[idx] = n
		}
	}
	return nil
}

/**
 * Sum 七天合计
 */
func (v WeekdayValues) Sum() int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}

/**
 * DayLoad 某一天的负荷
 */
type DayLoad struct {
	Day   string `json:"day"`
	Hours int    `json:"hours"`
}

/**
 * WeekLoad 某一周的负荷
 */
type WeekLoad struct {
	Week  int    `json:"week"`
	Hours int    `json:"hours"`
	Range string `json:"range"`
}

/**
 * WeekHours 周序号与节数
 */
type WeekHours struct {
	Week  int `json:"week"`
	Hours int `json:"hours"`
}

/**
 * TypeDistribution 按课次类型统计的节数
 */
type TypeDistribution struct {
	Theory   int `json:"LT"`
	Practice int `json:"TH"`
}

/**
 * Add 累加指定类型的节数
 */
func (t *TypeDistribution) Add(ct CourseType, periods int) {
	if ct == CourseTypePractice {
		t.Practice += periods
		return
	}
	t.Theory += periods
}

/**
 * Of 返回指定类型的节数
 */
func (t TypeDistribution) Of(ct CourseType) int {
	if ct == CourseTypePractice {
		return t.Practice
	}
	return t.Theory
}

/**
 * Sum 合计
 */
func (t TypeDistribution) Sum() int {
	return t.Theory + t.Practice
}

/**
 * ShiftStat 单个时段的节数与课次数
 */
type ShiftStat struct {
	Hours    int `json:"hours"`
	Sessions int `json:"sessions"`
}

/**
 * ShiftStats 三个时段的统计
 */
type ShiftStats struct {
	Morning   ShiftStat `json:"morning"`
	Afternoon ShiftStat `json:"afternoon"`
	Evening   ShiftStat `json:"evening"`
}

/**
 * At 返回指定时段统计的指针，未知时段返回 nil
 */
func (s *ShiftStats) At(shift Shift) *ShiftStat {
	switch shift {
	case ShiftMorning:
		return &s.Morning
	case ShiftAfternoon:
		return &s.Afternoon
	case ShiftEvening:
		return &s.Evening
	default:
		return nil
	}
}

/**
 * ShiftCounts 三个时段的课次计数
 */
type ShiftCounts struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
}

/**
 * Inc 指定时段计数加一
 */
func (s *ShiftCounts) Inc(shift Shift) {
	switch shift {
	case ShiftMorning:
		s.Morning++
	case ShiftAfternoon:
		s.Afternoon++
	case ShiftEvening:
		s.Evening++
	}
}

// RoomLoad 教室使用节数
type RoomLoad struct {
	Room    string `json:"room"`
	Periods int    `json:"periods"`
}

// ClassLoad 班级节数
type ClassLoad struct {
	ClassName string `json:"className"`
	Periods   int    `json:"periods"`
}

// SubjectLoad 课程节数
type SubjectLoad struct {
	Name    string `json:"name"`
	Periods int    `json:"periods"`
}

/**
 * CoTeacher 合作教师汇总
 */
type CoTeacher struct {
	Name     string   `json:"name"`
	Periods  int      `json:"periods"`
	Subjects []string `json:"subjects"`
}

/**
 * DayCount 峰值周热力图中的一天
 */
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

/**
 * WarningCounts 各类预警信号的出现次数
 */
type WarningCounts struct {
	OverloadWeeks int `json:"overloadWeeks"`
	Evening       int `json:"evening"`
	Weekend       int `json:"weekend"`
	SinglePeriod  int `json:"singlePeriod"`
}

/**
 * Metrics 工作量统计快照
 *
 * 每次日程或覆盖表变化时整体重新计算，不做增量更新
 */
type Metrics struct {
	TotalWeeks    int `json:"totalWeeks"`
	TotalHours    int `json:"totalHours"`
	TotalSessions int `json:"totalSessions"`
	TotalCourses  int `json:"totalCourses"`
	TotalGroups   int `json:"totalGroups"`
	TotalRooms    int `json:"totalRooms"`

	BusiestDay  DayLoad  `json:"busiestDay"`
	BusiestWeek WeekLoad `json:"busiestWeek"`

	HoursByDay       WeekdayValues    `json:"hoursByDay"`
	HoursByWeek      []WeekHours      `json:"hoursByWeek"`
	TypeDistribution TypeDistribution `json:"typeDistribution"`
	ShiftStats       ShiftStats       `json:"shiftStats"`

	TopRooms            []RoomLoad    `json:"topRooms"`
	ClassDistribution   []ClassLoad   `json:"classDistribution"`
	SubjectDistribution []SubjectLoad `json:"subjectDistribution"`
	CoTeachers          []CoTeacher   `json:"coTeachers"`

	// TotalConflicts 被标记课次数的一半（四舍五入）
	TotalConflicts int `json:"totalConflicts"`

	// ConflictPairs 互相冲突的课次对数
	ConflictPairs int `json:"conflictPairs"`

	WarningCounts WarningCounts `json:"warningCounts"`
	Warnings      []string      `json:"warnings"`
	Conclusions   []string      `json:"conclusions"`

	PeakWeekHeatmap    []DayCount  `json:"peakWeekHeatmap"`
	PeakWeekShiftStats ShiftCounts `json:"peakWeekShiftStats"`

	// HeatmapData [周下标][星期下标] 的节数矩阵
	HeatmapData [][DaysPerWeek]int `json:"heatmapData"`
}

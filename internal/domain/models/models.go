/**
 * Package models 定义教学日程分析的领域模型
 *
 * 包含课次、日/周日程、课程汇总、元数据以及统计指标等核心数据结构
 */

package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

/**
 * CourseType 课次类型（理论 / 实践）
 */
type CourseType string

const (
	// CourseTypeTheory 理论课（默认类型）
	CourseTypeTheory CourseType = "LT"

	// CourseTypePractice 实践课
	CourseTypePractice CourseType = "TH"
)

/**
 * IsValid 判断类型是否为已知取值
 */
func (t CourseType) IsValid() bool {
	return t == CourseTypeTheory || t == CourseTypePractice
}

/**
 * ParseCourseType 解析课次类型（大小写不敏感）
 *
 * Returns: CourseType - 类型, bool - 是否识别成功
 */
func ParseCourseType(s string) (CourseType, bool) {
	t := CourseType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.IsValid()
}

/**
 * Shift 教学时段（上午 / 下午 / 晚上）
 */
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

// Shifts 固定顺序的三个时段
var Shifts = [3]Shift{ShiftMorning, ShiftAfternoon, ShiftEvening}

/**
 * Weekday 星期下标，0=周一 ... 6=周日
 */
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek 每周天数
const DaysPerWeek = 7

// WeekdayNames 星期名称，顺序与 Weekday 一致
var WeekdayNames = [DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Weekday) String() string {
	if d < 0 || int(d) >= DaysPerWeek {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return WeekdayNames[d]
}

/**
 * IsWeekend 是否为周末（周六、周日）
 */
func (d Weekday) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

/**
 * ParseWeekday 根据英文名称解析星期
 *
 * Returns: Weekday - 星期, bool - 是否识别成功
 */
func ParseWeekday(name string) (Weekday, bool) {
	for i, n := range WeekdayNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Weekday(i), true
		}
	}
	return 0, false
}

// 字段缺失时使用的占位值
const (
	// UnknownRoom 教室缺失占位
	UnknownRoom = "Unknown"

	// UnspecifiedTeacher 教师缺失占位（门户导出的原始写法）
	UnspecifiedTeacher = "Chưa rõ"

	// UnknownTeacher 元数据中教师缺失的占位
	UnknownTeacher = "Unknown Teacher"

	// UnknownLabel 学期、学年缺失的占位
	UnknownLabel = "Unknown"
)

/**
 * IsPlaceholder 判断教师或教室字段是否为占位值（含空串）
 */
func IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == UnknownRoom || v == UnspecifiedTeacher || strings.EqualFold(v, "unspecified")
}

/**
 * Session 一次教学课次
 *
 * 由抽取器创建；HasConflict 仅在冲突检测结果回写副本时设置
 */
type Session struct {
	// CourseCode 课程/分组代码（可能带 -LT / -TH 后缀）
	CourseCode string `json:"courseCode"`

	// CourseName 课程名称
	CourseName string `json:"courseName"`

	// Group 分组标签
	Group string `json:"group"`

	// ClassName 班级标签
	ClassName string `json:"className"`

	// TimeSlot 节次范围 "start-end"（闭区间，从 1 开始）；未解析到时为空
	TimeSlot string `json:"timeSlot"`

	// PeriodCount 节数 = end - start + 1；未解析到节次时为 0
	PeriodCount int `json:"periodCount"`

	// Room 教室
	Room string `json:"room"`

	// Teacher 教师显示名
	Teacher string `json:"teacher"`

	// Type 课次类型
	Type CourseType `json:"type"`

	// DayOfWeek 星期名称
	DayOfWeek string `json:"dayOfWeek"`

	// SessionTime 所属时段
	SessionTime Shift `json:"sessionTime"`

	// HasConflict 冲突标记
	HasConflict bool `json:"hasConflict,omitempty"`
}

/**
 * PeriodRange 解析节次范围
 *
 * "3" 视为单节 [3,3]；无法解析时 ok=false
 *
 * Returns: start, end int - 闭区间, ok bool - 是否解析成功
 */
func (s *Session) PeriodRange() (start, end int, ok bool) {
	slot := strings.TrimSpace(s.TimeSlot)
	if slot == "" {
		return 0, 0, false
	}

	parts := strings.Split(slot, "-")
	if len(parts) > 2 {
		return 0, 0, false
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	end = start
	if len(parts) == 2 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, false
		}
	}

	if start <= 0 || end < start {
		return 0, 0, false
	}
	return start, end, true
}

/**
 * FormatTimeSlot 生成 "start-end" 形式的节次字符串
 */
func FormatTimeSlot(start, end int) string {
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

/**
 * DaySchedule 单日日程
 *
 * 固定三个时段桶，按插入顺序保存课次；任何时段都不会是 nil
 */
type DaySchedule struct {
	Morning   []Session `json:"morning"`
	Afternoon []Session `json:"afternoon"`
	Evening   []Session `json:"evening"`
}

/**
 * NewDaySchedule 创建三个时段均为空的日程
 */
func NewDaySchedule() DaySchedule {
	return DaySchedule{
		Morning:   []Session{},
		Afternoon: []Session{},
		Evening:   []Session{},
	}
}

/**
 * Bucket 返回指定时段的课次切片指针
 *
 * 未知时段返回 nil
 */
func (d *DaySchedule) Bucket(shift Shift) *[]Session {
	switch shift {
	case ShiftMorning:
		return &d.Morning
	case ShiftAfternoon:
		return &d.Afternoon
	case ShiftEvening:
		return &d.Evening
	default:
		return nil
	}
}

/**
 * Add 追加课次到指定时段
 */
func (d *DaySchedule) Add(shift Shift, session Session) {
	if bucket := d.Bucket(shift); bucket != nil {
		*bucket = append(*bucket, session)
	}
}

/**
 * All 按上午、下午、晚上的顺序返回当天全部课次
 */
func (d *DaySchedule) All() []Session {
	all := make([]Session, 0, len(d.Morning)+len(d.Afternoon)+len(d.Evening))
	all = append(all, d.Morning...)
	all = append(all, d.Afternoon...)
	all = append(all, d.Evening...)
	return all
}

/**
 * Len 当天课次总数
 */
func (d *DaySchedule) Len() int {
	return len(d.Morning) + len(d.Afternoon) + len(d.Evening)
}

func (d *DaySchedule) normalize() {
	if d.Morning == nil {
		d.Morning = []Session{}
	}
	if d.Afternoon == nil {
		d.Afternoon = []Session{}
	}
	if d.Evening == nil {
		d.Evening = []Session{}
	}
}

func (d *DaySchedule) UnmarshalJSON(data []byte) error {
	type plain DaySchedule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = DaySchedule(p)
	d.normalize()
	return nil
}

/**
 * WeekDays 一周七天的日程，下标为 Weekday
 *
 * JSON 形式为以星期名称为键的对象，缺失的键解析为空日程
 */
type WeekDays [DaysPerWeek]DaySchedule

/**
 * NewWeekDays 创建七天均为空的周日程
 */
func NewWeekDays() WeekDays {
	var days WeekDays
	for i := range days {
		days[i] = NewDaySchedule()
	}
	return days
}

func (w WeekDays) MarshalJSON() ([]byte, error) {
	// 手动拼接以保证星期顺序稳定
	var b strings.Builder
	b.WriteByte('{')
	for i, day := range w {
		if i > 0 {
			b.WriteByte(',')
		}
		day.normalize()
		encoded, err := json.Marshal(day)
		if err != nil {
			return nil, err
		}
		b.WriteString(strconv.Quote(WeekdayNames[i]))
		b.WriteByte(':')
		b.Write(encoded)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (w *WeekDays) UnmarshalJSON(data []byte) error {
	raw := make(map[string]DaySchedule)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*w = NewWeekDays()
	for name, day := range raw {
		if idx, ok := ParseWeekday(name); ok {
			day.normalize()
			w[idx] = day
		}
	}
	return nil
}

/**
 * WeekSchedule 一周日程
 */
type WeekSchedule struct {
	// WeekNumber 周序号（按解析顺序从 1 开始）
	WeekNumber int `json:"weekNumber"`

	// DateRange 日期范围原文，如 "Từ 02/09/2024 đến 08/09/2024"
	DateRange string `json:"dateRange"`

	// Days 七天日程
	Days WeekDays `json:"days"`
}

/**
 * NewWeekSchedule 创建七天均已初始化的周日程
 */
func NewWeekSchedule(number int, dateRange string) WeekSchedule {
	return WeekSchedule{
		WeekNumber: number,
		DateRange:  dateRange,
		Days:       NewWeekDays(),
	}
}

/**
 * Day 返回指定星期的日程指针
 */
func (w *WeekSchedule) Day(day Weekday) *DaySchedule {
	return &w.Days[day]
}

/**
 * Normalize 补齐缺失的时段桶（JSON 输入可能缺少 days 或时段键）
 */
func (w *WeekSchedule) Normalize() {
	for i := range w.Days {
		w.Days[i].normalize()
	}
}

/**
 * SessionCount 本周课次总数
 */
func (w *WeekSchedule) SessionCount() int {
	total := 0
	for i := range w.Days {
		total += w.Days[i].Len()
	}
	return total
}

/**
 * Metadata 日程元数据，解析后不可变
 */
type Metadata struct {
	Teacher       string `json:"teacher"`
	Semester      string `json:"semester"`
	AcademicYear  string `json:"academicYear"`
	ExtractedDate string `json:"extractedDate"`
}

/**
 * AggregatedCourse 按课程代码汇总的课程信息
 */
type AggregatedCourse struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	TotalPeriods  int          `json:"totalPeriods"`
	TotalSessions int          `json:"totalSessions"`
	Groups        []string     `json:"groups"`
	Classes       []string     `json:"classes"`
	Types         []CourseType `json:"types"`
}

/**
 * ScheduleData 聚合根
 *
 * Overrides 与 Abbreviations 由设置层维护，流水线只读
 */
type ScheduleData struct {
	Metadata      Metadata              `json:"metadata"`
	Weeks         []WeekSchedule        `json:"weeks"`
	AllCourses    []AggregatedCourse    `json:"allCourses"`
	Overrides     map[string]CourseType `json:"overrides,omitempty"`
	Abbreviations map[string]string     `json:"abbreviations,omitempty"`
}

/**
 * EffectiveType 返回课次的有效类型（优先使用用户覆盖）
 */
func (d *ScheduleData) EffectiveType(s *Session) CourseType {
	if t, ok := d.Overrides[s.CourseCode]; ok && t.IsValid() {
		return t
	}
	if s.Type.IsValid() {
		return s.Type
	}
	return CourseTypeTheory
}

/**
 * DisplayName 返回课程显示名（优先使用缩写）
 */
func (d *ScheduleData) DisplayName(courseName string) string {
	if abbr := strings.TrimSpace(d.Abbreviations[courseName]); abbr != "" {
		return abbr
	}
	return courseName
}

/**
 * Clone 深拷贝
 */
func (d *ScheduleData) Clone() *ScheduleData {
	out := &ScheduleData{
		Metadata:      d.Metadata,
		Weeks:         make([]WeekSchedule, len(d.Weeks)),
		AllCourses:    make([]AggregatedCourse, len(d.AllCourses)),
		Overrides:     cloneMap(d.Overrides),
		Abbreviations: cloneMap(d.Abbreviations),
	}

	for i, w := range d.Weeks {
		nw := WeekSchedule{WeekNumber: w.WeekNumber, DateRange: w.DateRange}
		for j := range w.Days {
			src := &w.Days[j]
			nw.Days[j] = DaySchedule{
				Morning:   append([]Session{}, src.Morning...),
				Afternoon: append([]Session{}, src.Afternoon...),
				Evening:   append([]Session{}, src.Evening...),
			}
		}
		out.Weeks[i] = nw
	}

	for i, c := range d.AllCourses {
		c.Groups = append([]string{}, c.Groups...)
		c.Classes = append([]string{}, c.Classes...)
		c.Types = append([]CourseType{}, c.Types...)
		out.AllCourses[i] = c
	}
	return out
}

/**
 * WithOverrides 返回替换了类型覆盖表的新副本（写时复制）
 */
func (d *ScheduleData) WithOverrides(overrides map[string]CourseType) *ScheduleData {
	out := *d
	out.Overrides = cloneMap(overrides)
	return &out
}

/**
 * WithAbbreviations 返回替换了缩写表的新副本（写时复制）
 */
func (d *ScheduleData) WithAbbreviations(abbreviations map[string]string) *ScheduleData {
	out := *d
	out.Abbreviations = cloneMap(abbreviations)
	return &out
}

/**
 * SubjectNames 返回所有出现过的课程名称（按首次出现顺序）
 */
func (d *ScheduleData) SubjectNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for wi := range d.Weeks {
		for di := range d.Weeks[wi].Days {
			for _, s := range d.Weeks[wi].Days[di].All() {
				if s.CourseName != "" && !seen[s.CourseName] {
					seen[s.CourseName] = true
					names = append(names, s.CourseName)
				}
			}
		}
	}
	return names
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	if src == nil {
		return nil
	}
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

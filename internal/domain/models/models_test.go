package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSession_PeriodRange 测试节次范围解析
func TestSession_PeriodRange(t *testing.T) {
	tests := []struct {
		name      string
		slot      string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{name: "正常范围", slot: "1-3", wantStart: 1, wantEnd: 3, wantOK: true},
		{name: "带空格", slot: " 6 - 9 ", wantStart: 6, wantEnd: 9, wantOK: true},
		{name: "单节", slot: "4", wantStart: 4, wantEnd: 4, wantOK: true},
		{name: "空字符串", slot: "", wantOK: false},
		{name: "未解析占位", slot: "0-0", wantOK: false},
		{name: "倒序", slot: "5-2", wantOK: false},
		{name: "非数字", slot: "a-b", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{TimeSlot: tt.slot}
			start, end, ok := s.PeriodRange()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantStart, start)
				assert.Equal(t, tt.wantEnd, end)
			}
		})
	}
}

// TestWeekDays_JSON 测试周日程的 JSON 形式始终包含七天三时段
func TestWeekDays_JSON(t *testing.T) {
	week := NewWeekSchedule(1, "02/09/2024 - 08/09/2024")
	week.Day(Tuesday).Add(ShiftAfternoon, Session{CourseCode: "CS101-LT", TimeSlot: "6-8", PeriodCount: 3})

	encoded, err := json.Marshal(week)
	require.NoError(t, err)

	var raw struct {
		Days map[string]map[string][]Session `json:"days"`
	}
	require.NoError(t, json.Unmarshal(encoded, &raw))

	days := raw.Days
	assert.Len(t, days, 7)
	for _, name := range WeekdayNames {
		require.Contains(t, days, name)
		assert.Len(t, days[name], 3, "%s 应包含三个时段", name)
	}
	assert.Len(t, days["Tuesday"]["afternoon"], 1)

	var decoded WeekSchedule
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, week, decoded)
}

// TestWeekDays_UnmarshalMissingDays 测试缺失的星期解析为空日程
func TestWeekDays_UnmarshalMissingDays(t *testing.T) {
	var week WeekSchedule
	err := json.Unmarshal([]byte(`{"weekNumber":2,"dateRange":"","days":{"Monday":{"morning":[{"courseCode":"X"}]}}}`), &week)
	require.NoError(t, err)

	assert.Len(t, week.Days[Monday].Morning, 1)
	assert.NotNil(t, week.Days[Monday].Afternoon)
	assert.NotNil(t, week.Days[Sunday].Evening)
	assert.Equal(t, 0, week.Days[Sunday].Len())
}

// TestScheduleData_EffectiveType 测试类型覆盖优先
func TestScheduleData_EffectiveType(t *testing.T) {
	data := &ScheduleData{Overrides: map[string]CourseType{"CS101-LT": CourseTypePractice}}

	assert.Equal(t, CourseTypePractice, data.EffectiveType(&Session{CourseCode: "CS101-LT", Type: CourseTypeTheory}))
	assert.Equal(t, CourseTypeTheory, data.EffectiveType(&Session{CourseCode: "CS102", Type: CourseTypeTheory}))
	assert.Equal(t, CourseTypeTheory, data.EffectiveType(&Session{CourseCode: "CS103"}))
}

// TestScheduleData_CopyOnChange 测试写时复制不影响原对象
func TestScheduleData_CopyOnChange(t *testing.T) {
	original := &ScheduleData{
		Overrides:     map[string]CourseType{"A": CourseTypeTheory},
		Abbreviations: map[string]string{"Lập trình Web": "LTW"},
	}

	changed := original.WithOverrides(map[string]CourseType{"A": CourseTypePractice})
	changed = changed.WithAbbreviations(map[string]string{})

	assert.Equal(t, CourseTypeTheory, original.Overrides["A"])
	assert.Equal(t, "LTW", original.DisplayName("Lập trình Web"))
	assert.Equal(t, CourseTypePractice, changed.Overrides["A"])
	assert.Equal(t, "Lập trình Web", changed.DisplayName("Lập trình Web"))
}

// TestScheduleData_Clone 测试深拷贝
func TestScheduleData_Clone(t *testing.T) {
	week := NewWeekSchedule(1, "")
	week.Day(Monday).Add(ShiftMorning, Session{CourseCode: "A"})
	original := &ScheduleData{
		Weeks:      []WeekSchedule{week},
		AllCourses: []AggregatedCourse{{Code: "A", Groups: []string{"Nhóm 1"}}},
	}

	clone := original.Clone()
	clone.Weeks[0].Days[Monday].Morning[0].HasConflict = true
	clone.AllCourses[0].Groups[0] = "changed"

	assert.False(t, original.Weeks[0].Days[Monday].Morning[0].HasConflict)
	assert.Equal(t, "Nhóm 1", original.AllCourses[0].Groups[0])
}

// TestIsPlaceholder 测试占位值识别
func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(""))
	assert.True(t, IsPlaceholder("Unknown"))
	assert.True(t, IsPlaceholder("Chưa rõ"))
	assert.True(t, IsPlaceholder("unspecified"))
	assert.False(t, IsPlaceholder("A1-101"))
}

// TestParseWeekday 测试星期解析
func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("saturday")
	require.True(t, ok)
	assert.Equal(t, Saturday, d)
	assert.True(t, d.IsWeekend())

	_, ok = ParseWeekday("Someday")
	assert.False(t, ok)
}

// TestWeekdayValues_JSON 测试按星期统计的 JSON 往返
func TestWeekdayValues_JSON(t *testing.T) {
	v := WeekdayValues{1, 2, 3, 0, 0, 4, 0}

	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"Saturday":4`)

	var decoded WeekdayValues
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, v, decoded)
	assert.Equal(t, 10, decoded.Sum())
}

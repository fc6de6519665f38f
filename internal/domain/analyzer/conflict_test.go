package analyzer

import (
	"testing"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(week int, day models.Weekday, shift models.Shift, index int) SessionKey {
	return SessionKey{Week: week, Day: day, Shift: shift, Index: index}
}

// TestDetectConflicts_TeacherOverlap 同一教师节次重叠、教室不同
func TestDetectConflicts_TeacherOverlap(t *testing.T) {
	weeks := []models.WeekSchedule{newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
		at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "2-3", "B2", mainTeacher)),
	)}

	report := DetectConflicts(weeks)

	assert.True(t, report.IsFlagged(key(0, models.Monday, models.ShiftMorning, 0)))
	assert.True(t, report.IsFlagged(key(0, models.Monday, models.ShiftMorning, 1)))
	assert.Equal(t, 2, report.FlaggedCount())
	assert.Equal(t, 1, report.TotalConflicts())
	assert.Equal(t, 1, report.Pairs())
	require.Len(t, report.Conflicts, 1)
	assert.True(t, report.Conflicts[0].Teacher)
	assert.False(t, report.Conflicts[0].Room)
}

// TestDetectConflicts_RoomOverlap 同一教室节次重叠、教师不同
func TestDetectConflicts_RoomOverlap(t *testing.T) {
	weeks := []models.WeekSchedule{newWeek(1,
		at(models.Tuesday, models.ShiftAfternoon, newSession("CS101-LT", "6-8", "A1", mainTeacher)),
		at(models.Tuesday, models.ShiftAfternoon, newSession("CS201-LT", "8-9", "A1", "TS. Lê Thị Hoa")),
	)}

	report := DetectConflicts(weeks)

	require.Len(t, report.Conflicts, 1)
	assert.True(t, report.Conflicts[0].Room)
	assert.False(t, report.Conflicts[0].Teacher)
}

// TestDetectConflicts_NoConflict 不应被标记的情形
func TestDetectConflicts_NoConflict(t *testing.T) {
	tests := []struct {
		name string
		a, b placed
	}{
		{
			name: "节次不重叠",
			a:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
			b:    at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "3-4", "A1", mainTeacher)),
		},
		{
			name: "不同日期",
			a:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
			b:    at(models.Tuesday, models.ShiftMorning, newSession("CS102-LT", "1-2", "A1", mainTeacher)),
		},
		{
			name: "同一课次重复出现",
			a:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
			b:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
		},
		{
			name: "占位教师与占位教室",
			a:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", models.UnknownRoom, models.UnspecifiedTeacher)),
			b:    at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "1-2", models.UnknownRoom, models.UnspecifiedTeacher)),
		},
		{
			name: "节次未解析",
			a:    at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "", "A1", mainTeacher)),
			b:    at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "1-2", "A1", mainTeacher)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := DetectConflicts([]models.WeekSchedule{newWeek(1, tt.a, tt.b)})
			assert.Equal(t, 0, report.FlaggedCount())
			assert.Equal(t, 0, report.TotalConflicts())
			assert.Empty(t, report.Conflicts)
		})
	}
}

// TestDetectConflicts_AcrossShifts 同一天不同时段的课次也参与比较
func TestDetectConflicts_AcrossShifts(t *testing.T) {
	weeks := []models.WeekSchedule{newWeek(1,
		at(models.Friday, models.ShiftMorning, newSession("CS101-LT", "4-6", "A1", mainTeacher)),
		at(models.Friday, models.ShiftAfternoon, newSession("CS102-LT", "6-7", "B1", mainTeacher)),
	)}

	report := DetectConflicts(weeks)
	assert.True(t, report.IsFlagged(key(0, models.Friday, models.ShiftMorning, 0)))
	assert.True(t, report.IsFlagged(key(0, models.Friday, models.ShiftAfternoon, 0)))
}

// TestDetectConflicts_ThreeWay 三个课次互相冲突时，减半计数与对数不同
func TestDetectConflicts_ThreeWay(t *testing.T) {
	weeks := []models.WeekSchedule{newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-3", "A1", mainTeacher)),
		at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "1-3", "A2", mainTeacher)),
		at(models.Monday, models.ShiftMorning, newSession("CS103-LT", "2-3", "A3", mainTeacher)),
	)}

	report := DetectConflicts(weeks)
	assert.Equal(t, 3, report.FlaggedCount())
	assert.Equal(t, 2, report.TotalConflicts())
	assert.Equal(t, 3, report.Pairs())
}

// TestDetectConflicts_Symmetric 被标记的课次一定存在对端
func TestDetectConflicts_Symmetric(t *testing.T) {
	weeks := []models.WeekSchedule{
		newWeek(1,
			at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
			at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "2-4", "A1", "GV. Trần Cường")),
			at(models.Monday, models.ShiftAfternoon, newSession("CS103-TH", "6-9", "Lab", mainTeacher)),
		),
		newWeek(2,
			at(models.Sunday, models.ShiftEvening, newSession("CS104-LT", "11-13", "C1", mainTeacher)),
			at(models.Sunday, models.ShiftEvening, newSession("CS105-LT", "12-12", "C2", mainTeacher)),
		),
	}

	report := DetectConflicts(weeks)
	for _, c := range report.Conflicts {
		assert.True(t, report.IsFlagged(c.A))
		assert.True(t, report.IsFlagged(c.B))
		assert.Equal(t, c.A.Week, c.B.Week)
		assert.Equal(t, c.A.Day, c.B.Day)
	}
	assert.Equal(t, 4, report.FlaggedCount())
	assert.False(t, report.IsFlagged(key(0, models.Monday, models.ShiftAfternoon, 0)))
}

// TestConflictReport_Annotate 测试标记写入副本且不修改原日程
func TestConflictReport_Annotate(t *testing.T) {
	stale := newSession("CS109-LT", "7-8", "D1", mainTeacher)
	stale.HasConflict = true

	data := newSchedule(mainTeacher, newWeek(1,
		at(models.Monday, models.ShiftMorning, newSession("CS101-LT", "1-2", "A1", mainTeacher)),
		at(models.Monday, models.ShiftMorning, newSession("CS102-LT", "2-3", "B2", mainTeacher)),
		at(models.Monday, models.ShiftAfternoon, stale),
	))

	report := DetectConflicts(data.Weeks)
	annotated := report.Annotate(data)

	day := annotated.Weeks[0].Days[models.Monday]
	assert.True(t, day.Morning[0].HasConflict)
	assert.True(t, day.Morning[1].HasConflict)
	assert.False(t, day.Afternoon[0].HasConflict, "旧标记应被清除")

	original := data.Weeks[0].Days[models.Monday]
	assert.False(t, original.Morning[0].HasConflict)
	assert.True(t, original.Afternoon[0].HasConflict)
}

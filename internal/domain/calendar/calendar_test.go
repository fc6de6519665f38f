package calendar

import (
	"testing"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func week(number int, dateRange string) models.WeekSchedule {
	return models.NewWeekSchedule(number, dateRange)
}

// TestParseRange 测试日期范围解析
func TestParseRange(t *testing.T) {
	r, ok := ParseRange("Từ 02/09/2024 đến 08/09/2024", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 9, 8, 0, 0, 0, 0, time.UTC), r.End)
	assert.True(t, r.Contains(r.End))

	tests := []struct {
		name  string
		input string
	}{
		{name: "只有一个日期", input: "Từ 02/09/2024"},
		{name: "没有日期", input: "Tuần 1"},
		{name: "非法日期", input: "31/02/2024 - 07/03/2024"},
		{name: "空串", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseRange(tt.input, time.UTC)
			assert.False(t, ok)
		})
	}
}

// TestDayDate 测试周内日期
func TestDayDate(t *testing.T) {
	w := week(1, "Từ 26/02/2024 đến 03/03/2024")

	assert.Equal(t, "26/02/2024", DayDate(&w, models.Monday))
	assert.Equal(t, "29/02/2024", DayDate(&w, models.Thursday), "闰年")
	assert.Equal(t, "03/03/2024", DayDate(&w, models.Sunday))

	bad := week(2, "Tuần 2")
	assert.Equal(t, "", DayDate(&bad, models.Monday))
}

// TestLocateWeek 测试当前周定位
func TestLocateWeek(t *testing.T) {
	weeks := []models.WeekSchedule{
		week(1, "Từ 02/09/2024 đến 08/09/2024"),
		week(2, "Từ 09/09/2024 đến 15/09/2024"),
		week(3, "Từ 23/09/2024 đến 29/09/2024"),
	}
	at := func(y int, m time.Month, d, hour int) time.Time {
		return time.Date(y, m, d, hour, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		want Location
	}{
		{name: "学期中", now: at(2024, 9, 10, 9), want: Location{Index: 1, Position: PositionCurrent}},
		{name: "周末最后一天", now: at(2024, 9, 15, 23), want: Location{Index: 1, Position: PositionCurrent}},
		{name: "学期开始前", now: at(2024, 8, 20, 9), want: Location{Index: 0, Position: PositionFuture}},
		{name: "学期结束后", now: at(2024, 12, 1, 9), want: Location{Index: 2, Position: PositionPast}},
		{name: "周之间空档", now: at(2024, 9, 18, 9), want: Location{Index: 2, Position: PositionUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocateWeek(weeks, tt.now))
		})
	}
}

// TestLocateWeek_Degraded 测试无法定位的情形
func TestLocateWeek_Degraded(t *testing.T) {
	assert.Equal(t, Location{Index: -1, Position: PositionUnknown}, LocateWeek(nil, time.Now()))

	weeks := []models.WeekSchedule{week(1, "Tuần 1"), week(2, "Tuần 2")}
	assert.Equal(t, Location{Index: 1, Position: PositionUnknown}, LocateWeek(weeks, time.Now()))
}

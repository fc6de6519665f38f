/**
 * Package calendar 周日期计算
 *
 * 周的日期范围原文形如 "Từ 02/09/2024 đến 08/09/2024"，其中两个 dd/mm/yyyy 分别为起止日期。
 * 无法解析时一律降级为空串或未找到，不返回错误。
 */

package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

var datePattern = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)

// DateLayout 日期显示格式
const DateLayout = "02/01/2006"

/**
 * Range 一周的起止日期（均为当天零点）
 */
type Range struct {
	Start time.Time
	End   time.Time
}

/**
 * Contains 日期是否落在范围内（含两端）
 */
func (r Range) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

/**
 * ParseRange 解析日期范围，需要至少两个日期
 *
 * Parameters:
 *   - text: 日期范围原文
 *   - loc: 时区
 *
 * Returns: Range - 起止日期, bool - 是否解析成功
 */
func ParseRange(text string, loc *time.Location) (Range, bool) {
	matches := datePattern.FindAllStringSubmatch(text, -1)
	if len(matches) < 2 {
		return Range{}, false
	}
	start, ok := toDate(matches[0], loc)
	if !ok {
		return Range{}, false
	}
	end, ok := toDate(matches[1], loc)
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

/**
 * WeekStart 解析范围中的第一个日期
 */
func WeekStart(text string, loc *time.Location) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return toDate(m, loc)
}

/**
 * DayTime 某周第 day 天的日期（周起始日 + day 天）
 */
func DayTime(week *models.WeekSchedule, day models.Weekday, loc *time.Location) (time.Time, bool) {
	start, ok := WeekStart(week.DateRange, loc)
	if !ok {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, int(day)), true
}

/**
 * DayDate 某周第 day 天的 dd/mm/yyyy 字符串，无法解析时返回空串
 */
func DayDate(week *models.WeekSchedule, day models.Weekday) string {
	t, ok := DayTime(week, day, time.UTC)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

/**
 * Position 当前日期相对学期的位置
 */
type Position string

const (
	PositionPast    Position = "past"
	PositionCurrent Position = "current"
	PositionFuture  Position = "future"
	PositionUnknown Position = "unknown"
)

/**
 * Location 当前周定位结果
 */
type Location struct {
	// Index 周下标，没有任何周时为 -1
	Index    int
	Position Position
}

func (l Location) String() string {
	return fmt.Sprintf("week index %d (%s)", l.Index, l.Position)
}

/**
 * LocateWeek 定位当前周
 *
 * 今天落在某周范围内 → 该周；早于第一周 → 第一周；晚于最后一周 → 最后一周；
 * 其余情况（周之间的空档、日期无法解析）→ 最后一周，位置未知。
 *
 * Parameters:
 *   - weeks: 全部周
 *   - now: 当前时间（按其时区取日期）
 *
 * Returns: Location - 定位结果
 */
func LocateWeek(weeks []models.WeekSchedule, now time.Time) Location {
	if len(weeks) == 0 {
		return Location{Index: -1, Position: PositionUnknown}
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	for i := range weeks {
		if r, ok := ParseRange(weeks[i].DateRange, loc); ok && r.Contains(today) {
			return Location{Index: i, Position: PositionCurrent}
		}
	}

	if first, ok := WeekStart(weeks[0].DateRange, loc); ok && today.Before(first) {
		return Location{Index: 0, Position: PositionFuture}
	}

	last := len(weeks) - 1
	if r, ok := ParseRange(weeks[last].DateRange, loc); ok && today.After(r.End) {
		return Location{Index: last, Position: PositionPast}
	}
	return Location{Index: last, Position: PositionUnknown}
}

func toDate(m []string, loc *time.Location) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date 会把 31/02 规范化为 3 月，这里拒绝
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

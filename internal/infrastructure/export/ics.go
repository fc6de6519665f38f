package export

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/calendar"
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

/**
 * ICSOptions 日历导出选项
 */
type ICSOptions struct {
	// WeekIndex 周下标（从 0 开始）
	WeekIndex int

	// Teachers 只导出这些教师的课次（按规范化姓名匹配），为空表示全部
	Teachers []string
}

/**
 * WeekTeachers 某周出现过的教师（按首次出现顺序去重）
 */
func WeekTeachers(week *models.WeekSchedule) []string {
	seen := make(map[string]bool)
	teachers := make([]string, 0)
	for d := range week.Days {
		for _, s := range week.Days[d].All() {
			if !seen[s.Teacher] {
				seen[s.Teacher] = true
				teachers = append(teachers, s.Teacher)
			}
		}
	}
	return teachers
}

/**
 * WriteICS 把一周课次写为 iCalendar
 *
 * 日期无法解析的天、节次不在时间表中的课次会被跳过。
 * 标题为 "<缩写或课程名> - <班级>"，描述包含教师、班级、节次（类型）、分组、教室
 *
 * Parameters:
 *   - w: 输出
 *   - data: 日程
 *   - opts: 导出选项
 *
 * Returns: int - 写出的事件数, error - 周下标越界或写入失败
 */
func (e *Exporter) WriteICS(w io.Writer, data *models.ScheduleData, opts ICSOptions) (int, error) {
	if opts.WeekIndex < 0 || opts.WeekIndex >= len(data.Weeks) {
		return 0, fmt.Errorf("周下标越界: %d（共 %d 周）", opts.WeekIndex, len(data.Weeks))
	}
	week := &data.Weeks[opts.WeekIndex]

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(fmt.Sprintf("%s - Week %d", data.Metadata.Teacher, week.WeekNumber))
	cal.SetXWRTimezone(e.location.String())

	stamp := e.now().UTC()
	count := 0
	for d := range week.Days {
		day := models.Weekday(d)
		date, ok := calendar.DayTime(week, day, e.location)
		if !ok {
			continue
		}

		for i, s := range week.Days[d].All() {
			if !teacherSelected(s.Teacher, opts.Teachers) {
				continue
			}
			start, end, ok := e.sessionTimes(date, &s)
			if !ok {
				logger.Debug("跳过无法定位时间的课次",
					zap.String("course", s.CourseCode),
					zap.String("slot", s.TimeSlot))
				continue
			}

			uid := fmt.Sprintf("w%d-%s-%d-%s@teachload", week.WeekNumber, day, i, s.CourseCode)
			event := cal.AddEvent(uid)
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(fmt.Sprintf("%s - %s", data.DisplayName(s.CourseName), s.ClassName))
			event.SetLocation(s.Room)
			event.SetDescription(fmt.Sprintf("GV: %s / Lớp: %s / Tiết: %s (%s) / Nhóm: %s / Phòng: %s",
				s.Teacher, s.ClassName, s.TimeSlot, data.EffectiveType(&s), s.Group, s.Room))
			count++
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("写入日历失败: %w", err)
	}

	logger.Info("日历导出完成",
		zap.Int("week", week.WeekNumber),
		zap.Int("events", count))
	return count, nil
}

// sessionTimes 课次的起止时刻，节次未解析或不在时间表中时 ok=false
func (e *Exporter) sessionTimes(date time.Time, s *models.Session) (time.Time, time.Time, bool) {
	first, last, ok := s.PeriodRange()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	startSpan, ok := e.periods[first]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	endSpan, ok := e.periods[last]
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	at := func(c clock) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), c.hour, c.minute, 0, 0, e.location)
	}
	return at(startSpan.start), at(endSpan.end), true
}

func teacherSelected(teacher string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	placeholder := models.IsPlaceholder(teacher)
	for _, name := range selected {
		if teacher == name {
			return true
		}
		// 空白或占位教师与任何姓名都能子串匹配，不参与模糊比较
		if !placeholder && analyzer.NamesMatch(teacher, name) {
			return true
		}
	}
	return false
}

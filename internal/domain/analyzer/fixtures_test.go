package analyzer

import (
	"strings"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

const mainTeacher = "ThS. Nguyễn Văn An"

// newSession 构造测试课次，节数由节次范围推导
func newSession(code, slot, room, teacher string) models.Session {
	s := models.Session{
		CourseCode: code,
		CourseName: "Course " + strings.Split(code, "-")[0],
		Group:      "Nhóm 1",
		ClassName:  "K65",
		TimeSlot:   slot,
		Room:       room,
		Teacher:    teacher,
		Type:       models.CourseTypeTheory,
	}
	if strings.Contains(code, "-TH") {
		s.Type = models.CourseTypePractice
	}
	if start, end, ok := s.PeriodRange(); ok {
		s.PeriodCount = end - start + 1
	}
	return s
}

// placed 课次及其在周内的位置
type placed struct {
	day     models.Weekday
	shift   models.Shift
	session models.Session
}

func at(day models.Weekday, shift models.Shift, s models.Session) placed {
	return placed{day: day, shift: shift, session: s}
}

func newWeek(number int, sessions ...placed) models.WeekSchedule {
	week := models.NewWeekSchedule(number, "")
	for _, p := range sessions {
		p.session.DayOfWeek = p.day.String()
		p.session.SessionTime = p.shift
		week.Day(p.day).Add(p.shift, p.session)
	}
	return week
}

func newSchedule(teacher string, weeks ...models.WeekSchedule) *models.ScheduleData {
	if weeks == nil {
		weeks = []models.WeekSchedule{}
	}
	return &models.ScheduleData{
		Metadata:   models.Metadata{Teacher: teacher, Semester: "1", AcademicYear: "2024-2025"},
		Weeks:      weeks,
		AllCourses: AggregateCourses(weeks),
	}
}

package analyzer

import (
	"sort"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

/**
 * AggregateCourses 按课程代码汇总全部课次
 *
 * 首次出现的代码创建条目，之后累加节数与课次数；分组、班级、类型去重且忽略空值。
 * 结果按代码排序，去重列表按字典序排序，因此与遍历顺序无关。
 * 同一代码对应多个课程名时保留首次出现的名称。
 *
 * Parameters:
 *   - weeks: 全部周日程
 *
 * Returns: []models.AggregatedCourse - 课程汇总（永不为 nil）
 */
func AggregateCourses(weeks []models.WeekSchedule) []models.AggregatedCourse {
	byCode := make(map[string]*models.AggregatedCourse)

	for wi := range weeks {
		for di := range weeks[wi].Days {
			for _, s := range weeks[wi].Days[di].All() {
				course, ok := byCode[s.CourseCode]
				if !ok {
					course = &models.AggregatedCourse{
						Code:    s.CourseCode,
						Name:    s.CourseName,
						Groups:  []string{},
						Classes: []string{},
						Types:   []models.CourseType{},
					}
					byCode[s.CourseCode] = course
				}

				course.TotalPeriods += s.PeriodCount
				course.TotalSessions++
				course.Groups = appendUnique(course.Groups, s.Group)
				course.Classes = appendUnique(course.Classes, s.ClassName)
				course.Types = appendUnique(course.Types, s.Type)
			}
		}
	}

	courses := make([]models.AggregatedCourse, 0, len(byCode))
	for _, c := range byCode {
		sort.Strings(c.Groups)
		sort.Strings(c.Classes)
		sort.Slice(c.Types, func(i, j int) bool { return c.Types[i] < c.Types[j] })
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })

	return courses
}

func appendUnique[T comparable](list []T, value T) []T {
	var zero T
	if value == zero {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

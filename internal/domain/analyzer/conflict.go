package analyzer

import (
	"strings"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

/**
 * SessionKey 课次在日程中的位置
 *
 * Week 为 ScheduleData.Weeks 的下标（从 0 开始），Index 为时段桶内的下标
 */
type SessionKey struct {
	Week  int
	Day   models.Weekday
	Shift models.Shift
	Index int
}

/**
 * Conflict 一对冲突课次
 */
type Conflict struct {
	A, B SessionKey

	// Teacher 同一教师时间重叠
	Teacher bool

	// Room 同一教室时间重叠
	Room bool
}

/**
 * ConflictReport 冲突检测结果
 *
 * 检测器不修改输入，被标记的课次通过 SessionKey 集合返回
 */
type ConflictReport struct {
	flagged   map[SessionKey]bool
	Conflicts []Conflict
}

/**
 * IsFlagged 课次是否参与至少一个冲突
 */
func (r *ConflictReport) IsFlagged(key SessionKey) bool {
	return r.flagged[key]
}

/**
 * FlaggedCount 被标记的课次数
 */
func (r *ConflictReport) FlaggedCount() int {
	return len(r.flagged)
}

/**
 * TotalConflicts 被标记课次数的一半（四舍五入）
 *
 * 每个冲突对称地标记两个课次；三个以上课次互相重叠时与 Pairs 不一致
 */
func (r *ConflictReport) TotalConflicts() int {
	return (len(r.flagged) + 1) / 2
}

/**
 * Pairs 冲突课次对数
 */
func (r *ConflictReport) Pairs() int {
	return len(r.Conflicts)
}

/**
 * Annotate 返回写入了冲突标记的日程副本
 *
 * 原日程保持不变，副本中所有旧标记先被清除
 */
func (r *ConflictReport) Annotate(data *models.ScheduleData) *models.ScheduleData {
	out := data.Clone()
	for wi := range out.Weeks {
		for di := range out.Weeks[wi].Days {
			day := &out.Weeks[wi].Days[di]
			for _, shift := range models.Shifts {
				bucket := *day.Bucket(shift)
				for si := range bucket {
					key := SessionKey{Week: wi, Day: models.Weekday(di), Shift: shift, Index: si}
					bucket[si].HasConflict = r.flagged[key]
				}
			}
		}
	}
	return out
}

type placedSession struct {
	key        SessionKey
	session    *models.Session
	start, end int
}

/**
 * DetectConflicts 检测全部周内每一天的教师冲突与教室冲突
 *
 * 每天独立计算：同一天所有时段的课次两两比较，节次闭区间重叠时
 *   - 同一教师且不是同一课次（教室、代码、分组任一不同）→ 教师冲突
 *   - 同一教室且代码、分组、教师任一不同 → 教室冲突
 * 占位教师与占位教室不参与比较，节次无法解析的课次被跳过。
 *
 * Parameters:
 *   - weeks: 全部周日程
 *
 * Returns: *ConflictReport - 检测结果
 */
func DetectConflicts(weeks []models.WeekSchedule) *ConflictReport {
	report := &ConflictReport{
		flagged:   make(map[SessionKey]bool),
		Conflicts: []Conflict{},
	}

	for wi := range weeks {
		for di := range weeks[wi].Days {
			placed := placeDay(wi, models.Weekday(di), &weeks[wi].Days[di])

			for i := 0; i < len(placed); i++ {
				for j := i + 1; j < len(placed); j++ {
					a, b := placed[i], placed[j]
					if max(a.start, b.start) > min(a.end, b.end) {
						continue
					}

					teacher := teacherConflict(a.session, b.session)
					room := roomConflict(a.session, b.session)
					if !teacher && !room {
						continue
					}

					report.flagged[a.key] = true
					report.flagged[b.key] = true
					report.Conflicts = append(report.Conflicts, Conflict{
						A: a.key, B: b.key, Teacher: teacher, Room: room,
					})
				}
			}
		}
	}

	return report
}

func placeDay(week int, day models.Weekday, schedule *models.DaySchedule) []placedSession {
	placed := make([]placedSession, 0, schedule.Len())
	for _, shift := range models.Shifts {
		bucket := *schedule.Bucket(shift)
		for si := range bucket {
			start, end, ok := bucket[si].PeriodRange()
			if !ok {
				continue
			}
			placed = append(placed, placedSession{
				key:     SessionKey{Week: week, Day: day, Shift: shift, Index: si},
				session: &bucket[si],
				start:   start,
				end:     end,
			})
		}
	}
	return placed
}

func teacherConflict(a, b *models.Session) bool {
	ta, tb := strings.TrimSpace(a.Teacher), strings.TrimSpace(b.Teacher)
	if ta != tb || models.IsPlaceholder(ta) {
		return false
	}
	return a.Room != b.Room || a.CourseCode != b.CourseCode || a.Group != b.Group
}

func roomConflict(a, b *models.Session) bool {
	ra, rb := strings.TrimSpace(a.Room), strings.TrimSpace(b.Room)
	if ra != rb || models.IsPlaceholder(ra) {
		return false
	}
	return a.CourseCode != b.CourseCode || a.Group != b.Group || a.Teacher != b.Teacher
}

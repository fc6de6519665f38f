/**
 * Package report 终端报告渲染
 *
 * 把统计快照、冲突列表与周视图渲染为终端文本，只读取输入不做计算
 */

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/calendar"
	"github.com/chenyang-zz/teachload/internal/domain/models"
)

/**
 * Renderer 报告渲染器
 */
type Renderer struct {
	st styles
}

/**
 * NewRenderer 创建渲染器
 *
 * Parameters:
 *   - w: 最终输出目标，用于探测终端颜色能力
 */
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{st: newStyles(lipgloss.NewRenderer(w))}
}

/**
 * Summary 渲染工作量概览
 *
 * Parameters:
 *   - data: 日程（用于元数据与缩写）
 *   - m: 统计快照
 */
func (r *Renderer) Summary(data *models.ScheduleData, m *models.Metrics) string {
	meta := data.Metadata
	title := r.st.title.Render(fmt.Sprintf("%s · HK %s · %s", meta.Teacher, meta.Semester, meta.AcademicYear))

	totals := r.pane(
		r.kv("Weeks", strconv.Itoa(m.TotalWeeks)),
		r.kv("Sessions", strconv.Itoa(m.TotalSessions)),
		r.kv("Periods", strconv.Itoa(m.TotalHours)),
		r.kv("Subjects", strconv.Itoa(m.TotalCourses)),
		r.kv("Groups", strconv.Itoa(m.TotalGroups)),
		r.kv("Rooms", strconv.Itoa(m.TotalRooms)),
	)

	load := r.pane(
		r.kv("Busiest day", fmt.Sprintf("%s (%d)", m.BusiestDay.Day, m.BusiestDay.Hours)),
		r.kv("Busiest week", fmt.Sprintf("#%d (%d)", m.BusiestWeek.Week, m.BusiestWeek.Hours)),
		r.kv("Theory / Practice", fmt.Sprintf("%d / %d", m.TypeDistribution.Theory, m.TypeDistribution.Practice)),
		r.kv("Peak shift", string(analyzer.PeakShift(m.ShiftStats))),
		r.kv("Conflicts", r.conflictCount(m.TotalConflicts)),
	)

	sections := []string{title, lipgloss.JoinHorizontal(lipgloss.Top, totals, load)}

	if len(m.SubjectDistribution) > 0 {
		rows := make([][]string, 0, len(m.SubjectDistribution))
		for _, s := range m.SubjectDistribution {
			rows = append(rows, []string{data.DisplayName(s.Name), strconv.Itoa(s.Periods)})
		}
		sections = append(sections, r.table([]string{"Subject", "Periods"}, rows))
	}

	if len(m.TopRooms) > 0 {
		rows := make([][]string, 0, len(m.TopRooms))
		for _, room := range m.TopRooms {
			rows = append(rows, []string{room.Room, strconv.Itoa(room.Periods)})
		}
		sections = append(sections, r.table([]string{"Room", "Periods"}, rows))
	}

	if len(m.CoTeachers) > 0 {
		rows := make([][]string, 0, len(m.CoTeachers))
		for _, co := range m.CoTeachers {
			rows = append(rows, []string{co.Name, strconv.Itoa(co.Periods), strings.Join(co.Subjects, ", ")})
		}
		sections = append(sections, r.table([]string{"Co-teacher", "Periods", "Subjects"}, rows))
	}

	for _, w := range m.Warnings {
		sections = append(sections, r.st.warning.Render("! "+w))
	}
	for _, c := range m.Conclusions {
		sections = append(sections, r.st.muted.Render("• "+c))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

/**
 * Conflicts 渲染冲突课次对
 *
 * Parameters:
 *   - data: 检测时使用的日程
 *   - report: 冲突检测结果
 */
func (r *Renderer) Conflicts(data *models.ScheduleData, report *analyzer.ConflictReport) string {
	if report == nil || len(report.Conflicts) == 0 {
		return r.st.good.Render("No conflicts")
	}

	rows := make([][]string, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		a, okA := lookup(data, c.A)
		b, okB := lookup(data, c.B)
		if !okA || !okB {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(data.Weeks[c.A.Week].WeekNumber),
			c.A.Day.String(),
			conflictKind(c),
			describe(data, a),
			describe(data, b),
		})
	}

	heading := r.st.danger.Render(fmt.Sprintf("%d conflicting pairs, %d sessions flagged",
		report.Pairs(), report.FlaggedCount()))
	return lipgloss.JoinVertical(lipgloss.Left,
		heading,
		r.table([]string{"Week", "Day", "Kind", "Session", "Clashes with"}, rows),
	)
}

/**
 * Week 渲染一周的课表
 *
 * 列为星期（附日期与负荷等级），行为三个时段；冲突课次以 ! 开头
 *
 * Parameters:
 *   - data: 带冲突标记的日程
 *   - loc: 当前周定位结果，Index 为要渲染的周
 *   - levels: 该周七天的负荷等级
 */
func (r *Renderer) Week(data *models.ScheduleData, loc calendar.Location, levels [models.DaysPerWeek]analyzer.LoadLevel) string {
	if loc.Index < 0 || loc.Index >= len(data.Weeks) {
		return r.st.muted.Render("No week to show")
	}
	week := &data.Weeks[loc.Index]

	headers := make([]string, 0, models.DaysPerWeek+1)
	headers = append(headers, "")
	for d := 0; d < models.DaysPerWeek; d++ {
		day := models.Weekday(d)
		header := day.String()
		if date := calendar.DayDate(week, day); date != "" {
			header += "\n" + date
		}
		headers = append(headers, r.level(levels[d]).Render(header))
	}

	rows := make([][]string, 0, len(models.Shifts))
	for _, shift := range models.Shifts {
		row := make([]string, 0, models.DaysPerWeek+1)
		row = append(row, string(shift))
		for d := range week.Days {
			var cell []string
			for _, s := range *week.Days[d].Bucket(shift) {
				line := data.DisplayName(s.CourseName) + " " + s.TimeSlot
				if s.Room != "" {
					line += " @" + s.Room
				}
				if s.HasConflict {
					line = "! " + line
				}
				cell = append(cell, line)
			}
			row = append(row, strings.Join(cell, "\n"))
		}
		rows = append(rows, row)
	}

	title := r.st.title.Render(fmt.Sprintf("Week %d  %s", week.WeekNumber, week.DateRange))
	status := r.st.muted.Render(string(loc.Position))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status),
		r.table(headers, rows),
	)
}

/**
 * History 渲染历史记录列表
 */
func (r *Renderer) History(items []*models.HistoryItem) string {
	if len(items) == 0 {
		return r.st.muted.Render("No history")
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Teacher,
			item.Preview,
			item.SavedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return r.table([]string{"ID", "Teacher", "Semester", "Saved"}, rows)
}

func (r *Renderer) kv(label, value string) string {
	return r.st.label.Render(label+": ") + r.st.value.Render(value)
}

func (r *Renderer) pane(lines ...string) string {
	return r.st.pane.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *Renderer) conflictCount(n int) string {
	if n == 0 {
		return r.st.good.Render("0")
	}
	return r.st.danger.Render(strconv.Itoa(n))
}

func (r *Renderer) level(l analyzer.LoadLevel) lipgloss.Style {
	switch l {
	case analyzer.LoadDanger:
		return r.st.danger
	case analyzer.LoadWarning:
		return r.st.warning
	default:
		return r.st.header
	}
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.st.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.st.header
			}
			return r.st.cell
		})
	return t.Render()
}

func lookup(data *models.ScheduleData, key analyzer.SessionKey) (*models.Session, bool) {
	if key.Week < 0 || key.Week >= len(data.Weeks) {
		return nil, false
	}
	bucket := data.Weeks[key.Week].Days[key.Day].Bucket(key.Shift)
	if bucket == nil || key.Index < 0 || key.Index >= len(*bucket) {
		return nil, false
	}
	return &(*bucket)[key.Index], true
}

func describe(data *models.ScheduleData, s *models.Session) string {
	return fmt.Sprintf("%s %s (%s) %s", s.CourseCode, data.DisplayName(s.CourseName), s.TimeSlot, s.Room)
}

func conflictKind(c analyzer.Conflict) string {
	switch {
	case c.Teacher && c.Room:
		return "teacher+room"
	case c.Teacher:
		return "teacher"
	default:
		return "room"
	}
}

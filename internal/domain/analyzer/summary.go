package analyzer

import (
	"fmt"
	"math"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

// 结论文案
const (
	ConclusionFrontLoaded = "Workload concentrated in the first half of the term"
	ConclusionBackLoaded  = "Workload concentrated in the second half of the term"
	ConclusionBalanced    = "Workload evenly distributed across the term"
	ConclusionInefficient = "Single-period and weekend sessions could be optimized"
)

var shiftLabels = map[models.Shift]string{
	models.ShiftMorning:   "Morning",
	models.ShiftAfternoon: "Afternoon",
	models.ShiftEvening:   "Evening",
}

/**
 * buildWarnings 将预警计数折叠为可读的摘要
 *
 * 计数为 0 的类别不输出
 */
func buildWarnings(m *models.Metrics, overloadBoundary int) []string {
	warnings := []string{}
	wc := m.WarningCounts

	if wc.OverloadWeeks > 0 {
		warnings = append(warnings, fmt.Sprintf("%d/%d weeks exceed %d periods (overload)",
			wc.OverloadWeeks, m.TotalWeeks, overloadBoundary))
	}
	if wc.Evening > 0 {
		warnings = append(warnings, fmt.Sprintf("%d evening sessions", wc.Evening))
	}
	if wc.Weekend > 0 {
		warnings = append(warnings, fmt.Sprintf("%d weekend sessions (Sat, Sun)", wc.Weekend))
	}
	if wc.SinglePeriod > 0 {
		warnings = append(warnings, fmt.Sprintf("%d single-period sessions (low efficiency)", wc.SinglePeriod))
	}
	if m.TotalConflicts > 0 {
		warnings = append(warnings, fmt.Sprintf("%d schedule/room conflicts requiring review", m.TotalConflicts))
	}
	return warnings
}

/**
 * buildConclusions 按阈值规则生成定性结论
 *
 *   1. 前半学期（周序号 ≤ 总周数/2）占比 > 60% 为前重，< 40% 为后重
 *   2. 理论/实践占比较高者
 *   3. 节数最多的时段与最忙的星期
 *   4. 存在单节或周末课次时提示可优化
 */
func buildConclusions(m *models.Metrics) []string {
	conclusions := make([]string, 0, 4)

	firstHalf := 0
	for _, wh := range m.HoursByWeek {
		if 2*wh.Week <= m.TotalWeeks {
			firstHalf += wh.Hours
		}
	}
	total := float64(m.TotalHours)
	switch {
	case float64(firstHalf) > total*0.6:
		conclusions = append(conclusions, ConclusionFrontLoaded)
	case float64(firstHalf) < total*0.4:
		conclusions = append(conclusions, ConclusionBackLoaded)
	default:
		conclusions = append(conclusions, ConclusionBalanced)
	}

	td := m.TypeDistribution
	if td.Practice > td.Theory {
		conclusions = append(conclusions, fmt.Sprintf("Practice dominates (%d%%)", percent(td.Practice, m.TotalHours)))
	} else {
		conclusions = append(conclusions, fmt.Sprintf("Theory dominates (%d%%)", percent(td.Theory, m.TotalHours)))
	}

	conclusions = append(conclusions, fmt.Sprintf("%s and %s are peak times",
		shiftLabels[PeakShift(m.ShiftStats)], m.BusiestDay.Day))

	if m.WarningCounts.SinglePeriod > 0 || m.WarningCounts.Weekend > 0 {
		conclusions = append(conclusions, ConclusionInefficient)
	}

	return conclusions
}

/**
 * PeakShift 节数最多的时段，平局时靠前的时段胜出
 */
func PeakShift(stats models.ShiftStats) models.Shift {
	peak := models.ShiftMorning
	for _, shift := range models.Shifts[1:] {
		if stats.At(shift).Hours > stats.At(peak).Hours {
			peak = shift
		}
	}
	return peak
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

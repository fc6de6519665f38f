package analyzer

import (
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
)

/**
 * LoadLevel 负荷等级
 */
type LoadLevel string

const (
	LoadNormal  LoadLevel = "normal"
	LoadWarning LoadLevel = "warning"
	LoadDanger  LoadLevel = "danger"
)

/**
 * ClassifyLoad 按阈值判定负荷等级
 *
 * 超过危险阈值为 danger，超过预警阈值为 warning（均为严格大于）
 */
func ClassifyLoad(periods int, threshold config.LevelThreshold) LoadLevel {
	switch {
	case periods > threshold.Danger:
		return LoadDanger
	case periods > threshold.Warning:
		return LoadWarning
	default:
		return LoadNormal
	}
}

/**
 * DayLoadLevels 返回某周七天的负荷等级（仅统计主讲教师课次）
 */
func (a *Analyzer) DayLoadLevels(data *models.ScheduleData, weekIndex int) [models.DaysPerWeek]LoadLevel {
	var levels [models.DaysPerWeek]LoadLevel
	for i := range levels {
		levels[i] = LoadNormal
	}
	if weekIndex < 0 || weekIndex >= len(data.Weeks) {
		return levels
	}

	matcher := NewTeacherMatcher(data.Metadata.Teacher)
	week := &data.Weeks[weekIndex]
	for di := range week.Days {
		total := 0
		for _, s := range week.Days[di].All() {
			if matcher.IsMain(s.Teacher) {
				total += s.PeriodCount
			}
		}
		levels[di] = ClassifyLoad(total, a.config.Daily)
	}
	return levels
}

/**
 * WeekLoadLevel 按周阈值判定某周总节数的等级
 */
func (a *Analyzer) WeekLoadLevel(periods int) LoadLevel {
	return ClassifyLoad(periods, a.config.Weekly)
}

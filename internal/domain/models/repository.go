package models

import "time"

/**
 * HistoryItem 历史记录条目
 *
 * 同一教师、学期、学年只保留一条，重复保存时移到最前
 */
type HistoryItem struct {
	// ID 记录唯一标识
	ID string `json:"id"`

	Teacher      string `json:"teacher"`
	Semester     string `json:"semester"`
	AcademicYear string `json:"academicYear"`

	// SavedAt 保存时间
	SavedAt time.Time `json:"savedAt"`

	// Preview 展示用摘要，如 "1 - 2024-2025"
	Preview string `json:"preview"`

	// Data 完整日程快照
	Data *ScheduleData `json:"data,omitempty"`
}

/**
 * HistoryRepository 历史记录仓储接口
 */
type HistoryRepository interface {
	// Save 保存日程快照，返回新条目
	Save(data *ScheduleData) (*HistoryItem, error)

	// List 按最近优先返回全部条目（不含 Data）
	List() ([]*HistoryItem, error)

	// FindByID 根据ID查询条目（含 Data）
	FindByID(id string) (*HistoryItem, error)

	// Delete 删除条目
	Delete(id string) error

	// Clear 清空历史
	Clear() error
}

// 设置存储中使用的键
const (
	SettingOverrides     = "overrides"
	SettingAbbreviations = "abbreviations"
	SettingThresholds    = "thresholds"
	SettingLastSchedule  = "last_schedule"
)

/**
 * SettingsRepository 键值设置仓储接口
 *
 * 值以 JSON 形式保存
 */
type SettingsRepository interface {
	// Get 读取键值到 dest，键不存在时返回 found=false
	Get(key string, dest interface{}) (found bool, err error)

	// Set 写入键值
	Set(key string, value interface{}) error

	// Delete 删除键
	Delete(key string) error
}

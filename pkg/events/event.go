/**
 * Package events 提供流水线事件
 *
 * 日程加载、指标计算、历史保存等阶段完成后发布事件，
 * CLI 与服务层通过订阅获得进度与错误通知
 */

package events

import (
	"time"

	"github.com/google/uuid"
)

/**
 * EventType 事件类型
 */
type EventType string

const (
	// 流水线事件
	EventTypeScheduleLoaded  EventType = "schedule_loaded"  // 日程抽取完成
	EventTypeMetricsComputed EventType = "metrics_computed" // 指标计算完成
	EventTypeHistorySaved    EventType = "history_saved"    // 历史快照已保存
	EventTypeSettingsChanged EventType = "settings_changed" // 覆盖/缩写等设置变更
	EventTypeExported        EventType = "exported"         // 导出完成

	// 系统事件
	EventTypeError EventType = "error"

	// Wildcard 订阅全部事件
	Wildcard EventType = "*"
)

/**
 * Event 统一事件结构
 */
type Event struct {
	// ID 事件唯一标识符
	ID string `json:"id"`

	// Type 事件类型
	Type EventType `json:"type"`

	// Timestamp 事件发生时间
	Timestamp time.Time `json:"timestamp"`

	// Data 事件数据
	Data map[string]interface{} `json:"data"`

	// Metadata 事件元数据
	Metadata map[string]string `json:"metadata,omitempty"`
}

/**
 * NewEvent 创建新事件
 *
 * Parameters:
 *   - eventType: 事件类型
 *   - data: 事件数据
 *
 * Returns: *Event - 新创建的事件
 */
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Metadata:  make(map[string]string),
	}
}

/**
 * NewErrorEvent 创建错误事件
 *
 * Parameters:
 *   - stage: 出错的阶段，如 "extract"、"export"
 *   - err: 错误
 */
func NewErrorEvent(stage string, err error) *Event {
	return NewEvent(EventTypeError, map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

/**
 * WithMetadata 添加元数据，支持链式调用
 */
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// String 返回 Data 中的字符串字段，不存在或类型不符时为空串
func (e Event) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// Int 返回 Data 中的整数字段
func (e Event) Int(key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool 返回 Data 中的布尔字段
func (e Event) Bool(key string) bool {
	b, _ := e.Data[key].(bool)
	return b
}

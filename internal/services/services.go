// Package services 提供业务流程编排
//
// Service 层负责协调多个领域模块，实现应用级用例。
// 它不包含核心业务逻辑（在 Domain 层），而是编排和协调。
//
// 职责：
//   - 串联抽取、分析、持久化三个阶段
//   - 维护当前日程与用户设置（类型覆盖、缩写、阈值）
//   - 设置变化时整体重新计算
//   - 通过事件总线发布阶段结果
package services

import "errors"

// ErrNoSchedule 尚未加载任何日程
var ErrNoSchedule = errors.New("尚未加载日程")

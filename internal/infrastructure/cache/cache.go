/**
 * Package cache 提供进程内缓存
 *
 * 用于按日程指纹缓存分析结果：同一份日程（含类型覆盖）重复分析时直接复用
 */

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

/**
 * Cache 缓存接口
 */
type Cache[V any] interface {
	// Get 获取缓存值
	Get(key string) (V, bool)

	// Set 设置缓存值，ttl 为 0 时使用缓存的默认 TTL
	Set(key string, value V, ttl time.Duration) error

	// Delete 删除缓存
	Delete(key string) error

	// Clear 清空所有缓存
	Clear() error

	// Len 当前缓存项数量（含尚未清理的过期项）
	Len() int

	// Stop 停止缓存（清理资源）
	Stop()
}

/**
 * Stats 缓存统计信息
 */
type Stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
}

/**
 * StatsSnapshot 统计快照
 */
type StatsSnapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

// HitRate 命中率（0-1），没有访问时为 0
func (s StatsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s *Stats) recordHit()      { s.hits.Add(1) }
func (s *Stats) recordMiss()     { s.misses.Add(1) }
func (s *Stats) recordSet()      { s.sets.Add(1) }
func (s *Stats) recordEviction() { s.evictions.Add(1) }

/**
 * Snapshot 获取统计信息快照
 */
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Sets:      s.sets.Load(),
		Evictions: s.evictions.Load(),
	}
}

/**
 * Fingerprint 计算值的 JSON 序列化 SHA-256 指纹
 *
 * map 键在 encoding/json 中有序输出，相同内容得到相同指纹
 *
 * Parameters:
 *   - v: 任意可序列化值
 *
 * Returns: string - 十六进制指纹, error - 序列化失败
 */
func Fingerprint(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("计算指纹失败: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

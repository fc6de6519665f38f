package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

// ErrStopped 缓存已停止
var ErrStopped = errors.New("缓存已停止")

type entry[V any] struct {
	key        string
	value      V
	expiration time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

/**
 * Options 内存缓存配置
 */
type Options struct {
	// MaxSize 最大缓存项数（0 表示无限制）
	MaxSize int

	// TTL 默认过期时间（0 表示永不过期）
	TTL time.Duration

	// CleanupInterval 定期清理间隔（0 表示不定期清理）
	CleanupInterval time.Duration
}

/**
 * MemoryCache 内存缓存实现
 *
 * 并发安全；超出 MaxSize 时淘汰最久未使用的项；过期项在访问或定期清理时删除
 */
type MemoryCache[V any] struct {
	opts Options

	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // 最近使用的在前
	stopped bool

	stats *Stats
	now   func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

/**
 * NewMemoryCache 创建内存缓存
 *
 * Parameters:
 *   - opts: 缓存配置
 *
 * Returns: *MemoryCache - 内存缓存实例
 */
func NewMemoryCache[V any](opts Options) *MemoryCache[V] {
	ctx, cancel := context.WithCancel(context.Background())

	c := &MemoryCache[V]{
		opts:   opts,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		stats:  &Stats{},
		now:    time.Now,
		cancel: cancel,
	}

	if opts.CleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop(ctx)
	}

	logger.Debug("内存缓存已启动",
		zap.Int("max_size", opts.MaxSize),
		zap.Duration("ttl", opts.TTL),
		zap.Duration("cleanup_interval", opts.CleanupInterval))
	return c
}

/**
 * Set 设置缓存值
 *
 * Parameters:
 *   - key: 缓存键
 *   - value: 缓存值
 *   - ttl: 过期时间（0 表示使用默认 TTL）
 *
 * Returns: error - 缓存已停止时返回 ErrStopped
 */
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.opts.TTL
	}
	var expiration time.Time
	if ttl > 0 {
		expiration = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiration = expiration
		c.order.MoveToFront(el)
	} else {
		c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiration: expiration})
		if c.opts.MaxSize > 0 {
			for c.order.Len() > c.opts.MaxSize {
				c.removeElement(c.order.Back())
				c.stats.recordEviction()
			}
		}
	}

	c.stats.recordSet()
	return nil
}

/**
 * Get 获取缓存值
 *
 * Returns: V - 缓存值, bool - 是否找到
 */
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return zero, false
	}

	el, ok := c.items[key]
	if !ok {
		c.stats.recordMiss()
		return zero, false
	}

	e := el.Value.(*entry[V])
	if e.expired(c.now()) {
		c.removeElement(el)
		c.stats.recordMiss()
		c.stats.recordEviction()
		return zero, false
	}

	c.order.MoveToFront(el)
	c.stats.recordHit()
	return e.value, true
}

/**
 * GetOrCompute 命中时返回缓存值，否则调用 compute 并缓存结果
 *
 * compute 在锁外执行；返回错误时不缓存
 *
 * Returns: V - 值, bool - 是否命中, error - compute 的错误
 */
func (c *MemoryCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		return v, false, err
	}
	if err := c.Set(key, v, 0); err != nil && !errors.Is(err, ErrStopped) {
		return v, false, err
	}
	return v, false, nil
}

// Delete 删除缓存
func (c *MemoryCache[V]) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	return nil
}

// Clear 清空所有缓存
func (c *MemoryCache[V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Len 当前缓存项数量
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats 缓存统计
func (c *MemoryCache[V]) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

func (c *MemoryCache[V]) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.items, e.key)
}

func (c *MemoryCache[V]) cleanupLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-ctx.Done():
			return
		}
	}
}

/**
 * cleanup 清理过期缓存
 */
func (c *MemoryCache[V]) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	deleted := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry[V]).expired(now) {
			c.removeElement(el)
			c.stats.recordEviction()
			deleted++
		}
		el = next
	}

	if deleted > 0 {
		logger.Debug("清理过期缓存",
			zap.Int("count", deleted),
			zap.Int("remaining", c.order.Len()))
	}
	return deleted
}

/**
 * Stop 停止清理循环并清空缓存，可重复调用
 */
func (c *MemoryCache[V]) Stop() {
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.items = make(map[string]*list.Element)
	c.order.Init()

	stats := c.stats.Snapshot()
	logger.Debug("内存缓存已停止", zap.Float64("hit_rate", stats.HitRate()))
}

var _ Cache[int] = (*MemoryCache[int])(nil)

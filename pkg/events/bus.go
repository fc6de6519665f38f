package events

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chenyang-zz/teachload/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusStopped 事件总线已停止
var ErrBusStopped = errors.New("event bus is stopped")

/**
 * EventHandler 事件处理函数类型
 */
type EventHandler func(event Event) error

/**
 * Middleware 包装事件处理函数
 */
type Middleware func(EventHandler) EventHandler

type subscriber struct {
	id      string
	handler EventHandler
}

/**
 * EventBus 事件总线
 *
 * Publish 在调用方 goroutine 中依次执行处理函数并汇总错误
 */
type EventBus struct {
	subscribers map[EventType][]*subscriber
	mutex       sync.RWMutex

	middleware []Middleware
	mwMutex    sync.RWMutex

	stopped atomic.Bool
}

/**
 * NewEventBus 创建事件总线
 */
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]*subscriber),
	}
}

/**
 * Subscribe 订阅事件
 *
 * Parameters:
 *   - eventType: 事件类型，Wildcard 订阅所有事件
 *   - handler: 事件处理函数
 *
 * Returns: string - 订阅者 ID，用于取消订阅
 */
func (bus *EventBus) Subscribe(eventType EventType, handler EventHandler) string {
	sub := &subscriber{
		id:      "sub-" + uuid.New().String(),
		handler: handler,
	}

	bus.mutex.Lock()
	bus.subscribers[eventType] = append(bus.subscribers[eventType], sub)
	bus.mutex.Unlock()

	logger.Debug("订阅事件",
		zap.String("event_type", string(eventType)),
		zap.String("subscriber_id", sub.id),
	)
	return sub.id
}

/**
 * Unsubscribe 取消订阅
 *
 * Returns: bool - 订阅者是否存在
 */
func (bus *EventBus) Unsubscribe(subscriberID string) bool {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	for eventType, subs := range bus.subscribers {
		for i, sub := range subs {
			if sub.id != subscriberID {
				continue
			}
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Publish 发布事件
 *
 * Parameters:
 *   - event: 事件对象，Type 决定投递给哪些订阅者
 *
 * Returns: error - 总线已停止时为 ErrBusStopped，否则包含所有处理函数的错误
 */
func (bus *EventBus) Publish(event Event) error {
	if bus.stopped.Load() {
		return ErrBusStopped
	}

	bus.mutex.RLock()
	subs := make([]*subscriber, 0, len(bus.subscribers[event.Type])+len(bus.subscribers[Wildcard]))
	subs = append(subs, bus.subscribers[event.Type]...)
	if event.Type != Wildcard {
		subs = append(subs, bus.subscribers[Wildcard]...)
	}
	bus.mutex.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := bus.wrap(sub.handler)(event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.id, err))
		}
	}

	logger.Debug("事件已发布",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.Int("subscriber_count", len(subs)),
	)
	return errors.Join(errs...)
}

/**
 * Use 添加中间件，按添加顺序由外向内执行
 */
func (bus *EventBus) Use(middleware Middleware) {
	bus.mwMutex.Lock()
	defer bus.mwMutex.Unlock()
	bus.middleware = append(bus.middleware, middleware)
}

func (bus *EventBus) wrap(handler EventHandler) EventHandler {
	bus.mwMutex.RLock()
	defer bus.mwMutex.RUnlock()
	for i := len(bus.middleware) - 1; i >= 0; i-- {
		handler = bus.middleware[i](handler)
	}
	return handler
}

/**
 * Stop 停止事件总线并清空订阅者，之后的 Publish 返回 ErrBusStopped
 *
 * 可以重复调用
 */
func (bus *EventBus) Stop() {
	if !bus.stopped.CompareAndSwap(false, true) {
		return
	}
	bus.mutex.Lock()
	bus.subscribers = make(map[EventType][]*subscriber)
	bus.mutex.Unlock()
}

/**
 * RecoveryMiddleware 把处理函数中的 panic 转为错误
 */
func RecoveryMiddleware() Middleware {
	return func(next EventHandler) EventHandler {
		return func(event Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()
			return next(event)
		}
	}
}

/**
 * LoggingMiddleware 以 Debug 级别记录每次处理
 */
func LoggingMiddleware() Middleware {
	return func(next EventHandler) EventHandler {
		return func(event Event) error {
			start := time.Now()
			err := next(event)
			logger.Debug("事件已处理",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return err
		}
	}
}

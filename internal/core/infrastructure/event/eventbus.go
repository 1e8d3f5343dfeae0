// Package event 基于 asaskevich/EventBus 的进程内事件总线
package event

import (
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// EventBus 事件总线实现
type EventBus struct {
	bus    evbus.Bus
	logger logiface.Logger

	published atomic.Uint64
}

var _ event.EventBus = (*EventBus)(nil)

// New 创建事件总线
func New(logger logiface.Logger) *EventBus {
	return &EventBus{
		bus:    evbus.New(),
		logger: log.OrNop(logger),
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	eb.published.Add(1)
	if !eb.bus.HasCallback(string(eventType)) {
		return
	}
	eb.logger.Debugf("发布事件: %s", eventType)
	eb.bus.Publish(string(eventType), args...)
}

// PublishEvent 发布 Event 接口类型事件
func (eb *EventBus) PublishEvent(e event.Event) {
	eb.Publish(e.Type(), e.Data())
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// HasCallback 是否存在订阅者
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// Published 已发布事件总数
func (eb *EventBus) Published() uint64 {
	return eb.published.Load()
}

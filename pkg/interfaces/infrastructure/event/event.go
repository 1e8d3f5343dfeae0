// Package event 定义进程内事件总线接口
package event

// EventType 事件主题
type EventType string

// Event 事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Data 返回事件数据
	Data() interface{}
}

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 同步订阅，处理函数在发布者的 goroutine 中执行
	Subscribe(eventType EventType, handler interface{}) error
	// SubscribeAsync 异步订阅
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error
	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})
	// PublishEvent 发布 Event 接口类型事件
	PublishEvent(event Event)
	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error
	// HasCallback 是否存在订阅者
	HasCallback(eventType EventType) bool
	// WaitAsync 等待所有异步处理完成
	WaitAsync()
}

package rpc

import (
	"context"
	"encoding/json"
	"sync"
)

// Subscription 一次 JSON-RPC 订阅
type Subscription struct {
	client      *Client
	id          string
	unsubMethod string

	notifications chan json.RawMessage
	errCh         chan error
	done          chan struct{}
	once          sync.Once
}

// ID 节点分配的订阅 id
func (s *Subscription) ID() string {
	return s.id
}

// Notifications 通知负载（params.result）
func (s *Subscription) Notifications() <-chan json.RawMessage {
	return s.notifications
}

// Err 连接终止时收到一个错误
func (s *Subscription) Err() <-chan error {
	return s.errCh
}

// Done 取消订阅后关闭
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe 取消订阅，可重复调用；连接已断开时只做本地清理
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.client.removeSubscription(s.id)
		close(s.done)
		if s.unsubMethod == "" {
			return
		}
		select {
		case <-s.client.done:
			return
		default:
		}
		err = s.client.Call(ctx, s.unsubMethod, nil, s.id)
	})
	return err
}

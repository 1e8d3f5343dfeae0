// Package rpc 实现 Substrate 节点的 JSON-RPC over WebSocket 客户端
//
// 一个 Client 对应一条 websocket 连接：请求按 id 匹配响应，订阅在订阅响应到达时
// 于读循环内登记，保证后续通知不会因登记滞后而丢失。
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ErrClosed 连接已关闭
var ErrClosed = errors.New("rpc: connection closed")

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second

	// notificationBuffer 每个订阅缓存的通知数
	notificationBuffer = 64
)

// Error JSON-RPC 错误对象
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// request 出站请求
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// message 入站消息：响应或订阅通知
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type notificationParams struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type pendingCall struct {
	ch  chan *message
	sub *Subscription
	// abandoned 订阅请求的调用方已放弃，迟到的订阅 id 需要取消
	abandoned bool
}

// Client WebSocket JSON-RPC 客户端
type Client struct {
	endpoint string
	conn     *websocket.Conn
	logger   logiface.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]*pendingCall
	subs    map[string]*Subscription
	err     error

	nextID    atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

// Dial 建立 websocket 连接并启动读循环
func Dial(ctx context.Context, endpoint string, logger logiface.Logger) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", endpoint, err)
	}

	c := &Client{
		endpoint: endpoint,
		conn:     conn,
		logger:   log.OrNop(logger),
		pending:  make(map[uint64]*pendingCall),
		subs:     make(map[string]*Subscription),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Endpoint 返回连接端点
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Done 连接终止时关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Call 发送请求并等待响应；result 为 nil 时丢弃结果
func (c *Client) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	msg, err := c.roundTrip(ctx, method, nil, params)
	if err != nil {
		return err
	}
	if result == nil || len(msg.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// Subscribe 发起订阅，unsubMethod 用于取消订阅
func (c *Client) Subscribe(ctx context.Context, method, unsubMethod string, params ...interface{}) (*Subscription, error) {
	sub := &Subscription{
		client:        c,
		unsubMethod:   unsubMethod,
		notifications: make(chan json.RawMessage, notificationBuffer),
		errCh:         make(chan error, 1),
		done:          make(chan struct{}),
	}
	if _, err := c.roundTrip(ctx, method, sub, params); err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, sub *Subscription, params []interface{}) (*message, error) {
	if params == nil {
		params = []interface{}{}
	}
	id := c.nextID.Add(1)
	call := &pendingCall{ch: make(chan *message, 1), sub: sub}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[id] = call
	c.mu.Unlock()

	if err := c.write(request{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		c.dropPending(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case msg := <-call.ch:
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg, nil
	case <-ctx.Done():
		c.cancelCall(id, call)
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.terminalErr()
	}
}

// cancelCall 调用方放弃等待
//
// 订阅请求的响应可能已被读循环登记，也可能稍后才到；两种情况都要取消节点上的订阅，
// 否则通知填满缓冲后会阻塞读循环。
func (c *Client) cancelCall(id uint64, call *pendingCall) {
	c.mu.Lock()
	_, waiting := c.pending[id]
	switch {
	case waiting && call.sub != nil:
		call.abandoned = true
	case waiting:
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if waiting || call.sub == nil {
		return
	}

	// 响应已被读循环取走，订阅可能已登记
	select {
	case msg := <-call.ch:
		if msg.Error == nil {
			go c.discard(call.sub)
		}
	case <-c.done:
	}
}

// discard 取消调用方已不再持有的订阅
func (c *Client) discard(sub *Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := sub.Unsubscribe(ctx); err != nil {
		c.logger.Debugf("取消遗留订阅失败: id=%s err=%v", sub.id, err)
	}
}

func (c *Client) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *Client) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) terminalErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}

// readLoop 消息读取循环
func (c *Client) readLoop() {
	for {
		var msg message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.shutdown(fmt.Errorf("%w: websocket read: %v", ErrClosed, err))
			return
		}
		switch {
		case msg.ID != nil:
			c.handleResponse(&msg)
		case msg.Method != "":
			c.handleNotification(&msg)
		default:
			c.logger.Debugf("忽略无法识别的消息: endpoint=%s", c.endpoint)
		}
	}
}

func (c *Client) handleResponse(msg *message) {
	c.mu.Lock()
	call, ok := c.pending[*msg.ID]
	delete(c.pending, *msg.ID)
	abandoned := ok && call.abandoned
	if ok && call.sub != nil && msg.Error == nil {
		call.sub.id = normalizeSubscriptionID(msg.Result)
		if !abandoned {
			// 订阅在读循环内登记，先于任何后续通知
			c.subs[call.sub.id] = call.sub
		}
	}
	c.mu.Unlock()

	switch {
	case !ok:
		c.logger.Debugf("收到未知请求的响应: id=%d", *msg.ID)
	case abandoned:
		if msg.Error == nil {
			// 读循环内不能同步等待取消订阅的响应
			go c.discard(call.sub)
		}
	default:
		call.ch <- msg
	}
}

func (c *Client) handleNotification(msg *message) {
	var params notificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		c.logger.Warnf("解析订阅通知失败: method=%s err=%v", msg.Method, err)
		return
	}
	id := normalizeSubscriptionID(params.Subscription)

	c.mu.Lock()
	sub, ok := c.subs[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case sub.notifications <- params.Result:
	case <-sub.done:
	case <-c.done:
	}
}

// shutdown 终止连接：失败所有等待中的请求，通知所有订阅
func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		subs := make([]*Subscription, 0, len(c.subs))
		for _, s := range c.subs {
			subs = append(subs, s)
		}
		c.subs = make(map[string]*Subscription)
		c.pending = make(map[uint64]*pendingCall)
		c.mu.Unlock()

		close(c.done)
		for _, s := range subs {
			select {
			case s.errCh <- err:
			default:
			}
		}
	})
}

// Close 关闭连接
func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return c.conn.Close()
}

func (c *Client) removeSubscription(id string) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

// normalizeSubscriptionID 订阅 id 可能是字符串或数字，统一为字符串
func normalizeSubscriptionID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

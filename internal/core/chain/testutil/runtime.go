package testutil

import (
	"fmt"
	"sync"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
)

// StateReader 读取（可能尚未提交的）存储
type StateReader interface {
	Get(key []byte) []byte
}

// Overlay 一次分发中的暂存写集合，成功后才写回父层
type Overlay struct {
	parent StateReader
	writes map[string][]byte
	order  []string
}

func newOverlay(parent StateReader) *Overlay {
	return &Overlay{parent: parent, writes: make(map[string][]byte)}
}

// Get 先读暂存写，再读父层
func (o *Overlay) Get(key []byte) []byte {
	if v, ok := o.writes[string(key)]; ok {
		return v
	}
	return o.parent.Get(key)
}

// Put 暂存写入
func (o *Overlay) Put(key, value []byte) {
	k := string(key)
	if _, ok := o.writes[k]; !ok {
		o.order = append(o.order, k)
	}
	o.writes[k] = append([]byte(nil), value...)
}

func (o *Overlay) mergeInto(dst *Overlay) {
	for _, k := range o.order {
		dst.Put([]byte(k), o.writes[k])
	}
}

type connState struct{ conn *MockConnection }

func (s connState) Get(key []byte) []byte {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.conn.state[string(key)]
}

// CallHandler 解码一个调用的参数并在 tx 上应用效果；返回错误表示分发失败
type CallHandler func(rt *Runtime, tx *Overlay, args *scale.Decoder) error

// Runtime 内存链上的调用分发器
//
// MockSigner 产生的外部交易即调用数据，Runtime 按调用索引找到处理函数并执行。
// 分发失败时交易仍被最终确认，但状态不变，与链上 ExtrinsicFailed 的表现一致。
type Runtime struct {
	conn     *MockConnection
	keys     map[chainconfig.CallIndex]string
	handlers map[string]CallHandler

	mu         sync.Mutex
	origin     chain.AccountID
	reject     error
	dispatched []string
	invoked    []string
	failures   []error
}

// NewRuntime 在 conn 上安装分发器，调用索引取自 chains 中该链的配置
func NewRuntime(conn *MockConnection, chains *chainconfig.Config) *Runtime {
	rt := &Runtime{
		conn:     conn,
		keys:     make(map[chainconfig.CallIndex]string),
		handlers: make(map[string]CallHandler),
	}
	if opts, ok := chains.Get(string(conn.Name())); ok {
		for key, idx := range opts.Calls {
			rt.keys[idx] = key
		}
	}
	rt.Handle(chainconfig.CallUtilityBatchAll, batchAll)
	rt.Handle(chainconfig.CallUtilityBatch, batch)
	conn.OnSubmit = rt.submit
	return rt
}

// Handle 注册调用处理函数，key 形如 "Nfts.mint"
func (rt *Runtime) Handle(key string, h CallHandler) {
	rt.handlers[key] = h
}

// SetOrigin 设置后续交易的发起账户
func (rt *Runtime) SetOrigin(origin chain.AccountID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.origin = origin
}

// Origin 当前发起账户
func (rt *Runtime) Origin() chain.AccountID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.origin
}

// Reject 后续提交被交易池拒绝；nil 恢复正常
func (rt *Runtime) Reject(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.reject = err
}

// Dispatched 已成功分发的顶层调用键
func (rt *Runtime) Dispatched() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.dispatched...)
}

// Invoked 按解码顺序记录的全部调用键，包含批量中的内层调用
func (rt *Runtime) Invoked() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.invoked...)
}

// Failures 分发失败列表
func (rt *Runtime) Failures() []error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]error(nil), rt.failures...)
}

func (rt *Runtime) submit(extrinsic []byte) (*chain.Outcome, error) {
	rt.mu.Lock()
	reject := rt.reject
	rt.mu.Unlock()
	if reject != nil {
		err := fmt.Errorf("%w: %v", chain.ErrSubmission, reject)
		return chain.Failed(chain.ExtrinsicHash(extrinsic), err), err
	}

	tx := newOverlay(connState{rt.conn})
	dec := scale.NewDecoder(extrinsic)
	key, err := rt.Dispatch(tx, dec)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if err != nil {
		rt.failures = append(rt.failures, err)
		return nil, nil
	}
	for _, k := range tx.order {
		rt.conn.Put([]byte(k), tx.writes[k])
	}
	rt.dispatched = append(rt.dispatched, key)
	return nil, nil
}

// Dispatch 解码调用索引并执行处理函数
func (rt *Runtime) Dispatch(tx *Overlay, dec *scale.Decoder) (string, error) {
	raw, err := dec.ReadFixed(2)
	if err != nil {
		return "", err
	}
	idx := chainconfig.CallIndex{raw[0], raw[1]}
	key, ok := rt.keys[idx]
	if !ok {
		return "", fmt.Errorf("unknown call index %v", idx)
	}
	rt.mu.Lock()
	rt.invoked = append(rt.invoked, key)
	rt.mu.Unlock()
	h, ok := rt.handlers[key]
	if !ok {
		return key, fmt.Errorf("no handler for %s", key)
	}
	if err := h(rt, tx, dec); err != nil {
		return key, fmt.Errorf("%s: %w", key, err)
	}
	return key, nil
}

func batchAll(rt *Runtime, tx *Overlay, args *scale.Decoder) error {
	n, err := args.ReadCompact()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		if _, err := rt.Dispatch(tx, args); err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
	}
	return nil
}

// batch 在第一个失败处中断，之前的调用保留
func batch(rt *Runtime, tx *Overlay, args *scale.Decoder) error {
	n, err := args.ReadCompact()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		inner := newOverlay(tx)
		if _, err := rt.Dispatch(inner, args); err != nil {
			rt.mu.Lock()
			rt.failures = append(rt.failures, fmt.Errorf("batch interrupted at %d: %w", i, err))
			rt.mu.Unlock()
			return nil
		}
		inner.mergeInto(tx)
	}
	return nil
}

package chain

import (
	"context"
	"fmt"
	"sync"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Dialer 建立到 endpoint 的连接
type Dialer func(ctx context.Context, name Name, endpoint string) (Connection, error)

type registryEntry struct {
	ready chan struct{}
	conn  Connection
	err   error
}

// Registry 进程级连接注册表
//
// 每个链名称最多一个连接，第一次使用时创建；并发调用者共享同一次拨号。
// 只使用配置中的第一个端点，不做故障切换与重试。拨号失败不缓存，
// 下一次 Connect 会重新拨号。
type Registry struct {
	chains  *chainconfig.Config
	dial    Dialer
	logger  logiface.Logger
	metrics *metrics.Collectors

	mu      sync.Mutex
	entries map[Name]*registryEntry
}

// NewRegistry 创建注册表，dial 为 nil 时使用 websocket JSON-RPC
func NewRegistry(chains *chainconfig.Config, dial Dialer, logger logiface.Logger, m *metrics.Collectors) *Registry {
	r := &Registry{
		chains:  chains,
		dial:    dial,
		logger:  log.OrNop(logger),
		metrics: m,
		entries: make(map[Name]*registryEntry),
	}
	if r.dial == nil {
		r.dial = func(ctx context.Context, name Name, endpoint string) (Connection, error) {
			return DialRPC(ctx, name, endpoint, r.logger.With("chain", string(name)), m)
		}
	}
	return r
}

// Connect 获取链连接，必要时拨号
func (r *Registry) Connect(ctx context.Context, name Name) (Connection, error) {
	r.mu.Lock()
	if e, ok := r.entries[name]; ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		return e.conn, nil
	}
	e := &registryEntry{ready: make(chan struct{})}
	r.entries[name] = e
	r.mu.Unlock()

	e.conn, e.err = r.dialFirst(ctx, name)
	if e.err != nil {
		r.mu.Lock()
		delete(r.entries, name)
		r.mu.Unlock()
	}
	close(e.ready)
	return e.conn, e.err
}

func (r *Registry) dialFirst(ctx context.Context, name Name) (Connection, error) {
	opts, ok := r.chains.Get(string(name))
	if !ok || len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoint configured for %s", ErrConnection, name)
	}
	endpoint := opts.Endpoints[0]

	r.logger.Infof("连接链节点: chain=%s endpoint=%s", name, endpoint)
	conn, err := r.dial(ctx, name, endpoint)
	if err != nil {
		r.logger.Errorf("连接链节点失败: chain=%s endpoint=%s err=%v", name, endpoint, err)
		return nil, fmt.Errorf("%w: %s (%s): %v", ErrConnection, name, endpoint, err)
	}
	r.metrics.SetConnected(string(name), true)
	return conn, nil
}

// Calls 返回链的调用构造器
func (r *Registry) Calls(name Name) *Calls {
	return NewCalls(name, r.chains)
}

// Explorer 链的区块浏览器地址，未配置返回空串
func (r *Registry) Explorer(name Name) string {
	if opts, ok := r.chains.Get(string(name)); ok {
		return opts.Explorer
	}
	return ""
}

// Close 关闭所有已建立的连接
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Name]*registryEntry)
	r.mu.Unlock()

	var firstErr error
	for name, e := range entries {
		<-e.ready
		if e.conn == nil {
			continue
		}
		if err := e.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
		r.metrics.SetConnected(string(name), false)
	}
	return firstErr
}

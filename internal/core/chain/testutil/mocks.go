// Package testutil 提供多链接入层的测试替身：内存链连接、签名器与配置提供者
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/weisyn/newsanchor/internal/core/chain"
)

// MockConnection 内存中的链连接
//
// 存储为简单的键值表；提交的交易被记录，OnSubmit 可模拟链上效果或失败。
type MockConnection struct {
	name chain.Name

	mu          sync.Mutex
	state       map[string][]byte
	submissions [][]byte
	head        uint64
	closed      bool

	// OnSubmit 在提交时调用；返回 nil Outcome 表示默认最终确认
	OnSubmit func(extrinsic []byte) (*chain.Outcome, error)
	// ReadErr 非 nil 时所有读取返回该错误
	ReadErr error
}

var _ chain.Connection = (*MockConnection)(nil)

// NewMockConnection 创建内存连接
func NewMockConnection(name chain.Name) *MockConnection {
	return &MockConnection{name: name, state: make(map[string][]byte), head: 1}
}

// Name 链名称
func (m *MockConnection) Name() chain.Name { return m.name }

// Close 标记关闭
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed 是否已关闭
func (m *MockConnection) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Put 写入存储
func (m *MockConnection) Put(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[string(key)] = append([]byte(nil), value...)
}

// Delete 删除存储
func (m *MockConnection) Delete(key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, string(key))
}

// SetHead 设置最终确认高度
func (m *MockConnection) SetHead(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = n
}

// Submissions 已提交的交易（按提交顺序）
func (m *MockConnection) Submissions() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.submissions))
	copy(out, m.submissions)
	return out
}

// Storage 读取单个键
func (m *MockConnection) Storage(_ context.Context, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	v, ok := m.state[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// StorageMulti 读取多个键
func (m *MockConnection) StorageMulti(ctx context.Context, keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := m.Storage(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// StorageEntries 枚举前缀
func (m *MockConnection) StorageEntries(_ context.Context, prefix []byte) ([]chain.StorageEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var entries []chain.StorageEntry
	for k, v := range m.state {
		if bytes.HasPrefix([]byte(k), prefix) {
			entries = append(entries, chain.StorageEntry{Key: []byte(k), Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].Key, entries[j].Key) < 0 })
	return entries, nil
}

// FinalizedHead 当前高度
func (m *MockConnection) FinalizedHead(_ context.Context) (*chain.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return &chain.Header{Number: m.head, Hash: fmt.Sprintf("0x%064x", m.head)}, nil
}

// SubscribeFinalizedHeads 推送当前高度后阻塞直到 ctx 结束
func (m *MockConnection) SubscribeFinalizedHeads(ctx context.Context, fn func(chain.Header)) error {
	h, err := m.FinalizedHead(ctx)
	if err != nil {
		return err
	}
	fn(*h)
	<-ctx.Done()
	return nil
}

// ChainName 链名称
func (m *MockConnection) ChainName(_ context.Context) (string, error) {
	return string(m.name), nil
}

// SubmitAndWatch 记录提交并返回终态
func (m *MockConnection) SubmitAndWatch(ctx context.Context, extrinsic []byte, progress chain.ProgressFunc) (*chain.Outcome, error) {
	m.mu.Lock()
	m.submissions = append(m.submissions, append([]byte(nil), extrinsic...))
	m.head++
	block := fmt.Sprintf("0x%064x", m.head)
	onSubmit := m.OnSubmit
	m.mu.Unlock()

	txHash := chain.ExtrinsicHash(extrinsic)
	if progress != nil {
		progress(chain.Update{Status: chain.StatusReady})
		progress(chain.Update{Status: chain.StatusInBlock, BlockHash: block})
	}

	if onSubmit != nil {
		outcome, err := onSubmit(extrinsic)
		if err != nil {
			if outcome == nil {
				outcome = chain.Failed(txHash, err)
			}
			return outcome, err
		}
		if outcome != nil {
			return outcome, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return chain.Failed(txHash, err), err
	}
	return chain.Finalized(block, txHash), nil
}

// ErrRejected 签名被用户拒绝
var ErrRejected = errors.New("user rejected signing")

// MockSigner 测试签名器：外部交易即调用数据本身，便于断言
type MockSigner struct {
	Account string
	Err     error

	mu    sync.Mutex
	calls int
}

var _ chain.ExtrinsicSigner = (*MockSigner)(nil)

// NewMockSigner 创建签名器
func NewMockSigner(account string) *MockSigner {
	return &MockSigner{Account: account}
}

// Address 签名账户
func (s *MockSigner) Address() string { return s.Account }

// SignExtrinsic 原样返回调用数据
func (s *MockSigner) SignExtrinsic(_ context.Context, _ chain.Name, call []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]byte(nil), call...), nil
}

// Calls 签名次数
func (s *MockSigner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

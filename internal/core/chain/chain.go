// Package chain 多链接入层：连接注册表、存储读取、调用构造与交易执行
//
// 每条链只有一个进程级连接，按名称惰性创建。交易执行只报告一个终态：
// finalized(blockHash, txHash) 或 failed(err)，中间状态通过 ProgressFunc 旁路上报。
package chain

import (
	"context"
	"errors"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
)

// Name 链名称
type Name string

// 已知链
const (
	AssetHub  Name = chainconfig.AssetHub
	PeopleHub Name = chainconfig.PeopleHub
	EduChain  Name = chainconfig.EduChain
)

// 错误分类
var (
	// ErrConnection 端点不可达或连接中断
	ErrConnection = errors.New("chain connection failed")
	// ErrSignerAbsent 没有可用签名器，任何提交之前返回
	ErrSignerAbsent = errors.New("signer absent")
	// ErrSubmission 链拒绝交易（invalid / dropped / usurped）或签名被拒
	ErrSubmission = errors.New("submission failed")
	// ErrTimeout 等待终态超时
	ErrTimeout = errors.New("timed out waiting for finalization")
	// ErrDispatchFailed 已最终确认但预期状态不存在
	ErrDispatchFailed = errors.New("dispatch failed after finalization")
	// ErrUnknownCall 调用索引未配置
	ErrUnknownCall = errors.New("unknown call")
)

// ExtrinsicSigner 把调用数据签名为可提交的外部交易
type ExtrinsicSigner interface {
	// Address 签名账户地址
	Address() string
	// SignExtrinsic 对 call（已编码的调用数据）签名，返回完整的外部交易字节
	SignExtrinsic(ctx context.Context, chain Name, call []byte) ([]byte, error)
}

// Header 区块头摘要
type Header struct {
	Number     uint64 `json:"number"`
	Hash       string `json:"hash,omitempty"`
	ParentHash string `json:"parentHash"`
}

// StorageEntry 一个存储键值对（键为完整存储键）
type StorageEntry struct {
	Key   []byte
	Value []byte
}

// Querier 链状态读取
type Querier interface {
	// Storage 读取单个键，不存在返回 nil
	Storage(ctx context.Context, key []byte) ([]byte, error)
	// StorageMulti 一次读取多个键，结果与 keys 一一对应，不存在的为 nil
	StorageMulti(ctx context.Context, keys [][]byte) ([][]byte, error)
	// StorageEntries 枚举前缀下的所有键值对，按键排序
	StorageEntries(ctx context.Context, prefix []byte) ([]StorageEntry, error)
	// FinalizedHead 最新最终确认区块头
	FinalizedHead(ctx context.Context) (*Header, error)
	// SubscribeFinalizedHeads 订阅最终确认区块头，阻塞直到 ctx 结束或连接中断
	SubscribeFinalizedHeads(ctx context.Context, fn func(Header)) error
	// ChainName 节点报告的链名称
	ChainName(ctx context.Context) (string, error)
}

// Submitter 交易提交
type Submitter interface {
	// SubmitAndWatch 提交已签名的外部交易并等待终态
	SubmitAndWatch(ctx context.Context, extrinsic []byte, progress ProgressFunc) (*Outcome, error)
}

// Connection 单条链的连接
type Connection interface {
	Querier
	Submitter
	Name() Name
	Close() error
}

package chain

import (
	"fmt"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
)

// Call 已编码参数的运行时调用
type Call struct {
	Pallet string
	Method string
	Index  chainconfig.CallIndex
	Args   []byte
}

// Key 调用键 "<Pallet>.<method>"
func (c Call) Key() string {
	return c.Pallet + "." + c.Method
}

// Encode 调用数据：pallet 下标 || call 下标 || 参数
func (c Call) Encode() []byte {
	out := make([]byte, 0, 2+len(c.Args))
	out = append(out, c.Index[0], c.Index[1])
	return append(out, c.Args...)
}

// CallIndexer 调用索引来源（外部链描述，通常来自配置）
type CallIndexer interface {
	CallIndex(chain, call string) (chainconfig.CallIndex, bool)
}

// Calls 某条链的调用构造器
type Calls struct {
	chain   Name
	indexer CallIndexer
}

// NewCalls 创建调用构造器
func NewCalls(chain Name, indexer CallIndexer) *Calls {
	return &Calls{chain: chain, indexer: indexer}
}

// Chain 所属链
func (c *Calls) Chain() Name {
	return c.chain
}

// Build 按调用键查找索引并组装调用
func (c *Calls) Build(pallet, method string, args []byte) (Call, error) {
	key := pallet + "." + method
	idx, ok := c.indexer.CallIndex(string(c.chain), key)
	if !ok {
		return Call{}, fmt.Errorf("%w: %s on %s", ErrUnknownCall, key, c.chain)
	}
	return Call{Pallet: pallet, Method: method, Index: idx, Args: args}, nil
}

// Batch 尽力而为的 Utility.batch：前面的调用成功、后面的调用失败时不回滚
func (c *Calls) Batch(calls []Call) (Call, error) {
	return c.Build("Utility", "batch", encodeCallVec(calls))
}

// BatchAll 原子的 Utility.batch_all：任一调用失败则整体回滚
func (c *Calls) BatchAll(calls []Call) (Call, error) {
	return c.Build("Utility", "batch_all", encodeCallVec(calls))
}

func encodeCallVec(calls []Call) []byte {
	enc := scale.NewEncoder().PutCompact(uint64(len(calls)))
	for _, call := range calls {
		enc.PutRaw(call.Encode())
	}
	return enc.Bytes()
}

// AccountID 32 字节账户公钥
type AccountID [32]byte

// MultiAddressID 编码 MultiAddress::Id(AccountId32)
func MultiAddressID(enc *scale.Encoder, account AccountID) *scale.Encoder {
	return enc.PutUint8(0).PutRaw(account[:])
}

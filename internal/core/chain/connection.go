package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/newsanchor/internal/core/chain/rpc"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

const (
	// keysPageSize state_getKeysPaged 单页上限
	keysPageSize = 1000

	// unwatchTimeout 取消订阅请求的等待上限
	unwatchTimeout = 5 * time.Second
)

// rpcConnection 基于 websocket JSON-RPC 的连接
type rpcConnection struct {
	name    Name
	client  *rpc.Client
	logger  logiface.Logger
	metrics *metrics.Collectors
}

var _ Connection = (*rpcConnection)(nil)

// DialRPC 连接到 endpoint 并返回链连接
func DialRPC(ctx context.Context, name Name, endpoint string, logger logiface.Logger, m *metrics.Collectors) (Connection, error) {
	client, err := rpc.Dial(ctx, endpoint, logger)
	if err != nil {
		return nil, err
	}
	return &rpcConnection{name: name, client: client, logger: log.OrNop(logger), metrics: m}, nil
}

// Name 链名称
func (c *rpcConnection) Name() Name {
	return c.name
}

// Close 关闭连接
func (c *rpcConnection) Close() error {
	return c.client.Close()
}

// wrapRPC 连接层错误归类为 ErrConnection，其余原样返回
func (c *rpcConnection) wrapRPC(op string, err error) error {
	if errors.Is(err, rpc.ErrClosed) {
		return fmt.Errorf("%s on %s: %w: %v", op, c.name, ErrConnection, err)
	}
	return fmt.Errorf("%s on %s: %w", op, c.name, err)
}

// Storage 读取单个存储键
func (c *rpcConnection) Storage(ctx context.Context, key []byte) ([]byte, error) {
	var value *string
	if err := c.client.Call(ctx, "state_getStorage", &value, hexutil.Encode(key)); err != nil {
		return nil, c.wrapRPC("state_getStorage", err)
	}
	c.metrics.AddStorageReads(string(c.name), 1)
	if value == nil {
		return nil, nil
	}
	return hexutil.Decode(*value)
}

type storageChangeSet struct {
	Block   string       `json:"block"`
	Changes [][2]*string `json:"changes"`
}

// StorageMulti 一次读取多个存储键
func (c *rpcConnection) StorageMulti(ctx context.Context, keys [][]byte) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = hexutil.Encode(k)
	}

	var sets []storageChangeSet
	if err := c.client.Call(ctx, "state_queryStorageAt", &sets, hexKeys); err != nil {
		return nil, c.wrapRPC("state_queryStorageAt", err)
	}
	c.metrics.AddStorageReads(string(c.name), len(keys))

	values := make(map[string][]byte, len(keys))
	for _, set := range sets {
		for _, change := range set.Changes {
			if change[0] == nil || change[1] == nil {
				continue
			}
			v, err := hexutil.Decode(*change[1])
			if err != nil {
				return nil, fmt.Errorf("decode storage value: %w", err)
			}
			values[strings.ToLower(*change[0])] = v
		}
	}

	out := make([][]byte, len(keys))
	for i, k := range hexKeys {
		out[i] = values[strings.ToLower(k)]
	}
	return out, nil
}

// StorageEntries 分页枚举前缀下的键，再批量读取值
func (c *rpcConnection) StorageEntries(ctx context.Context, prefix []byte) ([]StorageEntry, error) {
	hexPrefix := hexutil.Encode(prefix)
	var entries []StorageEntry
	startKey := hexPrefix
	for {
		var page []string
		if err := c.client.Call(ctx, "state_getKeysPaged", &page, hexPrefix, keysPageSize, startKey); err != nil {
			return nil, c.wrapRPC("state_getKeysPaged", err)
		}
		if len(page) == 0 {
			break
		}

		keys := make([][]byte, 0, len(page))
		for _, k := range page {
			key, err := hexutil.Decode(k)
			if err != nil {
				return nil, fmt.Errorf("decode storage key: %w", err)
			}
			keys = append(keys, key)
		}
		values, err := c.StorageMulti(ctx, keys)
		if err != nil {
			return nil, err
		}
		for i, key := range keys {
			if values[i] == nil {
				continue
			}
			entries = append(entries, StorageEntry{Key: key, Value: values[i]})
		}

		if len(page) < keysPageSize {
			break
		}
		startKey = page[len(page)-1]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return string(entries[i].Key) < string(entries[j].Key)
	})
	return entries, nil
}

type rpcHeader struct {
	Number     string `json:"number"`
	ParentHash string `json:"parentHash"`
}

func (h rpcHeader) toHeader(hash string) (Header, error) {
	n, err := hexutil.DecodeUint64(h.Number)
	if err != nil {
		return Header{}, fmt.Errorf("decode block number %q: %w", h.Number, err)
	}
	return Header{Number: n, Hash: hash, ParentHash: h.ParentHash}, nil
}

// FinalizedHead 最新最终确认区块头
func (c *rpcConnection) FinalizedHead(ctx context.Context) (*Header, error) {
	var hash string
	if err := c.client.Call(ctx, "chain_getFinalizedHead", &hash); err != nil {
		return nil, c.wrapRPC("chain_getFinalizedHead", err)
	}
	var raw rpcHeader
	if err := c.client.Call(ctx, "chain_getHeader", &raw, hash); err != nil {
		return nil, c.wrapRPC("chain_getHeader", err)
	}
	h, err := raw.toHeader(hash)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// SubscribeFinalizedHeads 订阅最终确认区块头；通知中不含区块哈希，Hash 为空
func (c *rpcConnection) SubscribeFinalizedHeads(ctx context.Context, fn func(Header)) error {
	sub, err := c.client.Subscribe(ctx, "chain_subscribeFinalizedHeads", "chain_unsubscribeFinalizedHeads")
	if err != nil {
		return c.wrapRPC("chain_subscribeFinalizedHeads", err)
	}
	defer c.unwatch(sub)

	for {
		select {
		case raw := <-sub.Notifications():
			var h rpcHeader
			if err := json.Unmarshal(raw, &h); err != nil {
				c.logger.Warnf("解析区块头失败: chain=%s err=%v", c.name, err)
				continue
			}
			header, err := h.toHeader("")
			if err != nil {
				c.logger.Warnf("解析区块高度失败: chain=%s err=%v", c.name, err)
				continue
			}
			fn(header)
		case err := <-sub.Err():
			return fmt.Errorf("%w: %v", ErrConnection, err)
		case <-ctx.Done():
			return nil
		}
	}
}

// ChainName 节点报告的链名称
func (c *rpcConnection) ChainName(ctx context.Context) (string, error) {
	var name string
	if err := c.client.Call(ctx, "system_chain", &name); err != nil {
		return "", c.wrapRPC("system_chain", err)
	}
	return name, nil
}

// SubmitAndWatch 提交外部交易并等待终态
//
// 返回的 Outcome 总是非 nil；失败时 error 与 Outcome.Err 相同。
// ctx 结束时取消订阅并以 ctx.Err() 失败。
func (c *rpcConnection) SubmitAndWatch(ctx context.Context, extrinsic []byte, progress ProgressFunc) (*Outcome, error) {
	txHash := ExtrinsicHash(extrinsic)

	sub, err := c.client.Subscribe(ctx, "author_submitAndWatchExtrinsic", "author_unwatchExtrinsic", hexutil.Encode(extrinsic))
	if err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			err = fmt.Errorf("%w: %v", ErrSubmission, rpcErr)
		} else {
			err = c.wrapRPC("author_submitAndWatchExtrinsic", err)
		}
		return Failed(txHash, err), err
	}

	for {
		select {
		case raw := <-sub.Notifications():
			update, err := ParseUpdate(raw)
			if err != nil {
				c.logger.Warnf("忽略无法识别的交易状态: chain=%s err=%v", c.name, err)
				continue
			}
			if progress != nil {
				progress(update)
			}
			if !update.Status.Terminal() {
				continue
			}
			c.unwatch(sub)
			if update.Status == StatusFinalized {
				return Finalized(update.BlockHash, txHash), nil
			}
			err = fmt.Errorf("%w: extrinsic %s %s", ErrSubmission, txHash, update.Status)
			return Failed(txHash, err), err
		case err := <-sub.Err():
			err = fmt.Errorf("%w: %v", ErrConnection, err)
			return Failed(txHash, err), err
		case <-ctx.Done():
			c.unwatch(sub)
			return Failed(txHash, ctx.Err()), ctx.Err()
		}
	}
}

func (c *rpcConnection) unwatch(sub *rpc.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), unwatchTimeout)
	defer cancel()
	if err := sub.Unsubscribe(ctx); err != nil {
		c.logger.Debugf("取消订阅失败: chain=%s sub=%s err=%v", c.name, sub.ID(), err)
	}
}

// ExtrinsicHash 外部交易哈希：blake2b-256
func ExtrinsicHash(extrinsic []byte) string {
	sum := blake2b.Sum256(extrinsic)
	return hexutil.Encode(sum[:])
}

package nft

import (
	"context"
	"fmt"
	"strings"

	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/types"
)

// Connector 获取链连接与调用构造器
type Connector interface {
	Connect(ctx context.Context, name chain.Name) (chain.Connection, error)
	Calls(name chain.Name) *chain.Calls
}

// Registry 新闻集合注册表
//
// 每次调用都重新扫描链上全部集合元数据，不跨调用缓存。
type Registry struct {
	connector Connector
	logger    logiface.Logger
}

// NewRegistry 创建集合注册表
func NewRegistry(connector Connector, logger logiface.Logger) *Registry {
	return &Registry{connector: connector, logger: log.OrNop(logger)}
}

// ListNewsCollections 列出元数据以 "news" 开头的集合及其规范化所有者
//
// 顺序为链上枚举顺序；已销毁但仍有元数据残留的集合被跳过。
func (r *Registry) ListNewsCollections(ctx context.Context) ([]types.NewsPublisherCollection, error) {
	conn, err := r.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return nil, err
	}

	// 1. 枚举集合元数据并按前缀过滤
	entries, err := conn.StorageEntries(ctx, CollectionMetadataPrefix())
	if err != nil {
		return nil, fmt.Errorf("enumerate collection metadata: %w", err)
	}
	var ids []uint32
	for _, entry := range entries {
		data, err := decodeCollectionMetadata(entry.Value)
		if err != nil {
			r.logger.Warnf("跳过无法解码的集合元数据: key=%x err=%v", entry.Key, err)
			continue
		}
		if !strings.HasPrefix(data, NewsPrefix) {
			continue
		}
		id, err := trailingU32(entry.Key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// 2. 一次读取所有候选集合的详情
	keys := make([][]byte, len(ids))
	for i, id := range ids {
		keys[i] = CollectionKey(id)
	}
	values, err := conn.StorageMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read collection details: %w", err)
	}

	// 3. 规范化所有者
	out := make([]types.NewsPublisherCollection, 0, len(ids))
	for i, id := range ids {
		if values[i] == nil {
			continue
		}
		owner, err := decodeOwner(values[i])
		if err != nil {
			return nil, fmt.Errorf("collection %d: %w", id, err)
		}
		out = append(out, types.NewsPublisherCollection{
			CollectionID: id,
			Publisher:    address.Encode(owner, address.CanonicalPrefix),
		})
	}
	r.logger.Debugf("新闻集合扫描完成: metadata=%d news=%d", len(entries), len(out))
	return out, nil
}

// FindCollectionFor 发布者的第一个新闻集合
//
// 多个集合属于同一发布者时取枚举顺序中的第一个；该顺序由链决定，不保证稳定。
func (r *Registry) FindCollectionFor(ctx context.Context, publisher string) (uint32, bool, error) {
	normalized, err := address.Normalize(publisher)
	if err != nil {
		return 0, false, err
	}
	collections, err := r.ListNewsCollections(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, c := range collections {
		if c.Publisher == normalized {
			return c.CollectionID, true, nil
		}
	}
	return 0, false, nil
}

// CollectionExists 集合存在且元数据以 "news" 开头
func (r *Registry) CollectionExists(ctx context.Context, collection uint32) (bool, error) {
	conn, err := r.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return false, err
	}
	values, err := conn.StorageMulti(ctx, [][]byte{CollectionKey(collection), CollectionMetadataKey(collection)})
	if err != nil {
		return false, fmt.Errorf("read collection %d: %w", collection, err)
	}
	if values[0] == nil || values[1] == nil {
		return false, nil
	}
	data, err := decodeCollectionMetadata(values[1])
	if err != nil {
		return false, fmt.Errorf("collection %d: %w", collection, err)
	}
	return strings.HasPrefix(data, NewsPrefix), nil
}

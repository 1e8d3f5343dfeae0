package nft

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ErrItemIDExhausted 集合中已存在编号为 u32 最大值的物品，无法再分配
var ErrItemIDExhausted = errors.New("item id space exhausted")

// Executor 签名提交并等待终态
type Executor interface {
	Execute(ctx context.Context, conn chain.Connection, signer chain.ExtrinsicSigner, call chain.Call, opts ...chain.ExecuteOption) (*chain.Outcome, error)
}

// Manager NFT 生命周期管理
type Manager struct {
	connector   Connector
	executor    Executor
	collections *Registry
	logger      logiface.Logger
}

// NewManager 创建管理器
func NewManager(connector Connector, executor Executor, collections *Registry, logger logiface.Logger) *Manager {
	return &Manager{
		connector:   connector,
		executor:    executor,
		collections: collections,
		logger:      log.OrNop(logger),
	}
}

// Calls AssetHub 的调用构造器
func (m *Manager) Calls() *CallBuilder {
	return NewCallBuilder(m.connector.Calls(chain.AssetHub))
}

// NextItemID 集合中已有物品编号的最大值加一；空集合返回 1
func (m *Manager) NextItemID(ctx context.Context, collection uint32) (uint32, error) {
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return 0, err
	}
	entries, err := conn.StorageEntries(ctx, ItemMetadataPrefix(collection))
	if err != nil {
		return 0, fmt.Errorf("enumerate item metadata of %d: %w", collection, err)
	}
	var highest uint32
	for _, entry := range entries {
		id, err := trailingU32(entry.Key)
		if err != nil {
			return 0, err
		}
		if id > highest {
			highest = id
		}
	}
	if highest == math.MaxUint32 {
		return 0, fmt.Errorf("%w: collection %d", ErrItemIDExhausted, collection)
	}
	return highest + 1, nil
}

// ItemExists 物品存在且元数据文本与 expectedHash 完全相同
func (m *Manager) ItemExists(ctx context.Context, collection, item uint32, expectedHash string) (bool, error) {
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return false, err
	}
	values, err := conn.StorageMulti(ctx, [][]byte{ItemKey(collection, item), ItemMetadataKey(collection, item)})
	if err != nil {
		return false, fmt.Errorf("read item %d/%d: %w", collection, item, err)
	}
	if values[0] == nil || values[1] == nil {
		return false, nil
	}
	data, err := decodeItemMetadata(values[1])
	if err != nil {
		return false, fmt.Errorf("item %d/%d: %w", collection, item, err)
	}
	return data == expectedHash, nil
}

// ItemOwner 物品所有者的规范化地址；物品不存在时返回 "", false
func (m *Manager) ItemOwner(ctx context.Context, collection, item uint32) (string, bool, error) {
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return "", false, err
	}
	value, err := conn.Storage(ctx, ItemKey(collection, item))
	if err != nil {
		return "", false, fmt.Errorf("read item %d/%d: %w", collection, item, err)
	}
	if value == nil {
		return "", false, nil
	}
	owner, err := decodeOwner(value)
	if err != nil {
		return "", false, fmt.Errorf("item %d/%d: %w", collection, item, err)
	}
	return address.Encode(owner, address.CanonicalPrefix), true, nil
}

// NextCollectionID 链上的下一个集合编号，未设置时为 0
func (m *Manager) NextCollectionID(ctx context.Context) (uint32, error) {
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return 0, err
	}
	value, err := conn.Storage(ctx, NextCollectionIDKey())
	if err != nil {
		return 0, fmt.Errorf("read next collection id: %w", err)
	}
	return decodeNextCollectionID(value)
}

// CollectionOwner 集合所有者的规范化地址
func (m *Manager) CollectionOwner(ctx context.Context, collection uint32) (string, bool, error) {
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return "", false, err
	}
	value, err := conn.Storage(ctx, CollectionKey(collection))
	if err != nil {
		return "", false, fmt.Errorf("read collection %d: %w", collection, err)
	}
	if value == nil {
		return "", false, nil
	}
	owner, err := decodeOwner(value)
	if err != nil {
		return "", false, fmt.Errorf("collection %d: %w", collection, err)
	}
	return address.Encode(owner, address.CanonicalPrefix), true, nil
}

// CreateCollection 创建新闻集合并返回其编号
//
// 流程：
//  1. 读取 NextCollectionId 作为预测编号
//  2. batch_all(create, set_collection_metadata("news")) 一次签名提交
//  3. 最终确认后回读预测编号的所有者；被他人抢占时向注册表查询发布者的集合
//
// 读取编号与提交之间没有原子性，两个发布者并发创建时预测编号可能过期，
// 第 3 步据链上状态纠正。
func (m *Manager) CreateCollection(ctx context.Context, sc chain.SigningContext, owner string) (uint32, error) {
	if err := sc.Validate(); err != nil {
		return 0, err
	}
	normalized, err := address.Normalize(owner)
	if err != nil {
		return 0, err
	}
	predicted, err := m.NextCollectionID(ctx)
	if err != nil {
		return 0, err
	}
	b := m.Calls()
	create, err := b.CreateCollection(normalized)
	if err != nil {
		return 0, err
	}
	meta, err := b.SetCollectionMetadata(predicted)
	if err != nil {
		return 0, err
	}
	batch, err := b.BatchAll(create, meta)
	if err != nil {
		return 0, err
	}

	m.logger.Infof("创建新闻集合: owner=%s predicted=%d", normalized, predicted)
	if _, err := m.Submit(ctx, sc, batch); err != nil {
		return 0, err
	}

	return m.confirmCollection(ctx, predicted, normalized)
}

func (m *Manager) confirmCollection(ctx context.Context, predicted uint32, owner string) (uint32, error) {
	actual, ok, err := m.CollectionOwner(ctx, predicted)
	if err != nil {
		return 0, err
	}
	if ok && actual == owner {
		return predicted, nil
	}

	m.logger.Warnf("预测的集合编号已被占用，按链上状态查找: predicted=%d owner=%s", predicted, owner)
	id, found, err := m.collections.FindCollectionFor(ctx, owner)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: no news collection owned by %s after create", chain.ErrDispatchFailed, owner)
	}
	return id, nil
}

// Submit 在 AssetHub 上签名提交并等待终态
func (m *Manager) Submit(ctx context.Context, sc chain.SigningContext, call chain.Call, opts ...chain.ExecuteOption) (*chain.Outcome, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	conn, err := m.connector.Connect(ctx, chain.AssetHub)
	if err != nil {
		return nil, err
	}
	return m.executor.Execute(ctx, conn, sc.Signer, call, opts...)
}

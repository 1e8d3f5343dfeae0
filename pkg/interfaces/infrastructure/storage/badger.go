package storage

import "context"

// KVStore 持久化键值存储
type KVStore interface {
	// Get 读取键，不存在时返回 nil, nil
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Set 写入键
	Set(ctx context.Context, key, value []byte) error
	// Delete 删除键
	Delete(ctx context.Context, key []byte) error
	// PrefixScan 按前缀扫描，按键排序
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)
	// Close 关闭存储
	Close() error
}

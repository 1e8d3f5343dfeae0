// Package storage 定义存储基础设施接口
package storage

import "context"

// MemoryStore 带统一过期时间的内存缓存
type MemoryStore interface {
	// Get 获取缓存值，返回值、是否存在及可能的错误
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set 写入缓存，过期时间由存储配置决定
	Set(ctx context.Context, key string, value []byte) error
	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
	// Close 释放资源
	Close() error
}

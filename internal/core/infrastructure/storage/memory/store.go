// Package memory 提供基于 BigCache 的内存缓存实现
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"

	memoryconfig "github.com/weisyn/newsanchor/internal/config/storage/memory"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

// shards bigcache 分片数（必须是 2 的幂）
const shards = 64

// Store 基于 BigCache 的缓存，所有条目共享配置的过期时间
type Store struct {
	cache  *bigcache.BigCache
	logger logiface.Logger

	mu     sync.RWMutex
	closed bool
}

var _ storage.MemoryStore = (*Store)(nil)

// New 创建 BigCache 内存存储
func New(config *memoryconfig.Config, logger logiface.Logger) (*Store, error) {
	logger = log.OrNop(logger)

	cfg := bigcache.DefaultConfig(config.GetDefaultTTL())
	cfg.Shards = shards
	cfg.CleanWindow = config.GetCleanWindow()
	cfg.MaxEntriesInWindow = config.GetMaxEntriesInWindow()
	cfg.MaxEntrySize = config.GetMaxEntrySize()
	cfg.Verbose = false

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create bigcache: %w", err)
	}
	return &Store{cache: cache, logger: logger}, nil
}

// Get 获取缓存值
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, nil
	}

	value, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warnf("获取缓存键[%s]失败: %v", key, err)
		return nil, false, err
	}
	return value, true, nil
}

// Set 写入缓存
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if err := s.cache.Set(key, value); err != nil {
		s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		return err
	}
	return nil
}

// Delete 删除缓存
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Len 当前条目数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return s.cache.Len()
}

// Close 关闭缓存，可重复调用
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("关闭内存缓存")
	return s.cache.Close()
}

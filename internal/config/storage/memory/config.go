// Package memory 提供 bigcache 内存缓存的配置选项
package memory

import (
	"time"

	configtypes "github.com/weisyn/newsanchor/pkg/types"
)

// MemoryOptions 内存缓存配置
type MemoryOptions struct {
	DefaultTTL         time.Duration `json:"default_ttl"`
	CleanWindow        time.Duration `json:"clean_window"`
	MaxEntriesInWindow int           `json:"max_entries_in_window"`
	MaxEntrySize       int           `json:"max_entry_size"`
}

// Config 内存缓存配置实现
type Config struct {
	options *MemoryOptions
}

// New 创建配置，身份缓存 TTL 可由用户覆盖
func New(userConfig *configtypes.UserIdentityConfig) *Config {
	options := &MemoryOptions{
		DefaultTTL:         defaultTTL,
		CleanWindow:        defaultCleanWindow,
		MaxEntriesInWindow: defaultMaxEntriesInWindow,
		MaxEntrySize:       defaultMaxEntrySize,
	}
	if userConfig != nil && userConfig.CacheTTL != nil {
		if d, err := time.ParseDuration(*userConfig.CacheTTL); err == nil && d > 0 {
			options.DefaultTTL = d
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *MemoryOptions) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *MemoryOptions {
	return c.options
}

// GetDefaultTTL 获取缓存时长
func (c *Config) GetDefaultTTL() time.Duration {
	return c.options.DefaultTTL
}

// GetCleanWindow 获取清理间隔
func (c *Config) GetCleanWindow() time.Duration {
	return c.options.CleanWindow
}

// GetMaxEntriesInWindow 获取预分配条目数
func (c *Config) GetMaxEntriesInWindow() int {
	return c.options.MaxEntriesInWindow
}

// GetMaxEntrySize 获取单条缓存上限
func (c *Config) GetMaxEntrySize() int {
	return c.options.MaxEntrySize
}

// Package badger 提供流程日志（BadgerDB）的配置选项
package badger

import (
	"path/filepath"

	configtypes "github.com/weisyn/newsanchor/pkg/types"
)

// BadgerOptions 流程日志存储配置
type BadgerOptions struct {
	// Path 数据库目录，为空表示内存模式
	Path       string `json:"path"`
	SyncWrites bool   `json:"sync_writes"`
}

// Config BadgerDB 配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建配置，默认路径为 {dataDir}/journal
func New(dataDir string, userConfig *configtypes.UserStorageConfig) *Config {
	options := &BadgerOptions{
		Path:       filepath.Join(dataDir, defaultJournalDir),
		SyncWrites: defaultSyncWrites,
	}
	if userConfig != nil && userConfig.JournalPath != nil {
		options.Path = *userConfig.JournalPath
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库目录
func (c *Config) GetPath() string {
	return c.options.Path
}

// InMemory 是否内存模式
func (c *Config) InMemory() bool {
	return c.options.Path == ""
}

// IsSyncWritesEnabled 是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// Package api 提供 HTTP API 服务的配置选项
package api

import (
	"time"

	"github.com/weisyn/newsanchor/pkg/types"
)

// APIOptions HTTP API 配置选项
type APIOptions struct {
	Listen          string        `json:"listen"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// Config API 配置实现
type Config struct {
	options *APIOptions
}

// New 创建 API 配置
func New(userConfig *types.UserAPIConfig) *Config {
	options := &APIOptions{
		Listen:          defaultListen,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
	if userConfig != nil && userConfig.Listen != nil && *userConfig.Listen != "" {
		options.Listen = *userConfig.Listen
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

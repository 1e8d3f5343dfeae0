package app

import (
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	"github.com/weisyn/newsanchor/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项，实现 config.AppOptions
type options struct {
	// 用户配置；nil 表示全部默认值
	appConfig *types.AppConfig

	// API支持开关（默认启用）
	enableAPI bool

	// 链拨号器；nil 使用 websocket 拨号
	dialer chain.Dialer
}

var _ config.AppOptions = (*options)(nil)

// WithAppConfig 使用已解析的配置
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = appConfig
	}
}

// WithAPI 启用 HTTP API 模块
func WithAPI() Option {
	return func(o *options) {
		o.enableAPI = true
	}
}

// WithoutAPI 禁用 HTTP API 模块（一次性命令行操作）
func WithoutAPI() Option {
	return func(o *options) {
		o.enableAPI = false
	}
}

// WithDialer 替换链拨号器
func WithDialer(dialer chain.Dialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		appConfig: &types.AppConfig{},
		enableAPI: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.appConfig == nil {
		o.appConfig = &types.AppConfig{}
	}
	return o
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}

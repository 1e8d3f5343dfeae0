package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	"github.com/weisyn/newsanchor/pkg/types"
)

// options 实现 config.AppOptions
type options struct {
	appConfig *types.AppConfig
}

// GetAppConfig 获取应用配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}

// ResolvePath 确定配置文件路径：显式参数优先，其次 NEWSANCHOR_CONFIG
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvConfigPath)
}

// LoadFile 读取并解析 JSON 配置文件
//
// path 为空时返回空配置（全部默认值）；文件不存在或格式错误返回错误，
// 避免拼写错误的路径静默回退到本地开发端点。
func LoadFile(path string) (*types.AppConfig, error) {
	if path == "" {
		return &types.AppConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 JSON 配置内容并校验
func Parse(data []byte) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(&appConfig); err != nil {
		return nil, err
	}
	return &appConfig, nil
}

// NewAppOptions 包装 AppConfig 为 config.AppOptions
func NewAppOptions(appConfig *types.AppConfig) config.AppOptions {
	return &options{appConfig: appConfig}
}

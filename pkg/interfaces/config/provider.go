package config

import (
	apiconfig "github.com/weisyn/newsanchor/internal/config/api"
	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	lockconfig "github.com/weisyn/newsanchor/internal/config/lock"
	logconfig "github.com/weisyn/newsanchor/internal/config/log"
	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	badgerconfig "github.com/weisyn/newsanchor/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/newsanchor/internal/config/storage/memory"
	"github.com/weisyn/newsanchor/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// GetAppName 获取应用名称
	GetAppName() string

	// GetDataDir 获取数据目录
	GetDataDir() string

	// GetLog 获取日志配置
	GetLog() *logconfig.Config

	// GetChains 获取多链接入配置（端点、浏览器、调用索引）
	GetChains() *chainconfig.Config

	// GetOrchestrator 获取编排器配置
	GetOrchestrator() *orchestratorconfig.OrchestratorOptions

	// GetStorage 获取流程日志存储配置
	GetStorage() *badgerconfig.Config

	// GetIdentity 获取身份缓存配置
	GetIdentity() *memoryconfig.Config

	// GetLock 获取发布者锁配置
	GetLock() *lockconfig.LockOptions

	// GetAPI 获取 HTTP API 配置
	GetAPI() *apiconfig.APIOptions

	// GetWallets 获取外部签名器配置
	GetWallets() []types.UserWalletConfig
}

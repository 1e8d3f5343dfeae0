package config

import (
	"os"
	"strings"

	apiconfig "github.com/weisyn/newsanchor/internal/config/api"
	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	lockconfig "github.com/weisyn/newsanchor/internal/config/lock"
	logconfig "github.com/weisyn/newsanchor/internal/config/log"
	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	badgerconfig "github.com/weisyn/newsanchor/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/newsanchor/internal/config/storage/memory"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	"github.com/weisyn/newsanchor/pkg/types"
)

const (
	defaultAppName = "newsanchor"
	defaultDataDir = "./data"
)

// 环境变量
const (
	EnvConfigPath = "NEWSANCHOR_CONFIG"
	EnvLogLevel   = "NEWSANCHOR_LOG_LEVEL"
	EnvRedisAddr  = "NEWSANCHOR_REDIS_ADDR"

	// 链端点覆盖变量形如 NEWSANCHOR_PAS_ASSET_HUB_ENDPOINT
	envEndpointPrefix = "NEWSANCHOR_"
	envEndpointSuffix = "_ENDPOINT"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
	lookupEnv func(string) (string, bool)
}

var _ config.Provider = (*Provider)(nil)

// NewProvider 创建配置提供者，appConfig 为 nil 时全部使用默认值
func NewProvider(appConfig *types.AppConfig) *Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{appConfig: appConfig, lookupEnv: os.LookupEnv}
}

// GetAppName 获取应用名称
func (p *Provider) GetAppName() string {
	if p.appConfig.AppName != nil && *p.appConfig.AppName != "" {
		return *p.appConfig.AppName
	}
	return defaultAppName
}

// GetDataDir 获取数据目录
func (p *Provider) GetDataDir() string {
	if p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		return *p.appConfig.DataDir
	}
	return defaultDataDir
}

// GetLog 获取日志配置（环境变量 NEWSANCHOR_LOG_LEVEL 优先）
func (p *Provider) GetLog() *logconfig.Config {
	userLog := types.UserLogConfig{}
	if p.appConfig.Log != nil {
		userLog = *p.appConfig.Log
	}
	if level, ok := p.lookupEnv(EnvLogLevel); ok && level != "" {
		userLog.Level = types.StringPtr(level)
	}
	return logconfig.New(&userLog)
}

// GetChains 获取多链配置，NEWSANCHOR_<CHAIN>_ENDPOINT 插入为首选端点
func (p *Provider) GetChains() *chainconfig.Config {
	chains := chainconfig.New(p.appConfig.Chains)
	for _, name := range chains.Names() {
		if endpoint, ok := p.lookupEnv(endpointEnvName(name)); ok && endpoint != "" {
			chains.SetPrimaryEndpoint(name, endpoint)
		}
	}
	return chains
}

// GetOrchestrator 获取编排器配置
func (p *Provider) GetOrchestrator() *orchestratorconfig.OrchestratorOptions {
	return orchestratorconfig.New(p.appConfig.Orchestrator)
}

// GetStorage 获取流程日志存储配置
func (p *Provider) GetStorage() *badgerconfig.Config {
	return badgerconfig.New(p.GetDataDir(), p.appConfig.Storage)
}

// GetIdentity 获取身份缓存配置
func (p *Provider) GetIdentity() *memoryconfig.Config {
	return memoryconfig.New(p.appConfig.Identity)
}

// GetLock 获取发布者锁配置（环境变量 NEWSANCHOR_REDIS_ADDR 优先）
func (p *Provider) GetLock() *lockconfig.LockOptions {
	options := lockconfig.New(p.appConfig.Lock)
	if addr, ok := p.lookupEnv(EnvRedisAddr); ok && addr != "" {
		options.RedisAddr = addr
	}
	return options
}

// GetAPI 获取 HTTP API 配置
func (p *Provider) GetAPI() *apiconfig.APIOptions {
	return apiconfig.New(p.appConfig.API).GetOptions()
}

// GetWallets 获取外部签名器配置
func (p *Provider) GetWallets() []types.UserWalletConfig {
	return append([]types.UserWalletConfig(nil), p.appConfig.Wallets...)
}

// GetAppConfig 返回原始用户配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

func endpointEnvName(chain string) string {
	return envEndpointPrefix + strings.ToUpper(strings.ReplaceAll(chain, "-", "_")) + envEndpointSuffix
}

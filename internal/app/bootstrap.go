package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/client/core/wallet"
	apihttp "github.com/weisyn/newsanchor/internal/api/http"
	config "github.com/weisyn/newsanchor/internal/config"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/event"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/lock"
	log "github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
	configiface "github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Framework layers
const (
	LayerInfrastructure = "infrastructure"
	LayerStorage        = "storage"
	LayerBusiness       = "business"
	LayerApplication    = "application"
)

// startTimeout 启动超时；连接在首次使用时建立，启动本身只做装配
const startTimeout = 30 * time.Second

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts     *options
	fxApp    *fx.App
	services Services
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 配置、日志、指标、事件
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configiface.AppOptions { return b.opts }),
		config.Module(), // 1. 配置（不依赖其他）
		log.Module(),    // 2. 日志（依赖配置）
		fx.Provide(provideRegistry),
		metrics.Module(), // 3. 指标
		event.Module(),   // 4. 事件总线
	}
}

// SetupStorageLayer 流程日志、身份缓存、发布者锁
func (b *Bootstrap) SetupStorageLayer() []fx.Option {
	return []fx.Option{
		badger.Module(),
		memory.Module(),
		lock.Module(),
	}
}

// SetupBusinessLayer 多链接入与发布流程
//
// 顺序：链接入 -> 身份 / NFT / 文章 -> 编排 -> 状态跟踪
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		chain.Module(),
		identity.Module(),
		nft.Module(),
		article.Module(),
		orchestrator.Module(),
		txstate.Module(),
		fx.Provide(provideWallets),
	}
}

// SetupApplicationLayer HTTP API（可选）
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	var modules []fx.Option
	if b.opts.enableAPI {
		modules = append(modules, apihttp.Module())
	}
	modules = append(modules, fx.Invoke(func(s Services) { b.services = s }))
	return modules
}

// SetupModules 按依赖顺序汇总所有层
func (b *Bootstrap) SetupModules() []fx.Option {
	var all []fx.Option
	all = append(all, b.SetupInfrastructureLayer()...)
	all = append(all, b.SetupStorageLayer()...)
	all = append(all, b.SetupBusinessLayer()...)
	all = append(all, b.SetupApplicationLayer()...)
	if b.opts.dialer != nil {
		dialer := b.opts.dialer
		all = append(all, fx.Provide(func() chain.Dialer { return dialer }))
	}
	return all
}

// CreateFxApp 创建 fx 应用；依赖缺失在此返回错误
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(
		fx.Options(b.SetupModules()...),
		fx.NopLogger,
	)
	if err := b.fxApp.Err(); err != nil {
		return fmt.Errorf("装配应用失败: %w", err)
	}
	return nil
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// registryOut 同一个注册表同时作为 Registerer 与 Gatherer
type registryOut struct {
	fx.Out

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func provideRegistry() registryOut {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registryOut{Registerer: reg, Gatherer: reg}
}

type walletParams struct {
	fx.In

	Provider configiface.Provider
	Logger   logiface.Logger `optional:"true"`
}

// provideWallets 外部签名器；签名等待时长与交易终态等待一致
func provideWallets(p walletParams) *wallet.Provider {
	return wallet.NewProvider(
		p.Provider.GetWallets(),
		p.Provider.GetOrchestrator().WatchTimeout,
		log.NewModuleLogger(p.Logger, "wallet"),
	)
}

package chain

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams 多链接入模块依赖
type ModuleParams struct {
	fx.In

	Provider  config.Provider
	Logger    logiface.Logger     `optional:"true"`
	EventBus  event.EventBus      `optional:"true"`
	Metrics   *metrics.Collectors `optional:"true"`
	Dialer    Dialer              `optional:"true"`
	Lifecycle fx.Lifecycle
}

// ModuleOutput 多链接入模块输出
type ModuleOutput struct {
	fx.Out

	Registry *Registry
	Executor *Executor
}

// Module 返回多链接入模块
func Module() fx.Option {
	return fx.Module("chain",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建连接注册表与执行器；停止时关闭所有连接
func ProvideServices(p ModuleParams) ModuleOutput {
	logger := log.NewModuleLogger(p.Logger, "chain")
	registry := NewRegistry(p.Provider.GetChains(), p.Dialer, logger, p.Metrics)
	executor := NewExecutor(p.EventBus, p.Metrics, logger, p.Provider.GetOrchestrator().WatchTimeout)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return registry.Close()
		},
	})
	return ModuleOutput{Registry: registry, Executor: executor}
}

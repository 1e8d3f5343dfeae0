package nft

import (
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams NFT 模块依赖
type ModuleParams struct {
	fx.In

	Registry *chain.Registry
	Executor *chain.Executor
	Logger   logiface.Logger `optional:"true"`
}

// ModuleOutput NFT 模块输出
type ModuleOutput struct {
	fx.Out

	Collections *Registry
	Manager     *Manager
}

// Module 返回 NFT 模块
func Module() fx.Option {
	return fx.Module("nft",
		fx.Provide(func(p ModuleParams) ModuleOutput {
			logger := log.NewModuleLogger(p.Logger, "nft")
			collections := NewRegistry(p.Registry, logger)
			return ModuleOutput{
				Collections: collections,
				Manager:     NewManager(p.Registry, p.Executor, collections, logger),
			}
		}),
	)
}

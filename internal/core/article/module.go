package article

import (
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams 文章模块依赖
type ModuleParams struct {
	fx.In

	Registry *chain.Registry
	Executor *chain.Executor
	Identity *identity.Resolver
	Logger   logiface.Logger `optional:"true"`
}

// ModuleOutput 文章模块输出
type ModuleOutput struct {
	fx.Out

	Recorder *Recorder
	Catalog  *Catalog
	Feed     *Feed
}

// Module 返回文章模块
func Module() fx.Option {
	return fx.Module("article",
		fx.Provide(func(p ModuleParams) ModuleOutput {
			logger := log.NewModuleLogger(p.Logger, "article")
			catalog := NewCatalog(p.Registry, logger)
			return ModuleOutput{
				Recorder: NewRecorder(p.Registry, p.Executor, logger),
				Catalog:  catalog,
				Feed:     NewFeed(catalog, p.Identity, DefaultFeedConcurrency, logger),
			}
		}),
	)
}

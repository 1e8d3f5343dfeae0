package identity

import (
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 身份模块依赖
type ModuleParams struct {
	fx.In

	Registry *chain.Registry
	Cache    storage.MemoryStore `optional:"true"`
	Logger   logiface.Logger     `optional:"true"`
}

// Module 返回身份模块
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(func(p ModuleParams) *Resolver {
			return NewResolver(p.Registry, p.Cache, log.NewModuleLogger(p.Logger, "identity"))
		}),
	)
}

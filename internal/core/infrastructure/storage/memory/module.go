package memory

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 内存缓存模块依赖
type ModuleParams struct {
	fx.In

	Provider  config.Provider
	Logger    logiface.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module 返回内存缓存模块
func Module() fx.Option {
	return fx.Module("memory",
		fx.Provide(func(p ModuleParams) (storage.MemoryStore, error) {
			store, err := New(p.Provider.GetIdentity(), log.NewModuleLogger(p.Logger, "memory"))
			if err != nil {
				return nil, err
			}
			p.Lifecycle.Append(fx.Hook{
				OnStop: func(context.Context) error { return store.Close() },
			})
			return store, nil
		}),
	)
}

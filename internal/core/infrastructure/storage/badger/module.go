package badger

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

// ModuleParams BadgerDB 模块依赖
type ModuleParams struct {
	fx.In

	Provider  config.Provider
	Logger    logiface.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module 返回 BadgerDB 模块，提供 storage.KVStore
func Module() fx.Option {
	return fx.Module("badger",
		fx.Provide(func(p ModuleParams) (storage.KVStore, error) {
			store, err := New(p.Provider.GetStorage(), log.NewModuleLogger(p.Logger, "badger"))
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

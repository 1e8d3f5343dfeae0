package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleInput metrics 模块依赖
type ModuleInput struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// Module 返回 metrics 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(func(in ModuleInput) *Collectors {
			return New(in.Registerer)
		}),
	)
}

package txstate

import (
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams 状态跟踪模块依赖
type ModuleParams struct {
	fx.In

	EventBus event.EventBus
	Logger   logiface.Logger `optional:"true"`
}

// Module 返回状态跟踪模块
func Module() fx.Option {
	return fx.Module("txstate",
		fx.Provide(func(p ModuleParams) (*Tracker, error) {
			t := NewTracker(DefaultCapacity, log.NewModuleLogger(p.Logger, "txstate"))
			if err := t.Attach(p.EventBus); err != nil {
				return nil, err
			}
			return t, nil
		}),
	)
}

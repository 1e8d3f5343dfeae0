package event

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	eventInterface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Logger    logiface.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideEventBus),
	)
}

// ProvideEventBus 创建事件总线，停止时等待异步处理结束
func ProvideEventBus(input ModuleInput) ModuleOutput {
	bus := New(log.NewModuleLogger(input.Logger, "event"))
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			bus.WaitAsync()
			return nil
		},
	})
	return ModuleOutput{EventBus: bus}
}

package lock

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams 锁模块依赖
type ModuleParams struct {
	fx.In

	Provider  config.Provider
	Logger    logiface.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module 返回锁模块
func Module() fx.Option {
	return fx.Module("lock",
		fx.Provide(ProvideLocker),
	)
}

// ProvideLocker 按配置选择 redis 或进程内锁
func ProvideLocker(p ModuleParams) (Locker, error) {
	logger := log.NewModuleLogger(p.Logger, "lock")
	opts := p.Provider.GetLock()

	var locker Locker = NewMemoryLocker()
	if opts.Distributed() {
		rl, err := NewRedisLocker(opts, logger)
		if err != nil {
			return nil, err
		}
		logger.Infof("使用 redis 发布者锁: addr=%s ttl=%s", opts.RedisAddr, opts.TTL)
		locker = rl
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return locker.Close() },
	})
	return locker, nil
}

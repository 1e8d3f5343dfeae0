package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/client/core/wallet"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ModuleParams HTTP 模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Provider     config.Provider
	Chains       *chain.Registry
	Collections  *nft.Registry
	NFTs         *nft.Manager
	Feed         *article.Feed
	Identities   *identity.Resolver
	Orchestrator *orchestrator.Orchestrator
	Legacy       *orchestrator.LegacyFlow
	Journal      *orchestrator.Journal
	Tracker      *txstate.Tracker
	Wallets      *wallet.Provider
	Registerer   prometheus.Registerer `optional:"true"`
	Gatherer     prometheus.Gatherer   `optional:"true"`
	Logger       logiface.Logger       `optional:"true"`
}

// Module 返回 HTTP API 模块；服务器随应用启动与停止
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(NewFromParams),
		fx.Invoke(func(*Server) {}),
	)
}

// NewFromParams 由依赖注入参数创建服务器并注册生命周期
func NewFromParams(p ModuleParams) *Server {
	s := NewServer(Deps{
		Options:      p.Provider.GetAPI(),
		Chains:       p.Chains,
		Collections:  p.Collections,
		NFTs:         p.NFTs,
		Feed:         p.Feed,
		Identities:   p.Identities,
		Orchestrator: p.Orchestrator,
		Legacy:       p.Legacy,
		Journal:      p.Journal,
		Tracker:      p.Tracker,
		Wallets:      p.Wallets,
		Registerer:   p.Registerer,
		Gatherer:     p.Gatherer,
		Logger:       log.NewModuleLogger(p.Logger, "http"),
	})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return s.Start() },
		OnStop:  s.Stop,
	})
	return s
}

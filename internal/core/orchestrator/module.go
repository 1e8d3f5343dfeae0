package orchestrator

import (
	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/lock"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 编排模块依赖
type ModuleParams struct {
	fx.In

	Provider    config.Provider
	Collections *nft.Registry
	NFTs        *nft.Manager
	Recorder    *article.Recorder
	Catalog     *article.Catalog
	Locker      lock.Locker         `optional:"true"`
	Store       storage.KVStore     `optional:"true"`
	EventBus    event.EventBus      `optional:"true"`
	Metrics     *metrics.Collectors `optional:"true"`
	Logger      logiface.Logger     `optional:"true"`
}

// ModuleOutput 编排模块输出
type ModuleOutput struct {
	fx.Out

	Orchestrator *Orchestrator
	Direct       *DirectFlow
	Legacy       *LegacyFlow
	Journal      *Journal
	Reconciler   *Reconciler
}

// Module 返回编排模块
func Module() fx.Option {
	return fx.Module("orchestrator",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 组装两种流程、流程日志与补齐器
func ProvideServices(p ModuleParams) ModuleOutput {
	logger := log.NewModuleLogger(p.Logger, "orchestrator")
	options := p.Provider.GetOrchestrator()
	journal := NewJournal(p.Store)

	direct := NewDirectFlow(DirectFlowDeps{
		Collections: p.Collections,
		NFTs:        p.NFTs,
		Recorder:    p.Recorder,
		Locker:      p.Locker,
		Journal:     journal,
		Bus:         p.EventBus,
		Options:     options,
		Logger:      logger,
	})
	legacy := NewLegacyFlow(p.Collections, p.NFTs, p.Recorder, p.EventBus, options, logger)

	return ModuleOutput{
		Orchestrator: New(p.EventBus, p.Metrics, logger, direct, legacy),
		Direct:       direct,
		Legacy:       legacy,
		Journal:      journal,
		Reconciler:   NewReconciler(journal, p.Catalog, p.Recorder, options, logger),
	}
}

// Package app 装配并运行 newsanchor 应用
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"github.com/weisyn/newsanchor/client/core/wallet"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
	"github.com/weisyn/newsanchor/pkg/interfaces/config"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Services 命令行与测试直接使用的服务
type Services struct {
	fx.In

	Provider     config.Provider
	Logger       logiface.Logger
	Chains       *chain.Registry
	Collections  *nft.Registry
	NFTs         *nft.Manager
	Recorder     *article.Recorder
	Catalog      *article.Catalog
	Feed         *article.Feed
	Identities   *identity.Resolver
	Orchestrator *orchestrator.Orchestrator
	Legacy       *orchestrator.LegacyFlow
	Journal      *orchestrator.Journal
	Reconciler   *orchestrator.Reconciler
	Tracker      *txstate.Tracker
	Wallets      *wallet.Provider
}

// App 运行中的应用
type App interface {
	// Services 已装配的服务
	Services() *Services
	// Stop 停止应用并释放连接、存储与锁
	Stop(ctx context.Context) error
}

type internalApp struct {
	bootstrap *Bootstrap
}

func (a *internalApp) Services() *Services {
	return &a.bootstrap.services
}

func (a *internalApp) Stop(ctx context.Context) error {
	return a.bootstrap.StopApp(ctx)
}

// Start 装配并启动应用
func Start(ctx context.Context, opts ...Option) (App, error) {
	b := NewBootstrap(newOptions(opts...))
	if err := b.CreateFxApp(); err != nil {
		return nil, err
	}
	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := b.StartApp(startCtx); err != nil {
		return nil, err
	}
	return &internalApp{bootstrap: b}, nil
}

// Run 启动应用并阻塞到收到退出信号或 ctx 结束
func Run(ctx context.Context, opts ...Option) error {
	a, err := Start(ctx, opts...)
	if err != nil {
		return err
	}
	logger := a.Services().Logger
	logger.Info("newsanchor 已启动")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("收到退出信号，正在优雅关闭")
	stopCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return fmt.Errorf("关闭失败: %w", err)
	}
	return nil
}

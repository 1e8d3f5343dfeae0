// Package http 面向 UI 客户端的 HTTP API
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/newsanchor/internal/api/http/handlers"
	"github.com/weisyn/newsanchor/internal/api/http/middleware"
	apiconfig "github.com/weisyn/newsanchor/internal/config/api"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Deps HTTP 服务依赖
type Deps struct {
	Options      *apiconfig.APIOptions
	Chains       *chain.Registry
	Collections  *nft.Registry
	NFTs         *nft.Manager
	Feed         *article.Feed
	Identities   *identity.Resolver
	Orchestrator *orchestrator.Orchestrator
	Legacy       *orchestrator.LegacyFlow
	Journal      *orchestrator.Journal
	Tracker      *txstate.Tracker
	Wallets      handlers.SignerSource
	// Registerer/Gatherer 为 nil 时使用 prometheus 默认注册表
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     logiface.Logger
}

// Server HTTP 服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    *apiconfig.APIOptions
	logger     logiface.Logger
	publish    *handlers.PublishHandler
	cancel     context.CancelFunc
	addr       string
}

// NewServer 创建服务器并注册路由
func NewServer(deps Deps) *Server {
	logger := log.OrNop(deps.Logger)
	options := deps.Options
	if options == nil {
		options = apiconfig.New(nil).GetOptions()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.NewMetrics(deps.Registerer).Middleware(),
		middleware.ErrorHandler(logger),
	)

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:  router,
		options: options,
		logger:  logger,
		cancel:  cancel,
		publish: handlers.NewPublishHandler(baseCtx, deps.Orchestrator, deps.Legacy, deps.Journal,
			deps.Tracker, deps.Wallets, logger),
	}

	handlers.NewHealthHandler().RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	v1 := router.Group("/v1")
	s.publish.RegisterRoutes(v1)
	handlers.NewQueryHandler(deps.Chains, deps.Collections, deps.NFTs, deps.Feed, deps.Identities).RegisterRoutes(v1)
	return s
}

// Handler 路由处理器，测试中直接使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 实际监听地址，Start 之后有效
func (s *Server) Addr() string {
	return s.addr
}

// Start 监听并在后台提供服务
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.options.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.options.Listen, err)
	}
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务器运行失败: %v", err)
		}
	}()
	s.logger.Infof("HTTP服务器已启动: %s", s.addr)
	return nil
}

// Stop 停止接收请求，等待进行中的发布流程；超过关闭时限后取消它们
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("正在关闭HTTP服务器")
	stopCtx, cancel := context.WithTimeout(ctx, s.options.ShutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(stopCtx)
	}

	done := make(chan struct{})
	go func() {
		s.publish.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-stopCtx.Done():
		s.logger.Warn("等待发布流程超时，取消进行中的流程")
		s.cancel()
		<-done
	}
	s.cancel()

	if err != nil {
		s.logger.Errorf("HTTP服务器关闭出错: %v", err)
		return err
	}
	s.logger.Info("HTTP服务器已关闭")
	return nil
}

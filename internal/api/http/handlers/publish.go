package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/newsanchor/internal/api/http/middleware"
	apitypes "github.com/weisyn/newsanchor/internal/api/http/types"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// PublishHandler 发布相关写操作
type PublishHandler struct {
	orch    *orchestrator.Orchestrator
	legacy  *orchestrator.LegacyFlow
	journal *orchestrator.Journal
	tracker *txstate.Tracker
	wallets SignerSource
	logger  logiface.Logger

	// 异步流程使用服务级 ctx，停止时等待
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewPublishHandler 创建发布处理器；baseCtx 取消时进行中的流程随之中止
func NewPublishHandler(baseCtx context.Context, orch *orchestrator.Orchestrator, legacy *orchestrator.LegacyFlow,
	journal *orchestrator.Journal, tracker *txstate.Tracker, wallets SignerSource, logger logiface.Logger) *PublishHandler {
	return &PublishHandler{
		orch:    orch,
		legacy:  legacy,
		journal: journal,
		tracker: tracker,
		wallets: wallets,
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// RegisterRoutes 注册路由
func (h *PublishHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/publish", h.Publish)
	r.POST("/legacy/nft", h.LegacyMint)
	r.POST("/legacy/articles", h.LegacyRecord)
	r.GET("/flows/:id", h.GetFlow)
}

// Wait 等待进行中的异步流程结束
func (h *PublishHandler) Wait() {
	h.wg.Wait()
}

func (h *PublishHandler) bind(c *gin.Context) (PublishBody, orchestrator.Request, orchestrator.SigningContext, bool) {
	var body PublishBody
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", middleware.ErrInvalidInput, err))
		return body, orchestrator.Request{}, orchestrator.SigningContext{}, false
	}
	req, err := body.request()
	if err != nil {
		_ = c.Error(err)
		return body, req, orchestrator.SigningContext{}, false
	}
	// 字段校验在签名器查询之前
	if err := req.Content.Validate(); err != nil {
		_ = c.Error(err)
		return body, req, orchestrator.SigningContext{}, false
	}
	sc, err := signing(c.Request.Context(), h.wallets, body.Wallet)
	if err != nil {
		_ = c.Error(err)
		return body, req, sc, false
	}
	if err := sc.Validate(); err != nil {
		_ = c.Error(err)
		return body, req, sc, false
	}
	return body, req, sc, true
}

// Publish 异步执行直接流程，立即返回流程 id
//
// POST /v1/publish
func (h *PublishHandler) Publish(c *gin.Context) {
	_, req, sc, valid := h.bind(c)
	if !valid {
		return
	}

	flowID := orchestrator.NewFlowID()
	h.tracker.Begin(flowID, orchestrator.FlowDirect)
	ctx := chain.WithFlowID(h.baseCtx, flowID)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.orch.Run(ctx, orchestrator.FlowDirect, sc, req); err != nil {
			h.logger.Warnf("异步发布失败: flow=%s err=%v", flowID, err)
		}
	}()

	respond(c, http.StatusAccepted, apitypes.Accepted{FlowID: flowID, Status: "/v1/flows/" + flowID})
}

type mintResponse struct {
	CollectionID uint32 `json:"collectionId"`
	ItemID       uint32 `json:"itemId"`
	TxHash       string `json:"txHash"`
	BlockHash    string `json:"blockHash"`
	Result       string `json:"result"`
}

// LegacyMint 兼容流程：为已登记文章铸造 NFT
//
// POST /v1/legacy/nft
func (h *PublishHandler) LegacyMint(c *gin.Context) {
	_, req, sc, valid := h.bind(c)
	if !valid {
		return
	}
	item, outcome, err := h.legacy.MintForRegisteredArticle(c.Request.Context(), sc, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, mintResponse{
		CollectionID: *req.CollectionID,
		ItemID:       item,
		TxHash:       outcome.TxHash,
		BlockHash:    outcome.BlockHash,
		Result:       fmt.Sprintf("NFT created with ID %d", item),
	})
}

// LegacyRecord 兼容流程：在 EduChain 上登记文章
//
// POST /v1/legacy/articles
func (h *PublishHandler) LegacyRecord(c *gin.Context) {
	_, req, sc, valid := h.bind(c)
	if !valid {
		return
	}
	outcome, err := h.legacy.RecordArticle(c.Request.Context(), sc, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, mintResponse{
		CollectionID: *req.CollectionID,
		ItemID:       *req.ItemID,
		TxHash:       outcome.TxHash,
		BlockHash:    outcome.BlockHash,
		Result:       fmt.Sprintf("Article registered on EduChain with collection ID %d and item ID %d", *req.CollectionID, *req.ItemID),
	})
}

type flowResponse struct {
	State   *txstate.State      `json:"state,omitempty"`
	Journal *orchestrator.Entry `json:"journal,omitempty"`
}

// GetFlow 流程状态与流程日志
//
// GET /v1/flows/:id
func (h *PublishHandler) GetFlow(c *gin.Context) {
	id := c.Param("id")
	var resp flowResponse
	if s, found := h.tracker.Get(id); found {
		resp.State = &s
	}
	if e, err := h.journal.Get(c.Request.Context(), id); err == nil {
		resp.Journal = e
	}
	if resp.State == nil && resp.Journal == nil {
		_ = c.Error(fmt.Errorf("%w: %s", orchestrator.ErrFlowNotFound, id))
		return
	}
	respond(c, http.StatusOK, resp)
}

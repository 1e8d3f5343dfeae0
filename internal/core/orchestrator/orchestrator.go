// Package orchestrator 跨链编排：AssetHub 上的 NFT 与 EduChain 上的文章记录
//
// 两条链之间没有原子性。每一步都从链上状态重新推导（集合归属、下一个物品编号），
// 失败后重新运行即可从当前状态继续；已最终确认的链上状态不会回滚。
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// 流程名称
const (
	FlowDirect = "direct"
	FlowLegacy = "legacy"
)

var (
	// ErrPartialCompletion AssetHub 已最终确认但 EduChain 记录失败；重新运行或由 Reconciler 补齐
	ErrPartialCompletion = errors.New("partial completion: assets finalized but article not recorded")
	// ErrUnknownFlow 未注册的流程名称
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrNotNewsCollection 旧流程要求集合已存在且为新闻集合
	ErrNotNewsCollection = errors.New("collection is not an existing news collection")
	// ErrMissingItem 旧流程要求调用方提供集合与物品编号
	ErrMissingItem = errors.New("collection id and item id are required")
)

// SigningContext 显式传入每次编排调用的账户与签名器
type SigningContext = chain.SigningContext

// Request 发布请求
type Request struct {
	// Publisher 发布者地址，为空时使用签名账户
	Publisher string `json:"publisher"`
	article.Content
	// CollectionID/ItemID 只有旧流程使用，由调用方事先确定
	CollectionID *uint32 `json:"collection_id,omitempty"`
	ItemID       *uint32 `json:"item_id,omitempty"`
}

// Result 发布结果，只有在 EduChain 记录最终确认后才返回
type Result struct {
	FlowID       string `json:"flowId"`
	CollectionID uint32 `json:"collectionId"`
	ItemID       uint32 `json:"itemId"`
	NFTCreated   bool   `json:"nftCreated"`
	// CollectionCreated 本次流程新建了集合
	CollectionCreated bool   `json:"collectionCreated"`
	AssetTxHash       string `json:"assetTxHash,omitempty"`
	ArticleTxHash     string `json:"articleTxHash,omitempty"`
}

// Flow 一种发布策略
type Flow interface {
	Name() string
	Publish(ctx context.Context, sc SigningContext, req Request) (*Result, error)
}

// Orchestrator 按名称选择流程并执行
type Orchestrator struct {
	flows   map[string]Flow
	bus     event.EventBus
	metrics *metrics.Collectors
	logger  logiface.Logger
}

// New 创建编排器；bus 与 m 可为 nil
func New(bus event.EventBus, m *metrics.Collectors, logger logiface.Logger, flows ...Flow) *Orchestrator {
	o := &Orchestrator{
		flows:   make(map[string]Flow, len(flows)),
		bus:     bus,
		metrics: m,
		logger:  log.OrNop(logger),
	}
	for _, f := range flows {
		o.flows[f.Name()] = f
	}
	return o
}

// Flows 已注册的流程名称
func (o *Orchestrator) Flows() []string {
	names := make([]string, 0, len(o.flows))
	for name := range o.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFlowID 生成流程 id
func NewFlowID() string {
	return uuid.NewString()
}

// Run 执行指定流程
//
// ctx 中已有流程 id（chain.WithFlowID）时沿用，否则新建。任何一步失败都中止后续步骤并原样返回错误。
func (o *Orchestrator) Run(ctx context.Context, flowName string, sc SigningContext, req Request) (*Result, error) {
	flow, ok := o.flows[flowName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, flowName)
	}
	flowID := chain.FlowIDFromContext(ctx)
	if flowID == "" {
		flowID = NewFlowID()
		ctx = chain.WithFlowID(ctx, flowID)
	}
	logger := o.logger.With("flow", flowName, "flow_id", flowID)

	o.publish(FlowEvent{FlowID: flowID, Flow: flowName, Stage: EventFlowStarted, At: time.Now()})
	logger.Infof("开始发布流程: publisher=%s hash=%s", req.Publisher, req.ContentHash)

	result, err := flow.Publish(ctx, sc, req)
	if err != nil {
		logger.Errorf("发布流程失败: %v", err)
		o.metrics.ObserveFlow(flowName, "failed")
		o.publish(FlowEvent{FlowID: flowID, Flow: flowName, Stage: EventFlowFailed, Err: err, At: time.Now()})
		return nil, err
	}
	result.FlowID = flowID
	logger.Infof("发布流程完成: collection=%d item=%d", result.CollectionID, result.ItemID)
	o.metrics.ObserveFlow(flowName, "completed")
	o.publish(FlowEvent{FlowID: flowID, Flow: flowName, Stage: EventFlowCompleted, Result: result, At: time.Now()})
	return result, nil
}

func (o *Orchestrator) publish(e FlowEvent) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(e.Stage, e)
}

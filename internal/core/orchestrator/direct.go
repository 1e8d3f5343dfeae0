package orchestrator

import (
	"context"
	"fmt"
	"time"

	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/lock"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// DirectFlow 直接流程（推荐）
//
// AssetHub 一次 batch_all 铸造并写入元数据，最终确认后在 EduChain 记录文章。
// 发布者还没有新闻集合时，默认把建集合也并入同一个 batch_all，总是两次签名。
type DirectFlow struct {
	collections *nft.Registry
	nfts        *nft.Manager
	recorder    *article.Recorder
	locker      lock.Locker
	journal     *Journal
	bus         event.EventBus
	options     *orchestratorconfig.OrchestratorOptions
	logger      logiface.Logger
}

// DirectFlowDeps 直接流程依赖；Locker、Journal、Bus 可为 nil
type DirectFlowDeps struct {
	Collections *nft.Registry
	NFTs        *nft.Manager
	Recorder    *article.Recorder
	Locker      lock.Locker
	Journal     *Journal
	Bus         event.EventBus
	Options     *orchestratorconfig.OrchestratorOptions
	Logger      logiface.Logger
}

// NewDirectFlow 创建直接流程
func NewDirectFlow(deps DirectFlowDeps) *DirectFlow {
	options := deps.Options
	if options == nil {
		options = orchestratorconfig.New(nil)
	}
	journal := deps.Journal
	if journal == nil {
		journal = NewJournal(nil)
	}
	return &DirectFlow{
		collections: deps.Collections,
		nfts:        deps.NFTs,
		recorder:    deps.Recorder,
		locker:      deps.Locker,
		journal:     journal,
		bus:         deps.Bus,
		options:     options,
		logger:      log.OrNop(deps.Logger),
	}
}

// Name 流程名称
func (f *DirectFlow) Name() string { return FlowDirect }

// assetPlan AssetHub 一步的计划
type assetPlan struct {
	collection        uint32
	item              uint32
	collectionCreated bool
	call              chain.Call
}

// Publish 执行直接流程
//
// 步骤：
//  1. 校验签名器与请求，规范化发布者地址
//  2. 持有发布者锁（同一发布者的流程串行）
//  3. 查找发布者的新闻集合，计算集合与物品编号并构造 batch_all
//  4. 提交 AssetHub 批量交易并等待最终确认，回读校验物品
//  5. 提交 EduChain 文章记录并等待最终确认，回读校验记录
func (f *DirectFlow) Publish(ctx context.Context, sc SigningContext, req Request) (*Result, error) {
	// 1. 校验
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := req.Content.Validate(); err != nil {
		return nil, err
	}
	publisher, err := address.Normalize(publisherOf(sc, req))
	if err != nil {
		return nil, err
	}

	// 2. 发布者锁
	if f.locker != nil {
		release, err := f.locker.Acquire(ctx, publisher)
		if err != nil {
			return nil, fmt.Errorf("lock publisher %s: %w", publisher, err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				f.logger.Warnf("释放发布者锁失败: %v", err)
			}
		}()
	}

	flowID := chain.FlowIDFromContext(ctx)
	entry := &Entry{ID: flowID, Flow: FlowDirect, Publisher: publisher, Content: req.Content}
	if flowID != "" {
		if err := f.journal.Start(ctx, entry); err != nil {
			f.logger.Warnf("写入流程日志失败: %v", err)
		}
	}

	// 3. 计划
	plan, err := f.plan(ctx, sc, publisher, req.ContentHash)
	if err != nil {
		f.fail(ctx, entry, err)
		return nil, err
	}
	f.logger.Infof("AssetHub 批量交易: collection=%d item=%d create=%v", plan.collection, plan.item, plan.collectionCreated)

	// 4. AssetHub
	opts := []chain.ExecuteOption{chain.WithTimeout(f.options.WatchTimeout)}
	outcome, err := f.nfts.Submit(ctx, sc, plan.call, opts...)
	if err != nil {
		f.fail(ctx, entry, err)
		return nil, err
	}
	if f.options.VerifyAfterFinalization {
		ok, err := f.nfts.ItemExists(ctx, plan.collection, plan.item, req.ContentHash)
		if err != nil {
			f.fail(ctx, entry, err)
			return nil, err
		}
		if !ok {
			err = fmt.Errorf("%w: item %d/%d missing after batch", chain.ErrDispatchFailed, plan.collection, plan.item)
			f.fail(ctx, entry, err)
			return nil, err
		}
	}
	result := &Result{
		CollectionID:      plan.collection,
		ItemID:            plan.item,
		CollectionCreated: plan.collectionCreated,
		AssetTxHash:       outcome.TxHash,
	}
	f.advance(ctx, entry, func(e *Entry) {
		e.Stage = StageAssetsFinalized
		e.CollectionID, e.ItemID = plan.collection, plan.item
		e.CollectionCreated = plan.collectionCreated
		e.AssetTxHash = outcome.TxHash
	})
	f.step(flowID, StepAssetsFinalized, plan.collection, plan.item)

	// 5. EduChain
	record := req.Content.WithItem(uint64(plan.collection), uint64(plan.item))
	recorded, err := f.recorder.Record(ctx, sc, record, opts...)
	if err == nil && f.options.VerifyAfterFinalization {
		err = f.recorder.Verify(ctx, record)
	}
	if err != nil {
		err = fmt.Errorf("%w: collection %d item %d: %w", ErrPartialCompletion, plan.collection, plan.item, err)
		f.advance(ctx, entry, func(e *Entry) { e.Error = err.Error() })
		return nil, err
	}
	result.ArticleTxHash = recorded.TxHash
	result.NFTCreated = true
	f.advance(ctx, entry, func(e *Entry) {
		e.Stage = StageRecorded
		e.ArticleTxHash = recorded.TxHash
		e.Error = ""
	})
	f.step(flowID, StepArticleRecorded, plan.collection, plan.item)
	return result, nil
}

func (f *DirectFlow) plan(ctx context.Context, sc SigningContext, publisher, contentHash string) (*assetPlan, error) {
	b := f.nfts.Calls()

	collection, found, err := f.collections.FindCollectionFor(ctx, publisher)
	if err != nil {
		return nil, err
	}

	p := &assetPlan{collection: collection}
	var calls []chain.Call
	switch {
	case found:
		if p.item, err = f.nfts.NextItemID(ctx, collection); err != nil {
			return nil, err
		}

	case f.options.FoldCollectionCreation:
		// 新集合：create + set_collection_metadata 与铸造放进同一个 batch_all
		if p.collection, err = f.nfts.NextCollectionID(ctx); err != nil {
			return nil, err
		}
		p.item = 1
		p.collectionCreated = true
		create, err := b.CreateCollection(publisher)
		if err != nil {
			return nil, err
		}
		meta, err := b.SetCollectionMetadata(p.collection)
		if err != nil {
			return nil, err
		}
		calls = append(calls, create, meta)

	default:
		// 单独建集合，多一次签名
		if p.collection, err = f.nfts.CreateCollection(ctx, sc, publisher); err != nil {
			return nil, err
		}
		p.collectionCreated = true
		if p.item, err = f.nfts.NextItemID(ctx, p.collection); err != nil {
			return nil, err
		}
	}

	mint, err := b.Mint(p.collection, p.item, publisher)
	if err != nil {
		return nil, err
	}
	meta, err := b.SetItemMetadata(p.collection, p.item, contentHash)
	if err != nil {
		return nil, err
	}
	if p.call, err = b.BatchAll(append(calls, mint, meta)...); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *DirectFlow) fail(ctx context.Context, e *Entry, cause error) {
	f.advance(ctx, e, func(e *Entry) {
		e.Stage = StageFailed
		e.Error = cause.Error()
	})
}

func (f *DirectFlow) advance(ctx context.Context, e *Entry, mutate func(*Entry)) {
	if e.ID == "" {
		mutate(e)
		return
	}
	if err := f.journal.Update(ctx, e, mutate); err != nil {
		f.logger.Warnf("写入流程日志失败: flow=%s err=%v", e.ID, err)
	}
}

func (f *DirectFlow) step(flowID, step string, collection, item uint32) {
	publishStep(f.bus, FlowDirect, flowID, step, collection, item)
}

func publishStep(bus event.EventBus, flow, flowID, step string, collection, item uint32) {
	if bus == nil {
		return
	}
	bus.Publish(EventFlowStep, FlowEvent{
		FlowID:       flowID,
		Flow:         flow,
		Stage:        EventFlowStep,
		Step:         step,
		CollectionID: collection,
		ItemID:       item,
		At:           time.Now(),
	})
}

func publisherOf(sc SigningContext, req Request) string {
	if req.Publisher != "" {
		return req.Publisher
	}
	return sc.AccountOrSigner()
}

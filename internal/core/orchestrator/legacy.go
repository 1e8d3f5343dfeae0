package orchestrator

import (
	"context"
	"fmt"

	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// LegacyFlow 兼容流程
//
// 集合与物品编号由调用方事先确定。铸造与文章记录是两个可以单独调用的步骤，
// Publish 按顺序执行二者。
type LegacyFlow struct {
	collections *nft.Registry
	nfts        *nft.Manager
	recorder    *article.Recorder
	bus         event.EventBus
	options     *orchestratorconfig.OrchestratorOptions
	logger      logiface.Logger
}

// NewLegacyFlow 创建兼容流程；bus 可为 nil
func NewLegacyFlow(collections *nft.Registry, nfts *nft.Manager, recorder *article.Recorder,
	bus event.EventBus, options *orchestratorconfig.OrchestratorOptions, logger logiface.Logger) *LegacyFlow {
	if options == nil {
		options = orchestratorconfig.New(nil)
	}
	return &LegacyFlow{
		collections: collections,
		nfts:        nfts,
		recorder:    recorder,
		bus:         bus,
		options:     options,
		logger:      log.OrNop(logger),
	}
}

// Name 流程名称
func (f *LegacyFlow) Name() string { return FlowLegacy }

func (f *LegacyFlow) ids(req Request) (uint32, uint32, error) {
	if req.CollectionID == nil || req.ItemID == nil {
		return 0, 0, ErrMissingItem
	}
	return *req.CollectionID, *req.ItemID, nil
}

// MintForRegisteredArticle 在已有新闻集合中铸造物品并写入内容哈希，返回实际使用的物品编号
//
// 未提供 ItemID 时按链上状态取下一个物品编号。
// 使用 Utility.batch：mint 失败时 set_metadata 不再执行，但交易本身仍会最终确认，
// 因此终态后回读物品判断结果。
func (f *LegacyFlow) MintForRegisteredArticle(ctx context.Context, sc SigningContext, req Request) (uint32, *chain.Outcome, error) {
	if err := sc.Validate(); err != nil {
		return 0, nil, err
	}
	if req.CollectionID == nil {
		return 0, nil, ErrMissingItem
	}
	collection := *req.CollectionID
	owner, err := address.Normalize(publisherOf(sc, req))
	if err != nil {
		return 0, nil, err
	}
	exists, err := f.collections.CollectionExists(ctx, collection)
	if err != nil {
		return 0, nil, err
	}
	if !exists {
		return 0, nil, fmt.Errorf("%w: %d", ErrNotNewsCollection, collection)
	}
	var item uint32
	if req.ItemID != nil {
		item = *req.ItemID
	} else if item, err = f.nfts.NextItemID(ctx, collection); err != nil {
		return 0, nil, err
	}

	b := f.nfts.Calls()
	mint, err := b.Mint(collection, item, owner)
	if err != nil {
		return 0, nil, err
	}
	meta, err := b.SetItemMetadata(collection, item, req.ContentHash)
	if err != nil {
		return 0, nil, err
	}
	batch, err := b.Batch(mint, meta)
	if err != nil {
		return 0, nil, err
	}

	f.logger.Infof("兼容流程铸造: collection=%d item=%d owner=%s", collection, item, owner)
	outcome, err := f.nfts.Submit(ctx, sc, batch, chain.WithTimeout(f.options.WatchTimeout))
	if err != nil {
		return 0, nil, err
	}
	if f.options.VerifyAfterFinalization {
		ok, err := f.nfts.ItemExists(ctx, collection, item, req.ContentHash)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			return 0, nil, fmt.Errorf("%w: item %d/%d missing after batch", chain.ErrDispatchFailed, collection, item)
		}
	}
	publishStep(f.bus, FlowLegacy, chain.FlowIDFromContext(ctx), StepNFTMinted, collection, item)
	return item, outcome, nil
}

// RecordArticle 在 EduChain 上记录文章
func (f *LegacyFlow) RecordArticle(ctx context.Context, sc SigningContext, req Request) (*chain.Outcome, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	collection, item, err := f.ids(req)
	if err != nil {
		return nil, err
	}
	record := req.Content.WithItem(uint64(collection), uint64(item))
	outcome, err := f.recorder.Record(ctx, sc, record, chain.WithTimeout(f.options.WatchTimeout))
	if err != nil {
		return nil, err
	}
	if f.options.VerifyAfterFinalization {
		if err := f.recorder.Verify(ctx, record); err != nil {
			return nil, err
		}
	}
	publishStep(f.bus, FlowLegacy, chain.FlowIDFromContext(ctx), StepArticleRecorded, collection, item)
	return outcome, nil
}

// Publish 先铸造再记录；任何一步失败即中止
func (f *LegacyFlow) Publish(ctx context.Context, sc SigningContext, req Request) (*Result, error) {
	if err := req.Content.Validate(); err != nil {
		return nil, err
	}
	if _, _, err := f.ids(req); err != nil {
		return nil, err
	}
	_, minted, err := f.MintForRegisteredArticle(ctx, sc, req)
	if err != nil {
		return nil, err
	}
	recorded, err := f.RecordArticle(ctx, sc, req)
	if err != nil {
		return nil, err
	}
	return &Result{
		CollectionID:  *req.CollectionID,
		ItemID:        *req.ItemID,
		NFTCreated:    true,
		AssetTxHash:   minted.TxHash,
		ArticleTxHash: recorded.TxHash,
	}, nil
}

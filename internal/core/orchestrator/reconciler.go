package orchestrator

import (
	"context"
	"fmt"

	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Reconciler 补齐部分完成的直接流程
//
// 流程日志只用来发现候选；是否需要重新记录以 EduChain 上的文章目录为准。
type Reconciler struct {
	journal  *Journal
	catalog  *article.Catalog
	recorder *article.Recorder
	options  *orchestratorconfig.OrchestratorOptions
	logger   logiface.Logger
}

// NewReconciler 创建补齐器
func NewReconciler(journal *Journal, catalog *article.Catalog, recorder *article.Recorder,
	options *orchestratorconfig.OrchestratorOptions, logger logiface.Logger) *Reconciler {
	if options == nil {
		options = orchestratorconfig.New(nil)
	}
	return &Reconciler{
		journal:  journal,
		catalog:  catalog,
		recorder: recorder,
		options:  options,
		logger:   log.OrNop(logger),
	}
}

// Pending AssetHub 已最终确认、文章尚未记录的流程
func (r *Reconciler) Pending(ctx context.Context) ([]*Entry, error) {
	entries, err := r.journal.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, e := range entries {
		if e.Stage == StageAssetsFinalized {
			out = append(out, e)
		}
	}
	return out, nil
}

// Resume 补齐一个流程
//
// 文章已在 EduChain 上（例如上次提交其实已最终确认）时只更新日志，不再提交。
// 返回 true 表示本次提交了文章记录。
func (r *Reconciler) Resume(ctx context.Context, sc SigningContext, id string) (bool, error) {
	e, err := r.journal.Get(ctx, id)
	if err != nil {
		return false, err
	}
	switch e.Stage {
	case StageRecorded:
		return false, nil
	case StageAssetsFinalized:
	default:
		return false, fmt.Errorf("flow %s is at stage %s, assets not finalized", id, e.Stage)
	}

	existing, err := r.catalog.FindByHash(ctx, e.Content.ContentHash)
	if err != nil {
		return false, err
	}
	if existing != nil {
		r.logger.Infof("文章已记录，跳过: flow=%s hash=%s", id, e.Content.ContentHash)
		return false, r.journal.Update(ctx, e, func(e *Entry) {
			e.Stage = StageRecorded
			e.Error = ""
		})
	}

	if err := sc.Validate(); err != nil {
		return false, err
	}
	req := e.Content.WithItem(uint64(e.CollectionID), uint64(e.ItemID))
	outcome, err := r.recorder.Record(chain.WithFlowID(ctx, id), sc, req, chain.WithTimeout(r.options.WatchTimeout))
	if err == nil && r.options.VerifyAfterFinalization {
		err = r.recorder.Verify(ctx, req)
	}
	if err != nil {
		if uerr := r.journal.Update(ctx, e, func(e *Entry) { e.Error = err.Error() }); uerr != nil {
			r.logger.Warnf("写入流程日志失败: flow=%s err=%v", id, uerr)
		}
		return false, err
	}
	r.logger.Infof("已补齐文章记录: flow=%s collection=%d item=%d", id, e.CollectionID, e.ItemID)
	return true, r.journal.Update(ctx, e, func(e *Entry) {
		e.Stage = StageRecorded
		e.ArticleTxHash = outcome.TxHash
		e.Error = ""
	})
}

package article

import (
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// Connector 获取链连接与调用构造器
type Connector interface {
	Connect(ctx context.Context, name chain.Name) (chain.Connection, error)
	Calls(name chain.Name) *chain.Calls
}

// Executor 签名提交并等待终态
type Executor interface {
	Execute(ctx context.Context, conn chain.Connection, signer chain.ExtrinsicSigner, call chain.Call, opts ...chain.ExecuteOption) (*chain.Outcome, error)
}

// ErrNotRecorded 记录交易已最终确认，但 ArticleByHash 中没有指向请求 NFT 的记录
var ErrNotRecorded = errors.New("article not recorded after finalization")

// Recorder 文章记录器
type Recorder struct {
	connector Connector
	executor  Executor
	catalog   *Catalog
	logger    logiface.Logger
}

// NewRecorder 创建记录器
func NewRecorder(connector Connector, executor Executor, logger logiface.Logger) *Recorder {
	logger = log.OrNop(logger)
	return &Recorder{
		connector: connector,
		executor:  executor,
		catalog:   NewCatalog(connector, logger),
		logger:    logger,
	}
}

// RecordCall 构造 News.record_article，不提交
func (r *Recorder) RecordCall(req Request) (chain.Call, error) {
	args, err := req.EncodeArgs()
	if err != nil {
		return chain.Call{}, err
	}
	return r.connector.Calls(chain.EduChain).Build(pallet, "record_article", args)
}

// Record 提交一次文章记录并等待终态
//
// 恰好一次提交，不重试。重复提交同一内容哈希会产生新的修订，是否拒绝由链决定。
func (r *Recorder) Record(ctx context.Context, sc chain.SigningContext, req Request, opts ...chain.ExecuteOption) (*chain.Outcome, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	call, err := r.RecordCall(req)
	if err != nil {
		return nil, err
	}
	conn, err := r.connector.Connect(ctx, chain.EduChain)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("记录文章: collection=%d item=%d hash=%s", req.CollectionID, req.ItemID, req.ContentHash)
	return r.executor.Execute(ctx, conn, sc.Signer, call, opts...)
}

// Verify 回读 ArticleByHash，确认记录存在且指向请求的集合与物品
//
// 交易最终确认不代表 record_article 分发成功（例如签名被 pallet 拒绝），
// 不符合时返回包装了 chain.ErrDispatchFailed 与 ErrNotRecorded 的错误。
func (r *Recorder) Verify(ctx context.Context, req Request) error {
	rec, err := r.catalog.FindByHash(ctx, req.ContentHash)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %w: hash %s absent", chain.ErrDispatchFailed, ErrNotRecorded, req.ContentHash)
	}
	if rec.CollectionID != req.CollectionID || rec.ItemID != req.ItemID {
		return fmt.Errorf("%w: %w: hash %s points to %d/%d, want %d/%d", chain.ErrDispatchFailed, ErrNotRecorded,
			req.ContentHash, rec.CollectionID, rec.ItemID, req.CollectionID, req.ItemID)
	}
	return nil
}

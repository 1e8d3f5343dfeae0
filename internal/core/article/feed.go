package article

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/types"
)

// DefaultFeedConcurrency 身份查询并发上限
const DefaultFeedConcurrency = 8

// IdentityLookup 发布者身份查询
type IdentityLookup interface {
	Resolve(ctx context.Context, addr string) (*types.Identity, error)
	IsVerified(ctx context.Context, addr string) bool
}

// PublishedArticle 文章及其发布者身份
type PublishedArticle struct {
	types.ArticleRecord
	Identity *types.Identity `json:"identity,omitempty"`
	Verified bool            `json:"verified"`
}

// Feed 带发布者信息的文章列表
type Feed struct {
	catalog     *Catalog
	identities  IdentityLookup
	concurrency int
	logger      logiface.Logger
}

// NewFeed 创建文章列表，concurrency<=0 使用默认值
func NewFeed(catalog *Catalog, identities IdentityLookup, concurrency int, logger logiface.Logger) *Feed {
	if concurrency <= 0 {
		concurrency = DefaultFeedConcurrency
	}
	return &Feed{catalog: catalog, identities: identities, concurrency: concurrency, logger: log.OrNop(logger)}
}

type publisherInfo struct {
	identity *types.Identity
	verified bool
}

// ListWithPublishers 列出文章并附带发布者身份与验证状态
//
// 每个发布者只查询一次；身份读取失败时该发布者按无身份处理。
func (f *Feed) ListWithPublishers(ctx context.Context) ([]PublishedArticle, error) {
	records, err := f.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	publishers := make(map[string]*publisherInfo)
	for _, rec := range records {
		publishers[rec.Publisher] = nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for publisher := range publishers {
		publisher := publisher
		g.Go(func() error {
			info := &publisherInfo{}
			id, err := f.identities.Resolve(gctx, publisher)
			if err != nil {
				f.logger.Warnf("查询发布者身份失败: publisher=%s err=%v", publisher, err)
			} else if id != nil {
				info.identity = id
				info.verified = f.identities.IsVerified(gctx, publisher)
			}
			mu.Lock()
			publishers[publisher] = info
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PublishedArticle, len(records))
	for i, rec := range records {
		out[i] = PublishedArticle{ArticleRecord: rec}
		if info := publishers[rec.Publisher]; info != nil {
			out[i].Identity = info.identity
			out[i].Verified = info.verified
		}
	}
	return out, nil
}

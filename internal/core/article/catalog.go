package article

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/types"
)

// Catalog EduChain 文章目录（只读）
type Catalog struct {
	connector Connector
	logger    logiface.Logger
}

// NewCatalog 创建文章目录
func NewCatalog(connector Connector, logger logiface.Logger) *Catalog {
	return &Catalog{connector: connector, logger: log.OrNop(logger)}
}

// List 全部文章记录，顺序为链上枚举顺序；无法解码的记录被跳过
func (c *Catalog) List(ctx context.Context) ([]types.ArticleRecord, error) {
	conn, err := c.connector.Connect(ctx, chain.EduChain)
	if err != nil {
		return nil, err
	}
	entries, err := conn.StorageEntries(ctx, ArticleByHashPrefix())
	if err != nil {
		return nil, fmt.Errorf("enumerate articles: %w", err)
	}
	out := make([]types.ArticleRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := DecodeRecord(entry.Value)
		if err != nil {
			c.logger.Warnf("跳过无法解码的文章记录: key=%x err=%v", entry.Key, err)
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// FindByHash 按内容哈希查找；不存在时返回 nil, nil
func (c *Catalog) FindByHash(ctx context.Context, contentHash string) (*types.ArticleRecord, error) {
	hash, err := hexutil.Decode(contentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: content hash: %v", ErrInvalidRequest, err)
	}
	conn, err := c.connector.Connect(ctx, chain.EduChain)
	if err != nil {
		return nil, err
	}
	value, err := conn.Storage(ctx, ArticleByHashKey(hash))
	if err != nil {
		return nil, fmt.Errorf("read article %s: %w", contentHash, err)
	}
	if value == nil {
		return nil, nil
	}
	return DecodeRecord(value)
}

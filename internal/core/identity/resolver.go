// Package identity PeopleHub 身份查询与验证判断
package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/newsanchor/pkg/types"
)

const cacheKeyPrefix = "identity:"

// Connector 获取链连接
type Connector interface {
	Connect(ctx context.Context, name chain.Name) (chain.Connection, error)
}

// cachedLookup 缓存条目，Found=false 表示链上无身份
type cachedLookup struct {
	Found        bool          `json:"found"`
	Registration *Registration `json:"registration,omitempty"`
}

// Resolver 身份解析器
type Resolver struct {
	connector Connector
	cache     storage.MemoryStore
	logger    logiface.Logger
}

// NewResolver 创建解析器，cache 为 nil 时不缓存
func NewResolver(connector Connector, cache storage.MemoryStore, logger logiface.Logger) *Resolver {
	return &Resolver{connector: connector, cache: cache, logger: log.OrNop(logger)}
}

// IdentityOfKey Identity.IdentityOf 的存储键
func IdentityOfKey(pub [32]byte) []byte {
	return scale.StorageKey("Identity", "IdentityOf", scale.Twox64Concat(pub[:]))
}

// Resolve 查询地址的身份；没有身份时返回 nil, nil
func (r *Resolver) Resolve(ctx context.Context, addr string) (*types.Identity, error) {
	normalized, reg, err := r.lookup(ctx, addr)
	if err != nil || reg == nil {
		return nil, err
	}
	return &types.Identity{Display: reg.Display, Address: normalized}, nil
}

// Judgements 返回地址的全部评级；没有身份时为空
func (r *Resolver) Judgements(ctx context.Context, addr string) ([]Judgement, error) {
	_, reg, err := r.lookup(ctx, addr)
	if err != nil || reg == nil {
		return nil, err
	}
	return reg.Judgements, nil
}

// CheckVerified 任一评级为 KnownGood 或 Reasonable 时为 true；读取错误原样返回
func (r *Resolver) CheckVerified(ctx context.Context, addr string) (bool, error) {
	_, reg, err := r.lookup(ctx, addr)
	if err != nil {
		return false, err
	}
	return reg.Verified(), nil
}

// IsVerified 与 CheckVerified 相同，但读取错误被记录并视为未验证
func (r *Resolver) IsVerified(ctx context.Context, addr string) bool {
	ok, err := r.CheckVerified(ctx, addr)
	if err != nil {
		r.logger.Warnf("身份验证查询失败，按未验证处理: address=%s err=%v", addr, err)
		return false
	}
	return ok
}

func (r *Resolver) lookup(ctx context.Context, addr string) (string, *Registration, error) {
	pub, err := address.PublicKey(addr)
	if err != nil {
		return "", nil, err
	}
	normalized := address.Encode(pub, address.CanonicalPrefix)

	if entry, ok := r.cached(ctx, normalized); ok {
		return normalized, entry.Registration, nil
	}

	conn, err := r.connector.Connect(ctx, chain.PeopleHub)
	if err != nil {
		return "", nil, err
	}
	value, err := conn.Storage(ctx, IdentityOfKey(pub))
	if err != nil {
		return "", nil, fmt.Errorf("read identity of %s: %w", normalized, err)
	}

	entry := cachedLookup{}
	if value != nil {
		reg, err := decodeRegistration(value)
		if err != nil {
			return "", nil, fmt.Errorf("decode identity of %s: %w", normalized, err)
		}
		entry = cachedLookup{Found: true, Registration: reg}
	}
	r.store(ctx, normalized, entry)
	return normalized, entry.Registration, nil
}

func (r *Resolver) cached(ctx context.Context, normalized string) (cachedLookup, bool) {
	var entry cachedLookup
	if r.cache == nil {
		return entry, false
	}
	raw, ok, err := r.cache.Get(ctx, cacheKeyPrefix+normalized)
	if err != nil || !ok {
		return entry, false
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (r *Resolver) store(ctx context.Context, normalized string, entry cachedLookup) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKeyPrefix+normalized, raw); err != nil {
		r.logger.Debugf("写入身份缓存失败: %v", err)
	}
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/newsanchor/internal/api/http/middleware"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/pkg/types"
)

// QueryHandler 只读查询
type QueryHandler struct {
	chains      *chain.Registry
	collections *nft.Registry
	nfts        *nft.Manager
	feed        *article.Feed
	identities  *identity.Resolver
}

// NewQueryHandler 创建查询处理器
func NewQueryHandler(chains *chain.Registry, collections *nft.Registry, nfts *nft.Manager,
	feed *article.Feed, identities *identity.Resolver) *QueryHandler {
	return &QueryHandler{chains: chains, collections: collections, nfts: nfts, feed: feed, identities: identities}
}

// RegisterRoutes 注册路由
func (h *QueryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/articles", h.ListArticles)
	r.GET("/collections", h.ListCollections)
	r.GET("/collections/:id/next-item", h.NextItem)
	r.GET("/identities/:address", h.GetIdentity)
	r.GET("/nfts/:collection/:item", h.GetItem)
	r.GET("/chains/:name/head", h.Head)
}

// ListArticles 文章及发布者身份
//
// GET /v1/articles
func (h *QueryHandler) ListArticles(c *gin.Context) {
	articles, err := h.feed.ListWithPublishers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if articles == nil {
		articles = []article.PublishedArticle{}
	}
	respond(c, http.StatusOK, articles)
}

// ListCollections 新闻集合
//
// GET /v1/collections
func (h *QueryHandler) ListCollections(c *gin.Context) {
	collections, err := h.collections.ListNewsCollections(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if collections == nil {
		collections = []types.NewsPublisherCollection{}
	}
	respond(c, http.StatusOK, collections)
}

// NextItem 集合的下一个物品编号
//
// GET /v1/collections/:id/next-item
func (h *QueryHandler) NextItem(c *gin.Context) {
	id, valid := parseU32(c, "id")
	if !valid {
		return
	}
	next, err := h.nfts.NextItemID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{"collectionId": id, "nextItemId": next})
}

type identityResponse struct {
	Address  string          `json:"address"`
	Identity *types.Identity `json:"identity"`
	Verified bool            `json:"verified"`
}

// GetIdentity PeopleHub 身份与验证状态
//
// GET /v1/identities/:address
func (h *QueryHandler) GetIdentity(c *gin.Context) {
	ctx := c.Request.Context()
	normalized, err := address.Normalize(c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ident, err := h.identities.Resolve(ctx, normalized)
	if err != nil {
		_ = c.Error(err)
		return
	}
	verified, err := h.identities.CheckVerified(ctx, normalized)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, identityResponse{Address: normalized, Identity: ident, Verified: verified})
}

type itemResponse struct {
	CollectionID uint32 `json:"collectionId"`
	ItemID       uint32 `json:"itemId"`
	Exists       bool   `json:"exists"`
	Owner        string `json:"owner,omitempty"`
	HashMatches  *bool  `json:"hashMatches,omitempty"`
}

// GetItem 物品所有者；带 hash 参数时同时校验元数据
//
// GET /v1/nfts/:collection/:item?hash=0x...
func (h *QueryHandler) GetItem(c *gin.Context) {
	ctx := c.Request.Context()
	collection, valid := parseU32(c, "collection")
	if !valid {
		return
	}
	item, valid := parseU32(c, "item")
	if !valid {
		return
	}
	owner, exists, err := h.nfts.ItemOwner(ctx, collection, item)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := itemResponse{CollectionID: collection, ItemID: item, Exists: exists, Owner: owner}
	if hash := c.Query("hash"); hash != "" {
		matches, err := h.nfts.ItemExists(ctx, collection, item, hash)
		if err != nil {
			_ = c.Error(err)
			return
		}
		resp.HashMatches = &matches
	}
	respond(c, http.StatusOK, resp)
}

var knownChains = map[string]chain.Name{
	string(chain.AssetHub):  chain.AssetHub,
	string(chain.PeopleHub): chain.PeopleHub,
	string(chain.EduChain):  chain.EduChain,
}

// Head 链的最终确认区块头
//
// GET /v1/chains/:name/head
func (h *QueryHandler) Head(c *gin.Context) {
	name, known := knownChains[c.Param("name")]
	if !known {
		_ = c.Error(fmt.Errorf("%w: unknown chain %q", middleware.ErrInvalidInput, c.Param("name")))
		return
	}
	conn, err := h.chains.Connect(c.Request.Context(), name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	head, err := conn.FinalizedHead(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{"chain": name, "head": head, "explorer": h.chains.Explorer(name)})
}

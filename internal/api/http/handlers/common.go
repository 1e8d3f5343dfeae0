// Package handlers HTTP API 处理器
package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/newsanchor/client/core/wallet"
	"github.com/weisyn/newsanchor/internal/api/http/middleware"
	apitypes "github.com/weisyn/newsanchor/internal/api/http/types"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/pkg/types"
)

// SignerSource 按钱包扩展与账户取得签名器
type SignerSource interface {
	GetSigner(ctx context.Context, extension, account string) (wallet.Signer, bool, error)
}

// WalletSelector 请求中的签名器选择
type WalletSelector struct {
	Extension string `json:"extension"`
	Account   string `json:"account"`
}

// ArticleBody 文章字段
type ArticleBody struct {
	Title        string `json:"title" binding:"required"`
	CanonicalURL string `json:"canonicalUrl"`
	ContentHash  string `json:"contentHash" binding:"required"`
	Signature    string `json:"signature" binding:"required"`
	HashAlgo     string `json:"hashAlgo"`
	WordCount    uint32 `json:"wordCount"`
}

// PublishBody 发布请求
type PublishBody struct {
	Wallet    WalletSelector `json:"wallet"`
	Publisher string         `json:"publisher"`
	ArticleBody
	CollectionID *uint32 `json:"collectionId,omitempty"`
	ItemID       *uint32 `json:"itemId,omitempty"`
}

// request 转换为编排请求
func (b PublishBody) request() (orchestrator.Request, error) {
	algo := types.HashAlgoSHA256
	if b.HashAlgo != "" {
		parsed, err := types.ParseHashAlgo(b.HashAlgo)
		if err != nil {
			return orchestrator.Request{}, fmt.Errorf("%w: %v", middleware.ErrInvalidInput, err)
		}
		algo = parsed
	}
	req := orchestrator.Request{
		Publisher:    b.Publisher,
		CollectionID: b.CollectionID,
		ItemID:       b.ItemID,
	}
	req.Title = b.Title
	req.CanonicalURL = b.CanonicalURL
	req.ContentHash = b.ContentHash
	req.Signature = b.Signature
	req.HashAlgo = algo
	req.WordCount = b.WordCount
	return req, nil
}

// signing 根据钱包选择构造签名上下文；签名器不存在时 Signer 为 nil，由编排器报 ErrSignerAbsent
func signing(ctx context.Context, wallets SignerSource, sel WalletSelector) (orchestrator.SigningContext, error) {
	sc := orchestrator.SigningContext{Account: sel.Account}
	if wallets == nil {
		return sc, nil
	}
	signer, ok, err := wallets.GetSigner(ctx, sel.Extension, sel.Account)
	if err != nil {
		return sc, fmt.Errorf("%w: %v", chain.ErrSignerAbsent, err)
	}
	if ok {
		sc.Signer = signer
	}
	return sc, nil
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apitypes.NewSuccessResponse(data).WithRequestID(middleware.GetRequestID(c)))
}

func parseU32(c *gin.Context, param string) (uint32, bool) {
	v, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %s %q", middleware.ErrInvalidInput, param, c.Param(param)))
		return 0, false
	}
	return uint32(v), true
}

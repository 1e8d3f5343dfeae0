package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/pkg/types"
)

// articleFlags 文章字段标志
type articleFlags struct {
	title     string
	url       string
	hash      string
	signature string
	algo      string
	words     uint32
	publisher string
}

func (f *articleFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "文章标题")
	cmd.Flags().StringVar(&f.url, "url", "", "文章规范地址")
	cmd.Flags().StringVar(&f.hash, "hash", "", "内容哈希 (0x 开头，32 字节)")
	cmd.Flags().StringVar(&f.signature, "signature", "", "发布者对内容哈希的 sr25519 签名 (0x 开头，64 字节)")
	cmd.Flags().StringVar(&f.algo, "algo", string(types.HashAlgoSHA256), "哈希算法")
	cmd.Flags().Uint32Var(&f.words, "words", 0, "字数")
	cmd.Flags().StringVar(&f.publisher, "publisher", "", "发布者地址 (默认签名账户)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("signature")
}

func (f *articleFlags) request() (orchestrator.Request, error) {
	algo, err := types.ParseHashAlgo(f.algo)
	if err != nil {
		return orchestrator.Request{}, err
	}
	req := orchestrator.Request{
		Publisher: f.publisher,
		Content: article.Content{
			Title:        f.title,
			CanonicalURL: f.url,
			ContentHash:  f.hash,
			Signature:    f.signature,
			HashAlgo:     algo,
			WordCount:    f.words,
		},
	}
	if err := req.Content.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

var publishArticle articleFlags

// publishCmd 直接流程：一次 AssetHub 批量交易加一次 EduChain 记录
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "发布文章：铸造 NFT 并在 EduChain 登记",
	Long: `在发布者的新闻集合中铸造 NFT（没有集合时先创建），
确认后在 EduChain 以同一集合/物品编号登记文章。

EduChain 一步失败时 NFT 已经存在，可用 "newsanchor reconcile --resume" 补齐。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := publishArticle.request()
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			sc, err := signingContext(ctx, s)
			if err != nil {
				return err
			}
			result, err := s.Orchestrator.Run(ctx, orchestrator.FlowDirect, sc, req)
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("Article verified and NFT created with collection ID %d and item ID %d",
				result.CollectionID, result.ItemID))
			return formatter.Print(result)
		})
	},
}

func init() {
	publishArticle.bind(publishCmd)
}

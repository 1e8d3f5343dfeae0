package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/core/chain"
)

var (
	legacyArticle    articleFlags
	legacyCollection uint32
	legacyItem       uint32
)

// legacyCmd 兼容流程：铸造与登记分两步执行
var legacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "兼容流程：分别铸造 NFT 与登记文章",
}

var legacyMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "在已有新闻集合中为文章铸造 NFT",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := legacyArticle.request()
		if err != nil {
			return err
		}
		collection := legacyCollection
		req.CollectionID = &collection
		if cmd.Flags().Changed("item") {
			item := legacyItem
			req.ItemID = &item
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			sc, err := signingContext(ctx, s)
			if err != nil {
				return err
			}
			item, outcome, err := s.Legacy.MintForRegisteredArticle(ctx, sc, req)
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("NFT created with ID %d", item))
			return formatter.Print(outcomeView(collection, item, outcome))
		})
	},
}

var legacyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "在 EduChain 登记文章（需要集合与物品编号）",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := legacyArticle.request()
		if err != nil {
			return err
		}
		collection, item := legacyCollection, legacyItem
		req.CollectionID, req.ItemID = &collection, &item
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			sc, err := signingContext(ctx, s)
			if err != nil {
				return err
			}
			outcome, err := s.Legacy.RecordArticle(ctx, sc, req)
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("Article registered on EduChain with collection ID %d and item ID %d", collection, item))
			return formatter.Print(outcomeView(collection, item, outcome))
		})
	},
}

type outcomeOutput struct {
	CollectionID uint32 `json:"collectionId"`
	ItemID       uint32 `json:"itemId"`
	TxHash       string `json:"txHash"`
	BlockHash    string `json:"blockHash"`
}

func outcomeView(collection, item uint32, outcome *chain.Outcome) outcomeOutput {
	return outcomeOutput{CollectionID: collection, ItemID: item, TxHash: outcome.TxHash, BlockHash: outcome.BlockHash}
}

func init() {
	for _, cmd := range []*cobra.Command{legacyMintCmd, legacyRecordCmd} {
		cmd.Flags().Uint32Var(&legacyCollection, "collection", 0, "新闻集合编号")
		cmd.Flags().Uint32Var(&legacyItem, "item", 0, "物品编号")
		_ = cmd.MarkFlagRequired("collection")
	}
	_ = legacyRecordCmd.MarkFlagRequired("item")
	legacyArticle.bind(legacyMintCmd)
	legacyArticle.bind(legacyRecordCmd)
	legacyCmd.AddCommand(legacyMintCmd, legacyRecordCmd)
}

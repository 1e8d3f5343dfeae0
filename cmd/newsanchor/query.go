package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/pkg/types"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "列出 AssetHub 上的新闻集合及其所有者",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			collections, err := s.Collections.ListNewsCollections(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(collections)
		})
	},
}

var articlesWithIdentity bool

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "列出 EduChain 上登记的文章",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			if !articlesWithIdentity {
				articles, err := s.Catalog.List(ctx)
				if err != nil {
					return err
				}
				return formatter.Print(articles)
			}
			articles, err := s.Feed.ListWithPublishers(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(articles)
		})
	},
}

type identityOutput struct {
	Address    string               `json:"address"`
	Identity   *types.Identity      `json:"identity"`
	Verified   bool                 `json:"verified"`
	Judgements []identity.Judgement `json:"judgements,omitempty"`
}

var identityCmd = &cobra.Command{
	Use:   "identity <address>",
	Short: "查询 PeopleHub 身份与验证状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := address.Normalize(args[0])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			ident, err := s.Identities.Resolve(ctx, normalized)
			if err != nil {
				return err
			}
			judgements, err := s.Identities.Judgements(ctx, normalized)
			if err != nil {
				return err
			}
			verified, err := s.Identities.CheckVerified(ctx, normalized)
			if err != nil {
				return err
			}
			return formatter.Print(identityOutput{Address: normalized, Identity: ident, Verified: verified, Judgements: judgements})
		})
	},
}

var nftCmd = &cobra.Command{
	Use:   "nft",
	Short: "查询新闻 NFT",
}

var nftExistsCmd = &cobra.Command{
	Use:   "exists <collection> <item> <content-hash>",
	Short: "物品存在且元数据与内容哈希一致",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, item, err := parseItem(args[0], args[1])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			ok, err := s.NFTs.ItemExists(ctx, collection, item, args[2])
			if err != nil {
				return err
			}
			return formatter.Print(map[string]interface{}{"collectionId": collection, "itemId": item, "exists": ok})
		})
	},
}

var nftOwnerCmd = &cobra.Command{
	Use:   "owner <collection> <item>",
	Short: "物品所有者",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, item, err := parseItem(args[0], args[1])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			owner, found, err := s.NFTs.ItemOwner(ctx, collection, item)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("item %d/%d not found", collection, item)
			}
			return formatter.Print(map[string]interface{}{"collectionId": collection, "itemId": item, "owner": owner})
		})
	},
}

var nftNextIDCmd = &cobra.Command{
	Use:   "next-id <collection>",
	Short: "集合中下一个物品编号",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, err := parseU32(args[0])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			next, err := s.NFTs.NextItemID(ctx, collection)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]interface{}{"collectionId": collection, "nextItemId": next})
		})
	},
}

var headCmd = &cobra.Command{
	Use:       "head <chain>",
	Short:     "链的最终确认区块头",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(chain.AssetHub), string(chain.PeopleHub), string(chain.EduChain)},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := chain.Name(args[0])
		switch name {
		case chain.AssetHub, chain.PeopleHub, chain.EduChain:
		default:
			return fmt.Errorf("unknown chain %q", args[0])
		}
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			conn, err := s.Chains.Connect(ctx, name)
			if err != nil {
				return err
			}
			head, err := conn.FinalizedHead(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]interface{}{"chain": name, "head": head, "explorer": s.Chains.Explorer(name)})
		})
	},
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseItem(c, i string) (uint32, uint32, error) {
	collection, err := parseU32(c)
	if err != nil {
		return 0, 0, err
	}
	item, err := parseU32(i)
	if err != nil {
		return 0, 0, err
	}
	return collection, item, nil
}

func init() {
	articlesCmd.Flags().BoolVar(&articlesWithIdentity, "with-identity", true, "附带发布者身份与验证状态")
	nftCmd.AddCommand(nftExistsCmd, nftOwnerCmd, nftNextIDCmd)
}

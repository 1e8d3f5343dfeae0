package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
)

var reconcileResume bool

type resumeOutput struct {
	FlowID    string `json:"flowId"`
	Submitted bool   `json:"submitted"`
	Error     string `json:"error,omitempty"`
}

// reconcileCmd 列出或补齐 NFT 已铸造、文章未登记的流程
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [flow-id...]",
	Short: "补齐只完成了 AssetHub 一步的发布流程",
	Long: `不带 --resume 时列出待补齐的流程。

带 --resume 时逐个在 EduChain 登记文章；未指定 --account 时使用流程记录的发布者账户签名。
文章已在链上的流程只更新本地日志。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			pending, err := s.Reconciler.Pending(ctx)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				pending = selectFlows(pending, args)
			}
			if !reconcileResume {
				return formatter.Print(pending)
			}

			results := make([]resumeOutput, 0, len(pending))
			failed := 0
			for _, e := range pending {
				out := resumeOutput{FlowID: e.ID}
				submitted, err := resume(ctx, s, e)
				out.Submitted = submitted
				if err != nil {
					out.Error = err.Error()
					failed++
				}
				results = append(results, out)
			}
			if err := formatter.Print(results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d flows could not be resumed", failed, len(pending))
			}
			return nil
		})
	},
}

func resume(ctx context.Context, s *app.Services, e *orchestrator.Entry) (bool, error) {
	account := globalFlags.Account
	if account == "" {
		account = e.Publisher
	}
	sc := orchestrator.SigningContext{Account: account}
	signer, found, err := s.Wallets.GetSigner(ctx, globalFlags.Extension, account)
	if err != nil {
		return false, err
	}
	if found {
		sc.Signer = signer
	}
	return s.Reconciler.Resume(ctx, sc, e.ID)
}

func selectFlows(entries []*orchestrator.Entry, ids []string) []*orchestrator.Entry {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*orchestrator.Entry
	for _, e := range entries {
		if _, ok := want[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// flowsCmd 本地流程日志
var flowsCmd = &cobra.Command{
	Use:   "flows [flow-id]",
	Short: "查看本地流程日志",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *app.Services) error {
			if len(args) == 1 {
				e, err := s.Journal.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return formatter.Print(e)
			}
			entries, err := s.Journal.List(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(entries)
		})
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileResume, "resume", false, "在 EduChain 登记待补齐的文章")
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/client/core/output"
	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/config"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件路径
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Extension    string // 钱包扩展名称
	Account      string // 签名账户
}

var (
	globalFlags GlobalFlags
	formatter   *output.Formatter
)

// stopTimeout 一次性命令结束时关闭应用的等待上限
const stopTimeout = 10 * time.Second

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "newsanchor",
	Short: "新闻文章多链锚定工具",
	Long: `newsanchor 把文章的内容哈希与签名锚定到链上：

- AssetHub：发布者新闻集合中的 NFT，元数据为内容哈希
- EduChain：以内容哈希为键的文章记录
- PeopleHub：发布者的链上身份与验证评级

签名由外部钱包完成（--wallet / --account），本进程不持有私钥。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, os.Stdout)
		formatter.SetSilent(globalFlags.Silent)
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if formatter != nil {
			formatter.PrintError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "配置文件路径 (默认读取 NEWSANCHOR_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|table|text")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (不输出结果)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Extension, "wallet", "", "钱包扩展名称 (默认第一个配置的钱包)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Account, "account", "", "签名账户地址 (默认钱包的第一个账户)")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(legacyCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(nftCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadOptions 读取配置文件并组装应用选项
func loadOptions(extra ...app.Option) ([]app.Option, error) {
	appConfig, err := config.LoadFile(config.ResolvePath(globalFlags.ConfigPath))
	if err != nil {
		return nil, err
	}
	return append([]app.Option{app.WithAppConfig(appConfig)}, extra...), nil
}

// withServices 启动不带 HTTP API 的应用，执行 fn 后关闭
func withServices(cmd *cobra.Command, fn func(ctx context.Context, s *app.Services) error) error {
	opts, err := loadOptions(app.WithoutAPI())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.Start(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := a.Stop(stopCtx); err != nil {
			formatter.PrintWarning(err.Error())
		}
	}()
	return fn(ctx, a.Services())
}

// signingContext 按 --wallet / --account 选择签名器
//
// 找不到签名器时 Signer 为 nil，由流程报告签名器缺失。
func signingContext(ctx context.Context, s *app.Services) (orchestrator.SigningContext, error) {
	sc := orchestrator.SigningContext{Account: globalFlags.Account}
	signer, found, err := s.Wallets.GetSigner(ctx, globalFlags.Extension, globalFlags.Account)
	if err != nil {
		return sc, err
	}
	if found {
		sc.Signer = signer
		if sc.Account == "" {
			sc.Account = signer.Address()
		}
	}
	return sc, nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/configs"
	"github.com/weisyn/newsanchor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置文件工具",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "输出示例配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(configs.Example())
		return err
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "校验配置文件 (--config 或 NEWSANCHOR_CONFIG)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolvePath(globalFlags.ConfigPath)
		appConfig, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		p := config.NewProvider(appConfig)
		formatter.PrintSuccess("配置有效: " + path)
		return formatter.Print(map[string]interface{}{
			"chains":       p.GetChains().Names(),
			"journal":      p.GetStorage().GetPath(),
			"distributed":  p.GetLock().Distributed(),
			"api":          p.GetAPI().Listen,
			"wallets":      len(p.GetWallets()),
			"watchTimeout": p.GetOrchestrator().WatchTimeout.String(),
		})
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd, configCheckCmd)
}

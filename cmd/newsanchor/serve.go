package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/newsanchor/internal/app"
	"github.com/weisyn/newsanchor/internal/app/version"
)

// serveCmd 运行 HTTP API 直到收到退出信号
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "运行 HTTP API 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(app.WithAPI())
		if err != nil {
			return err
		}
		return app.Run(cmd.Context(), opts...)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatter != nil && globalFlags.OutputFormat != "json" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			return err
		}
		return formatter.Print(version.GetBuildInfo())
	},
}

// Package orchestrator 提供跨链编排器的配置选项
package orchestrator

import (
	"time"

	configtypes "github.com/weisyn/newsanchor/pkg/types"
)

const (
	// defaultWatchTimeout 单笔交易等待终态的上限
	defaultWatchTimeout = 5 * time.Minute

	// defaultFoldCollectionCreation 新集合时建集合与铸造合并为一个 batch_all
	defaultFoldCollectionCreation = true

	defaultVerifyAfterFinalization = true
)

// OrchestratorOptions 编排器配置
type OrchestratorOptions struct {
	WatchTimeout            time.Duration `json:"watch_timeout"`
	FoldCollectionCreation  bool          `json:"fold_collection_creation"`
	VerifyAfterFinalization bool          `json:"verify_after_finalization"`
}

// New 创建编排器配置
func New(userConfig *configtypes.UserOrchestratorConfig) *OrchestratorOptions {
	options := &OrchestratorOptions{
		WatchTimeout:            defaultWatchTimeout,
		FoldCollectionCreation:  defaultFoldCollectionCreation,
		VerifyAfterFinalization: defaultVerifyAfterFinalization,
	}
	if userConfig == nil {
		return options
	}
	if userConfig.WatchTimeout != nil {
		if d, err := time.ParseDuration(*userConfig.WatchTimeout); err == nil && d > 0 {
			options.WatchTimeout = d
		}
	}
	if userConfig.FoldCollectionCreation != nil {
		options.FoldCollectionCreation = *userConfig.FoldCollectionCreation
	}
	if userConfig.VerifyAfterFinalization != nil {
		options.VerifyAfterFinalization = *userConfig.VerifyAfterFinalization
	}
	return options
}

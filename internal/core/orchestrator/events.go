package orchestrator

import (
	"time"

	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
)

// 流程事件主题，负载均为 FlowEvent
const (
	EventFlowStarted   event.EventType = "orchestrator.flow.started"
	EventFlowCompleted event.EventType = "orchestrator.flow.completed"
	EventFlowFailed    event.EventType = "orchestrator.flow.failed"
	// EventFlowStep 流程内一步完成，Step 为步骤名
	EventFlowStep event.EventType = "orchestrator.flow.step"
)

// 步骤名
const (
	StepAssetsFinalized = "assets_finalized"
	StepArticleRecorded = "article_recorded"
	StepNFTMinted       = "nft_minted"
)

// FlowEvent 流程事件
type FlowEvent struct {
	FlowID string
	Flow   string
	Stage  event.EventType
	Step   string
	// CollectionID/ItemID 在 AssetHub 步骤完成后可用
	CollectionID uint32
	ItemID       uint32
	Result       *Result
	Err          error
	At           time.Time
}

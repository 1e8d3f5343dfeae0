package chain

import (
	"context"
	"time"

	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
)

// EventTxStatus 交易状态事件主题，负载为 TxStatusEvent
const EventTxStatus event.EventType = "chain.tx.status"

// TxStatusEvent 交易状态事件
type TxStatusEvent struct {
	FlowID    string
	Chain     Name
	Call      string
	Status    Status
	State     OutcomeState
	BlockHash string
	TxHash    string
	Err       error
	At        time.Time
}

type flowIDKey struct{}

// WithFlowID 在 ctx 中携带流程 id，执行器据此标注事件
func WithFlowID(ctx context.Context, flowID string) context.Context {
	return context.WithValue(ctx, flowIDKey{}, flowID)
}

// FlowIDFromContext 取出流程 id，没有时返回空串
func FlowIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(flowIDKey{}).(string)
	return id
}

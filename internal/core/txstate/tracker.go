// Package txstate 以流程为单位汇总交易状态，供 CLI 与 HTTP API 查询
//
// 状态来自事件总线：执行器的交易状态事件与编排器的流程事件。
package txstate

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// DefaultCapacity 保留的流程数上限，超出后淘汰最早更新的已结束流程
const DefaultCapacity = 1024

// 结果文本
const (
	resultDirect        = "Article verified and NFT created with collection ID %d and item ID %d"
	resultNFTMinted     = "NFT created with ID %d"
	resultArticleLegacy = "Article registered on EduChain with collection ID %d and item ID %d"
)

// State 单个流程的可观察状态
type State struct {
	FlowID       string       `json:"flowId"`
	Flow         string       `json:"flow"`
	IsPending    bool         `json:"isPending"`
	IsSuccess    bool         `json:"isSuccess"`
	Error        string       `json:"error,omitempty"`
	Result       string       `json:"result,omitempty"`
	TxHash       string       `json:"txHash,omitempty"`
	Chain        chain.Name   `json:"chain,omitempty"`
	Status       chain.Status `json:"status,omitempty"`
	CollectionID uint32       `json:"collectionId"`
	ItemID       uint32       `json:"itemId"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Tracker 订阅事件并维护每个流程的状态
type Tracker struct {
	mu       sync.RWMutex
	states   map[string]*State
	capacity int
	logger   logiface.Logger
}

// NewTracker 创建跟踪器；capacity<=0 使用 DefaultCapacity
func NewTracker(capacity int, logger logiface.Logger) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		states:   make(map[string]*State),
		capacity: capacity,
		logger:   log.OrNop(logger),
	}
}

// Attach 订阅交易与流程事件
func (t *Tracker) Attach(bus event.EventBus) error {
	subs := []struct {
		topic   event.EventType
		handler interface{}
	}{
		{chain.EventTxStatus, t.onTxStatus},
		{orchestrator.EventFlowStarted, t.onFlow},
		{orchestrator.EventFlowStep, t.onFlow},
		{orchestrator.EventFlowCompleted, t.onFlow},
		{orchestrator.EventFlowFailed, t.onFlow},
	}
	for _, s := range subs {
		if err := bus.Subscribe(s.topic, s.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
	}
	return nil
}

// Get 流程状态的副本
func (t *Tracker) Get(flowID string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[flowID]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// List 全部流程状态，最近更新的在前
func (t *Tracker) List() []State {
	t.mu.RLock()
	out := make([]State, 0, len(t.states))
	for _, s := range t.states {
		out = append(out, *s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.After(out[b].UpdatedAt) })
	return out
}

// Begin 在流程开始前登记为进行中，便于异步提交后立即查询
func (t *Tracker) Begin(flowID, flow string) {
	t.update(flowID, time.Now(), func(s *State) {
		s.Flow = flow
		reset(s)
	})
}

func (t *Tracker) onTxStatus(e chain.TxStatusEvent) {
	if e.FlowID == "" {
		return
	}
	t.update(e.FlowID, e.At, func(s *State) {
		s.Chain = e.Chain
		if e.Status != "" {
			s.Status = e.Status
		}
		if e.TxHash != "" {
			s.TxHash = e.TxHash
		}
	})
}

func (t *Tracker) onFlow(e orchestrator.FlowEvent) {
	t.update(e.FlowID, e.At, func(s *State) {
		if e.Flow != "" {
			s.Flow = e.Flow
		}
		switch e.Stage {
		case orchestrator.EventFlowStarted:
			reset(s)
		case orchestrator.EventFlowStep:
			s.CollectionID, s.ItemID = e.CollectionID, e.ItemID
			switch {
			case e.Step == orchestrator.StepNFTMinted:
				s.Result = fmt.Sprintf(resultNFTMinted, e.ItemID)
			case e.Step == orchestrator.StepArticleRecorded && e.Flow == orchestrator.FlowLegacy:
				s.Result = fmt.Sprintf(resultArticleLegacy, e.CollectionID, e.ItemID)
			}
		case orchestrator.EventFlowCompleted:
			s.IsPending, s.IsSuccess = false, true
			if r := e.Result; r != nil {
				s.CollectionID, s.ItemID = r.CollectionID, r.ItemID
				if r.ArticleTxHash != "" {
					s.TxHash = r.ArticleTxHash
				}
				if s.Flow == orchestrator.FlowLegacy {
					s.Result = fmt.Sprintf(resultArticleLegacy, r.CollectionID, r.ItemID)
				} else {
					s.Result = fmt.Sprintf(resultDirect, r.CollectionID, r.ItemID)
				}
			}
		case orchestrator.EventFlowFailed:
			s.IsPending, s.IsSuccess = false, false
			if e.Err != nil {
				s.Error = e.Err.Error()
			}
		}
	})
}

func reset(s *State) {
	s.IsPending = true
	s.IsSuccess = false
	s.Error = ""
	s.Result = ""
	s.TxHash = ""
}

func (t *Tracker) update(flowID string, at time.Time, mutate func(*State)) {
	if at.IsZero() {
		at = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[flowID]
	if !ok {
		t.evictLocked()
		s = &State{FlowID: flowID}
		t.states[flowID] = s
	}
	mutate(s)
	s.UpdatedAt = at
}

// evictLocked 满员时淘汰最早更新的已结束流程；全部进行中则不淘汰
func (t *Tracker) evictLocked() {
	if len(t.states) < t.capacity {
		return
	}
	var oldest *State
	for _, s := range t.states {
		if s.IsPending {
			continue
		}
		if oldest == nil || s.UpdatedAt.Before(oldest.UpdatedAt) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(t.states, oldest.FlowID)
		t.logger.Debugf("淘汰流程状态: %s", oldest.FlowID)
	}
}

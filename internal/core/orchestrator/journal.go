package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/storage"
)

const journalPrefix = "flow/"

// Stage 流程日志阶段
type Stage string

const (
	StageStarted         Stage = "started"
	StageAssetsFinalized Stage = "assets_finalized"
	StageRecorded        Stage = "recorded"
	StageFailed          Stage = "failed"
)

// ErrFlowNotFound 流程日志不存在
var ErrFlowNotFound = errors.New("flow not found")

// Entry 一次直接流程的日志
type Entry struct {
	ID                string          `json:"id"`
	Flow              string          `json:"flow"`
	Publisher         string          `json:"publisher"`
	Content           article.Content `json:"content"`
	Stage             Stage           `json:"stage"`
	CollectionID      uint32          `json:"collection_id"`
	ItemID            uint32          `json:"item_id"`
	CollectionCreated bool            `json:"collection_created"`
	AssetTxHash       string          `json:"asset_tx_hash,omitempty"`
	ArticleTxHash     string          `json:"article_tx_hash,omitempty"`
	Error             string          `json:"error,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Journal 基于 KVStore 的流程日志
//
// 只用于事后发现部分完成的流程，不参与正确性判断：恢复时仍以链上状态为准。
type Journal struct {
	store storage.KVStore
	now   func() time.Time
}

// NewJournal 创建流程日志；store 为 nil 时所有操作为空操作
func NewJournal(store storage.KVStore) *Journal {
	return &Journal{store: store, now: time.Now}
}

func journalKey(id string) []byte {
	return []byte(journalPrefix + id)
}

// Start 记录流程开始
func (j *Journal) Start(ctx context.Context, e *Entry) error {
	now := j.now()
	e.Stage = StageStarted
	e.CreatedAt, e.UpdatedAt = now, now
	return j.put(ctx, e)
}

// Update 修改并写回
func (j *Journal) Update(ctx context.Context, e *Entry, mutate func(*Entry)) error {
	mutate(e)
	e.UpdatedAt = j.now()
	return j.put(ctx, e)
}

func (j *Journal) put(ctx context.Context, e *Entry) error {
	if j.store == nil {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode flow %s: %w", e.ID, err)
	}
	return j.store.Set(ctx, journalKey(e.ID), raw)
}

// Get 读取流程日志
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	if j.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	raw, err := j.store.Get(ctx, journalKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode flow %s: %w", id, err)
	}
	return &e, nil
}

// List 全部流程日志，按创建时间排序
func (j *Journal) List(ctx context.Context) ([]*Entry, error) {
	if j.store == nil {
		return nil, nil
	}
	raw, err := j.store.PrefixScan(ctx, []byte(journalPrefix))
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(raw))
	for key, value := range raw {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

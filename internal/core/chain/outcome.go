package chain

import (
	"encoding/json"
	"fmt"
)

// Status 交易池上报的状态
type Status string

// 交易状态
const (
	StatusFuture          Status = "future"
	StatusReady           Status = "ready"
	StatusBroadcast       Status = "broadcast"
	StatusInBlock         Status = "inBlock"
	StatusRetracted       Status = "retracted"
	StatusFinalityTimeout Status = "finalityTimeout"
	StatusFinalized       Status = "finalized"
	StatusUsurped         Status = "usurped"
	StatusDropped         Status = "dropped"
	StatusInvalid         Status = "invalid"
)

// Terminal 是否为终态
func (s Status) Terminal() bool {
	switch s {
	case StatusFinalized, StatusUsurped, StatusDropped, StatusInvalid, StatusFinalityTimeout:
		return true
	}
	return false
}

// Update 一次状态变化
type Update struct {
	Status    Status
	BlockHash string
}

// ProgressFunc 中间状态回调（inBlock / broadcast / ready 等）
type ProgressFunc func(Update)

// ParseUpdate 解析 author_extrinsicUpdate 通知：字符串或单键对象
func ParseUpdate(raw json.RawMessage) (Update, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Update{Status: Status(s)}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return Update{}, fmt.Errorf("unrecognized extrinsic status %s", string(raw))
	}
	for k, v := range obj {
		u := Update{Status: Status(k)}
		var hash string
		if json.Unmarshal(v, &hash) == nil {
			u.BlockHash = hash
		}
		return u, nil
	}
	return Update{}, nil
}

// OutcomeState 执行结果状态
type OutcomeState string

// 结果状态
const (
	OutcomePending   OutcomeState = "pending"
	OutcomeFinalized OutcomeState = "finalized"
	OutcomeFailed    OutcomeState = "failed"
)

// Outcome 一次提交的唯一终态
type Outcome struct {
	State     OutcomeState `json:"state"`
	BlockHash string       `json:"blockHash,omitempty"`
	TxHash    string       `json:"txHash,omitempty"`
	Err       error        `json:"-"`
}

// Finalized 构造成功终态
func Finalized(blockHash, txHash string) *Outcome {
	return &Outcome{State: OutcomeFinalized, BlockHash: blockHash, TxHash: txHash}
}

// Failed 构造失败终态
func Failed(txHash string, err error) *Outcome {
	return &Outcome{State: OutcomeFailed, TxHash: txHash, Err: err}
}

// OK 是否已最终确认
func (o *Outcome) OK() bool {
	return o != nil && o.State == OutcomeFinalized
}

package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/metrics"
	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// DefaultWatchTimeout 默认终态等待上限
const DefaultWatchTimeout = 5 * time.Minute

// ExecuteOption 执行选项
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	timeout  time.Duration
	progress ProgressFunc
}

// WithTimeout 覆盖终态等待上限
func WithTimeout(d time.Duration) ExecuteOption {
	return func(o *executeOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithProgress 上报中间状态
func WithProgress(fn ProgressFunc) ExecuteOption {
	return func(o *executeOptions) {
		o.progress = fn
	}
}

// Executor 签名、提交并等待一笔交易的终态
type Executor struct {
	bus     event.EventBus
	metrics *metrics.Collectors
	logger  logiface.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewExecutor 创建执行器，bus 与 m 可为 nil
func NewExecutor(bus event.EventBus, m *metrics.Collectors, logger logiface.Logger, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultWatchTimeout
	}
	return &Executor{
		bus:     bus,
		metrics: m,
		logger:  log.OrNop(logger),
		timeout: timeout,
		now:     time.Now,
	}
}

// Execute 执行一次提交
//
// 流程：
//  1. 检查签名器（缺失时在任何提交之前返回 ErrSignerAbsent）
//  2. 签名调用数据
//  3. 提交并等待终态，超时返回 ErrTimeout 并取消订阅
//
// 每次调用恰好产生一个终态；不重试。
func (e *Executor) Execute(ctx context.Context, conn Connection, signer ExtrinsicSigner, call Call, opts ...ExecuteOption) (*Outcome, error) {
	if signer == nil {
		return nil, fmt.Errorf("%s on %s: %w", call.Key(), conn.Name(), ErrSignerAbsent)
	}
	o := executeOptions{timeout: e.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	flowID := FlowIDFromContext(ctx)
	logger := e.logger.With("chain", string(conn.Name()), "call", call.Key())
	if flowID != "" {
		logger = logger.With("flow", flowID)
	}

	// 1. 签名
	extrinsic, err := signer.SignExtrinsic(ctx, conn.Name(), call.Encode())
	if err != nil {
		err = fmt.Errorf("%w: sign %s: %v", ErrSubmission, call.Key(), err)
		logger.Warnf("签名失败: %v", err)
		e.publish(flowID, conn.Name(), call, "", Failed("", err))
		return Failed("", err), err
	}

	// 2. 提交并等待终态
	started := e.now()
	logger.Infof("提交交易: signer=%s bytes=%d", signer.Address(), len(extrinsic))

	watchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	progress := func(u Update) {
		logger.Debugf("交易状态: %s %s", u.Status, u.BlockHash)
		e.publish(flowID, conn.Name(), call, u.Status, &Outcome{State: OutcomePending, BlockHash: u.BlockHash})
		if o.progress != nil {
			o.progress(u)
		}
	}
	outcome, err := conn.SubmitAndWatch(watchCtx, extrinsic, progress)
	if outcome == nil {
		outcome = Failed("", err)
	}

	// 3. 归类结果
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %s on %s", ErrTimeout, o.timeout, call.Key(), conn.Name())
		}
		outcome = Failed(outcome.TxHash, err)
		logger.Errorf("交易失败: tx=%s err=%v", outcome.TxHash, err)
	} else {
		logger.Infof("交易已最终确认: tx=%s block=%s", outcome.TxHash, outcome.BlockHash)
	}
	e.metrics.ObserveExtrinsic(string(conn.Name()), call.Key(), string(outcome.State), e.now().Sub(started))
	e.publish(flowID, conn.Name(), call, "", outcome)
	return outcome, err
}

func (e *Executor) publish(flowID string, chain Name, call Call, status Status, outcome *Outcome) {
	if e.bus == nil {
		return
	}
	if status == "" && outcome.State == OutcomeFinalized {
		status = StatusFinalized
	}
	e.bus.Publish(EventTxStatus, TxStatusEvent{
		FlowID:    flowID,
		Chain:     chain,
		Call:      call.Key(),
		Status:    status,
		State:     outcome.State,
		BlockHash: outcome.BlockHash,
		TxHash:    outcome.TxHash,
		Err:       outcome.Err,
		At:        e.now(),
	})
}

package chain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/event"
)

// stalledConnection 从不到达终态，直到 ctx 结束
type stalledConnection struct {
	*testutil.MockConnection
}

func (s stalledConnection) SubmitAndWatch(ctx context.Context, extrinsic []byte, progress chain.ProgressFunc) (*chain.Outcome, error) {
	progress(chain.Update{Status: chain.StatusReady})
	<-ctx.Done()
	return chain.Failed(chain.ExtrinsicHash(extrinsic), ctx.Err()), ctx.Err()
}

func mintCall(t *testing.T) chain.Call {
	c, err := chain.NewCalls(chain.AssetHub, chainconfig.New(nil)).Build("Nfts", "mint", []byte{1})
	require.NoError(t, err)
	return c
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("最终确认", func(t *testing.T) {
		bus := event.New(nil)
		var mu sync.Mutex
		var events []chain.TxStatusEvent
		require.NoError(t, bus.Subscribe(chain.EventTxStatus, func(e chain.TxStatusEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}))

		conn := testutil.NewMockConnection(chain.AssetHub)
		exec := chain.NewExecutor(bus, nil, nil, time.Second)
		var progress []chain.Status
		outcome, err := exec.Execute(chain.WithFlowID(ctx, "flow-1"), conn, testutil.NewMockSigner("alice"), mintCall(t),
			chain.WithProgress(func(u chain.Update) { progress = append(progress, u.Status) }))
		require.NoError(t, err)
		assert.True(t, outcome.OK())
		assert.NotEmpty(t, outcome.BlockHash)
		assert.Equal(t, chain.ExtrinsicHash([]byte{52, 3, 1}), outcome.TxHash)
		assert.Equal(t, []chain.Status{chain.StatusReady, chain.StatusInBlock}, progress)
		require.Len(t, conn.Submissions(), 1)

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, "flow-1", last.FlowID)
		assert.Equal(t, chain.OutcomeFinalized, last.State)
		assert.Equal(t, "Nfts.mint", last.Call)
	})

	t.Run("签名器缺失时不提交", func(t *testing.T) {
		conn := testutil.NewMockConnection(chain.AssetHub)
		_, err := testutil.NewTestExecutor(time.Second).Execute(ctx, conn, nil, mintCall(t))
		require.ErrorIs(t, err, chain.ErrSignerAbsent)
		assert.Empty(t, conn.Submissions())
	})

	t.Run("签名被拒", func(t *testing.T) {
		conn := testutil.NewMockConnection(chain.AssetHub)
		signer := testutil.NewMockSigner("alice")
		signer.Err = testutil.ErrRejected
		outcome, err := testutil.NewTestExecutor(time.Second).Execute(ctx, conn, signer, mintCall(t))
		require.ErrorIs(t, err, chain.ErrSubmission)
		assert.Equal(t, chain.OutcomeFailed, outcome.State)
		assert.Empty(t, conn.Submissions())
	})

	t.Run("链拒绝", func(t *testing.T) {
		conn := testutil.NewMockConnection(chain.AssetHub)
		conn.OnSubmit = func([]byte) (*chain.Outcome, error) {
			return nil, errors.Join(chain.ErrSubmission, errors.New("invalid"))
		}
		outcome, err := testutil.NewTestExecutor(time.Second).Execute(ctx, conn, testutil.NewMockSigner("alice"), mintCall(t))
		require.ErrorIs(t, err, chain.ErrSubmission)
		assert.False(t, outcome.OK())
	})

	t.Run("超时", func(t *testing.T) {
		conn := stalledConnection{testutil.NewMockConnection(chain.AssetHub)}
		outcome, err := testutil.NewTestExecutor(30*time.Millisecond).Execute(ctx, conn, testutil.NewMockSigner("alice"), mintCall(t))
		require.ErrorIs(t, err, chain.ErrTimeout)
		assert.Equal(t, chain.OutcomeFailed, outcome.State)
	})

	t.Run("调用方取消不归类为超时", func(t *testing.T) {
		conn := stalledConnection{testutil.NewMockConnection(chain.AssetHub)}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := testutil.NewTestExecutor(time.Second).Execute(cctx, conn, testutil.NewMockSigner("alice"), mintCall(t))
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, chain.ErrTimeout)
	})
}

package chain_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/pkg/types"
)

func TestRegistryConnect(t *testing.T) {
	t.Run("并发调用共享一次拨号", func(t *testing.T) {
		var dials atomic.Int32
		var endpoints sync.Map
		conn := testutil.NewMockConnection(chain.EduChain)
		r := chain.NewRegistry(chainconfig.New(nil), func(_ context.Context, name chain.Name, endpoint string) (chain.Connection, error) {
			dials.Add(1)
			endpoints.Store(name, endpoint)
			return conn, nil
		}, nil, nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := r.Connect(context.Background(), chain.EduChain)
				assert.NoError(t, err)
				assert.Same(t, conn, got)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), dials.Load())

		endpoint, _ := endpoints.Load(chain.EduChain)
		assert.Equal(t, "ws://127.0.0.1:9935", endpoint, "只使用第一个端点")

		require.NoError(t, r.Close())
		assert.True(t, conn.Closed())
	})

	t.Run("拨号失败返回 ErrConnection 且不缓存", func(t *testing.T) {
		var dials atomic.Int32
		r := chain.NewRegistry(chainconfig.New(nil), func(context.Context, chain.Name, string) (chain.Connection, error) {
			dials.Add(1)
			return nil, errors.New("connection refused")
		}, nil, nil)

		_, err := r.Connect(context.Background(), chain.AssetHub)
		require.ErrorIs(t, err, chain.ErrConnection)
		_, err = r.Connect(context.Background(), chain.AssetHub)
		require.ErrorIs(t, err, chain.ErrConnection)
		assert.Equal(t, int32(2), dials.Load())
	})

	t.Run("未配置端点", func(t *testing.T) {
		cfg := chainconfig.New(map[string]*types.UserChainConfig{"other": {}})
		r := chain.NewRegistry(cfg, func(context.Context, chain.Name, string) (chain.Connection, error) {
			t.Fatal("不应拨号")
			return nil, nil
		}, nil, nil)
		_, err := r.Connect(context.Background(), chain.Name("other"))
		assert.ErrorIs(t, err, chain.ErrConnection)
	})

	t.Run("浏览器地址", func(t *testing.T) {
		r := testutil.NewTestRegistry(testutil.NewNetwork())
		assert.Equal(t, "https://assethub-paseo.subscan.io", r.Explorer(chain.AssetHub))
		assert.Empty(t, r.Explorer(chain.Name("unknown")))
	})
}

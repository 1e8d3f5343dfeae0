package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// nodeHandler 返回 (result, error对象, 订阅推送)
type nodeHandler func(req nodeRequest) (interface{}, map[string]interface{}, []interface{})

func startNode(t *testing.T, handler nodeHandler) Connection {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req nodeRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			result, rpcErr, pushes := handler(req)
			if rpcErr != nil {
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "error": rpcErr})
				continue
			}
			_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
			for _, p := range pushes {
				_ = conn.WriteJSON(map[string]interface{}{
					"jsonrpc": "2.0",
					"method":  "author_extrinsicUpdate",
					"params":  map[string]interface{}{"subscription": result, "result": p},
				})
			}
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := DialRPC(ctx, EduChain, "ws"+strings.TrimPrefix(srv.URL, "http"), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func param(t *testing.T, raw json.RawMessage) string {
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestRPCStorage(t *testing.T) {
	state := map[string]string{
		"0x0101": "0xaa",
		"0x0102": "0xbb",
		"0x0103": "0xcc",
	}
	conn := startNode(t, func(req nodeRequest) (interface{}, map[string]interface{}, []interface{}) {
		switch req.Method {
		case "state_getStorage":
			if v, ok := state[param(t, req.Params[0])]; ok {
				return v, nil, nil
			}
			return nil, nil, nil
		case "state_queryStorageAt":
			var keys []string
			_ = json.Unmarshal(req.Params[0], &keys)
			changes := make([][2]interface{}, 0, len(keys))
			for _, k := range keys {
				if v, ok := state[k]; ok {
					changes = append(changes, [2]interface{}{k, v})
				} else {
					changes = append(changes, [2]interface{}{k, nil})
				}
			}
			return []interface{}{map[string]interface{}{"block": "0x01", "changes": changes}}, nil, nil
		case "state_getKeysPaged":
			return []string{"0x0101", "0x0102", "0x0103"}, nil, nil
		}
		return nil, map[string]interface{}{"code": -32601, "message": "method not found"}, nil
	})
	ctx := context.Background()

	v, err := conn.Storage(ctx, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbb}, v)

	v, err = conn.Storage(ctx, []byte{9})
	require.NoError(t, err)
	assert.Nil(t, v)

	vs, err := conn.StorageMulti(ctx, [][]byte{{1, 3}, {9, 9}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0xcc}, nil, {0xaa}}, vs)

	entries, err := conn.StorageEntries(ctx, []byte{1})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []byte{1, 1}, entries[0].Key)
	assert.Equal(t, []byte{0xcc}, entries[2].Value)
}

func TestRPCFinalizedHead(t *testing.T) {
	conn := startNode(t, func(req nodeRequest) (interface{}, map[string]interface{}, []interface{}) {
		switch req.Method {
		case "chain_getFinalizedHead":
			return "0xbeef", nil, nil
		case "chain_getHeader":
			return map[string]string{"number": "0x1f", "parentHash": "0xdead"}, nil, nil
		case "system_chain":
			return "EduChain Local", nil, nil
		}
		return nil, nil, nil
	})

	h, err := conn.FinalizedHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(31), h.Number)
	assert.Equal(t, "0xbeef", h.Hash)

	name, err := conn.ChainName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EduChain Local", name)
}

func TestRPCSubmitAndWatch(t *testing.T) {
	extrinsic := []byte{0x50, 0x00, 0x01}

	t.Run("最终确认", func(t *testing.T) {
		conn := startNode(t, func(req nodeRequest) (interface{}, map[string]interface{}, []interface{}) {
			if req.Method == "author_submitAndWatchExtrinsic" {
				assert.Equal(t, hexutil.Encode(extrinsic), param(t, req.Params[0]))
				return "sub-1", nil, []interface{}{
					"ready",
					map[string]string{"inBlock": "0xb1"},
					map[string]string{"finalized": "0xb1"},
				}
			}
			return true, nil, nil
		})

		var seen []Status
		outcome, err := conn.SubmitAndWatch(context.Background(), extrinsic, func(u Update) { seen = append(seen, u.Status) })
		require.NoError(t, err)
		assert.True(t, outcome.OK())
		assert.Equal(t, "0xb1", outcome.BlockHash)
		assert.Equal(t, ExtrinsicHash(extrinsic), outcome.TxHash)
		assert.Equal(t, []Status{StatusReady, StatusInBlock, StatusFinalized}, seen)
	})

	t.Run("交易池拒绝", func(t *testing.T) {
		conn := startNode(t, func(req nodeRequest) (interface{}, map[string]interface{}, []interface{}) {
			return nil, map[string]interface{}{"code": 1010, "message": "Invalid Transaction"}, nil
		})
		outcome, err := conn.SubmitAndWatch(context.Background(), extrinsic, nil)
		require.ErrorIs(t, err, ErrSubmission)
		assert.Equal(t, OutcomeFailed, outcome.State)
	})

	t.Run("被丢弃", func(t *testing.T) {
		conn := startNode(t, func(req nodeRequest) (interface{}, map[string]interface{}, []interface{}) {
			if req.Method == "author_submitAndWatchExtrinsic" {
				return "sub-2", nil, []interface{}{"ready", "dropped"}
			}
			return true, nil, nil
		})
		_, err := conn.SubmitAndWatch(context.Background(), extrinsic, nil)
		require.ErrorIs(t, err, ErrSubmission)
		assert.Contains(t, err.Error(), "dropped")
	})
}

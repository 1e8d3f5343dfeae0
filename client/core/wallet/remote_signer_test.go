package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/pkg/types"
)

const (
	alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	// alice 在 Polkadot 前缀下的形式
	alicePolkadot = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
)

// fakeSignerService 签名服务：签名结果为 0xff 前缀加调用数据
type fakeSignerService struct {
	accounts []Account
	reject   bool
	lastSign signRequest
}

func (f *fakeSignerService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     uint64            `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case methodAccounts:
		resp["result"] = f.accounts
	case methodSignExtrinsic:
		if f.reject {
			resp["error"] = RPCError{Code: CodeUserRejected, Message: "Cancelled"}
			break
		}
		if len(req.Params) != 1 || json.Unmarshal(req.Params[0], &f.lastSign) != nil {
			resp["error"] = RPCError{Code: -32602, Message: "invalid params"}
			break
		}
		call, err := hexutil.Decode(f.lastSign.Call)
		if err != nil {
			resp["error"] = RPCError{Code: -32602, Message: err.Error()}
			break
		}
		resp["result"] = hexutil.Encode(append([]byte{0xff}, call...))
	default:
		resp["error"] = RPCError{Code: -32601, Message: "method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newService(t *testing.T, svc *fakeSignerService) string {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRemoteSignerSignExtrinsic(t *testing.T) {
	svc := &fakeSignerService{accounts: []Account{{Address: alice, Name: "Alice"}}}
	client := NewRemoteClient(newService(t, svc), 0, nil)
	signer := NewRemoteSigner(client, alice)

	signed, err := signer.SignExtrinsic(context.Background(), chain.AssetHub, []byte{0x34, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x34, 0x03}, signed)
	assert.Equal(t, signRequest{Account: alice, Chain: string(chain.AssetHub), Call: "0x3403"}, svc.lastSign)
	assert.Equal(t, alice, signer.Address())
	assert.Equal(t, SignerTypeExternal, signer.Type())
}

func TestRemoteSignerRejected(t *testing.T) {
	svc := &fakeSignerService{reject: true}
	signer := NewRemoteSigner(NewRemoteClient(newService(t, svc), 0, nil), alice)

	_, err := signer.SignExtrinsic(context.Background(), chain.EduChain, []byte{0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserRejected)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeUserRejected, rpcErr.Code)
}

func TestProviderGetSigner(t *testing.T) {
	ctx := context.Background()
	svc := &fakeSignerService{accounts: []Account{{Address: bob}, {Address: alice}}}
	endpoint := newService(t, svc)
	p := NewProvider([]types.UserWalletConfig{{Extension: "polkadot-js", Endpoint: endpoint}}, 0, nil)

	tests := []struct {
		name      string
		extension string
		account   string
		found     bool
		want      string
	}{
		{name: "精确匹配", extension: "polkadot-js", account: alice, found: true, want: alice},
		{name: "不同前缀的同一账户", extension: "polkadot-js", account: alicePolkadot, found: true, want: alice},
		{name: "默认扩展与账户", found: true, want: bob},
		{name: "扩展未配置", extension: "talisman", account: alice},
		{name: "账户不在扩展中", extension: "polkadot-js", account: "5DAAnrj7VHTznn2AWBemMuyBwZWs6FNFjdyVXUeYum3PTXFy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, ok, err := p.GetSigner(ctx, tt.extension, tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, signer.Address())
			} else {
				assert.Nil(t, signer)
			}
		})
	}
	assert.Equal(t, []string{"polkadot-js"}, p.Extensions())
}

func TestProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := NewProvider([]types.UserWalletConfig{{Extension: "polkadot-js", Endpoint: srv.URL}}, 0, nil)

	_, ok, err := p.GetSigner(context.Background(), "polkadot-js", alice)
	assert.Error(t, err)
	assert.False(t, ok)
}

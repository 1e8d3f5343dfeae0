package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/newsanchor/client/core/wallet"
	apihttp "github.com/weisyn/newsanchor/internal/api/http"
	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/article/articletest"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/internal/core/identity"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/event"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/nft/nfttest"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	"github.com/weisyn/newsanchor/internal/core/txstate"
)

const (
	alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
)

var (
	contentHash = "0x" + strings.Repeat("ab", 32)
	signature   = "0x" + strings.Repeat("cd", 64)
)

// staticWallets 只有 alice 的钱包
type staticWallets struct{}

func (staticWallets) GetSigner(_ context.Context, _, account string) (wallet.Signer, bool, error) {
	if account != alice {
		return nil, false, nil
	}
	return testutil.NewMockSigner(alice), true, nil
}

type fixture struct {
	network *testutil.Network
	server  *apihttp.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	network := testutil.NewNetwork()
	chains := chainconfig.New(nil)
	registry := testutil.NewTestRegistry(network)
	executor := testutil.NewTestExecutor(time.Second)

	nfttest.Install(network.AssetHub, chains).SetOrigin(nfttest.Account(alice))
	articletest.Install(network.EduChain, chains).SetOrigin(nfttest.Account(alice))

	bus := event.New(nil)
	tracker := txstate.NewTracker(0, nil)
	require.NoError(t, tracker.Attach(bus))

	collections := nft.NewRegistry(registry, nil)
	manager := nft.NewManager(registry, executor, collections, nil)
	recorder := article.NewRecorder(registry, executor, nil)
	catalog := article.NewCatalog(registry, nil)
	resolver := identity.NewResolver(registry, nil, nil)
	journal := orchestrator.NewJournal(nil)
	direct := orchestrator.NewDirectFlow(orchestrator.DirectFlowDeps{
		Collections: collections, NFTs: manager, Recorder: recorder, Journal: journal, Bus: bus,
	})
	legacy := orchestrator.NewLegacyFlow(collections, manager, recorder, bus, nil, nil)

	reg := prometheus.NewRegistry()
	server := apihttp.NewServer(apihttp.Deps{
		Chains:       registry,
		Collections:  collections,
		NFTs:         manager,
		Feed:         article.NewFeed(catalog, resolver, 0, nil),
		Identities:   resolver,
		Orchestrator: orchestrator.New(bus, nil, nil, direct, legacy),
		Legacy:       legacy,
		Journal:      journal,
		Tracker:      tracker,
		Wallets:      staticWallets{},
		Registerer:   reg,
		Gatherer:     reg,
	})
	t.Cleanup(func() { _ = server.Stop(context.Background()) })
	return &fixture{network: network, server: server}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func publishBody(account string) map[string]interface{} {
	return map[string]interface{}{
		"wallet":       map[string]string{"account": account},
		"title":        "T",
		"canonicalUrl": "https://x",
		"contentHash":  contentHash,
		"signature":    signature,
		"hashAlgo":     "sha256",
		"wordCount":    120,
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, nethttp.MethodGet, "/healthz", nil)
	assert.Equal(t, nethttp.StatusOK, code)
}

func TestPublishAsync(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, nethttp.MethodPost, "/v1/publish", publishBody(alice))
	require.Equal(t, nethttp.StatusAccepted, code)
	var accepted struct {
		FlowID string `json:"flowId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	require.NotEmpty(t, accepted.FlowID)

	var state txstate.State
	require.Eventually(t, func() bool {
		code, env := f.do(t, nethttp.MethodGet, "/v1/flows/"+accepted.FlowID, nil)
		if code != nethttp.StatusOK {
			return false
		}
		var resp struct {
			State *txstate.State `json:"state"`
		}
		if json.Unmarshal(env.Data, &resp) != nil || resp.State == nil {
			return false
		}
		state = *resp.State
		return !state.IsPending
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, state.IsSuccess, state.Error)
	assert.Equal(t, "Article verified and NFT created with collection ID 0 and item ID 1", state.Result)

	code, env = f.do(t, nethttp.MethodGet, "/v1/articles", nil)
	require.Equal(t, nethttp.StatusOK, code)
	var articles []article.PublishedArticle
	require.NoError(t, json.Unmarshal(env.Data, &articles))
	require.Len(t, articles, 1)
	assert.Equal(t, contentHash, articles[0].ContentHash)
	assert.False(t, articles[0].Verified)

	code, env = f.do(t, nethttp.MethodGet, fmt.Sprintf("/v1/nfts/0/1?hash=%s", contentHash), nil)
	require.Equal(t, nethttp.StatusOK, code)
	var item struct {
		Exists      bool   `json:"exists"`
		HashMatches *bool  `json:"hashMatches"`
		Owner       string `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.True(t, item.Exists)
	require.NotNil(t, item.HashMatches)
	assert.True(t, *item.HashMatches)
}

func TestPublishErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{name: "没有签名器", body: publishBody(bob), status: nethttp.StatusPreconditionFailed, code: "SIGNER_ABSENT"},
		{name: "哈希长度错误", body: func() map[string]interface{} {
			b := publishBody(alice)
			b["contentHash"] = "0xabcd"
			return b
		}(), status: nethttp.StatusBadRequest, code: "INVALID_ARGUMENT"},
		{name: "缺少标题", body: func() map[string]interface{} {
			b := publishBody(alice)
			delete(b, "title")
			return b
		}(), status: nethttp.StatusBadRequest, code: "INVALID_ARGUMENT"},
		{name: "未知哈希算法", body: func() map[string]interface{} {
			b := publishBody(alice)
			b["hashAlgo"] = "md5"
			return b
		}(), status: nethttp.StatusBadRequest, code: "INVALID_ARGUMENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, nethttp.MethodPost, "/v1/publish", tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
	assert.Empty(t, f.network.AssetHub.Submissions())
}

func TestLegacyEndpoints(t *testing.T) {
	f := newFixture(t)
	nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")

	body := publishBody(alice)
	body["collectionId"] = 7
	code, env := f.do(t, nethttp.MethodPost, "/v1/legacy/nft", body)
	require.Equal(t, nethttp.StatusOK, code, string(env.Data))
	var minted struct {
		ItemID uint32 `json:"itemId"`
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &minted))
	assert.Equal(t, uint32(1), minted.ItemID)
	assert.Equal(t, "NFT created with ID 1", minted.Result)

	body["itemId"] = minted.ItemID
	code, env = f.do(t, nethttp.MethodPost, "/v1/legacy/articles", body)
	require.Equal(t, nethttp.StatusOK, code)
	var recorded struct {
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recorded))
	assert.Equal(t, "Article registered on EduChain with collection ID 7 and item ID 1", recorded.Result)

	body["collectionId"] = 9
	code, env = f.do(t, nethttp.MethodPost, "/v1/legacy/nft", body)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_NEWS_COLLECTION", env.Error.Code)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")
	for _, item := range []uint32{3, 1, 4} {
		nfttest.SeedItem(f.network.AssetHub, 7, item, alice, contentHash)
	}

	code, env := f.do(t, nethttp.MethodGet, "/v1/collections/7/next-item", nil)
	require.Equal(t, nethttp.StatusOK, code)
	var next struct {
		NextItemID uint32 `json:"nextItemId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.Equal(t, uint32(5), next.NextItemID)

	code, env = f.do(t, nethttp.MethodGet, "/v1/collections", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Contains(t, string(env.Data), `"collectionId":7`)

	code, _ = f.do(t, nethttp.MethodGet, "/v1/collections/abc/next-item", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, env = f.do(t, nethttp.MethodGet, "/v1/identities/"+alice, nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Contains(t, string(env.Data), `"verified":false`)

	code, env = f.do(t, nethttp.MethodGet, "/v1/identities/not-an-address", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ADDRESS", env.Error.Code)

	code, _ = f.do(t, nethttp.MethodGet, "/v1/chains/educhain/head", nil)
	assert.Equal(t, nethttp.StatusOK, code)
	code, _ = f.do(t, nethttp.MethodGet, "/v1/chains/kusama/head", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, env = f.do(t, nethttp.MethodGet, "/v1/flows/missing", nil)
	assert.Equal(t, nethttp.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, nethttp.MethodGet, "/healthz", nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `newsanchor_api_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

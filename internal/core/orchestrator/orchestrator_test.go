package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	orchestratorconfig "github.com/weisyn/newsanchor/internal/config/orchestrator"
	badgerconfig "github.com/weisyn/newsanchor/internal/config/storage/badger"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/article/articletest"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/event"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/lock"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/newsanchor/internal/core/nft"
	"github.com/weisyn/newsanchor/internal/core/nft/nfttest"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	eventiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/newsanchor/pkg/types"
)

const (
	alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
)

func hashOf(b byte) string {
	return "0x" + strings.Repeat(fmt.Sprintf("%02x", b), 32)
}

func content(hash string) article.Content {
	return article.Content{
		Title:        "T",
		CanonicalURL: "https://x",
		ContentHash:  hash,
		Signature:    "0x" + strings.Repeat("cd", 64),
		HashAlgo:     types.HashAlgoSHA256,
		WordCount:    120,
	}
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hexutil.Decode(s)
	require.NoError(t, err)
	return b
}

type fixture struct {
	network   *testutil.Network
	assets    *testutil.Runtime
	articles  *testutil.Runtime
	signer    *testutil.MockSigner
	bus       *event.EventBus
	nfts      *nft.Manager
	catalog   *article.Catalog
	journal   *orchestrator.Journal
	direct    *orchestrator.DirectFlow
	legacy    *orchestrator.LegacyFlow
	reconcile *orchestrator.Reconciler
	orch      *orchestrator.Orchestrator
}

func newFixture(t *testing.T, options *orchestratorconfig.OrchestratorOptions) *fixture {
	t.Helper()
	network := testutil.NewNetwork()
	chains := chainconfig.New(nil)
	registry := testutil.NewTestRegistry(network)
	executor := testutil.NewTestExecutor(time.Second)

	assets := nfttest.Install(network.AssetHub, chains)
	assets.SetOrigin(nfttest.Account(alice))
	articles := articletest.Install(network.EduChain, chains)
	articles.SetOrigin(nfttest.Account(alice))

	store, err := badger.New(badgerconfig.NewFromOptions(&badgerconfig.BadgerOptions{}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if options == nil {
		options = orchestratorconfig.New(nil)
	}
	bus := event.New(nil)
	collections := nft.NewRegistry(registry, nil)
	manager := nft.NewManager(registry, executor, collections, nil)
	recorder := article.NewRecorder(registry, executor, nil)
	catalog := article.NewCatalog(registry, nil)
	journal := orchestrator.NewJournal(store)

	direct := orchestrator.NewDirectFlow(orchestrator.DirectFlowDeps{
		Collections: collections,
		NFTs:        manager,
		Recorder:    recorder,
		Locker:      lock.NewMemoryLocker(),
		Journal:     journal,
		Bus:         bus,
		Options:     options,
	})
	legacy := orchestrator.NewLegacyFlow(collections, manager, recorder, bus, options, nil)

	return &fixture{
		network:   network,
		assets:    assets,
		articles:  articles,
		signer:    testutil.NewMockSigner(alice),
		bus:       bus,
		nfts:      manager,
		catalog:   catalog,
		journal:   journal,
		direct:    direct,
		legacy:    legacy,
		reconcile: orchestrator.NewReconciler(journal, catalog, recorder, options, nil),
		orch:      orchestrator.New(bus, nil, nil, direct, legacy),
	}
}

func (f *fixture) sc() orchestrator.SigningContext {
	return orchestrator.SigningContext{Account: alice, Signer: f.signer}
}

func (f *fixture) publish(t *testing.T, hash string) (*orchestrator.Result, error) {
	t.Helper()
	return f.orch.Run(context.Background(), orchestrator.FlowDirect, f.sc(), orchestrator.Request{Content: content(hash)})
}

func TestDirectFlowWithoutCollection(t *testing.T) {
	f := newFixture(t, nil)
	hash := hashOf(0x01)

	result, err := f.publish(t, hash)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), result.CollectionID)
	assert.Equal(t, uint32(1), result.ItemID)
	assert.True(t, result.NFTCreated)
	assert.True(t, result.CollectionCreated)
	assert.NotEmpty(t, result.FlowID)

	// 一次 AssetHub 批量交易 + 一次 EduChain 记录
	assert.Len(t, f.network.AssetHub.Submissions(), 1)
	assert.Len(t, f.network.EduChain.Submissions(), 1)
	assert.Equal(t, 2, f.signer.Calls())
	assert.Equal(t, []string{chainconfig.CallUtilityBatchAll}, f.assets.Dispatched())
	assert.Equal(t, []string{
		chainconfig.CallUtilityBatchAll,
		chainconfig.CallNftsCreate,
		chainconfig.CallNftsSetCollectionMetadata,
		chainconfig.CallNftsMint,
		chainconfig.CallNftsSetMetadata,
	}, f.assets.Invoked())

	ok, err := f.nfts.ItemExists(context.Background(), 0, 1, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := f.catalog.FindByHash(context.Background(), hash)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(0), rec.CollectionID)
	assert.Equal(t, uint64(1), rec.ItemID)
	assert.Equal(t, address.MustNormalize(alice), rec.Publisher)
}

func TestDirectFlowExistingCollection(t *testing.T) {
	f := newFixture(t, nil)
	nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")
	for _, item := range []uint32{3, 1, 4} {
		nfttest.SeedItem(f.network.AssetHub, 7, item, alice, hashOf(byte(item)))
	}
	nfttest.SetNextCollectionID(f.network.AssetHub, 8)

	result, err := f.publish(t, hashOf(0x42))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), result.CollectionID)
	assert.Equal(t, uint32(5), result.ItemID)
	assert.False(t, result.CollectionCreated)

	rec, err := f.catalog.FindByHash(context.Background(), hashOf(0x42))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(7), rec.CollectionID)
	assert.Equal(t, uint64(5), rec.ItemID)

	// 没有新建集合
	next, err := f.nfts.NextCollectionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(8), next)
}

func TestDirectFlowAssetHubRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.assets.Reject(errors.New("invalid transaction"))

	_, err := f.publish(t, hashOf(0x01))
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrSubmission)
	assert.NotErrorIs(t, err, orchestrator.ErrPartialCompletion)
	assert.Empty(t, f.network.EduChain.Submissions())

	// 未到 assets_finalized，不需要补齐
	pending, err := f.reconcile.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDirectFlowRetryReusesCollection(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.publish(t, hashOf(0x01))
	require.NoError(t, err)
	second, err := f.publish(t, hashOf(0x02))
	require.NoError(t, err)

	assert.Equal(t, first.CollectionID, second.CollectionID)
	assert.Greater(t, second.ItemID, first.ItemID)
	assert.False(t, second.CollectionCreated)
	assert.NotEqual(t, first.FlowID, second.FlowID)
}

func TestDirectFlowSeparateCollectionCreation(t *testing.T) {
	options := orchestratorconfig.New(nil)
	options.FoldCollectionCreation = false
	f := newFixture(t, options)

	result, err := f.publish(t, hashOf(0x01))
	require.NoError(t, err)
	assert.True(t, result.CollectionCreated)
	assert.Equal(t, uint32(1), result.ItemID)

	assert.Equal(t, 3, f.signer.Calls())
	assert.Len(t, f.network.AssetHub.Submissions(), 2)
	assert.Len(t, f.network.EduChain.Submissions(), 1)
}

func TestDirectFlowSignerAbsent(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.Run(context.Background(), orchestrator.FlowDirect,
		orchestrator.SigningContext{Account: alice}, orchestrator.Request{Content: content(hashOf(0x01))})
	assert.ErrorIs(t, err, chain.ErrSignerAbsent)

	_, err = f.orch.Run(context.Background(), orchestrator.FlowDirect,
		orchestrator.SigningContext{Account: bob, Signer: f.signer}, orchestrator.Request{Content: content(hashOf(0x01))})
	assert.ErrorIs(t, err, chain.ErrSignerAbsent)

	assert.Empty(t, f.network.AssetHub.Submissions())
	assert.Equal(t, 0, f.signer.Calls())
}

func TestDirectFlowInvalidContent(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.publish(t, "0xabcd")
	assert.ErrorIs(t, err, article.ErrInvalidRequest)
	assert.Empty(t, f.network.AssetHub.Submissions())
}

func TestDirectFlowPartialCompletionAndResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.articles.Reject(errors.New("pool full"))
	hash := hashOf(0x07)

	_, err := f.publish(t, hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrPartialCompletion)
	assert.ErrorIs(t, err, chain.ErrSubmission)

	// AssetHub 状态已最终确认，不回滚
	ok, err := f.nfts.ItemExists(ctx, 0, 1, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := f.reconcile.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	entry := pending[0]
	assert.Equal(t, orchestrator.StageAssetsFinalized, entry.Stage)
	assert.Equal(t, uint32(0), entry.CollectionID)
	assert.Equal(t, uint32(1), entry.ItemID)
	assert.NotEmpty(t, entry.Error)

	f.articles.Reject(nil)
	resubmitted, err := f.reconcile.Resume(ctx, f.sc(), entry.ID)
	require.NoError(t, err)
	assert.True(t, resubmitted)

	rec, err := f.catalog.FindByHash(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(1), rec.ItemID)

	pending, err = f.reconcile.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := f.journal.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StageRecorded, got.Stage)
	assert.Empty(t, got.Error)
}

func rejectRecords(rt *testutil.Runtime) {
	rt.Handle(chainconfig.CallNewsRecordArticle, func(*testutil.Runtime, *testutil.Overlay, *scale.Decoder) error {
		return errors.New("News.BadSignature")
	})
}

func TestDirectFlowRecordDispatchFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rejectRecords(f.articles)
	hash := hashOf(0x0a)

	result, err := f.publish(t, hash)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, orchestrator.ErrPartialCompletion)
	assert.ErrorIs(t, err, chain.ErrDispatchFailed)
	assert.ErrorIs(t, err, article.ErrNotRecorded)
	assert.Len(t, f.articles.Failures(), 1)

	pending, err := f.reconcile.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, orchestrator.StageAssetsFinalized, pending[0].Stage)
	assert.Contains(t, pending[0].Error, "not recorded")

	// 补齐时记录仍被拒绝：保持待补齐
	resubmitted, err := f.reconcile.Resume(ctx, f.sc(), pending[0].ID)
	assert.False(t, resubmitted)
	assert.ErrorIs(t, err, chain.ErrDispatchFailed)
	pending, err = f.reconcile.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	articles := articletest.Install(f.network.EduChain, chainconfig.New(nil))
	articles.SetOrigin(nfttest.Account(alice))
	resubmitted, err = f.reconcile.Resume(ctx, f.sc(), pending[0].ID)
	require.NoError(t, err)
	assert.True(t, resubmitted)

	pending, err = f.reconcile.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDirectFlowRecordUnverified(t *testing.T) {
	f := newFixture(t, orchestratorconfig.New(&types.UserOrchestratorConfig{
		VerifyAfterFinalization: types.BoolPtr(false),
	}))
	rejectRecords(f.articles)

	result, err := f.publish(t, hashOf(0x0b))
	require.NoError(t, err)
	assert.True(t, result.NFTCreated)
}

func TestReconcilerSkipsRecordedArticle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.articles.Reject(errors.New("timeout"))
	hash := hashOf(0x09)

	_, err := f.publish(t, hash)
	require.ErrorIs(t, err, orchestrator.ErrPartialCompletion)

	pending, err := f.reconcile.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// 记录实际上已经上链
	articletest.Seed(f.network.EduChain, articletest.Record{
		Title:       "T",
		Publisher:   nfttest.Account(alice),
		ItemID:      1,
		ContentHash: mustDecode(t, hash),
		Signature:   make([]byte, 64),
	})
	before := len(f.network.EduChain.Submissions())

	resubmitted, err := f.reconcile.Resume(ctx, f.sc(), pending[0].ID)
	require.NoError(t, err)
	assert.False(t, resubmitted)
	assert.Len(t, f.network.EduChain.Submissions(), before)

	_, err = f.reconcile.Resume(ctx, f.sc(), "missing")
	assert.ErrorIs(t, err, orchestrator.ErrFlowNotFound)
}

func TestDirectFlowSerializesPublisher(t *testing.T) {
	f := newFixture(t, nil)
	nfttest.SeedCollection(f.network.AssetHub, 2, alice, "news")
	nfttest.SetNextCollectionID(f.network.AssetHub, 3)

	const n = 4
	var wg sync.WaitGroup
	results := make([]*orchestrator.Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.orch.Run(context.Background(), orchestrator.FlowDirect, f.sc(),
				orchestrator.Request{Content: content(hashOf(byte(0x10 + i)))})
		}(i)
	}
	wg.Wait()

	seen := make(map[uint32]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, uint32(2), results[i].CollectionID)
		assert.False(t, seen[results[i].ItemID], "item %d minted twice", results[i].ItemID)
		seen[results[i].ItemID] = true
	}
	assert.Len(t, seen, n)
	assert.Empty(t, f.assets.Failures())
}

func TestRunEvents(t *testing.T) {
	f := newFixture(t, nil)

	var mu sync.Mutex
	var stages []string
	record := func(e orchestrator.FlowEvent) {
		mu.Lock()
		defer mu.Unlock()
		if e.Step != "" {
			stages = append(stages, e.Step)
			return
		}
		stages = append(stages, string(e.Stage))
	}
	for _, topic := range []eventiface.EventType{
		orchestrator.EventFlowStarted, orchestrator.EventFlowStep, orchestrator.EventFlowCompleted,
	} {
		require.NoError(t, f.bus.Subscribe(topic, record))
	}

	_, err := f.publish(t, hashOf(0x01))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		string(orchestrator.EventFlowStarted),
		orchestrator.StepAssetsFinalized,
		orchestrator.StepArticleRecorded,
		string(orchestrator.EventFlowCompleted),
	}, stages)
}

func TestRunUnknownFlow(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.orch.Run(context.Background(), "batch", f.sc(), orchestrator.Request{})
	assert.ErrorIs(t, err, orchestrator.ErrUnknownFlow)
	assert.Equal(t, []string{orchestrator.FlowDirect, orchestrator.FlowLegacy}, f.orch.Flows())
}

func uint32Ptr(v uint32) *uint32 { return &v }

func TestLegacyFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("铸造并记录", func(t *testing.T) {
		f := newFixture(t, nil)
		nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")
		req := orchestrator.Request{
			Content:      content(hashOf(0x05)),
			CollectionID: uint32Ptr(7),
			ItemID:       uint32Ptr(9),
		}

		result, err := f.orch.Run(ctx, orchestrator.FlowLegacy, f.sc(), req)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), result.CollectionID)
		assert.Equal(t, uint32(9), result.ItemID)
		assert.True(t, result.NFTCreated)
		assert.Equal(t, []string{chainconfig.CallUtilityBatch}, f.assets.Dispatched())

		rec, err := f.catalog.FindByHash(ctx, hashOf(0x05))
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, uint64(9), rec.ItemID)
	})

	t.Run("缺少编号", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.orch.Run(ctx, orchestrator.FlowLegacy, f.sc(), orchestrator.Request{Content: content(hashOf(0x05))})
		assert.ErrorIs(t, err, orchestrator.ErrMissingItem)
		assert.Empty(t, f.network.AssetHub.Submissions())
	})

	t.Run("集合不是新闻集合", func(t *testing.T) {
		f := newFixture(t, nil)
		nfttest.SeedCollection(f.network.AssetHub, 7, alice, "art")
		_, _, err := f.legacy.MintForRegisteredArticle(ctx, f.sc(), orchestrator.Request{
			Content:      content(hashOf(0x05)),
			CollectionID: uint32Ptr(7),
			ItemID:       uint32Ptr(1),
		})
		assert.ErrorIs(t, err, orchestrator.ErrNotNewsCollection)
		assert.Empty(t, f.network.AssetHub.Submissions())
	})

	t.Run("物品已存在时批量中断", func(t *testing.T) {
		f := newFixture(t, nil)
		nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")
		nfttest.SeedItem(f.network.AssetHub, 7, 1, bob, hashOf(0x01))
		_, _, err := f.legacy.MintForRegisteredArticle(ctx, f.sc(), orchestrator.Request{
			Content:      content(hashOf(0x05)),
			CollectionID: uint32Ptr(7),
			ItemID:       uint32Ptr(1),
		})
		assert.ErrorIs(t, err, chain.ErrDispatchFailed)
		assert.Empty(t, f.network.EduChain.Submissions())
	})

	t.Run("未提供物品编号时取下一个", func(t *testing.T) {
		f := newFixture(t, nil)
		nfttest.SeedCollection(f.network.AssetHub, 7, alice, "news")
		nfttest.SeedItem(f.network.AssetHub, 7, 2, alice, hashOf(0x02))
		item, outcome, err := f.legacy.MintForRegisteredArticle(ctx, f.sc(), orchestrator.Request{
			Content:      content(hashOf(0x05)),
			CollectionID: uint32Ptr(7),
		})
		require.NoError(t, err)
		assert.True(t, outcome.OK())
		assert.Equal(t, uint32(3), item)
	})

	t.Run("记录分发失败", func(t *testing.T) {
		f := newFixture(t, nil)
		rejectRecords(f.articles)
		_, err := f.legacy.RecordArticle(ctx, f.sc(), orchestrator.Request{
			Content:      content(hashOf(0x06)),
			CollectionID: uint32Ptr(3),
			ItemID:       uint32Ptr(2),
		})
		assert.ErrorIs(t, err, chain.ErrDispatchFailed)
		assert.ErrorIs(t, err, article.ErrNotRecorded)
	})

	t.Run("单独记录文章", func(t *testing.T) {
		f := newFixture(t, nil)
		outcome, err := f.legacy.RecordArticle(ctx, f.sc(), orchestrator.Request{
			Content:      content(hashOf(0x06)),
			CollectionID: uint32Ptr(3),
			ItemID:       uint32Ptr(2),
		})
		require.NoError(t, err)
		assert.True(t, outcome.OK())
		assert.Empty(t, f.network.AssetHub.Submissions())
	})
}

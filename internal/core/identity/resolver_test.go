package identity

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryconfig "github.com/weisyn/newsanchor/internal/config/storage/memory"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/storage/memory"
)

const (
	alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
)

// encodeRegistration 构造 IdentityOf 值；tags 为评级枚举下标
func encodeRegistration(display string, tags ...uint8) []byte {
	enc := scale.NewEncoder().PutCompact(uint64(len(tags)))
	for i, tag := range tags {
		enc.PutUint32(uint32(i)).PutUint8(tag)
		if tag == 1 {
			enc.PutUint128(big.NewInt(10))
		}
	}
	enc.PutUint128(big.NewInt(1000))
	if display == "" {
		enc.PutUint8(0)
	} else {
		enc.PutUint8(uint8(len(display) + 1)).PutRaw([]byte(display))
	}
	// legal、web 等其余字段，解码时忽略
	enc.PutUint8(0).PutUint8(0).PutNone()
	return enc.Bytes()
}

type fixture struct {
	network  *testutil.Network
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	network := testutil.NewNetwork()
	cache, err := memory.New(memoryconfig.NewFromOptions(&memoryconfig.MemoryOptions{
		DefaultTTL:         time.Minute,
		CleanWindow:        time.Second,
		MaxEntriesInWindow: 16,
		MaxEntrySize:       256,
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return &fixture{
		network:  network,
		resolver: NewResolver(testutil.NewTestRegistry(network), cache, nil),
	}
}

func (f *fixture) put(addr string, value []byte) {
	pub, err := address.PublicKey(addr)
	if err != nil {
		panic(err)
	}
	f.network.PeopleHub.Put(IdentityOfKey(pub), value)
}

func TestIsVerified(t *testing.T) {
	ctx := context.Background()

	t.Run("KnownGood 视为已验证", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice", 3))
		assert.True(t, f.resolver.IsVerified(ctx, alice))
	})

	t.Run("Reasonable 视为已验证", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice", 1, 2))
		assert.True(t, f.resolver.IsVerified(ctx, alice))
	})

	t.Run("LowQuality 不算验证", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice", 5))
		assert.False(t, f.resolver.IsVerified(ctx, alice))
	})

	t.Run("没有身份", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.resolver.IsVerified(ctx, bob))
	})

	t.Run("读取失败按未验证处理", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice", 3))
		f.network.PeopleHub.ReadErr = errors.New("boom")
		assert.False(t, f.resolver.IsVerified(ctx, alice))

		_, err := f.resolver.CheckVerified(ctx, alice)
		assert.Error(t, err)
	})

	t.Run("非法地址", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.resolver.CheckVerified(ctx, "not-an-address")
		assert.ErrorIs(t, err, address.ErrInvalidAddress)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("返回显示名与规范地址", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice", 3))

		polkadotForm := "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
		id, err := f.resolver.Resolve(ctx, polkadotForm)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "Alice", id.Display)
		assert.Equal(t, address.MustNormalize(alice), id.Address)
	})

	t.Run("没有身份返回 nil", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.resolver.Resolve(ctx, bob)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("结果被缓存", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, encodeRegistration("Alice"))
		_, err := f.resolver.Resolve(ctx, alice)
		require.NoError(t, err)

		f.network.PeopleHub.ReadErr = errors.New("offline")
		id, err := f.resolver.Resolve(ctx, alice)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "Alice", id.Display)
	})

	t.Run("损坏的存储值", func(t *testing.T) {
		f := newFixture(t)
		f.put(alice, []byte{0x04, 0x01})
		_, err := f.resolver.Resolve(ctx, alice)
		assert.Error(t, err)
	})
}

func TestJudgements(t *testing.T) {
	f := newFixture(t)
	f.put(alice, encodeRegistration("Alice", 1, 6))

	judgements, err := f.resolver.Judgements(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, []Judgement{
		{Registrar: 0, Kind: JudgementFeePaid},
		{Registrar: 1, Kind: JudgementErroneous},
	}, judgements)
}

func TestDecodeDataHashVariant(t *testing.T) {
	value := scale.NewEncoder().
		PutCompact(0).
		PutUint128(big.NewInt(0)).
		PutUint8(35).
		PutRaw(make([]byte, 32)).
		Bytes()
	reg, err := decodeRegistration(value)
	require.NoError(t, err)
	assert.Empty(t, reg.Display)
	assert.False(t, reg.Verified())
}

var _ Connector = (*chain.Registry)(nil)

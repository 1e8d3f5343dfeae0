package scale

import (
	"encoding/hex"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactEncoding(t *testing.T) {
	cases := []struct {
		value uint64
		hex   string
	}{
		{0, "00"},
		{1, "04"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{1<<30 - 1, "feffffff"},
		{1 << 30, "0300000040"},
		{1 << 32, "070000000001"},
		{math.MaxUint64, "13ffffffffffffffff"},
	}
	for _, tc := range cases {
		t.Run(tc.hex, func(t *testing.T) {
			got := AppendCompact(nil, tc.value)
			assert.Equal(t, tc.hex, hex.EncodeToString(got))

			v, err := NewDecoder(got).ReadCompact()
			require.NoError(t, err)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestEncoderLayout(t *testing.T) {
	enc := NewEncoder().
		PutUint8(0x2a).
		PutUint32(7).
		PutUint64(1).
		PutBytes([]byte("news")).
		PutNone().
		PutSome().PutUint32(5)

	want := "2a" + "07000000" + "0100000000000000" + "10" + "6e657773" + "00" + "01" + "05000000"
	assert.Equal(t, want, hex.EncodeToString(enc.Bytes()))
}

func TestUint128(t *testing.T) {
	v, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	for _, in := range []*big.Int{big.NewInt(0), big.NewInt(1_000_000_000_000), v} {
		b := NewEncoder().PutUint128(in).Bytes()
		require.Len(t, b, 16)
		out, err := NewDecoder(b).ReadUint128()
		require.NoError(t, err)
		assert.Equal(t, 0, in.Cmp(out), "round trip of %s", in)
	}

	b := NewEncoder().PutUint128(big.NewInt(1)).Bytes()
	assert.Equal(t, byte(1), b[0], "小端序")
}

func TestDecoderErrors(t *testing.T) {
	t.Run("截断的 u32", func(t *testing.T) {
		_, err := NewDecoder([]byte{1, 2}).ReadUint32()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("长度前缀超出输入", func(t *testing.T) {
		_, err := NewDecoder([]byte{0x10, 'n'}).ReadBytes()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("非法 Option 标记", func(t *testing.T) {
		_, err := NewDecoder([]byte{2}).ReadOption()
		assert.Error(t, err)
	})

	t.Run("超过 u64 的紧凑整数", func(t *testing.T) {
		_, err := NewDecoder([]byte{0x17, 0, 0, 0, 0, 0, 0, 0, 0, 0}).ReadCompact()
		assert.Error(t, err)
	})
}

func TestDecoderSequence(t *testing.T) {
	data := NewEncoder().PutBool(true).PutBytes([]byte{0xaa, 0xbb}).PutRaw([]byte{1, 2, 3}).Bytes()
	dec := NewDecoder(data)

	b, err := dec.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	bs, err := dec.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, bs)

	require.NoError(t, dec.Skip(1))
	fixed, err := dec.ReadFixed(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, fixed)
	assert.Zero(t, dec.Remaining())
}

func TestStorageKeys(t *testing.T) {
	t.Run("已知前缀 System.Account", func(t *testing.T) {
		assert.Equal(t,
			"26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9",
			hex.EncodeToString(StoragePrefix("System", "Account")))
	})

	t.Run("Blake2_128Concat 保留原始键", func(t *testing.T) {
		k := Blake2_128Concat(U32(7))
		require.Len(t, k, Blake2_128Len+4)
		assert.Equal(t, U32(7), k[Blake2_128Len:])
		assert.NotEqual(t, Blake2_128Concat(U32(8))[:Blake2_128Len], k[:Blake2_128Len])
	})

	t.Run("Twox64Concat 保留原始键", func(t *testing.T) {
		acc := make([]byte, 32)
		acc[0] = 0xd4
		k := Twox64Concat(acc)
		require.Len(t, k, Twox64Len+32)
		assert.Equal(t, acc, k[Twox64Len:])
	})

	t.Run("双键拼接", func(t *testing.T) {
		key := StorageKey("Nfts", "ItemMetadataOf", Blake2_128Concat(U32(1)), Blake2_128Concat(U32(2)))
		assert.Len(t, key, 32+2*(Blake2_128Len+4))
		assert.Equal(t, StoragePrefix("Nfts", "ItemMetadataOf"), key[:32])
	})
}

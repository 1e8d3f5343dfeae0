package scale

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Twox128 两轮 xxhash64（种子 0 和 1）拼接，用于 pallet 与存储项前缀
func Twox128(data []byte) []byte {
	out := make([]byte, 0, 16)
	for seed := uint64(0); seed < 2; seed++ {
		h := xxhash.NewWithSeed(seed)
		_, _ = h.Write(data)
		out = binary.LittleEndian.AppendUint64(out, h.Sum64())
	}
	return out
}

// Twox64Concat xxhash64(data) || data
func Twox64Concat(data []byte) []byte {
	out := binary.LittleEndian.AppendUint64(make([]byte, 0, 8+len(data)), xxhash.Sum64(data))
	return append(out, data...)
}

// Blake2_128Concat blake2b-128(data) || data
func Blake2_128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return append(h.Sum(nil), data...)
}

// Blake2_128Len Blake2_128Concat 中哈希部分的长度
const Blake2_128Len = 16

// Twox64Len Twox64Concat 中哈希部分的长度
const Twox64Len = 8

// StoragePrefix 存储项前缀 twox128(pallet) || twox128(item)
func StoragePrefix(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// StorageKey 存储键：前缀后依次追加已哈希的 map 键
func StorageKey(pallet, item string, hashedKeys ...[]byte) []byte {
	key := StoragePrefix(pallet, item)
	for _, k := range hashedKeys {
		key = append(key, k...)
	}
	return key
}

// U32 u32 键的 SCALE 编码
func U32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// U64 u64 键的 SCALE 编码
func U64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

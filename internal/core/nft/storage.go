// Package nft AssetHub 上的新闻 NFT：集合发现、编号计算、调用构造与存在性校验
package nft

import (
	"encoding/binary"
	"fmt"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
)

const pallet = "Nfts"

// NewsPrefix 新闻集合元数据的前缀
const NewsPrefix = "news"

// CollectionMetadataPrefix Nfts.CollectionMetadataOf 的枚举前缀
func CollectionMetadataPrefix() []byte {
	return scale.StoragePrefix(pallet, "CollectionMetadataOf")
}

// CollectionMetadataKey Nfts.CollectionMetadataOf(collection)
func CollectionMetadataKey(collection uint32) []byte {
	return scale.StorageKey(pallet, "CollectionMetadataOf", scale.Blake2_128Concat(scale.U32(collection)))
}

// CollectionKey Nfts.Collection(collection)
func CollectionKey(collection uint32) []byte {
	return scale.StorageKey(pallet, "Collection", scale.Blake2_128Concat(scale.U32(collection)))
}

// ItemKey Nfts.Item(collection, item)
func ItemKey(collection, item uint32) []byte {
	return scale.StorageKey(pallet, "Item",
		scale.Blake2_128Concat(scale.U32(collection)),
		scale.Blake2_128Concat(scale.U32(item)))
}

// ItemMetadataPrefix Nfts.ItemMetadataOf(collection, *) 的枚举前缀
func ItemMetadataPrefix(collection uint32) []byte {
	return scale.StorageKey(pallet, "ItemMetadataOf", scale.Blake2_128Concat(scale.U32(collection)))
}

// ItemMetadataKey Nfts.ItemMetadataOf(collection, item)
func ItemMetadataKey(collection, item uint32) []byte {
	return scale.StorageKey(pallet, "ItemMetadataOf",
		scale.Blake2_128Concat(scale.U32(collection)),
		scale.Blake2_128Concat(scale.U32(item)))
}

// NextCollectionIDKey Nfts.NextCollectionId
func NextCollectionIDKey() []byte {
	return scale.StorageKey(pallet, "NextCollectionId")
}

// trailingU32 取 Blake2_128Concat 键末尾的 u32
func trailingU32(key []byte) (uint32, error) {
	if len(key) < 4 {
		return 0, fmt.Errorf("storage key too short: %d bytes", len(key))
	}
	return binary.LittleEndian.Uint32(key[len(key)-4:]), nil
}

// decodeCollectionMetadata CollectionMetadata{deposit u128, data}
func decodeCollectionMetadata(value []byte) (string, error) {
	dec := scale.NewDecoder(value)
	if _, err := dec.ReadUint128(); err != nil {
		return "", fmt.Errorf("decode collection metadata deposit: %w", err)
	}
	data, err := dec.ReadBytes()
	if err != nil {
		return "", fmt.Errorf("decode collection metadata data: %w", err)
	}
	return string(data), nil
}

// decodeItemMetadata ItemMetadata{deposit{account Option<AccountId>, amount u128}, data}
func decodeItemMetadata(value []byte) (string, error) {
	dec := scale.NewDecoder(value)
	some, err := dec.ReadOption()
	if err != nil {
		return "", fmt.Errorf("decode item metadata depositor: %w", err)
	}
	if some {
		if err := dec.Skip(32); err != nil {
			return "", fmt.Errorf("decode item metadata depositor: %w", err)
		}
	}
	if _, err := dec.ReadUint128(); err != nil {
		return "", fmt.Errorf("decode item metadata deposit: %w", err)
	}
	data, err := dec.ReadBytes()
	if err != nil {
		return "", fmt.Errorf("decode item metadata data: %w", err)
	}
	return string(data), nil
}

// decodeOwner Collection 与 Item 的值都以所有者 AccountId32 开头
func decodeOwner(value []byte) (chain.AccountID, error) {
	var owner chain.AccountID
	raw, err := scale.NewDecoder(value).ReadFixed(len(owner))
	if err != nil {
		return owner, fmt.Errorf("decode owner: %w", err)
	}
	copy(owner[:], raw)
	return owner, nil
}

// decodeNextCollectionID NextCollectionId 为 OptionQuery 的 u32，未设置时为 0
func decodeNextCollectionID(value []byte) (uint32, error) {
	if value == nil {
		return 0, nil
	}
	id, err := scale.NewDecoder(value).ReadUint32()
	if err != nil {
		return 0, fmt.Errorf("decode next collection id: %w", err)
	}
	return id, nil
}

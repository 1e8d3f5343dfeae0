// Package nfttest 内存 AssetHub 上的 Nfts 状态构造与调用模拟
package nfttest

import (
	"errors"
	"math/big"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
	"github.com/weisyn/newsanchor/internal/core/nft"
)

var (
	errNoCollection = errors.New("UnknownCollection")
	errNoItem       = errors.New("UnknownItem")
	errItemExists   = errors.New("AlreadyExists")
	errNoPermission = errors.New("NoPermission")
)

// Writer 可写入存储的目标（MockConnection 或 Overlay）
type Writer interface {
	Put(key, value []byte)
}

// CollectionValue Collection{owner, owner_deposit, items, item_metadatas, item_configs, attributes}
func CollectionValue(owner chain.AccountID) []byte {
	return scale.NewEncoder().
		PutRaw(owner[:]).
		PutUint128(big.NewInt(0)).
		PutUint32(0).PutUint32(0).PutUint32(0).PutUint32(0).
		Bytes()
}

// CollectionMetadataValue CollectionMetadata{deposit, data}
func CollectionMetadataValue(data string) []byte {
	return scale.NewEncoder().PutUint128(big.NewInt(0)).PutBytes([]byte(data)).Bytes()
}

// ItemValue Item{owner, approvals, deposit}
func ItemValue(owner chain.AccountID) []byte {
	return scale.NewEncoder().
		PutRaw(owner[:]).
		PutCompact(0).
		PutRaw(owner[:]).
		PutUint128(big.NewInt(0)).
		Bytes()
}

// ItemMetadataValue ItemMetadata{deposit{account: None, amount}, data}
func ItemMetadataValue(data string) []byte {
	return scale.NewEncoder().PutNone().PutUint128(big.NewInt(0)).PutBytes([]byte(data)).Bytes()
}

// Account 地址对应的账户
func Account(addr string) chain.AccountID {
	pub, err := address.PublicKey(addr)
	if err != nil {
		panic(err)
	}
	return chain.AccountID(pub)
}

// SeedCollection 写入集合及其元数据
func SeedCollection(w Writer, id uint32, owner, metadata string) {
	w.Put(nft.CollectionKey(id), CollectionValue(Account(owner)))
	w.Put(nft.CollectionMetadataKey(id), CollectionMetadataValue(metadata))
}

// SeedItem 写入物品及其元数据
func SeedItem(w Writer, collection, item uint32, owner, metadata string) {
	w.Put(nft.ItemKey(collection, item), ItemValue(Account(owner)))
	w.Put(nft.ItemMetadataKey(collection, item), ItemMetadataValue(metadata))
}

// SetNextCollectionID 写入 Nfts.NextCollectionId
func SetNextCollectionID(w Writer, id uint32) {
	w.Put(nft.NextCollectionIDKey(), scale.U32(id))
}

// Install 在 AssetHub 模拟器上注册 Nfts 调用
func Install(conn *testutil.MockConnection, chains *chainconfig.Config) *testutil.Runtime {
	rt := testutil.NewRuntime(conn, chains)
	rt.Handle(chainconfig.CallNftsCreate, create)
	rt.Handle(chainconfig.CallNftsSetCollectionMetadata, setCollectionMetadata)
	rt.Handle(chainconfig.CallNftsMint, mint)
	rt.Handle(chainconfig.CallNftsSetMetadata, setMetadata)
	return rt
}

func readMultiAddress(dec *scale.Decoder) (chain.AccountID, error) {
	var acc chain.AccountID
	if _, err := dec.ReadUint8(); err != nil {
		return acc, err
	}
	raw, err := dec.ReadFixed(32)
	if err != nil {
		return acc, err
	}
	copy(acc[:], raw)
	return acc, nil
}

func create(_ *testutil.Runtime, tx *testutil.Overlay, args *scale.Decoder) error {
	admin, err := readMultiAddress(args)
	if err != nil {
		return err
	}
	// settings, max_supply, mint_type, price, start_block, end_block, default_item_settings
	if _, err := args.ReadUint64(); err != nil {
		return err
	}
	if _, err := args.ReadOption(); err != nil {
		return err
	}
	if _, err := args.ReadUint8(); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if _, err := args.ReadOption(); err != nil {
			return err
		}
	}
	if _, err := args.ReadUint64(); err != nil {
		return err
	}

	var next uint32
	if v := tx.Get(nft.NextCollectionIDKey()); v != nil {
		if next, err = scale.NewDecoder(v).ReadUint32(); err != nil {
			return err
		}
	}
	tx.Put(nft.CollectionKey(next), CollectionValue(admin))
	SetNextCollectionID(tx, next+1)
	return nil
}

func setCollectionMetadata(rt *testutil.Runtime, tx *testutil.Overlay, args *scale.Decoder) error {
	collection, err := args.ReadUint32()
	if err != nil {
		return err
	}
	data, err := args.ReadBytes()
	if err != nil {
		return err
	}
	v := tx.Get(nft.CollectionKey(collection))
	if v == nil {
		return errNoCollection
	}
	origin := rt.Origin()
	if origin != (chain.AccountID{}) && string(v[:32]) != string(origin[:]) {
		return errNoPermission
	}
	tx.Put(nft.CollectionMetadataKey(collection), CollectionMetadataValue(string(data)))
	return nil
}

func mint(_ *testutil.Runtime, tx *testutil.Overlay, args *scale.Decoder) error {
	collection, err := args.ReadUint32()
	if err != nil {
		return err
	}
	item, err := args.ReadUint32()
	if err != nil {
		return err
	}
	to, err := readMultiAddress(args)
	if err != nil {
		return err
	}
	if _, err := args.ReadOption(); err != nil {
		return err
	}
	if tx.Get(nft.CollectionKey(collection)) == nil {
		return errNoCollection
	}
	if tx.Get(nft.ItemKey(collection, item)) != nil {
		return errItemExists
	}
	tx.Put(nft.ItemKey(collection, item), ItemValue(to))
	return nil
}

func setMetadata(_ *testutil.Runtime, tx *testutil.Overlay, args *scale.Decoder) error {
	collection, err := args.ReadUint32()
	if err != nil {
		return err
	}
	item, err := args.ReadUint32()
	if err != nil {
		return err
	}
	data, err := args.ReadBytes()
	if err != nil {
		return err
	}
	if tx.Get(nft.ItemKey(collection, item)) == nil {
		return errNoItem
	}
	tx.Put(nft.ItemMetadataKey(collection, item), ItemMetadataValue(string(data)))
	return nil
}

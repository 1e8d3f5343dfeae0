package nft

import (
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
)

// mintTypePublic MintType::Public
const mintTypePublic = 1

// CallBuilder AssetHub 的 Nfts 调用构造，纯函数，不提交
type CallBuilder struct {
	calls *chain.Calls
}

// NewCallBuilder 创建调用构造器
func NewCallBuilder(calls *chain.Calls) *CallBuilder {
	return &CallBuilder{calls: calls}
}

func account(addr string) (chain.AccountID, error) {
	pub, err := address.PublicKey(addr)
	return chain.AccountID(pub), err
}

// CreateCollection Nfts.create(admin, config)
//
// config: settings=0, max_supply=None,
// mint_settings={mint_type: Public, price: None, start_block: None, end_block: None, default_item_settings: 0}
func (b *CallBuilder) CreateCollection(owner string) (chain.Call, error) {
	admin, err := account(owner)
	if err != nil {
		return chain.Call{}, err
	}
	enc := chain.MultiAddressID(scale.NewEncoder(), admin).
		PutUint64(0).
		PutNone().
		PutUint8(mintTypePublic).
		PutNone().
		PutNone().
		PutNone().
		PutUint64(0)
	return b.calls.Build(pallet, "create", enc.Bytes())
}

// SetCollectionMetadata Nfts.set_collection_metadata(collection, "news")
func (b *CallBuilder) SetCollectionMetadata(collection uint32) (chain.Call, error) {
	enc := scale.NewEncoder().PutUint32(collection).PutBytes([]byte(NewsPrefix))
	return b.calls.Build(pallet, "set_collection_metadata", enc.Bytes())
}

// Mint Nfts.mint(collection, item, mint_to, witness_data=None)
func (b *CallBuilder) Mint(collection, item uint32, owner string) (chain.Call, error) {
	to, err := account(owner)
	if err != nil {
		return chain.Call{}, err
	}
	enc := scale.NewEncoder().PutUint32(collection).PutUint32(item)
	chain.MultiAddressID(enc, to).PutNone()
	return b.calls.Build(pallet, "mint", enc.Bytes())
}

// SetItemMetadata Nfts.set_metadata(collection, item, data)
func (b *CallBuilder) SetItemMetadata(collection, item uint32, data string) (chain.Call, error) {
	enc := scale.NewEncoder().PutUint32(collection).PutUint32(item).PutBytes([]byte(data))
	return b.calls.Build(pallet, "set_metadata", enc.Bytes())
}

// BatchAll 原子批量
func (b *CallBuilder) BatchAll(calls ...chain.Call) (chain.Call, error) {
	return b.calls.BatchAll(calls)
}

// Batch 尽力而为批量
func (b *CallBuilder) Batch(calls ...chain.Call) (chain.Call, error) {
	return b.calls.Batch(calls)
}

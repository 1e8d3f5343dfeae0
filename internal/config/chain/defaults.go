package chain

// 链名称
const (
	AssetHub  = "pas_asset_hub"
	PeopleHub = "pas_people_hub"
	EduChain  = "educhain"
)

// 调用键，形如 "<Pallet>.<call>"
const (
	CallNftsCreate                = "Nfts.create"
	CallNftsMint                  = "Nfts.mint"
	CallNftsSetMetadata           = "Nfts.set_metadata"
	CallNftsSetCollectionMetadata = "Nfts.set_collection_metadata"
	CallUtilityBatch              = "Utility.batch"
	CallUtilityBatchAll           = "Utility.batch_all"
	CallNewsRecordArticle         = "News.record_article"
)

// defaultChains 默认链配置
// 端点列表按优先级排序，连接时只使用第一个；开发环境默认指向本地 zombienet 节点
func defaultChains() map[string]*ChainOptions {
	return map[string]*ChainOptions{
		AssetHub: {
			Name:      AssetHub,
			Endpoints: []string{"ws://127.0.0.1:9933", "wss://paseo-asset-hub-rpc.dwellir.com"},
			Explorer:  "https://assethub-paseo.subscan.io",
			Calls: map[string]CallIndex{
				CallNftsCreate:                {52, 0},
				CallNftsMint:                  {52, 3},
				CallNftsSetMetadata:           {52, 14},
				CallNftsSetCollectionMetadata: {52, 16},
				CallUtilityBatch:              {40, 0},
				CallUtilityBatchAll:           {40, 2},
			},
		},
		PeopleHub: {
			Name:      PeopleHub,
			Endpoints: []string{"wss://people-paseo.rpc.amforc.com", "wss://paseo-people-hub-rpc.dwellir.com"},
			Explorer:  "https://people-paseo.subscan.io",
			Calls:     map[string]CallIndex{},
		},
		EduChain: {
			Name:      EduChain,
			Endpoints: []string{"ws://127.0.0.1:9935", "wss://educhain-rpc.dwellir.com"},
			Calls: map[string]CallIndex{
				CallNewsRecordArticle: {50, 0},
				CallUtilityBatch:      {40, 0},
				CallUtilityBatchAll:   {40, 2},
			},
		},
	}
}

package types

// AppConfig 应用配置（对应 JSON 配置文件）
// 字段均为指针：只有配置文件中实际出现的字段才覆盖默认值
type AppConfig struct {
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	Log          *UserLogConfig              `json:"log,omitempty"`
	Chains       map[string]*UserChainConfig `json:"chains,omitempty"` // 键为链名称
	Orchestrator *UserOrchestratorConfig     `json:"orchestrator,omitempty"`
	Storage      *UserStorageConfig          `json:"storage,omitempty"`
	Lock         *UserLockConfig             `json:"lock,omitempty"`
	Identity     *UserIdentityConfig         `json:"identity,omitempty"`
	API          *UserAPIConfig              `json:"api,omitempty"`
	Wallets      []UserWalletConfig          `json:"wallets,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`     // 日志级别：debug, info, warn, error, fatal
	FilePath *string `json:"file_path,omitempty"` // 日志文件路径，stdout/stderr 表示控制台
}

// UserChainConfig 单条链的用户配置
type UserChainConfig struct {
	// Endpoints 按优先级排序的 websocket 端点，只使用第一个
	Endpoints []string `json:"endpoints,omitempty"`
	// Explorer 区块浏览器地址（可选）
	Explorer *string `json:"explorer,omitempty"`
	// Calls 调用索引覆盖，键形如 "Nfts.mint"，值为 [pallet, call]
	Calls map[string][2]uint8 `json:"calls,omitempty"`
}

// UserOrchestratorConfig 编排器配置
type UserOrchestratorConfig struct {
	// WatchTimeout 等待交易终态的超时，如 "5m"
	WatchTimeout *string `json:"watch_timeout,omitempty"`
	// FoldCollectionCreation 新集合时是否把建集合并入同一个 batch_all（两次签名）
	FoldCollectionCreation *bool `json:"fold_collection_creation,omitempty"`
	// VerifyAfterFinalization 终态后是否回读链上状态校验
	VerifyAfterFinalization *bool `json:"verify_after_finalization,omitempty"`
}

// UserStorageConfig 存储配置
type UserStorageConfig struct {
	JournalPath *string `json:"journal_path,omitempty"` // 流程日志 badger 目录，空表示内存模式
}

// UserLockConfig 发布者锁配置
type UserLockConfig struct {
	RedisAddr     *string `json:"redis_addr,omitempty"` // 为空使用进程内锁
	RedisPassword *string `json:"redis_password,omitempty"`
	RedisDB       *int    `json:"redis_db,omitempty"`
	TTL           *string `json:"ttl,omitempty"` // 锁持有上限，如 "10m"
}

// UserIdentityConfig 身份查询配置
type UserIdentityConfig struct {
	CacheTTL *string `json:"cache_ttl,omitempty"` // 身份缓存时长，如 "10m"
}

// UserAPIConfig HTTP API 配置
type UserAPIConfig struct {
	Listen *string `json:"listen,omitempty"` // 监听地址，如 ":8088"
}

// UserWalletConfig 外部签名器（钱包扩展）配置
type UserWalletConfig struct {
	Extension string `json:"extension"` // 扩展名称，如 "polkadot-js"
	Endpoint  string `json:"endpoint"`  // 签名服务 JSON-RPC 地址
}

// StringPtr 创建字符串指针，用于明确表示用户设置了该值
func StringPtr(v string) *string {
	return &v
}

// BoolPtr 创建布尔指针
func BoolPtr(v bool) *bool {
	return &v
}

// IntPtr 创建整数指针
func IntPtr(v int) *int {
	return &v
}

package memory

import "time"

const (
	// defaultTTL 身份缓存时长
	defaultTTL = 10 * time.Minute

	// defaultCleanWindow 过期条目清理间隔
	defaultCleanWindow = time.Minute

	// defaultMaxEntriesInWindow bigcache 预分配条目数，身份记录数量很少
	defaultMaxEntriesInWindow = 1024

	// defaultMaxEntrySize 单条缓存上限（字节）
	defaultMaxEntrySize = 512
)

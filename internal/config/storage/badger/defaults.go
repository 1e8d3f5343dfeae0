package badger

const (
	// defaultJournalDir 数据目录下的流程日志子目录
	defaultJournalDir = "journal"

	// defaultSyncWrites 流程日志条目很小，同步写入保证崩溃后阶段信息可用
	defaultSyncWrites = true
)

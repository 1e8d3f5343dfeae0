package api

import "time"

const (
	// defaultListen 默认监听地址
	defaultListen = ":8088"

	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second

	// defaultShutdownTimeout 优雅关闭等待时间
	defaultShutdownTimeout = 10 * time.Second
)

// Package lock 发布者锁：同一发布者的发布流程串行执行
//
// 未配置 redis 时使用进程内按键互斥；配置后使用 redis SET NX PX，跨进程生效。
package lock

import (
	"context"
	"errors"
)

// ErrLockLost 释放时发现锁已过期或被他人持有
var ErrLockLost = errors.New("lock lost before release")

// Release 释放锁
type Release func(ctx context.Context) error

// Locker 按键加锁
type Locker interface {
	// Acquire 阻塞直到获得锁或 ctx 结束
	Acquire(ctx context.Context, key string) (Release, error)
	// Close 释放底层资源
	Close() error
}

// Package lock 提供发布者锁的配置选项
package lock

import (
	"time"

	configtypes "github.com/weisyn/newsanchor/pkg/types"
)

// defaultTTL 锁持有上限，覆盖一次完整的跨链发布（两次终态等待）
const defaultTTL = 15 * time.Minute

// LockOptions 发布者锁配置
type LockOptions struct {
	// RedisAddr 为空时使用进程内锁
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	TTL           time.Duration `json:"ttl"`
}

// New 创建锁配置
func New(userConfig *configtypes.UserLockConfig) *LockOptions {
	options := &LockOptions{TTL: defaultTTL}
	if userConfig == nil {
		return options
	}
	if userConfig.RedisAddr != nil {
		options.RedisAddr = *userConfig.RedisAddr
	}
	if userConfig.RedisPassword != nil {
		options.RedisPassword = *userConfig.RedisPassword
	}
	if userConfig.RedisDB != nil {
		options.RedisDB = *userConfig.RedisDB
	}
	if userConfig.TTL != nil {
		if d, err := time.ParseDuration(*userConfig.TTL); err == nil && d > 0 {
			options.TTL = d
		}
	}
	return options
}

// Distributed 是否使用 redis 分布式锁
func (o *LockOptions) Distributed() bool {
	return o.RedisAddr != ""
}

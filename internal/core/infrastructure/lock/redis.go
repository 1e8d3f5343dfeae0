package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	lockconfig "github.com/weisyn/newsanchor/internal/config/lock"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

const (
	keyPrefix     = "newsanchor:lock:"
	retryInterval = 200 * time.Millisecond
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// renewScript 只为自己持有的锁续期
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// redisClient RedisLocker 用到的 redis 操作
type redisClient interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// goRedisClient go-redis 实现
type goRedisClient struct {
	client *redis.Client
}

var _ redisClient = (*goRedisClient)(nil)

func newGoRedisClient(cfg *lockconfig.LockOptions) (*goRedisClient, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return &goRedisClient{client: client}, nil
}

// SetNX 键不存在时写入并设置过期
func (c *goRedisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndDelete 值相同时删除
func (c *goRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.client, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompareAndExpire 值相同时重设过期时间
func (c *goRedisClient) CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	n, err := renewScript.Run(ctx, c.client, []string{key}, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Ping 测试连接
func (c *goRedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *goRedisClient) Close() error {
	return c.client.Close()
}

// RedisLocker 基于 redis 的跨进程锁
//
// 锁带 TTL，持有者崩溃后自动过期。持有期间每 TTL/3 续期一次，
// 流程耗时超过 TTL 时锁仍然有效。
type RedisLocker struct {
	client redisClient
	ttl    time.Duration
	retry  time.Duration
	renew  time.Duration
	logger logiface.Logger
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker 连接 redis 并创建锁
func NewRedisLocker(cfg *lockconfig.LockOptions, logger logiface.Logger) (*RedisLocker, error) {
	client, err := newGoRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return newRedisLocker(client, cfg.TTL, logger), nil
}

func newRedisLocker(client redisClient, ttl time.Duration, logger logiface.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: retryInterval, renew: ttl / 3, logger: log.OrNop(logger)}
}

// Acquire 轮询 SET NX PX 直到成功或 ctx 结束
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		l.logger.Debugf("等待发布者锁: key=%s", key)
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, redisKey, token, stop, done)
	var once sync.Once

	return func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
		})
		ok, err := l.client.CompareAndDelete(ctx, redisKey, token)
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLockLost, key)
		}
		return nil
	}, nil
}

// keepAlive 持有期间定期续期，发现锁已被他人持有时停止
func (l *RedisLocker) keepAlive(key, redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if l.renew <= 0 {
		<-stop
		return
	}
	ticker := time.NewTicker(l.renew)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.renew)
		ok, err := l.client.CompareAndExpire(ctx, redisKey, token, l.ttl)
		cancel()
		if err != nil {
			l.logger.Warnf("发布者锁续期失败: key=%s err=%v", key, err)
			continue
		}
		if !ok {
			l.logger.Errorf("发布者锁已丢失，停止续期: key=%s", key)
			return
		}
	}
}

// Close 关闭 redis 连接
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

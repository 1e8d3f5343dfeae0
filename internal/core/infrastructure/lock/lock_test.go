package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "alice")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			assert.NoError(t, release(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
	assert.Empty(t, l.entries)
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	releaseA, err := l.Acquire(ctx, "alice")
	require.NoError(t, err)
	releaseB, err := l.Acquire(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, releaseA(ctx))
	require.NoError(t, releaseB(ctx))
}

func TestMemoryLockerContextCancel(t *testing.T) {
	l := NewMemoryLocker()
	release, err := l.Acquire(context.Background(), "alice")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release(context.Background()))
	// 重复释放无效果
	require.NoError(t, release(context.Background()))
	assert.Empty(t, l.entries)
}

// fakeRedis 内存 redis，只实现锁需要的操作；没有过期时间的键永不过期
type fakeRedis struct {
	mu       sync.Mutex
	data     map[string]string
	deadline map[string]time.Time
	renewals int
	err      error
	closed   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), deadline: make(map[string]time.Time)}
}

// live 调用方持有 f.mu
func (f *fakeRedis) live(key string) (string, bool) {
	if d, ok := f.deadline[key]; ok && time.Now().After(d) {
		delete(f.data, key)
		delete(f.deadline, key)
	}
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeRedis) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.live(key); ok {
		return false, nil
	}
	f.data[key] = value
	f.deadline[key] = time.Now().Add(ttl)
	return true, nil
}

func (f *fakeRedis) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.live(key); !ok || v != value {
		return false, nil
	}
	delete(f.data, key)
	delete(f.deadline, key)
	return true, nil
}

func (f *fakeRedis) CompareAndExpire(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.live(key); !ok || v != value {
		return false, nil
	}
	f.deadline[key] = time.Now().Add(ttl)
	f.renewals++
	return true, nil
}

func (f *fakeRedis) renewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewals
}

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.deadline, key)
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("持有期间其他调用者等待", func(t *testing.T) {
		client := newFakeRedis()
		l := newRedisLocker(client, time.Minute, nil)
		l.retry = 5 * time.Millisecond

		release, err := l.Acquire(ctx, "alice")
		require.NoError(t, err)
		assert.Contains(t, client.data, keyPrefix+"alice")

		acquired := make(chan Release)
		go func() {
			r, err := l.Acquire(ctx, "alice")
			if err == nil {
				acquired <- r
			}
		}()
		select {
		case <-acquired:
			t.Fatal("second acquire must wait")
		case <-time.After(30 * time.Millisecond):
		}

		require.NoError(t, release(ctx))
		select {
		case r := <-acquired:
			require.NoError(t, r(ctx))
		case <-time.After(time.Second):
			t.Fatal("second acquire did not proceed")
		}
	})

	t.Run("持有时间超过 TTL 时续期", func(t *testing.T) {
		client := newFakeRedis()
		ttl := 150 * time.Millisecond
		l := newRedisLocker(client, ttl, nil)
		release, err := l.Acquire(ctx, "alice")
		require.NoError(t, err)

		time.Sleep(2 * ttl)
		ok, err := client.SetNX(ctx, keyPrefix+"alice", "other-process", ttl)
		require.NoError(t, err)
		assert.False(t, ok, "lock must still be held after its ttl")
		assert.GreaterOrEqual(t, client.renewCount(), 3)

		require.NoError(t, release(ctx))
		// 释放后不再续期
		renewals := client.renewCount()
		time.Sleep(ttl)
		assert.Equal(t, renewals, client.renewCount())
	})

	t.Run("过期后释放报告锁丢失", func(t *testing.T) {
		client := newFakeRedis()
		l := newRedisLocker(client, time.Minute, nil)
		release, err := l.Acquire(ctx, "alice")
		require.NoError(t, err)
		client.expire(keyPrefix + "alice")
		assert.ErrorIs(t, release(ctx), ErrLockLost)
	})

	t.Run("redis 错误", func(t *testing.T) {
		client := newFakeRedis()
		client.err = errors.New("connection refused")
		l := newRedisLocker(client, time.Minute, nil)
		_, err := l.Acquire(ctx, "alice")
		assert.Error(t, err)
	})

	t.Run("等待时 ctx 取消", func(t *testing.T) {
		client := newFakeRedis()
		client.data[keyPrefix+"alice"] = "someone-else"
		l := newRedisLocker(client, time.Minute, nil)
		l.retry = 5 * time.Millisecond
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := l.Acquire(cctx, "alice")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("关闭连接", func(t *testing.T) {
		client := newFakeRedis()
		require.NoError(t, newRedisLocker(client, time.Minute, nil).Close())
		assert.True(t, client.closed)
	})
}

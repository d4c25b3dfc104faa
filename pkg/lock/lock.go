// Package lock 提供按键互斥，用于串行化同一 (用户, 主题, 等级, 类型) 上的任务创建。
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("lock: timed out waiting for key")

// Locker 获取成功后返回释放函数
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LocalLocker 进程内按键加锁，空闲的键会被回收
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*refLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[key]
	if !ok {
		rl = &refLock{ch: make(chan struct{}, 1)}
		l.locks[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, rl, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, rl, true) })
	}, nil
}

func (l *LocalLocker) release(key string, rl *refLock, held bool) {
	if held {
		<-rl.ch
	}
	l.mu.Lock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// 仅当值仍为本次持有者的 token 时删除
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SETNX 的分布式锁，多实例部署时使用
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:     client,
		prefix:     "lingua:lock:",
		ttl:        ttl,
		retryDelay: 20 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// 使用独立 context，请求取消后仍能释放
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = unlockScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}, nil
}

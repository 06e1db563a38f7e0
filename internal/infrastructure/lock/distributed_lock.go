package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrLockFailed = errors.New("获取分布式锁失败")
)

// 释放锁时先校验持有者再删除，避免误删他人的锁
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// DistributedLock 基于 Redis SET NX EX 的互斥锁
// 账单上的并发写（加付款、删付款、删账单）先拿锁再进事务，
// 正确性最终仍由数据库事务保证，锁只用来减少无谓的冲突回滚
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string // 锁持有者标识
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      uuid.NewString(),
		expiration: expiration,
	}
}

// NewBillLock 账单级互斥锁，付款增删与账单删除共用
func NewBillLock(client *redis.Client, billID int64) *DistributedLock {
	return NewDistributedLock(client, fmt.Sprintf("billing:lock:bill:%d", billID), 30*time.Second)
}

// NewClientBillingLock 客户级互斥锁，防止同一批订单被并发开两张账单
func NewClientBillingLock(client *redis.Client, clientID int64) *DistributedLock {
	return NewDistributedLock(client, fmt.Sprintf("billing:lock:client:%d", clientID), 30*time.Second)
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.value).Err()
}

// internal/service/checkout/infrastructure/adapter/zk_locker.go
package adapter

import (
	"context"
	"time"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/zklock"
)

// ZkSubmitLocker 实现了 port.SubmitLocker。
// 同一会话的下单请求可能打到不同实例，进程内的去重拦不住，
// 用 Zookeeper 临时顺序节点做跨实例互斥。
type ZkSubmitLocker struct {
	conn        *zklock.Conn
	lockTimeout time.Duration
}

func NewZkSubmitLocker(conn *zklock.Conn, lockTimeout time.Duration) *ZkSubmitLocker {
	return &ZkSubmitLocker{conn: conn, lockTimeout: lockTimeout}
}

func (l *ZkSubmitLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	lock := zklock.New(l.conn, "session-"+sessionID, l.lockTimeout)
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	release := func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("Failed to release submit lock")
		}
	}
	return release, nil
}

// internal/service/checkout/infrastructure/adapter/session_redis_repository.go
package adapter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"meridian/internal/pkg/redis"
	"meridian/internal/service/checkout/domain"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "checkout:session:"

// SessionRedisRepository 实现了 domain.SessionRepository。
// 会话以 JSON 存入 Redis 并带 TTL，到期即视为被放弃的结账。
type SessionRedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRedisRepository(client *redis.Client, ttl time.Duration) *SessionRedisRepository {
	return &SessionRedisRepository{client: client, ttl: ttl}
}

func (r *SessionRedisRepository) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = time.Now()
	payload, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to marshal checkout session")
	}
	if err := r.client.GetClient().Set(ctx, sessionKeyPrefix+sess.ID, payload, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save checkout session")
	}
	return nil
}

func (r *SessionRedisRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := r.client.GetClient().Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == goredis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load checkout session")
	}
	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal checkout session")
	}
	return &sess, nil
}

func (r *SessionRedisRepository) Delete(ctx context.Context, id string) error {
	return r.client.GetClient().Del(ctx, sessionKeyPrefix+id).Err()
}

// ActiveIDs 用 SCAN 遍历会话键，供对账扫描使用。
func (r *SessionRedisRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.GetClient().Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), sessionKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan checkout sessions")
	}
	return ids, nil
}

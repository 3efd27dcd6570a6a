package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisTokenPrefix = "dashboard:token:"

type RedisTokenStore struct {
	Redis *redis.Client
	now   func() time.Time
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{Redis: rdb, now: time.Now}
}

// Save stores the token until its own expiry when it carries one.
func (s *RedisTokenStore) Save(ctx context.Context, sessionID, token string) error {
	var ttl time.Duration
	if claims, err := Inspect(token); err == nil {
		ttl = claims.TTL(s.now())
	}
	return s.Redis.Set(ctx, redisTokenPrefix+sessionID, token, ttl).Err()
}

func (s *RedisTokenStore) Load(ctx context.Context, sessionID string) (string, error) {
	token, err := s.Redis.Get(ctx, redisTokenPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	return token, err
}

func (s *RedisTokenStore) Delete(ctx context.Context, sessionID string) error {
	return s.Redis.Del(ctx, redisTokenPrefix+sessionID).Err()
}

package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores sessions on Redis. Each session lives under
// "<prefix>rt:<sha256(refresh)>" with a TTL matching its expiry, and
// "<prefix>parent:<sub>" indexes the token hashes of one parent so that all of
// their sessions can be revoked together.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository returns a repository that namespaces its keys with prefix,
// "session:" when empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) tokenKey(hash string) string { return r.prefix + "rt:" + hash }

func (r *RedisRepository) parentKey(sub string) string { return r.prefix + "parent:" + sub }

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	hash := tokenHash(s.RefreshToken)
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.tokenKey(hash), b, ttl)
		p.SAdd(ctx, r.parentKey(s.Sub), hash)
		p.Expire(ctx, r.parentKey(s.Sub), ttl)
		return nil
	})
	return err
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.tokenKey(tokenHash(refresh))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(b)
}

// Take reads and deletes the session in one transaction. Of several concurrent
// callers only the one whose DEL removed the key gets the session.
func (r *RedisRepository) Take(ctx context.Context, refresh string) (*Session, error) {
	key := r.tokenKey(tokenHash(refresh))
	var (
		get *redis.StringCmd
		del *redis.IntCmd
	)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, key)
		del = p.Del(ctx, key)
		return nil
	})
	if errors.Is(err, redis.Nil) || (err == nil && del.Val() == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := decodeSession([]byte(get.Val()))
	if err != nil {
		return nil, err
	}
	if err := r.client.SRem(ctx, r.parentKey(s.Sub), tokenHash(refresh)).Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	return r.client.Del(ctx, r.tokenKey(tokenHash(refresh))).Err()
}

// DeleteBySub removes every session of sub and reports how many were live.
func (r *RedisRepository) DeleteBySub(ctx context.Context, sub string) (int, error) {
	hashes, err := r.client.SMembers(ctx, r.parentKey(sub)).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, r.tokenKey(h))
	}
	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(keys) > 0 {
			del = p.Del(ctx, keys...)
		}
		p.Del(ctx, r.parentKey(sub))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if del == nil {
		return 0, nil
	}
	return int(del.Val()), nil
}

func decodeSession(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/medassist/internal/config"
)

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisStoreWithClient(client, cfg.Prefix, ttl), nil
}

func newRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *redisStore {
	if prefix == "" {
		prefix = "medassist:session:"
	}
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisStore) key(id string) string {
	return r.prefix + id
}

func (r *redisStore) Load(ctx context.Context, id string) (*State, bool, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	state := New()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save refreshes the ttl, so active conversations never expire.
func (r *redisStore) Save(ctx context.Context, id string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(id), raw, r.ttl).Err()
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *redisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}

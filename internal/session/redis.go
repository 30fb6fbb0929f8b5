package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "tickerscope:session:"

// RedisStore keeps sessions as JSON in Redis. Every read or write pushes the
// expiry ttl into the future.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// kv is the subset of commands shared by the client, a transaction and a pipeline.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func (r *RedisStore) key(id string) string { return keyPrefix + id }

func (r *RedisStore) save(ctx context.Context, cmd kv, s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return cmd.Set(ctx, r.key(s.ID), data, r.ttl).Err()
}

func (r *RedisStore) load(ctx context.Context, cmd kv, id string) (*State, error) {
	data, err := cmd.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Create(ctx context.Context, s *State) error {
	return r.save(ctx, r.client, s)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	s, err := r.load(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	if r.ttl > 0 {
		r.client.Expire(ctx, r.key(id), r.ttl)
	}
	return s, nil
}

// Update runs fn inside an optimistic WATCH transaction so concurrent
// updates of one session are serialised.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	var out *State
	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.save(ctx, pipe, s)
		})
		if err == nil {
			out = s
		}
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := r.client.Watch(ctx, txf, r.key(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

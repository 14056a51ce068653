package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const scanBatch = 500

// redisStore implements Store on plain Redis strings.
type redisStore struct {
	client *redis.Client
	retry  RetryOptions
	logger zerolog.Logger
}

// NewRedis creates a Redis backed store. The client is owned by the store
// and closed with it.
func NewRedis(client *redis.Client, retry RetryOptions, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		retry:  retry,
		logger: logger.With().Str("component", "redis-store").Logger(),
	}
}

func (s *redisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return decode(key, data, dest)
}

func (s *redisStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	return nil
}

// GetByPrefix walks the keyspace with SCAN and fetches values with MGET.
// Keys deleted between the two steps are skipped.
func (s *redisStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}

	sort.Strings(keys)
	entries := make([]Entry, 0, len(keys))

	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		batch := keys[start:end]

		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read prefix %s: %w", prefix, err)
		}

		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			entries = append(entries, Entry{Key: batch[i], Value: []byte(str)})
		}
	}

	return entries, nil
}

// Atomic watches keys and applies the staged writes in MULTI/EXEC. A
// concurrent write to a watched key aborts the EXEC and the whole call is
// retried.
func (s *redisStore) Atomic(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	return withRetry(ctx, s.retry, func() error {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{rtx: rtx, staged: make(map[string][]byte)}
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.staged) == 0 {
				return nil
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for key, data := range tx.staged {
					if data == nil {
						pipe.Del(ctx, key)
						continue
					}
					pipe.Set(ctx, key, data, 0)
				}
				return nil
			})
			return err
		}, keys...)

		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug().Strs("keys", keys).Msg("transaction conflict, retrying")
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	})
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

// redisTx reads through the watching connection and stages writes until
// EXEC. A nil staged value marks a delete.
type redisTx struct {
	rtx    *redis.Tx
	staged map[string][]byte
}

func (t *redisTx) Get(ctx context.Context, key string, dest any) error {
	if data, ok := t.staged[key]; ok {
		if data == nil {
			return ErrNotFound
		}
		return decode(key, data, dest)
	}

	data, err := t.rtx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return decode(key, data, dest)
}

func (t *redisTx) Set(_ context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	t.staged[key] = data
	return nil
}

func (t *redisTx) Del(_ context.Context, key string) error {
	t.staged[key] = nil
	return nil
}

// escapeGlob escapes Redis MATCH pattern metacharacters.
func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}

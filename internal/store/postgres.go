package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS kv_store_key_prefix_idx ON kv_store (key text_pattern_ops);
`

const (
	queryGet    = `SELECT value FROM kv_store WHERE key = $1`
	queryUpsert = `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	queryDelete = `DELETE FROM kv_store WHERE key = ANY($1)`
	queryPrefix = `SELECT key, value FROM kv_store WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	queryLock   = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// PostgreSQL error codes that indicate a transaction can be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// postgresStore implements Store on a single kv_store table.
type postgresStore struct {
	pool   *pgxpool.Pool
	retry  RetryOptions
	logger zerolog.Logger
}

// NewPostgres creates a PostgreSQL backed store. The pool is owned by the
// store and closed with it.
func NewPostgres(pool *pgxpool.Pool, retry RetryOptions, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:   pool,
		retry:  retry,
		logger: logger.With().Str("component", "postgres-store").Logger(),
	}
}

// Migrate creates the kv_store table and its prefix index if missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate kv_store: %w", err)
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, queryGet, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return decode(key, raw, dest)
}

func (s *postgresStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, queryUpsert, key, string(data)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *postgresStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, queryDelete, keys); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	return nil
}

func (s *postgresStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, queryPrefix, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to read row for prefix %s: %w", prefix, err)
		}
		entries = append(entries, Entry{Key: key, Value: raw})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prefix %s: %w", prefix, err)
	}

	return entries, nil
}

// Atomic takes a transaction-scoped advisory lock per key in a stable order,
// then runs fn. The locks cover keys that do not exist yet, so concurrent
// callers creating the same key are serialised too.
func (s *postgresStore) Atomic(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	locked := lockOrder(keys)

	return withRetry(ctx, s.retry, func() error {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, key := range locked {
				if _, err := tx.Exec(ctx, queryLock, key); err != nil {
					return fmt.Errorf("failed to lock %s: %w", key, err)
				}
			}

			return fn(&postgresTx{tx: tx})
		})
		if isRetryable(err) {
			s.logger.Debug().Err(err).Strs("keys", locked).Msg("transaction conflict, retrying")
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	})
}

// lockOrder returns keys sorted and deduplicated.
func lockOrder(keys []string) []string {
	locked := append([]string(nil), keys...)
	sort.Strings(locked)

	out := make([]string, 0, len(locked))
	for _, key := range locked {
		if len(out) > 0 && out[len(out)-1] == key {
			continue
		}
		out = append(out, key)
	}
	return out
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

// postgresTx implements Tx inside a pgx transaction.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	if err := t.tx.QueryRow(ctx, queryGet, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return decode(key, raw, dest)
}

func (t *postgresTx) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, queryUpsert, key, string(data)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (t *postgresTx) Del(ctx context.Context, key string) error {
	if _, err := t.tx.Exec(ctx, queryDelete, []string{key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// escapeLike escapes LIKE wildcards so prefix matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

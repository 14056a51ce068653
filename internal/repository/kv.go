package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// getOne reads key into a new T, returning nil when the key is absent.
func getOne[T any](ctx context.Context, s store.Store, key string) (*T, error) {
	var v T
	if err := s.Get(ctx, key, &v); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// listByPrefix decodes every entry under prefix. Entries that fail to decode
// are logged and skipped so one corrupt record does not hide the rest.
func listByPrefix[T any](ctx context.Context, s store.Store, prefix string, logger zerolog.Logger) ([]T, error) {
	entries, err := s.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := e.Decode(&v); err != nil {
			logger.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable record")
			continue
		}
		items = append(items, v)
	}
	return items, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

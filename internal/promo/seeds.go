package promo

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LoadAll loads every seed file concurrently and merges them. Files listed
// earlier win when the same code appears more than once.
func LoadAll(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) (SeedSet, error) {
	logger = logger.With().Str("component", "promo-seeds").Logger()

	type loadResult struct {
		set SeedSet
		err error
	}

	results := make([]loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			set, err := loader.Load(ctx, path)
			results[index] = loadResult{set: set, err: err}
		}(i, path)
	}

	wg.Wait()

	merged := NewSeedSet()
	for i, result := range results {
		if result.err != nil {
			logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load promo seed file")
			return nil, fmt.Errorf("failed to load promo seed file %s: %w", paths[i], result.err)
		}
		for _, seed := range result.set.All() {
			merged.Add(seed)
		}
	}

	logger.Info().
		Int("file_count", len(paths)).
		Int("total_promos", merged.Size()).
		Msg("promo seeds loaded")

	return merged, nil
}

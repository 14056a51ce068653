package promo

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped seed files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based promo seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped seed file from the local file system.
func (l *fileLoader) Load(ctx context.Context, filePath string) (SeedSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading promo seed file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open promo seed file")
		return nil, fmt.Errorf("failed to open promo seed file %s: %w", filePath, err)
	}
	defer file.Close()

	set, err := parseSeeds(ctx, file, filePath, l.logger)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("promos_loaded", set.Size()).
		Msg("promo seed file loaded successfully")

	return set, nil
}

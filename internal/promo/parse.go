package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// parseSeeds reads gzipped "CODE,percent[,description]" lines. Blank lines
// and lines starting with '#' are ignored; malformed lines are logged and
// skipped.
func parseSeeds(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) (SeedSet, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	set := NewSeedSet()
	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				logger.Warn().Str("source", source).Msg("promo seed loading cancelled")
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		seed, err := parseLine(line)
		if err != nil {
			logger.Warn().Err(err).Str("source", source).Int("line", lineNo).Msg("skipping promo seed line")
			continue
		}
		set.Add(seed)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading promo seeds %s: %w", source, err)
	}

	return set, nil
}

func parseLine(line string) (Seed, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) < 2 {
		return Seed{}, fmt.Errorf("expected CODE,percent")
	}

	code := Normalise(parts[0])
	if code == "" {
		return Seed{}, fmt.Errorf("empty code")
	}

	percent, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Seed{}, fmt.Errorf("invalid percent %q", parts[1])
	}
	if percent < 1 || percent > 100 {
		return Seed{}, fmt.Errorf("percent %d out of range", percent)
	}

	seed := Seed{Code: code, DiscountPercent: percent}
	if len(parts) == 3 {
		seed.Description = strings.TrimSpace(parts[2])
	}
	return seed, nil
}

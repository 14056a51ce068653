// Package promo holds promo code pricing and the loaders that seed promo
// codes from gzipped files on disk or in S3.
package promo

import (
	"context"
	"strings"
)

// Quote applies a percentage discount to a price in minor units. The
// discount is rounded down, so the final price never drops below zero for
// percentages up to 100.
func Quote(price int64, percent int) (discount, final int64) {
	if price <= 0 || percent <= 0 {
		return 0, price
	}
	if percent > 100 {
		percent = 100
	}
	discount = price * int64(percent) / 100
	return discount, price - discount
}

// Normalise returns the canonical form of a promo code.
func Normalise(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Seed is a promo code read from a seed file.
type Seed struct {
	Code            string
	DiscountPercent int
	Description     string
}

// SeedSet is a deduplicated collection of seeds.
type SeedSet interface {
	// All returns the seeds in insertion order.
	All() []Seed

	// Size returns the number of seeds in the set.
	Size() int
}

// Loader defines the interface for loading promo seed files.
type Loader interface {
	// Load reads a gzipped seed file and returns its seeds.
	Load(ctx context.Context, filePath string) (SeedSet, error)
}

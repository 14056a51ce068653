//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type seed struct {
	code        string
	percent     int
	description string
}

// generatePromoSeeds writes sample promo seed files for PROMO_SEED_FILES.
// File 1 and file 2 both carry WELCOME10; the first file loaded wins.
func main() {
	dataDir := "data/promos"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][]seed{
		"launch.gz": {
			{"WELCOME10", 10, "New student welcome"},
			{"LAUNCH25", 25, "Platform launch"},
			{"STUDENT15", 15, "Student discount"},
		},
		"seasonal.gz": {
			{"WELCOME10", 20, "Overridden by launch.gz"},
			{"SUMMER2026", 30, "Summer sale"},
			{"NEWYEAR50", 50, ""},
		},
	}

	for filename, seeds := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createSeedFile(filePath, seeds); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(seeds))
	}

	fmt.Println("\nSample promo seed files created successfully!")
	fmt.Printf("\nPROMO_SEED_FILES=%s,%s\n",
		filepath.Join(dataDir, "launch.gz"),
		filepath.Join(dataDir, "seasonal.gz"))
}

func createSeedFile(filePath string, seeds []seed) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	if _, err := fmt.Fprintln(gzipWriter, "# CODE,percent,description"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range seeds {
		if _, err := fmt.Fprintf(gzipWriter, "%s,%d,%s\n", s.code, s.percent, s.description); err != nil {
			return fmt.Errorf("failed to write promo %s: %w", s.code, err)
		}
	}

	return nil
}

//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"course-market/internal/config"
	"course-market/internal/database"
	"course-market/internal/store"
)

// Connects to the configured store backend and pings it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var kv store.Store
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to redis: %v\n", err)
			os.Exit(1)
		}
		kv = store.NewRedis(client, store.DefaultRetryOptions(), logger)
	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
			os.Exit(1)
		}
		kv = store.NewPostgres(pool, store.DefaultRetryOptions(), logger)
	}
	defer kv.Close()

	if err := kv.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to %s store\n", cfg.Store.Driver)
}

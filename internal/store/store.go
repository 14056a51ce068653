// Package store defines the key-value persistence contract every repository
// is built on, with PostgreSQL and Redis backends.
//
// Values are JSON documents. Keys are colon separated and prefix scans are
// the only secondary access path, so callers must include the trailing
// separator in a prefix ("order:u1:" rather than "order:u1").
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrConflict is returned when a transaction lost a race with a concurrent
	// writer. Atomic retries these internally before giving up.
	ErrConflict = errors.New("store: transaction conflict")
)

// Entry is a raw key-value pair returned by prefix scans.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the entry value into dest.
func (e Entry) Decode(dest any) error {
	if err := json.Unmarshal(e.Value, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", e.Key, err)
	}
	return nil
}

// Tx is the view of the store inside an Atomic call. Writes become visible
// to other callers only when the transaction commits.
type Tx interface {
	// Get reads key into dest, returning ErrNotFound when absent.
	Get(ctx context.Context, key string, dest any) error

	// Set stages an upsert of key.
	Set(ctx context.Context, key string, value any) error

	// Del stages a delete of key.
	Del(ctx context.Context, key string) error
}

// Store is a JSON key-value store.
type Store interface {
	// Get reads key into dest, returning ErrNotFound when absent.
	Get(ctx context.Context, key string, dest any) error

	// Set upserts key.
	Set(ctx context.Context, key string, value any) error

	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	// GetByPrefix returns all entries whose key starts with prefix, ordered by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)

	// Atomic runs fn in a transaction that observes and protects keys.
	// fn may be invoked more than once when the transaction is retried and
	// must not have side effects outside tx.
	Atomic(ctx context.Context, keys []string, fn func(tx Tx) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

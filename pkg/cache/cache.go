// Package cache stores intermediate analysis results across runs.
//
// The main consumer is the model checker: checking a component model is the
// expensive step of every analysis, and its result only depends on the model
// itself. [Keyer] derives cache keys from the canonical model encoding, so a
// model checked once is never checked again, whatever run or strategy asks.
//
// Three backends implement [Cache]:
//   - [FileCache] for CLI usage, entries stored as JSON files under a directory
//   - [RedisCache] for sharing results between machines
//   - [NullCache] when caching is disabled
//
// Backends never turn a corrupt or expired entry into an error: it is
// dropped and reported as a miss, and the caller checks the model again.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiration.
//
// Implementations are safe for concurrent use: parallel analyses check
// several component models at once.
type Cache interface {
	// Get returns the value for key. The boolean reports whether the key was
	// found; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLFormula is the lifetime of model checker results. Results are pure
// functions of the model, so they only expire to bound cache growth.
const TTLFormula = 30 * 24 * time.Hour

// NullCache never stores anything. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return NullCache{} }

// Get always reports a miss.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error {
	return nil
}

// Close does nothing.
func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}

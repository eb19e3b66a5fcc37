// Package repository defines all the repository interfaces used by domain services
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations
package repository

import (
	"context"
	"time"

	"tokenAggApp/internal/domain/model"
)

// Cache is a read-through key-value layer in front of the aggregator's
// canonical in-memory set. It is an optimization, never a source of truth:
// implementations must degrade backend failures to misses and no-ops rather
// than propagate them.
type Cache interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching a glob-style pattern (e.g. "token:*").
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Flush removes all entries.
	Flush(ctx context.Context) error

	// Stats reports hit/miss counters since startup.
	Stats() model.CacheStats

	// IsConnected reports whether the backend is reachable.
	IsConnected(ctx context.Context) bool
}

// SourceAdapter is one upstream provider contributing token records.
// Fetch operations are rate-limited and retried internally; a call that
// exhausts its retries returns the last error, which the aggregator treats
// as that source's failure for the current refresh.
type SourceAdapter interface {
	// Name identifies the source in Token.Sources membership.
	Name() string

	// FetchTokens returns the source's current token listing. solRate is the
	// aggregator's cached SOL/USD reference rate, used to derive whichever of
	// the native/fiat field pairs the provider does not report.
	FetchTokens(ctx context.Context, solRate float64) ([]*model.Token, error)

	// FetchByAddress returns a single token, or nil if the source does not
	// know the address. Sources without per-address lookup return nil, nil.
	FetchByAddress(ctx context.Context, address string, solRate float64) (*model.Token, error)

	// Search returns tokens matching a free-text query. Sources without a
	// search operation return nil, nil.
	Search(ctx context.Context, query string, solRate float64) ([]*model.Token, error)
}

// ReferenceRateSource provides the native-to-fiat conversion rate used to
// derive fiat fields for sources that only report native-unit values.
type ReferenceRateSource interface {
	Fetch(ctx context.Context) (float64, error)
}

// Package cache stores fitness results keyed by canonical pipeline strings.
//
// The store is append-only for a given search: re-evaluating the same
// canonical string reproduces the same fitness, so entries are never evicted
// and a last-writer-wins discipline is enough under concurrent evaluation.
// The sqlite-backed store lets warm starts survive process restarts.
package cache

import "context"

// Entry holds the two fitness objectives for one canonical pipeline key.
type Entry struct {
	OperatorCount int
	Score         float64
}

// Store is the evaluated-individuals cache contract. Implementations must be
// safe for concurrent use: parallel evaluations share one store.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// Stats tracks hit/miss counts for a store.
type Stats struct {
	Hits   int64
	Misses int64
}

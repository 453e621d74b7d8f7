// This file defines how dataset entries go stale over time.

package expiration

import (
	"time"

	"github.com/krisalay/dataset-host/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
the invalidation check into the cache, each dataset carries a strategy chosen from its
descriptor, so "never reload" and "reload after N seconds" share one code path.
*/
type Strategy interface {

	// IsExpired reports whether the entry must be reloaded before it is served at now.
	IsExpired(*types.Entry, time.Time) bool
}

// Never keeps an entry for the lifetime of the process.
type Never struct{}

// IsExpired always returns false.
func (Never) IsExpired(*types.Entry, time.Time) bool { return false }

// For picks the strategy matching an optional invalidation window.
// A nil window means the dataset never expires.
func For(invalidateAfter *time.Duration) Strategy {
	if invalidateAfter == nil {
		return Never{}
	}
	return &ExpireAfterLoad{TTL: *invalidateAfter}
}

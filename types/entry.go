package types

import "time"

// Entry is one loaded dataset held by the cache.
// Entries are replaced, never mutated, so readers may keep a pointer.
type Entry struct {
	ID       string
	Value    any
	LoadedAt time.Time // instant the successful load started
}

// Age returns how long ago the entry was loaded.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.LoadedAt)
}

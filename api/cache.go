package api

import (
	"context"

	"github.com/krisalay/dataset-host/types"
)

/*
Cache defines the PUBLIC API of the dataset cache.
It hides sharding, expiration, load coordination and metrics behind three calls.
*/
type Cache interface {

	/*
		Resolve returns a ready-to-use dataset value for id.

		BEHAVIOR:
		-------------------
		1. Unknown id:
		   - Return an error matching ErrNotFound; no loader runs

		2. No entry yet:
		   - Load, store (value, load start time), return the value
		   - A failed load returns the loader's error and stores nothing

		3. Entry present and fresh (per the dataset's expiration strategy):
		   - Return the cached value

		4. Entry present and stale:
		   - Reload and replace the entry
		   - A failed reload keeps and returns the previous value (no error)

		Concurrent calls for the same id share a single load.
	*/
	Resolve(ctx context.Context, id string) (any, error)

	// Entry returns a copy of the current entry for id without loading anything.
	Entry(id string) (types.Entry, bool)

	// Len returns how many datasets are currently loaded.
	Len() int
}

package expiration

import (
	"time"

	"github.com/krisalay/dataset-host/types"
)

/*
ExpireAfterLoad implements a fixed invalidation window measured from the last successful load.
Reads do not extend it: an entry loaded at T is served until T+TTL and reloaded by the first
request at or after that instant.
*/
type ExpireAfterLoad struct {

	// TTL is how long a loaded value stays fresh. Zero reloads on every request.
	TTL time.Duration
}

// IsExpired checks whether the entry's age has reached the TTL.
func (e *ExpireAfterLoad) IsExpired(ent *types.Entry, now time.Time) bool {
	return ent.Age(now) >= e.TTL
}

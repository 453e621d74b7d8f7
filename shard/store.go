package shard

import (
	"sync/atomic"

	"github.com/krisalay/dataset-host/types"
)

/*
This file defines how entries are stored inside a shard.
Datasets are read on every request and written only when (re)loaded, so reads must be
lock-free and writes can afford to copy the map: "copy-on-write".
*/

// ShardStore is the interface used by a shard to store and retrieve dataset entries.
type ShardStore interface {

	// Get retrieves an entry by dataset id.
	Get(string) (*types.Entry, bool)

	// Put inserts or replaces an entry. Callers hold the shard's WriteMu.
	Put(string, *types.Entry)

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a copy-on-write implementation of ShardStore.
- Readers always see an immutable snapshot
- Writers build a new map and swap it in atomically
*/
type cowStore struct {
	data atomic.Pointer[map[string]*types.Entry]
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	m := make(map[string]*types.Entry)
	s.data.Store(&m)
	return s
}

// Get retrieves an entry from the current snapshot.
func (s *cowStore) Get(id string) (*types.Entry, bool) {
	ent, ok := (*s.data.Load())[id]
	return ent, ok
}

// Put copies the current snapshot, adds or replaces the entry and publishes the new map.
func (s *cowStore) Put(id string, ent *types.Entry) {
	old := *s.data.Load()

	n := make(map[string]*types.Entry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[id] = ent

	s.data.Store(&n)
	s.size.Store(int64(len(n)))
}

// Size returns how many entries are in the store.
func (s *cowStore) Size() int64 {
	return s.size.Load()
}

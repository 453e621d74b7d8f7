package shard

import "sync"

/*
A Shard is a small, independent piece of the dataset cache.
Instead of one map behind one lock, entries are spread over shards and each shard
has its own write mutex, so storing a freshly loaded dataset never blocks readers
or writers of datasets that live in other shards.
*/
type Shard struct {

	// Store holds id → entry for this shard. Reads are lock-free (copy-on-write).
	Store ShardStore

	// WriteMu serialises writers of this shard. Readers never take it.
	WriteMu sync.Mutex
}

func NewShard() *Shard {
	return &Shard{Store: NewCOWStore()}
}

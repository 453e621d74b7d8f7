package shard

import "hash/fnv"

/*
This file decides HOW a dataset id is assigned to a shard.
The assignment must be stable: every lookup and every store for an id must land on the same shard.
*/

// Selector decides which shard should handle a given dataset id.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector picks a shard by hashing the id.
type HashSelector struct{}

// hash converts an id into a number. FNV is a fast, non-cryptographic hash.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Select chooses the shard for a given id.
func (HashSelector) Select(id string, shards []*Shard) *Shard {
	return shards[hash(id)%uint32(len(shards))]
}

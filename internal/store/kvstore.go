// Package store defines the abstract storage surfaces WorldEngine depends
// on (KVStore, SnapshotSink) plus concrete Redis/Postgres implementations
// and an in-memory double for tests.
package store

import "context"

// ScoredMember is one entry of a sorted-set range read.
type ScoredMember struct {
	Member string
	Score  float64
}

// ScanResult is one page of a cursor-based set scan.
type ScanResult struct {
	Cursor  string
	Members []string
}

// KVStore is the abstract key-value surface WorldEngine is built on: hash,
// set, and sorted-set operations plus a cursor-based set scan. Production
// implementation is Redis (see Redis); tests substitute MemStore.
type KVStore interface {
	// HashGetAll returns the field->value mapping for key, empty if missing.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	// HashSet sets each field to the string form of its value, returns count set.
	HashSet(ctx context.Context, key string, fields map[string]string) (int, error)
	// HashIncrBy atomically adds delta to field, returns the new value.
	HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	// HashSetNX sets field to value only if absent, returns true if it set.
	HashSetNX(ctx context.Context, key, field, value string) (bool, error)

	// ZSetIncrBy adds delta to member's score, returns the new score.
	ZSetIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	// ZRangeWithScores returns members with min <= score <= max, in the
	// requested order ("+inf"/"-inf" bounds are supported per Redis syntax).
	ZRangeWithScores(ctx context.Context, key string, min, max string, reverse bool) ([]ScoredMember, error)

	// SetAdd adds members to the set, returns the count newly added.
	SetAdd(ctx context.Context, key string, members ...string) (int, error)
	// SetRemove removes members from the set, returns the count removed.
	SetRemove(ctx context.Context, key string, members ...string) (int, error)
	// SetMembers returns all members of the set.
	SetMembers(ctx context.Context, key string) ([]string, error)
	// SetScan does cursor-based iteration; cursor "0" both starts and
	// terminates a full scan.
	SetScan(ctx context.Context, key, cursor string, count int64) (ScanResult, error)
}

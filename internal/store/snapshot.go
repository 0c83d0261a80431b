package store

import "context"

// TileRow is the durable relational representation of one tile, matching
// the world_tiles schema in §6.3.
type TileRow struct {
	Q                  int
	R                  int
	OwnerID            *string
	OwnerAllianceTag   *string
	OwnerAllianceColor *string
	Energy             float64
	Integrity          float64
	Level              int
	TileType           string
	LastUpdate         int64
}

// SnapshotSink batch-upserts tile rows into durable storage. Upserts are
// idempotent and keyed by (Q, R); callers are responsible for batching.
type SnapshotSink interface {
	UpsertTiles(ctx context.Context, tiles []TileRow) error
}

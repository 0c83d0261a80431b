package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres manages the PostgreSQL connection pool and implements
// SnapshotSink against the world_tiles table (§6.3). Connection setup
// follows the teacher's db.Postgres wrapper.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL-backed SnapshotSink. An empty
// connString yields a disconnected handle usable as a no-op placeholder.
func NewPostgres(connString string) (*Postgres, error) {
	if connString == "" {
		return &Postgres{}, nil
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Connected to PostgreSQL")
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// Pool returns the underlying connection pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// IsConnected returns true if the database is connected.
func (p *Postgres) IsConnected() bool {
	return p.pool != nil
}

// Migrate creates the world_tiles table and its indexes if they do not
// already exist, and adds any missing nullable or defaulted column to an
// existing table. Safe to call on every startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS world_tiles (
	q BIGINT NOT NULL,
	r BIGINT NOT NULL,
	owner_id TEXT NULL,
	owner_alliance_tag TEXT NULL,
	owner_alliance_color TEXT NULL,
	energy FLOAT8 NOT NULL,
	integrity FLOAT8 NOT NULL,
	level INT NOT NULL DEFAULT 1,
	tile_type TEXT NOT NULL DEFAULT 'normal',
	last_update BIGINT NOT NULL,
	PRIMARY KEY (q, r)
);
ALTER TABLE world_tiles ADD COLUMN IF NOT EXISTS owner_id TEXT NULL;
ALTER TABLE world_tiles ADD COLUMN IF NOT EXISTS owner_alliance_tag TEXT NULL;
ALTER TABLE world_tiles ADD COLUMN IF NOT EXISTS owner_alliance_color TEXT NULL;
ALTER TABLE world_tiles ADD COLUMN IF NOT EXISTS level INT NOT NULL DEFAULT 1;
ALTER TABLE world_tiles ADD COLUMN IF NOT EXISTS tile_type TEXT NOT NULL DEFAULT 'normal';
CREATE INDEX IF NOT EXISTS world_tiles_owner_id_idx ON world_tiles (owner_id);
CREATE INDEX IF NOT EXISTS world_tiles_last_update_idx ON world_tiles (last_update);
`)
	return err
}

// UpsertTiles batch-upserts tile rows via a pgx.Batch, idempotent on
// (q, r). Callers pass already-chunked batches (see
// world.SnapshotFlush / §4.4).
func (p *Postgres) UpsertTiles(ctx context.Context, tiles []TileRow) error {
	if p.pool == nil || len(tiles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const stmt = `
INSERT INTO world_tiles (q, r, owner_id, owner_alliance_tag, owner_alliance_color, energy, integrity, level, tile_type, last_update)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (q, r) DO UPDATE SET
	owner_id = EXCLUDED.owner_id,
	owner_alliance_tag = EXCLUDED.owner_alliance_tag,
	owner_alliance_color = EXCLUDED.owner_alliance_color,
	energy = EXCLUDED.energy,
	integrity = EXCLUDED.integrity,
	level = EXCLUDED.level,
	tile_type = EXCLUDED.tile_type,
	last_update = EXCLUDED.last_update
`
	for _, t := range tiles {
		batch.Queue(stmt, t.Q, t.R, t.OwnerID, t.OwnerAllianceTag, t.OwnerAllianceColor, t.Energy, t.Integrity, t.Level, t.TileType, t.LastUpdate)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range tiles {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

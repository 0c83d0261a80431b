package world

import (
	"context"

	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/store"
)

// newTestEngine builds an Engine over a fresh MemStore with the default
// tunables, mirroring how the teacher's game tests stand up an in-memory
// fixture instead of a live Redis/Postgres pair.
func newTestEngine() (*Engine, *store.MemStore) {
	return newTestEngineWithConfig(config.DefaultWorldConfig())
}

// newTestEngineWithConfig lets a test override specific tunables.
func newTestEngineWithConfig(cfg config.WorldConfig) (*Engine, *store.MemStore) {
	mem := store.NewMemStore()
	e := New(mem, noopSink{}, store.LogErrorSink{}, cfg)
	return e, mem
}

type noopSink struct{}

func (noopSink) UpsertTiles(ctx context.Context, tiles []store.TileRow) error {
	return nil
}

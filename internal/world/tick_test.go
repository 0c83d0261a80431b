package world

import (
	"context"
	"testing"

	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/hexmath"
	"github.com/lucas/hexterritory/internal/store"
)

func seedTile(t *testing.T, ctx context.Context, mem *store.MemStore, q, r int, fields map[string]string) {
	t.Helper()
	h := hexmath.Hex{Q: q, R: r}
	if _, err := mem.HashSet(ctx, tileKey(h), fields); err != nil {
		t.Fatalf("seed tile (%d,%d): %v", q, r, err)
	}
	if _, err := mem.SetAdd(ctx, keyTilesIndex, coordMember(h)); err != nil {
		t.Fatalf("index tile (%d,%d): %v", q, r, err)
	}
}

func TestRechargeTick_GeneratesEnergyAndDecaysIntegrity(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":    "alice",
		"energy":      "0",
		"integrity":   "100",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}

	tile, exists, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil || !exists {
		t.Fatalf("loadTile: exists=%v err=%v", exists, err)
	}
	if tile.Energy != 60 {
		t.Fatalf("Energy = %v, want 60 for 60s at 1/s with no bonus", tile.Energy)
	}
	if tile.Integrity != 99 {
		t.Fatalf("Integrity = %v, want 99 after 60s of 1/min decay", tile.Integrity)
	}

	player, err := e.loadPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("loadPlayer: %v", err)
	}
	want := e.cfg.Economy.InitialPlayerEnergy + 60
	if player.Energy != want {
		t.Fatalf("player.Energy = %v, want %v", player.Energy, want)
	}
}

func TestRechargeTick_IntegrityFloorStopsGeneration(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":    "alice",
		"energy":      "0",
		"integrity":   "1",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}
	tile, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile.Integrity != 0 {
		t.Fatalf("Integrity = %v, want 0 (fully decayed)", tile.Integrity)
	}
	// Only the first 60 seconds of a minute-long decay budget were available
	// before integrity hit zero, so generation equals that budget exactly.
	if tile.Energy != 60 {
		t.Fatalf("Energy = %v, want 60 (generation capped by integrity budget)", tile.Energy)
	}

	// A second tick with no remaining decay budget generates nothing more.
	if err := e.RechargeTick(ctx, 180000); err != nil {
		t.Fatalf("second RechargeTick: %v", err)
	}
	tile2, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile2.Energy != tile.Energy {
		t.Fatalf("Energy changed on a fully-decayed tile: %v -> %v", tile.Energy, tile2.Energy)
	}
	if tile2.Integrity != 0 {
		t.Fatalf("Integrity = %v, want still 0", tile2.Integrity)
	}
}

func TestRechargeTick_AllianceAdjacencyBonusIncreasesGeneration(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":             "alice",
		"owner_alliance_tag":   "FOX",
		"owner_alliance_color": "#AABBCC",
		"energy":               "0",
		"integrity":            "100",
		"level":                "1",
		"tile_type":            "normal",
		"last_update":          "0",
	})
	seedTile(t, ctx, mem, 1, 0, map[string]string{
		"owner_id":             "bob",
		"owner_alliance_tag":   "FOX",
		"owner_alliance_color": "#AABBCC",
		"energy":               "0",
		"integrity":            "100",
		"level":                "1",
		"tile_type":            "normal",
		"last_update":          "0",
	})
	seedTile(t, ctx, mem, 10, 0, map[string]string{
		"owner_id":    "carol",
		"energy":      "0",
		"integrity":   "100",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}

	allied, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile allied: %v", err)
	}
	isolated, _, err := e.loadTile(ctx, hexmath.Hex{Q: 10, R: 0})
	if err != nil {
		t.Fatalf("loadTile isolated: %v", err)
	}

	wantAllied := round4(60 * e.cfg.Economy.AllianceNeighborBonusMult)
	if allied.Energy != wantAllied {
		t.Fatalf("allied.Energy = %v, want %v", allied.Energy, wantAllied)
	}
	if isolated.Energy != 60 {
		t.Fatalf("isolated.Energy = %v, want 60 (no neighbor bonus)", isolated.Energy)
	}
	if allied.Energy <= isolated.Energy {
		t.Fatalf("allied energy %v should exceed isolated energy %v", allied.Energy, isolated.Energy)
	}
}

func TestRechargeTick_SameOwnerAdjacencyGrantsNoBonus(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":           "alice",
		"owner_alliance_tag": "FOX",
		"energy":             "0",
		"integrity":          "100",
		"level":              "1",
		"tile_type":          "normal",
		"last_update":        "0",
	})
	seedTile(t, ctx, mem, 1, 0, map[string]string{
		"owner_id":           "alice",
		"owner_alliance_tag": "FOX",
		"energy":             "0",
		"integrity":          "100",
		"level":              "1",
		"tile_type":          "normal",
		"last_update":        "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}
	tile, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile.Energy != 60 {
		t.Fatalf("Energy = %v, want 60 (same-owner neighbor grants no bonus)", tile.Energy)
	}
}

func TestRechargeTick_UnownedTileStillEvolvesButCreditsNoOne(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"energy":      "0",
		"integrity":   "50",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}
	tile, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile.Energy != 60 {
		t.Fatalf("Energy = %v, want 60 even though the tile is unowned", tile.Energy)
	}
}

func TestRechargeTick_FullGenerationWithDecayDisabled(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	cfg.Economy.IntegrityDecayPerMinute = 0
	e, mem := newTestEngineWithConfig(cfg)
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":    "alice",
		"energy":      "0",
		"integrity":   "100",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 30000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}
	tile, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile.Energy != 30 {
		t.Fatalf("Energy = %v, want 30 (full elapsed window when decay is disabled)", tile.Energy)
	}
	if tile.Integrity != 100 {
		t.Fatalf("Integrity = %v, want unchanged 100", tile.Integrity)
	}
}

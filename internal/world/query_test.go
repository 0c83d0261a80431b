package world

import (
	"context"
	"testing"
)

func TestTilesInRange_ReturnsOnlyWithinRadiusOrderedByDistance(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	coords := [][2]int{{0, 0}, {1, 0}, {2, 0}, {10, 0}}
	for i, c := range coords {
		if _, err := e.Claim(ctx, "alice", c[0], c[1], int64(1000+i)); err != nil {
			t.Fatalf("claim %v: %v", c, err)
		}
	}

	tiles, err := e.TilesInRange(ctx, 0, 0, 2)
	if err != nil {
		t.Fatalf("TilesInRange: %v", err)
	}
	if len(tiles) != 3 {
		t.Fatalf("len(tiles) = %d, want 3 (excluding the distant outlier)", len(tiles))
	}
	if tiles[0].Q != 0 || tiles[0].R != 0 {
		t.Fatalf("tiles[0] = %+v, want the center tile first", tiles[0])
	}
}

func TestTilesInRange_RejectsNegativeRadius(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	_, err := e.TilesInRange(ctx, 0, 0, -1)
	if err == nil {
		t.Fatal("expected an error for a negative radius")
	}
}

func TestRadarSummary_CollectsBasesNexusesAndHotspots(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	if _, err := e.Claim(ctx, "alice", 1, 0, 1000); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := e.RegisterNexus(ctx, 2, 0, 4, 1000); err != nil {
		t.Fatalf("RegisterNexus: %v", err)
	}
	if _, err := e.Repair(ctx, "alice", 1, 0, 2000); err != nil {
		t.Fatalf("repair (generates activity): %v", err)
	}

	data, err := e.RadarSummary(ctx, "alice", 0, 0, 5)
	if err != nil {
		t.Fatalf("RadarSummary: %v", err)
	}
	if len(data.PlayerBases) != 1 {
		t.Fatalf("PlayerBases = %+v, want one entry", data.PlayerBases)
	}
	if len(data.NexusCores) != 1 || data.NexusCores[0].Level != 4 {
		t.Fatalf("NexusCores = %+v, want one level-4 entry", data.NexusCores)
	}
	if len(data.Hotspots) == 0 {
		t.Fatal("Hotspots is empty, want chunk activity recorded by claim+repair")
	}
}

func TestRadarSummary_RejectsZeroRadius(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	_, err := e.RadarSummary(ctx, "alice", 0, 0, 0)
	if err == nil {
		t.Fatal("expected an error for radius == 0")
	}
}

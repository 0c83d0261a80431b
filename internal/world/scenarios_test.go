package world

// Literal end-to-end scenarios, reproduced as fixed numeric checks against
// fresh engines rather than property-style assertions.

import (
	"context"
	"testing"

	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/hexmath"
)

func TestScenario_FreeClaim(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	res, err := e.Claim(ctx, "player-a", 2, -1, 1000)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if res.Outcome != ClaimOK || !res.Created || res.Captured {
		t.Fatalf("result = %+v, want ok/created/!captured", res)
	}
	if res.EnergyCost != 10 {
		t.Fatalf("EnergyCost = %v, want 10", res.EnergyCost)
	}
	if res.EnergyAfter != 90 {
		t.Fatalf("EnergyAfter = %v, want 90", res.EnergyAfter)
	}
	if res.Tile.OwnerID != "player-a" {
		t.Fatalf("OwnerID = %q, want player-a", res.Tile.OwnerID)
	}
}

func TestScenario_HostileCaptureCost(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	if _, err := e.Claim(ctx, "player-a", 3, -1, 1000); err != nil {
		t.Fatalf("player-a claims: %v", err)
	}
	if _, err := mem.HashSet(ctx, tileKey(hexmath.Hex{Q: 3, R: -1}), map[string]string{"level": "3"}); err != nil {
		t.Fatalf("force level: %v", err)
	}
	if _, err := mem.HashSet(ctx, playerKey("player-b"), map[string]string{"energy": "200"}); err != nil {
		t.Fatalf("seed player-b energy: %v", err)
	}

	res, err := e.Claim(ctx, "player-b", 3, -1, 2000)
	if err != nil {
		t.Fatalf("player-b captures: %v", err)
	}
	if !res.Captured {
		t.Fatalf("Captured = false, want true")
	}
	if res.EnergyCost != 150 {
		t.Fatalf("EnergyCost = %v, want 150", res.EnergyCost)
	}
	if res.EnergyAfter != 50 {
		t.Fatalf("EnergyAfter = %v, want 50", res.EnergyAfter)
	}
}

func TestScenario_OutOfRange(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	cfg.Limits.MaxClaimDistanceFromOwned = 2
	e, _ := newTestEngineWithConfig(cfg)
	ctx := context.Background()

	if _, err := e.Claim(ctx, "player-a", 0, 0, 1000); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	res, err := e.Claim(ctx, "player-a", 8, 0, 2000)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if res.Outcome != ClaimOutOfRange {
		t.Fatalf("Outcome = %v, want out-of-range", res.Outcome)
	}
	if res.MaxDistance != 2 {
		t.Fatalf("MaxDistance = %d, want 2", res.MaxDistance)
	}
	if res.NearestDistance == nil || *res.NearestDistance != 8 {
		t.Fatalf("NearestDistance = %v, want 8", res.NearestDistance)
	}
}

func TestScenario_LeaderboardOnCapture(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	if _, err := e.Claim(ctx, "player-a", 0, 0, 1000); err != nil {
		t.Fatalf("player-a claims (0,0): %v", err)
	}
	if _, err := e.Claim(ctx, "player-a", 1, 0, 1001); err != nil {
		t.Fatalf("player-a claims (1,0): %v", err)
	}
	if _, err := e.Claim(ctx, "player-b", 2, 0, 1002); err != nil {
		t.Fatalf("player-b claims (2,0): %v", err)
	}
	if _, err := e.Claim(ctx, "player-b", 1, 0, 1003); err != nil {
		t.Fatalf("player-b captures (1,0): %v", err)
	}

	board, err := e.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("len(board) = %d, want 2", len(board))
	}
	if board[0].UserID != "player-b" || board[0].Score != 2 {
		t.Fatalf("board[0] = %+v, want player-b with 2", board[0])
	}
	if board[1].UserID != "player-a" || board[1].Score != 1 {
		t.Fatalf("board[1] = %+v, want player-a with 1", board[1])
	}
}

func TestScenario_AllianceAdjacencyBonus(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	cfg.Economy.InitialPlayerEnergy = 500
	cfg.Economy.MaxPlayerEnergy = 1000
	e, mem := newTestEngineWithConfig(cfg)
	ctx := context.Background()

	if _, err := e.Claim(ctx, "player-a", 0, 0, 1000); err != nil {
		t.Fatalf("player-a claims: %v", err)
	}
	if _, err := e.Claim(ctx, "player-b", 1, 0, 1000); err != nil {
		t.Fatalf("player-b claims: %v", err)
	}
	fox := "FOX"
	if _, err := e.SetAllianceTag(ctx, "player-a", &fox); err != nil {
		t.Fatalf("player-a joins FOX: %v", err)
	}
	if _, err := e.SetAllianceTag(ctx, "player-b", &fox); err != nil {
		t.Fatalf("player-b joins FOX: %v", err)
	}

	reset := map[string]string{"energy": "0", "integrity": "100", "last_update": "0"}
	if _, err := mem.HashSet(ctx, tileKey(hexmath.Hex{Q: 0, R: 0}), reset); err != nil {
		t.Fatalf("reset tile a: %v", err)
	}
	if _, err := mem.HashSet(ctx, tileKey(hexmath.Hex{Q: 1, R: 0}), reset); err != nil {
		t.Fatalf("reset tile b: %v", err)
	}

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("RechargeTick: %v", err)
	}

	playerA, err := e.loadPlayer(ctx, "player-a")
	if err != nil {
		t.Fatalf("loadPlayer a: %v", err)
	}
	playerB, err := e.loadPlayer(ctx, "player-b")
	if err != nil {
		t.Fatalf("loadPlayer b: %v", err)
	}
	if playerA.Energy != 553 {
		t.Fatalf("player-a.Energy = %v, want 553", playerA.Energy)
	}
	if playerB.Energy != 553 {
		t.Fatalf("player-b.Energy = %v, want 553", playerB.Energy)
	}
}

func TestScenario_IntegrityFloorStopsGeneration(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedTile(t, ctx, mem, 0, 0, map[string]string{
		"owner_id":    "player-a",
		"energy":      "0",
		"integrity":   "1",
		"level":       "1",
		"tile_type":   "normal",
		"last_update": "0",
	})

	if err := e.RechargeTick(ctx, 60000); err != nil {
		t.Fatalf("first RechargeTick: %v", err)
	}
	tile, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile.Integrity != 0 || tile.Energy != 60 {
		t.Fatalf("tile = %+v, want integrity=0 energy=60", tile)
	}

	playerAfterFirst, err := e.loadPlayer(ctx, "player-a")
	if err != nil {
		t.Fatalf("loadPlayer: %v", err)
	}

	if err := e.RechargeTick(ctx, 180000); err != nil {
		t.Fatalf("second RechargeTick: %v", err)
	}
	tile2, _, err := e.loadTile(ctx, hexmath.Hex{Q: 0, R: 0})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	if tile2.Integrity != 0 || tile2.Energy != 60 {
		t.Fatalf("tile after second tick = %+v, want unchanged integrity=0 energy=60", tile2)
	}
	playerAfterSecond, err := e.loadPlayer(ctx, "player-a")
	if err != nil {
		t.Fatalf("loadPlayer: %v", err)
	}
	if playerAfterSecond.Energy != playerAfterFirst.Energy {
		t.Fatalf("player energy changed on the second tick: %v -> %v", playerAfterFirst.Energy, playerAfterSecond.Energy)
	}
}

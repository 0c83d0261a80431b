package world

import (
	"context"
	"math"

	"github.com/lucas/hexterritory/internal/hexmath"
)

// RechargeTick runs one sweep of the §4.3 algorithm over every tile in
// tiles:index, evolving energy/integrity and crediting owner energy.
// now is the wall-clock ms to evolve toward (tests may pin it).
func (e *Engine) RechargeTick(ctx context.Context, now int64) error {
	cache := newTileCache(e)
	ownerCredits := make(map[string]float64)

	cursor := "0"
	first := true
	for first || cursor != "0" {
		first = false
		if err := checkCtx(ctx); err != nil {
			return err
		}
		res, err := e.kv.SetScan(ctx, keyTilesIndex, cursor, 500)
		if err != nil {
			return storeError("scan tiles index", err)
		}
		cursor = res.Cursor

		for _, m := range res.Members {
			if err := checkCtx(ctx); err != nil {
				return err
			}
			h, err := parseCoordMember(m)
			if err != nil {
				continue
			}
			if err := e.tickOneTile(ctx, cache, h, now, ownerCredits); err != nil {
				return err
			}
		}
	}

	for owner, credit := range ownerCredits {
		if credit == 0 {
			continue
		}
		unlock := e.locks.lockSet("player:" + owner)
		player, err := e.loadPlayer(ctx, owner)
		if err != nil {
			unlock()
			return err
		}
		player.Energy = clamp(player.Energy+credit, 0, e.cfg.Economy.MaxPlayerEnergy)
		err = e.savePlayer(ctx, player)
		unlock()
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) tickOneTile(ctx context.Context, cache *tileCache, h hexmath.Hex, now int64, ownerCredits map[string]float64) error {
	unlock := e.locks.lockSet("tile:" + coordMember(h))
	defer unlock()

	tile, exists, err := e.loadTile(ctx, h)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	cache.put(h, tile)

	elapsedMs := now - tile.LastUpdate
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if elapsedMs == 0 {
		return nil
	}

	decayRate := e.cfg.Economy.IntegrityDecayPerMinute
	integrityLoss := (float64(elapsedMs) / 60000.0) * decayRate
	nextIntegrity := clamp(tile.Integrity-integrityLoss, 0, 100)

	var activeSeconds float64
	elapsedSeconds := float64(elapsedMs) / 1000.0
	if decayRate == 0 {
		activeSeconds = elapsedSeconds
	} else {
		maxActive := math.Max(0, tile.Integrity/decayRate*60)
		activeSeconds = math.Min(elapsedSeconds, maxActive)
	}

	bonus := e.allianceBonus(ctx, cache, tile, h)
	generated := activeSeconds * e.cfg.Economy.EnergyRechargePerSecond * bonus
	nextEnergy := clamp(tile.Energy+generated, 0, e.cfg.Economy.MaxTileEnergy)

	updated := tile
	updated.Energy = round4(nextEnergy)
	updated.Integrity = round4(nextIntegrity)
	updated.LastUpdate = now

	if updated != tile {
		if err := e.saveTile(ctx, updated); err != nil {
			return err
		}
	}

	if tile.OwnerID != "" && generated != 0 {
		ownerCredits[tile.OwnerID] += generated
	}

	return nil
}

// allianceBonus computes the §4.3 step 5 multiplier: 1.05 if the tile has
// an owner with a non-null alliance tag and at least one neighbor is owned
// by a different player with the same tag, else 1.0.
func (e *Engine) allianceBonus(ctx context.Context, cache *tileCache, tile Tile, h hexmath.Hex) float64 {
	if tile.OwnerID == "" || tile.OwnerAllianceTag == "" {
		return 1.0
	}
	for _, n := range hexmath.Neighbors(h) {
		neighbor, ok := cache.get(ctx, e, n)
		if !ok {
			continue
		}
		if neighbor.OwnerID == "" || neighbor.OwnerID == tile.OwnerID {
			continue
		}
		if neighbor.OwnerAllianceTag == tile.OwnerAllianceTag {
			return e.cfg.Economy.AllianceNeighborBonusMult
		}
	}
	return 1.0
}

// tileCache memoizes tile reads within a single tick sweep, per §4.3 step 5
// ("a local cache keyed per tick to avoid redundant reads").
type tileCache struct {
	entries map[hexmath.Hex]cacheEntry
}

type cacheEntry struct {
	tile   Tile
	exists bool
}

func newTileCache(_ *Engine) *tileCache {
	return &tileCache{entries: make(map[hexmath.Hex]cacheEntry)}
}

func (c *tileCache) put(h hexmath.Hex, t Tile) {
	c.entries[h] = cacheEntry{tile: t, exists: true}
}

func (c *tileCache) get(ctx context.Context, e *Engine, h hexmath.Hex) (Tile, bool) {
	if entry, ok := c.entries[h]; ok {
		return entry.tile, entry.exists
	}
	tile, exists, err := e.loadTile(ctx, h)
	if err != nil {
		c.entries[h] = cacheEntry{}
		return Tile{}, false
	}
	c.entries[h] = cacheEntry{tile: tile, exists: exists}
	return tile, exists
}

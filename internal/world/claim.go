package world

import (
	"context"

	"github.com/lucas/hexterritory/internal/hexmath"
)

// Claim implements claim(userId, q, r) per §4.2. It locks the tile, the
// claimer and (on capture) the previous owner as one set via lockSet, which
// acquires the keys in lexical order, so the "player:" keys come before the
// "tile:" key.
func (e *Engine) Claim(ctx context.Context, userID string, q, r int, now int64) (ClaimResult, error) {
	h, err := validateCoord(q, r)
	if err != nil {
		return ClaimResult{}, err
	}
	if err := checkCtx(ctx); err != nil {
		return ClaimResult{}, err
	}

	// Peek at the tile's current owner (outside the lock) to decide which
	// player locks to acquire; re-read after locking for the authoritative
	// value — see claimLocked.
	existing, exists, err := e.loadTile(ctx, h)
	if err != nil {
		return ClaimResult{}, err
	}
	lockKeys := []string{"tile:" + coordMember(h), "player:" + userID}
	if exists && existing.OwnerID != "" && existing.OwnerID != userID {
		lockKeys = append(lockKeys, "player:"+existing.OwnerID)
	}
	unlock := e.locks.lockSet(lockKeys...)
	defer unlock()

	if err := checkCtx(ctx); err != nil {
		return ClaimResult{}, err
	}
	return e.claimLocked(ctx, userID, h, now)
}

func (e *Engine) claimLocked(ctx context.Context, userID string, h hexmath.Hex, now int64) (ClaimResult, error) {
	tile, exists, err := e.loadTile(ctx, h)
	if err != nil {
		return ClaimResult{}, err
	}

	// Rule 1: self-owned.
	if exists && tile.OwnerID == userID {
		player, err := e.loadPlayer(ctx, userID)
		if err != nil {
			return ClaimResult{}, err
		}
		return ClaimResult{
			Outcome:     ClaimOK,
			Created:     false,
			Captured:    false,
			Tile:        tile,
			EnergyAfter: player.Energy,
			EnergyCost:  0,
		}, nil
	}

	player, err := e.loadPlayer(ctx, userID)
	if err != nil {
		return ClaimResult{}, err
	}

	// Rule 2: range gate. First-ever claim bypasses it.
	ownedMembers, err := e.kv.SetMembers(ctx, ownerTilesKey(userID))
	if err != nil {
		return ClaimResult{}, storeError("load owned tiles", err)
	}
	if len(ownedMembers) > 0 {
		nearest, err := nearestDistance(ownedMembers, h)
		if err != nil {
			return ClaimResult{}, storeError("parse owned tiles", err)
		}
		if nearest > e.cfg.Limits.MaxClaimDistanceFromOwned {
			maxDist := e.cfg.Limits.MaxClaimDistanceFromOwned
			nd := nearest
			return ClaimResult{
				Outcome:         ClaimOutOfRange,
				MaxDistance:     maxDist,
				NearestDistance: &nd,
			}, nil
		}
	}

	// Rule 3: cost.
	var cost float64
	wasHostile := exists && tile.OwnerID != "" && tile.OwnerID != userID
	if wasHostile {
		cost = float64(tile.Level) * e.cfg.Economy.HostileClaimCostMultiplier
	} else {
		cost = e.cfg.Economy.FreeClaimCost
	}

	// Rule 4: spend gate.
	if player.Energy < cost {
		return ClaimResult{
			Outcome:        ClaimInsufficientNRG,
			RequiredEnergy: cost,
			PlayerEnergy:   player.Energy,
		}, nil
	}

	// Rule 5: commit.
	prevOwner := ""
	created := !exists
	if exists {
		prevOwner = tile.OwnerID
	}

	player.Energy -= cost
	player.LastUpdate = now
	if err := e.savePlayer(ctx, player); err != nil {
		return ClaimResult{}, err
	}

	newTile := tile
	newTile.Q, newTile.R = h.Q, h.R
	newTile.OwnerID = userID
	newTile.OwnerAllianceTag = player.AllianceTag
	newTile.OwnerAllianceColor = player.AllianceColor
	newTile.LastUpdate = now
	if created {
		newTile.Energy = e.cfg.Economy.InitialTileEnergy
		newTile.Integrity = e.cfg.Economy.InitialTileIntegrity
		newTile.Level = e.cfg.Economy.InitialTileLevel
		newTile.TileType = TileNormal
	}
	if err := e.saveTile(ctx, newTile); err != nil {
		return ClaimResult{}, err
	}

	if created {
		if err := e.indexTileCreated(ctx, h); err != nil {
			return ClaimResult{}, err
		}
	}
	if err := e.transferOwnership(ctx, h, prevOwner, userID); err != nil {
		return ClaimResult{}, err
	}

	gainedTile := created || wasHostile || prevOwner == ""
	if gainedTile {
		if err := e.incrLeaderboard(ctx, userID); err != nil {
			return ClaimResult{}, err
		}
	}

	activity := int64(1)
	if wasHostile {
		activity = 3
	}
	if err := e.recordChunkActivity(ctx, h, activity); err != nil {
		return ClaimResult{}, err
	}

	return ClaimResult{
		Outcome:     ClaimOK,
		Created:     created,
		Captured:    wasHostile,
		Tile:        newTile,
		EnergyAfter: player.Energy,
		EnergyCost:  cost,
	}, nil
}

// nearestDistance returns the minimum hex distance from h to any of the
// given coord-member strings.
func nearestDistance(members []string, h hexmath.Hex) (int, error) {
	best := -1
	for _, m := range members {
		owned, err := parseCoordMember(m)
		if err != nil {
			return 0, err
		}
		d := hexmath.Distance(owned, h)
		if best == -1 || d < best {
			best = d
		}
	}
	return best, nil
}

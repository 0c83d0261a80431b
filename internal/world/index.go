package world

import (
	"context"

	"github.com/lucas/hexterritory/internal/hexmath"
)

// indexTileCreated adds a newly-created tile to the global and chunk
// indices (§3 Invariant 1).
func (e *Engine) indexTileCreated(ctx context.Context, h hexmath.Hex) error {
	if _, err := e.kv.SetAdd(ctx, keyTilesIndex, coordMember(h)); err != nil {
		return storeError("index tile", err)
	}
	chunk := hexmath.ChunkIndex(h, e.cfg.Economy.ChunkSize)
	if _, err := e.kv.SetAdd(ctx, chunkTilesKey(chunk), coordMember(h)); err != nil {
		return storeError("index chunk tile", err)
	}
	return nil
}

// transferOwnership moves h from the previous owner's set (if any) to the
// new owner's set and adjusts the leaderboard (§4.2 claim step 5,
// §3 Invariant 2/3).
func (e *Engine) transferOwnership(ctx context.Context, h hexmath.Hex, prevOwner, newOwner string) error {
	member := coordMember(h)

	if prevOwner != "" && prevOwner != newOwner {
		if _, err := e.kv.SetRemove(ctx, ownerTilesKey(prevOwner), member); err != nil {
			return storeError("remove owner tile", err)
		}
		if _, err := e.decrLeaderboardClamped(ctx, prevOwner); err != nil {
			return err
		}
	}

	if newOwner != "" && newOwner != prevOwner {
		if _, err := e.kv.SetAdd(ctx, ownerTilesKey(newOwner), member); err != nil {
			return storeError("add owner tile", err)
		}
	}

	return nil
}

// decrLeaderboardClamped decrements a player's leaderboard score by 1,
// clamping at zero (§9 "Score underflow"). The KVStore's ZIncrBy has no
// native clamp, so this reads, computes, and corrects if it would go
// negative — acceptable because leaderboard score is advisory/derived,
// not itself authoritative over ownership (the owner set is).
func (e *Engine) decrLeaderboardClamped(ctx context.Context, userID string) (float64, error) {
	score, err := e.kv.ZSetIncrBy(ctx, keyLeaderboard, -1, userID)
	if err != nil {
		return 0, storeError("decrement leaderboard", err)
	}
	if score < 0 {
		corrected, err := e.kv.ZSetIncrBy(ctx, keyLeaderboard, -score, userID)
		if err != nil {
			return 0, storeError("clamp leaderboard", err)
		}
		return corrected, nil
	}
	return score, nil
}

func (e *Engine) incrLeaderboard(ctx context.Context, userID string) error {
	if _, err := e.kv.ZSetIncrBy(ctx, keyLeaderboard, 1, userID); err != nil {
		return storeError("increment leaderboard", err)
	}
	return nil
}

// recordChunkActivity adds delta to the chunk containing h (§3 ChunkActivity).
func (e *Engine) recordChunkActivity(ctx context.Context, h hexmath.Hex, delta int64) error {
	chunk := hexmath.ChunkIndex(h, e.cfg.Economy.ChunkSize)
	if _, err := e.kv.HashIncrBy(ctx, keyChunkActivity, chunkMember(chunk), delta); err != nil {
		return storeError("record chunk activity", err)
	}
	return nil
}

// setPOI adds or removes h from the POI index depending on isNexus
// (§3 Invariant 5).
func (e *Engine) setPOI(ctx context.Context, h hexmath.Hex, isNexus bool) error {
	member := coordMember(h)
	if isNexus {
		if _, err := e.kv.SetAdd(ctx, keyPOIIndex, member); err != nil {
			return storeError("index poi", err)
		}
	} else {
		if _, err := e.kv.SetRemove(ctx, keyPOIIndex, member); err != nil {
			return storeError("deindex poi", err)
		}
	}
	return nil
}

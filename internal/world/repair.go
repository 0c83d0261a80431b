package world

import "context"

// Repair implements repair(userId, q, r) per §4.2.
func (e *Engine) Repair(ctx context.Context, userID string, q, r int, now int64) (RepairResult, error) {
	h, err := validateCoord(q, r)
	if err != nil {
		return RepairResult{}, err
	}
	if err := checkCtx(ctx); err != nil {
		return RepairResult{}, err
	}

	unlock := e.locks.lockSet("tile:"+coordMember(h), "player:"+userID)
	defer unlock()

	if err := checkCtx(ctx); err != nil {
		return RepairResult{}, err
	}

	tile, exists, err := e.loadTile(ctx, h)
	if err != nil {
		return RepairResult{}, err
	}
	if !exists {
		return RepairResult{Outcome: RepairTileNotFound}, nil
	}
	if tile.OwnerID != userID {
		return RepairResult{Outcome: RepairNotOwner}, nil
	}

	player, err := e.loadPlayer(ctx, userID)
	if err != nil {
		return RepairResult{}, err
	}

	cost := e.cfg.Economy.RepairCostEnergy
	if player.Energy < cost {
		return RepairResult{
			Outcome:        RepairInsufficientNRG,
			RequiredEnergy: cost,
			PlayerEnergy:   player.Energy,
		}, nil
	}

	player.Energy -= cost
	player.LastUpdate = now
	if err := e.savePlayer(ctx, player); err != nil {
		return RepairResult{}, err
	}

	tile.Integrity = clamp(tile.Integrity+e.cfg.Economy.RepairIntegrityGain, 0, 100)
	tile.LastUpdate = now
	if err := e.saveTile(ctx, tile); err != nil {
		return RepairResult{}, err
	}

	if err := e.recordChunkActivity(ctx, h, 2); err != nil {
		return RepairResult{}, err
	}

	return RepairResult{
		Outcome:     RepairOK,
		Tile:        tile,
		EnergyAfter: player.Energy,
		EnergyCost:  cost,
	}, nil
}

package world

import "context"

// RegisterNexus implements register_nexus(q, r, level) per §4.2. level
// must be a positive integer.
func (e *Engine) RegisterNexus(ctx context.Context, q, r, level int, now int64) (Tile, error) {
	if level < 1 {
		return Tile{}, invalidArgument("level must be a positive integer, got %d", level)
	}
	h, err := validateCoord(q, r)
	if err != nil {
		return Tile{}, err
	}
	if err := checkCtx(ctx); err != nil {
		return Tile{}, err
	}

	unlock := e.locks.lockSet("tile:" + coordMember(h))
	defer unlock()

	if err := checkCtx(ctx); err != nil {
		return Tile{}, err
	}

	tile, exists, err := e.loadTile(ctx, h)
	if err != nil {
		return Tile{}, err
	}
	created := !exists
	if created {
		tile = Tile{
			Q:         h.Q,
			R:         h.R,
			Energy:    e.cfg.Economy.InitialTileEnergy,
			Integrity: e.cfg.Economy.InitialTileIntegrity,
			Level:     level,
			TileType:  TileNexus,
		}
	} else {
		tile.Level = level
		tile.TileType = TileNexus
	}
	tile.LastUpdate = now

	if err := e.saveTile(ctx, tile); err != nil {
		return Tile{}, err
	}
	if created {
		if err := e.indexTileCreated(ctx, h); err != nil {
			return Tile{}, err
		}
	}
	if err := e.setPOI(ctx, h, true); err != nil {
		return Tile{}, err
	}

	return tile, nil
}

package world

import (
	"context"

	"github.com/lucas/hexterritory/internal/store"
)

// SnapshotFlush implements §4.4: enumerate tiles:index via cursor, load
// tiles in batches of batchSize, and upsert each batch as it fills.
// Returns the total count persisted.
func (e *Engine) SnapshotFlush(ctx context.Context) (int, error) {
	batchSize := e.cfg.Timing.SnapshotBatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	total := 0
	var batch []store.TileRow

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.sink.UpsertTiles(ctx, batch); err != nil {
			return storeError("upsert tiles", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	cursor := "0"
	first := true
	for first || cursor != "0" {
		first = false
		if err := checkCtx(ctx); err != nil {
			return total, err
		}
		res, err := e.kv.SetScan(ctx, keyTilesIndex, cursor, int64(batchSize))
		if err != nil {
			return total, storeError("scan tiles index", err)
		}
		cursor = res.Cursor

		for _, m := range res.Members {
			h, err := parseCoordMember(m)
			if err != nil {
				continue
			}
			tile, exists, err := e.loadTile(ctx, h)
			if err != nil {
				return total, err
			}
			if !exists {
				continue
			}
			batch = append(batch, tileRow(tile))
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func tileRow(t Tile) store.TileRow {
	row := store.TileRow{
		Q:          t.Q,
		R:          t.R,
		Energy:     t.Energy,
		Integrity:  t.Integrity,
		Level:      t.Level,
		TileType:   string(t.TileType),
		LastUpdate: t.LastUpdate,
	}
	if t.OwnerID != "" {
		owner := t.OwnerID
		row.OwnerID = &owner
	}
	if t.OwnerAllianceTag != "" {
		tag := t.OwnerAllianceTag
		row.OwnerAllianceTag = &tag
	}
	if t.OwnerAllianceColor != "" {
		color := t.OwnerAllianceColor
		row.OwnerAllianceColor = &color
	}
	return row
}

package world

import (
	"context"
	"sort"

	"github.com/lucas/hexterritory/internal/hexmath"
)

// TilesInRange implements get_tiles_in_range(centerQ, centerR, radius)
// per §4.2.
func (e *Engine) TilesInRange(ctx context.Context, centerQ, centerR, radius int) ([]Tile, error) {
	center, err := validateCoord(centerQ, centerR)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, invalidArgument("radius must be >= 0, got %d", radius)
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	chunkSize := e.cfg.Economy.ChunkSize
	seen := make(map[hexmath.Hex]struct{})
	var out []Tile

	for _, chunk := range hexmath.ChunksInRange(center, radius, chunkSize) {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		members, err := e.kv.SetMembers(ctx, chunkTilesKey(chunk))
		if err != nil {
			return nil, storeError("load chunk tiles", err)
		}
		for _, m := range members {
			coord, err := parseCoordMember(m)
			if err != nil {
				continue
			}
			if _, dup := seen[coord]; dup {
				continue
			}
			seen[coord] = struct{}{}
			if hexmath.Distance(center, coord) > radius {
				continue
			}
			tile, exists, err := e.loadTile(ctx, coord)
			if err != nil {
				return nil, err
			}
			if !exists {
				continue
			}
			out = append(out, tile)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di := hexmath.Distance(center, out[i].Coord())
		dj := hexmath.Distance(center, out[j].Coord())
		if di != dj {
			return di < dj
		}
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].R < out[j].R
	})

	return out, nil
}

// RadarSummary implements get_radar_summary(userId, centerQ, centerR, radius)
// per §4.2. radius must be > 0.
func (e *Engine) RadarSummary(ctx context.Context, userID string, centerQ, centerR, radius int) (RadarData, error) {
	center, err := validateCoord(centerQ, centerR)
	if err != nil {
		return RadarData{}, err
	}
	if radius <= 0 {
		return RadarData{}, invalidArgument("radius must be > 0, got %d", radius)
	}
	if err := checkCtx(ctx); err != nil {
		return RadarData{}, err
	}

	data := RadarData{}

	// playerBases
	ownedMembers, err := e.kv.SetMembers(ctx, ownerTilesKey(userID))
	if err != nil {
		return RadarData{}, storeError("load owned tiles", err)
	}
	for _, m := range ownedMembers {
		coord, err := parseCoordMember(m)
		if err != nil {
			continue
		}
		if hexmath.Distance(center, coord) > radius {
			continue
		}
		data.PlayerBases = append(data.PlayerBases, RadarBase{Q: coord.Q, R: coord.R})
		if len(data.PlayerBases) >= e.cfg.Limits.MaxRadarBasePoints {
			break
		}
	}

	// nexusCores
	poiMembers, err := e.kv.SetMembers(ctx, keyPOIIndex)
	if err != nil {
		return RadarData{}, storeError("load poi index", err)
	}
	for _, m := range poiMembers {
		coord, err := parseCoordMember(m)
		if err != nil {
			continue
		}
		if hexmath.Distance(center, coord) > radius {
			continue
		}
		tile, exists, err := e.loadTile(ctx, coord)
		if err != nil {
			return RadarData{}, err
		}
		if !exists {
			continue
		}
		data.NexusCores = append(data.NexusCores, RadarNexus{Q: coord.Q, R: coord.R, Level: tile.Level})
		if len(data.NexusCores) >= e.cfg.Limits.MaxRadarNexusPoints {
			break
		}
	}

	// hotspots
	activity, err := e.kv.HashGetAll(ctx, keyChunkActivity)
	if err != nil {
		return RadarData{}, storeError("load chunk activity", err)
	}
	chunkSize := e.cfg.Economy.ChunkSize
	var hotspots []RadarHotspot
	for member, countStr := range activity {
		count := int(parseFloat(countStr))
		if count <= 0 {
			continue
		}
		chunk, err := parseCoordMember(member)
		if err != nil {
			continue
		}
		cc := hexmath.ChunkCenter(chunk, chunkSize)
		if hexmath.Distance(center, cc) > radius+chunkSize {
			continue
		}
		hotspots = append(hotspots, RadarHotspot{Q: cc.Q, R: cc.R, Activity: count})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		return hotspots[i].Activity > hotspots[j].Activity
	})
	if len(hotspots) > e.cfg.Limits.MaxRadarHotspots {
		hotspots = hotspots[:e.cfg.Limits.MaxRadarHotspots]
	}
	data.Hotspots = hotspots

	return data, nil
}

package world

import (
	"context"
	"strconv"

	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/hexmath"
	"github.com/lucas/hexterritory/internal/store"
)

// Engine is the WorldEngine: the authoritative tile/player data model and
// the claim/repair/alliance/tick/radar/leaderboard rules. It talks only to
// hexmath, a store.KVStore, and a store.SnapshotSink (§2).
type Engine struct {
	kv    store.KVStore
	sink  store.SnapshotSink
	errs  store.ErrorSink
	cfg   config.WorldConfig
	locks *keyedLocks
}

// New constructs a WorldEngine over the given store and config.
func New(kv store.KVStore, sink store.SnapshotSink, errs store.ErrorSink, cfg config.WorldConfig) *Engine {
	if errs == nil {
		errs = store.LogErrorSink{}
	}
	return &Engine{
		kv:    kv,
		sink:  sink,
		errs:  errs,
		cfg:   cfg,
		locks: newKeyedLocks(),
	}
}

// validateCoord ensures q, r are representable integers and round-trips
// cleanly through pixel space, per §9 "Coordinate validation via round-trip".
func validateCoord(q, r int) (hexmath.Hex, error) {
	h := hexmath.Hex{Q: q, R: r}
	p, err := hexmath.HexToPixel(h, 1.0)
	if err != nil {
		return h, invalidArgument("invalid hex size: %v", err)
	}
	back, err := hexmath.PixelToHex(p, 1.0)
	if err != nil {
		return h, invalidArgument("invalid hex size: %v", err)
	}
	if back != h {
		return h, invalidArgument("invalid-coordinates: (%d,%d)", q, r)
	}
	return h, nil
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelledError(err)
	}
	return nil
}

// loadTile reads a tile's hash, returning ok=false if it does not exist.
func (e *Engine) loadTile(ctx context.Context, h hexmath.Hex) (Tile, bool, error) {
	fields, err := e.kv.HashGetAll(ctx, tileKey(h))
	if err != nil {
		return Tile{}, false, storeError("load tile", err)
	}
	if len(fields) == 0 {
		return Tile{}, false, nil
	}
	return parseTile(h, fields), true, nil
}

func parseTile(h hexmath.Hex, fields map[string]string) Tile {
	t := Tile{Q: h.Q, R: h.R}
	t.OwnerID = fields["owner_id"]
	t.OwnerAllianceTag = fields["owner_alliance_tag"]
	t.OwnerAllianceColor = fields["owner_alliance_color"]
	t.Energy = parseFloat(fields["energy"])
	t.Integrity = parseFloat(fields["integrity"])
	t.Level = int(parseFloat(fields["level"]))
	if t.Level == 0 {
		t.Level = 1
	}
	if fields["tile_type"] == string(TileNexus) {
		t.TileType = TileNexus
	} else {
		t.TileType = TileNormal
	}
	t.LastUpdate = int64(parseFloat(fields["last_update"]))
	return t
}

func tileFields(t Tile) map[string]string {
	return map[string]string{
		"owner_id":             t.OwnerID,
		"owner_alliance_tag":   t.OwnerAllianceTag,
		"owner_alliance_color": t.OwnerAllianceColor,
		"energy":               formatFloat(t.Energy),
		"integrity":            formatFloat(t.Integrity),
		"level":                strconv.Itoa(t.Level),
		"tile_type":            string(t.TileType),
		"last_update":          strconv.FormatInt(t.LastUpdate, 10),
	}
}

// saveTile writes the full tile hash.
func (e *Engine) saveTile(ctx context.Context, t Tile) error {
	if _, err := e.kv.HashSet(ctx, tileKey(t.Coord()), tileFields(t)); err != nil {
		return storeError("save tile", err)
	}
	return nil
}

// loadPlayer reads a player's hash, lazily creating one with initial
// energy if it does not exist (§3 "Lifecycle").
func (e *Engine) loadPlayer(ctx context.Context, userID string) (Player, error) {
	fields, err := e.kv.HashGetAll(ctx, playerKey(userID))
	if err != nil {
		return Player{}, storeError("load player", err)
	}
	if len(fields) == 0 {
		return Player{
			UserID:      userID,
			DisplayName: userID,
			Energy:      e.cfg.Economy.InitialPlayerEnergy,
		}, nil
	}
	p := Player{UserID: userID}
	p.DisplayName = fields["display_name"]
	if p.DisplayName == "" {
		p.DisplayName = userID
	}
	p.AllianceTag = fields["alliance_tag"]
	p.AllianceColor = fields["alliance_color"]
	p.Energy = parseFloat(fields["energy"])
	p.LastUpdate = int64(parseFloat(fields["last_update"]))
	return p, nil
}

func (e *Engine) savePlayer(ctx context.Context, p Player) error {
	fields := map[string]string{
		"display_name":   p.DisplayName,
		"alliance_tag":   p.AllianceTag,
		"alliance_color": p.AllianceColor,
		"energy":         formatFloat(p.Energy),
		"last_update":    strconv.FormatInt(p.LastUpdate, 10),
	}
	if _, err := e.kv.HashSet(ctx, playerKey(p.UserID), fields); err != nil {
		return storeError("save player", err)
	}
	return nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatFloat rounds to four decimal places to stabilize round-trip
// comparisons, per §4.3's final paragraph.
func formatFloat(v float64) string {
	return strconv.FormatFloat(round4(v), 'f', 4, 64)
}

func round4(v float64) float64 {
	const scale = 10000.0
	return float64(int64(v*scale+sign(v)*0.5)) / scale
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package world implements the WorldEngine: the authoritative tile/player
// data model, claim/repair/alliance rules, the recharge tick, spatial
// queries, leaderboard, radar, and the snapshot pipeline. It depends only
// on hexmath and the store interfaces (§2).
package world

import "github.com/lucas/hexterritory/internal/hexmath"

// TileType distinguishes ordinary tiles from POI nexuses (§3).
type TileType string

const (
	TileNormal TileType = "normal"
	TileNexus  TileType = "nexus"
)

// Tile is the authoritative record for one hex coordinate.
type Tile struct {
	Q                  int
	R                  int
	OwnerID            string // empty means unowned
	OwnerAllianceTag   string // empty means none
	OwnerAllianceColor string // empty means none
	Energy             float64
	Integrity          float64
	Level              int
	TileType           TileType
	LastUpdate         int64 // wall-clock ms
}

// Coord returns the tile's axial coordinate.
func (t Tile) Coord() hexmath.Hex { return hexmath.Hex{Q: t.Q, R: t.R} }

// HasOwner reports whether the tile is currently owned.
func (t Tile) HasOwner() bool { return t.OwnerID != "" }

// Player is the authoritative record for one user.
type Player struct {
	UserID        string
	DisplayName   string
	AllianceTag   string // empty means none
	AllianceColor string // empty means none
	Energy        float64
	LastUpdate    int64
}

// LeaderboardEntry is one row of get_leaderboard's output (§4.2).
type LeaderboardEntry struct {
	UserID        string
	DisplayName   string
	AllianceTag   string
	AllianceColor string
	Score         int
}

// RadarBase is one entry of RadarData.PlayerBases.
type RadarBase struct {
	Q, R int
}

// RadarNexus is one entry of RadarData.NexusCores.
type RadarNexus struct {
	Q, R  int
	Level int
}

// RadarHotspot is one entry of RadarData.Hotspots.
type RadarHotspot struct {
	Q, R     int
	Activity int
}

// RadarData is get_radar_summary's output (§4.2).
type RadarData struct {
	PlayerBases []RadarBase
	NexusCores  []RadarNexus
	Hotspots    []RadarHotspot
}

// ClaimOutcome tags the result variant of a claim() call (§4.2, §9).
type ClaimOutcome string

const (
	ClaimOK              ClaimOutcome = "ok"
	ClaimOutOfRange      ClaimOutcome = "out-of-range"
	ClaimInsufficientNRG ClaimOutcome = "insufficient-energy"
)

// ClaimResult is claim()'s tagged-union result. Only the fields relevant
// to Outcome are meaningful.
type ClaimResult struct {
	Outcome ClaimOutcome

	// ClaimOK
	Created     bool
	Captured    bool
	Tile        Tile
	EnergyAfter float64
	EnergyCost  float64

	// ClaimOutOfRange
	MaxDistance     int
	NearestDistance *int // nil if the player owns no tiles

	// ClaimInsufficientNRG
	RequiredEnergy float64
	PlayerEnergy   float64
}

// RepairOutcome tags the result variant of a repair() call.
type RepairOutcome string

const (
	RepairOK              RepairOutcome = "ok"
	RepairTileNotFound    RepairOutcome = "tile-not-found"
	RepairNotOwner        RepairOutcome = "not-owner"
	RepairInsufficientNRG RepairOutcome = "insufficient-energy"
)

// RepairResult is repair()'s tagged-union result.
type RepairResult struct {
	Outcome RepairOutcome

	// RepairOK
	Tile        Tile
	EnergyAfter float64
	EnergyCost  float64

	// RepairInsufficientNRG
	RequiredEnergy float64
	PlayerEnergy   float64
}

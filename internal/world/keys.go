package world

import (
	"fmt"

	"github.com/lucas/hexterritory/internal/hexmath"
)

const (
	keyTilesIndex      = "tiles:index"
	keyPOIIndex        = "poi:index"
	keyLeaderboard     = "leaderboard:tiles"
	keyChunkActivity   = "chunk:activity"
	playerHashPrefix   = "player:"
	tileHashPrefix     = "tile:"
	chunkTilesPrefix   = "chunk:"
	ownerTilesPrefix   = "owner:"
)

func tileKey(h hexmath.Hex) string {
	return fmt.Sprintf("%s%d:%d", tileHashPrefix, h.Q, h.R)
}

func playerKey(userID string) string {
	return playerHashPrefix + userID
}

func chunkTilesKey(chunk hexmath.Hex) string {
	return fmt.Sprintf("%s%d:%d:tiles", chunkTilesPrefix, chunk.Q, chunk.R)
}

func ownerTilesKey(userID string) string {
	return ownerTilesPrefix + userID + ":tiles"
}

func coordMember(h hexmath.Hex) string {
	return fmt.Sprintf("%d:%d", h.Q, h.R)
}

func chunkMember(chunk hexmath.Hex) string {
	return fmt.Sprintf("%d:%d", chunk.Q, chunk.R)
}

func parseCoordMember(s string) (hexmath.Hex, error) {
	var q, r int
	if _, err := fmt.Sscanf(s, "%d:%d", &q, &r); err != nil {
		return hexmath.Hex{}, err
	}
	return hexmath.Hex{Q: q, R: r}, nil
}

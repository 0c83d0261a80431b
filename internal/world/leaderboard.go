package world

import (
	"context"
	"strings"
)

// Leaderboard implements get_leaderboard(limit) per §4.2. limit is
// clamped to [1, 100].
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	members, err := e.kv.ZRangeWithScores(ctx, keyLeaderboard, "-inf", "+inf", true)
	if err != nil {
		return nil, storeError("load leaderboard", err)
	}

	var out []LeaderboardEntry
	for _, m := range members {
		if len(out) >= limit {
			break
		}
		userID := strings.TrimSpace(m.Member)
		if userID == "" {
			continue
		}
		score := int(m.Score)
		if score <= 0 {
			continue
		}
		player, err := e.loadPlayer(ctx, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, LeaderboardEntry{
			UserID:        userID,
			DisplayName:   player.DisplayName,
			AllianceTag:   player.AllianceTag,
			AllianceColor: player.AllianceColor,
			Score:         score,
		})
	}

	return out, nil
}

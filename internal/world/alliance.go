package world

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var allianceTagPattern = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)

// PlayerProfile is set_alliance_tag's output.
type PlayerProfile struct {
	UserID        string
	DisplayName   string
	AllianceTag   string
	AllianceColor string
	Energy        float64
}

// SetAllianceTag implements set_alliance_tag(userId, tag) per §4.2. tag
// may be nil (represented here as a pointer) to leave an alliance, or a
// string matching ^[A-Z0-9]{3,4}$ after trim+upcase.
func (e *Engine) SetAllianceTag(ctx context.Context, userID string, tag *string) (PlayerProfile, error) {
	if err := checkCtx(ctx); err != nil {
		return PlayerProfile{}, err
	}

	var normalizedTag, color string
	if tag != nil {
		normalizedTag = strings.ToUpper(strings.TrimSpace(*tag))
		if !allianceTagPattern.MatchString(normalizedTag) {
			return PlayerProfile{}, invalidArgument("alliance tag must match ^[A-Z0-9]{3,4}$, got %q", *tag)
		}
		color = AllianceColor(normalizedTag)
	}

	unlock := e.locks.lockSet("player:" + userID)
	defer unlock()

	if err := checkCtx(ctx); err != nil {
		return PlayerProfile{}, err
	}

	player, err := e.loadPlayer(ctx, userID)
	if err != nil {
		return PlayerProfile{}, err
	}
	player.AllianceTag = normalizedTag
	player.AllianceColor = color
	if err := e.savePlayer(ctx, player); err != nil {
		return PlayerProfile{}, err
	}

	if err := e.propagateAllianceToTiles(ctx, userID, normalizedTag, color); err != nil {
		return PlayerProfile{}, err
	}

	return PlayerProfile{
		UserID:        player.UserID,
		DisplayName:   player.DisplayName,
		AllianceTag:   player.AllianceTag,
		AllianceColor: player.AllianceColor,
		Energy:        player.Energy,
	}, nil
}

// propagateAllianceToTiles walks owner:<uid>:tiles and updates only the
// two alliance fields on each tile hash (§4.2, §9 "Denormalized alliance").
func (e *Engine) propagateAllianceToTiles(ctx context.Context, userID, tag, color string) error {
	members, err := e.kv.SetMembers(ctx, ownerTilesKey(userID))
	if err != nil {
		return storeError("load owned tiles", err)
	}
	for _, m := range members {
		h, err := parseCoordMember(m)
		if err != nil {
			continue
		}
		fields := map[string]string{
			"owner_alliance_tag":   tag,
			"owner_alliance_color": color,
		}
		if _, err := e.kv.HashSet(ctx, tileKey(h), fields); err != nil {
			return storeError("propagate alliance", err)
		}
	}
	return nil
}

// AllianceColor deterministically derives a tile/player's alliance color
// from its tag, per §4.2: hash into a hue, fixed saturation/lightness,
// converted to uppercase #RRGGBB.
func AllianceColor(tag string) string {
	var h int64
	for _, r := range tag {
		h = (h*31 + int64(r)) % 360
	}
	hue := float64(((h % 360) + 360) % 360)
	red, green, blue := hslToRGB(hue, 0.68, 0.56)
	return fmt.Sprintf("#%02X%02X%02X", red, green, blue)
}

func hslToRGB(h, s, l float64) (int, int, int) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	return rgbByte(r1 + m), rgbByte(g1 + m), rgbByte(b1 + m)
}

func rgbByte(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return n
}

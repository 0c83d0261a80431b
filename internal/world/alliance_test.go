package world

import (
	"context"
	"regexp"
	"testing"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestSetAllianceTag_NormalizesAndColorsDeterministically(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	tag := "fox"
	profile, err := e.SetAllianceTag(ctx, "alice", &tag)
	if err != nil {
		t.Fatalf("SetAllianceTag: %v", err)
	}
	if profile.AllianceTag != "FOX" {
		t.Fatalf("AllianceTag = %q, want FOX (upcased)", profile.AllianceTag)
	}
	if !hexColorPattern.MatchString(profile.AllianceColor) {
		t.Fatalf("AllianceColor = %q, want #RRGGBB", profile.AllianceColor)
	}

	again, err := e.SetAllianceTag(ctx, "bob", &tag)
	if err != nil {
		t.Fatalf("SetAllianceTag: %v", err)
	}
	if again.AllianceColor != profile.AllianceColor {
		t.Fatalf("same tag produced different colors: %q vs %q", again.AllianceColor, profile.AllianceColor)
	}
}

func TestSetAllianceTag_NilLeavesAlliance(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	tag := "FOX"
	if _, err := e.SetAllianceTag(ctx, "alice", &tag); err != nil {
		t.Fatalf("join: %v", err)
	}
	profile, err := e.SetAllianceTag(ctx, "alice", nil)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if profile.AllianceTag != "" || profile.AllianceColor != "" {
		t.Fatalf("profile = %+v, want empty tag/color after leaving", profile)
	}
}

func TestSetAllianceTag_RejectsMalformedTag(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	bad := "toolong1"
	_, err := e.SetAllianceTag(ctx, "alice", &bad)
	if err == nil {
		t.Fatal("expected an error for a malformed tag")
	}
	werr, ok := err.(*Error)
	if !ok || werr.Kind != KindInvalidArgument {
		t.Fatalf("err = %v, want *Error{Kind: invalid-argument}", err)
	}
}

func TestSetAllianceTag_PropagatesToOwnedTiles(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	if _, err := e.Claim(ctx, "alice", 0, 0, 1000); err != nil {
		t.Fatalf("claim: %v", err)
	}
	tag := "FOX"
	profile, err := e.SetAllianceTag(ctx, "alice", &tag)
	if err != nil {
		t.Fatalf("SetAllianceTag: %v", err)
	}

	tiles, err := e.TilesInRange(ctx, 0, 0, 0)
	if err != nil {
		t.Fatalf("TilesInRange: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("tiles = %d, want 1", len(tiles))
	}
	if tiles[0].OwnerAllianceTag != "FOX" || tiles[0].OwnerAllianceColor != profile.AllianceColor {
		t.Fatalf("tile alliance fields not propagated: %+v", tiles[0])
	}
}

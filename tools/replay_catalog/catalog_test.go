package replaycatalog

import (
	"path/filepath"
	"testing"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/replay"
)

func writeHeader(t *testing.T, dir, matchID, created, winner string) {
	t.Helper()
	header := replay.Header{
		SchemaVersion: replay.HeaderSchemaVersion,
		MatchID:       matchID,
		Models:        replay.Models{"ship_a": "alpha", "ship_b": "beta"},
		Winner:        winner,
		TotalTurns:    4,
		CreatedAt:     created,
		Config:        gameplay.Default(),
		FilePointer:   "manifest.json",
	}
	if err := replay.WriteHeader(filepath.Join(dir, "header.json"), header); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
}

func TestListCollectsHeaders(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, filepath.Join(dir, "late"), "late", "2024-07-10T16:00:00Z", replay.WinnerShipB)
	writeHeader(t, filepath.Join(dir, "early"), "early", "2024-07-10T15:00:00Z", replay.WinnerShipA)
	writeHeader(t, filepath.Join(dir, "draw"), "draw", "2024-07-10T17:00:00Z", replay.WinnerTie)

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Header.MatchID != "early" || entries[2].Header.MatchID != "draw" {
		t.Fatalf("expected chronological order, got %s..%s", entries[0].Header.MatchID, entries[2].Header.MatchID)
	}
	if entries[0].BundleDir != filepath.Join(dir, "early") {
		t.Fatalf("unexpected bundle dir %q", entries[0].BundleDir)
	}

	wins := Tally(entries)
	if wins["alpha"] != 1 || wins["beta"] != 1 || wins[replay.WinnerTie] != 1 {
		t.Fatalf("unexpected tally %v", wins)
	}
}

func TestListRejectsFiles(t *testing.T) {
	if _, err := List(""); err == nil {
		t.Fatalf("expected empty root to be rejected")
	}
	if _, err := List(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected missing root to be rejected")
	}
}

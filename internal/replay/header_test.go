package replay

import (
	"path/filepath"
	"testing"

	"aiarena/engine/internal/gameplay"
)

func TestWriteAndReadHeader(t *testing.T) {
	dir := t.TempDir()
	header := Header{
		SchemaVersion: HeaderSchemaVersion,
		MatchID:       "match-9",
		Models:        Models{"ship_a": "scripted-aggressor", "ship_b": "scripted-evader"},
		Winner:        WinnerShipB,
		TotalTurns:    7,
		CreatedAt:     "2024-07-10T12:00:00Z",
		Config:        gameplay.Default(),
		FilePointer:   "manifest.json",
	}
	path := filepath.Join(dir, "nested", "header.json")
	if err := WriteHeader(path, header); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	loaded, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if loaded.MatchID != header.MatchID || loaded.Winner != WinnerShipB || loaded.TotalTurns != 7 {
		t.Fatalf("unexpected header values: %+v", loaded)
	}
	if loaded.Models["ship_a"] != "scripted-aggressor" {
		t.Fatalf("unexpected models: %#v", loaded.Models)
	}
	if loaded.Config != gameplay.Default() {
		t.Fatalf("expected game config to round trip")
	}
}

func TestHeaderValidation(t *testing.T) {
	cases := map[string]Header{
		"schema":  {MatchID: "m", Winner: WinnerTie, FilePointer: "manifest.json"},
		"match":   {SchemaVersion: 1, Winner: WinnerTie, FilePointer: "manifest.json"},
		"pointer": {SchemaVersion: 1, MatchID: "m", Winner: WinnerTie},
		"winner":  {SchemaVersion: 1, MatchID: "m", Winner: "nobody", FilePointer: "manifest.json"},
	}
	for name, header := range cases {
		if err := header.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

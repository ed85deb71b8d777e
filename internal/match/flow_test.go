package match

import (
	"math"
	"testing"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/replay"
	"aiarena/engine/internal/state"
)

func TestSpawnPlacesShipsFacingEachOther(t *testing.T) {
	cfg := gameplay.Default()
	gs := Spawn(cfg)

	//1.- Both ships sit on the horizontal centre line, spawn distance apart.
	if gs.ShipA.Position.X != 100 || gs.ShipB.Position.X != 900 {
		t.Fatalf("unexpected spawn x: %v / %v", gs.ShipA.Position.X, gs.ShipB.Position.X)
	}
	if gs.ShipA.Position.Y != 250 || gs.ShipB.Position.Y != 250 {
		t.Fatalf("expected centre line spawn, got %v / %v", gs.ShipA.Position.Y, gs.ShipB.Position.Y)
	}
	//2.- They face each other with full resources and no ordnance in flight.
	if gs.ShipA.Heading != 0 || gs.ShipB.Heading != math.Pi {
		t.Fatalf("unexpected headings %v / %v", gs.ShipA.Heading, gs.ShipB.Heading)
	}
	if gs.ShipA.Shields != cfg.Ship.StartingShields || gs.ShipB.AE != cfg.Ship.StartingAE {
		t.Fatalf("unexpected starting resources %+v", gs.ShipA)
	}
	if gs.Turn != 0 || gs.Torpedoes == nil || len(gs.Torpedoes) != 0 || gs.BlastZones == nil {
		t.Fatalf("expected empty turn-zero state, got %+v", gs)
	}
	if err := state.CheckInvariants(gs, state.Limits{MaxAE: cfg.Ship.MaxAE, MaxBlastRadius: cfg.Blast.MaxRadiusUnits}); err != nil {
		t.Fatalf("spawn state violates invariants: %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	alive := state.ShipState{Shields: 40}
	dead := state.ShipState{Shields: 0}
	cases := []struct {
		name     string
		gs       state.GameState
		maxTurns int
		want     Outcome
		over     bool
	}{
		{name: "ongoing", gs: state.GameState{Turn: 3, ShipA: alive, ShipB: alive}, maxTurns: 20},
		{name: "no limit", gs: state.GameState{Turn: 300, ShipA: alive, ShipB: alive}},
		{name: "a destroyed", gs: state.GameState{Turn: 4, ShipA: dead, ShipB: alive}, maxTurns: 20,
			want: Outcome{Winner: replay.WinnerShipB, Reason: ReasonDestroyed}, over: true},
		{name: "b destroyed on last turn", gs: state.GameState{Turn: 20, ShipA: alive, ShipB: dead}, maxTurns: 20,
			want: Outcome{Winner: replay.WinnerShipA, Reason: ReasonDestroyed}, over: true},
		{name: "both destroyed", gs: state.GameState{Turn: 5, ShipA: dead, ShipB: dead}, maxTurns: 20,
			want: Outcome{Winner: replay.WinnerTie, Reason: ReasonMutualDestruction}, over: true},
		{name: "turn limit", gs: state.GameState{Turn: 20, ShipA: alive, ShipB: alive}, maxTurns: 20,
			want: Outcome{Winner: replay.WinnerTie, Reason: ReasonMaxTurns}, over: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, over := Evaluate(tc.gs, tc.maxTurns)
			if over != tc.over || got != tc.want {
				t.Fatalf("Evaluate = %+v, %v; want %+v, %v", got, over, tc.want, tc.over)
			}
		})
	}
}

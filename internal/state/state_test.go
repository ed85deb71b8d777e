package state

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"aiarena/engine/internal/geometry"
)

func sampleState() GameState {
	timer := 4.5
	return GameState{
		Turn:  3,
		ShipA: ShipState{Position: geometry.Vec2D{X: 100, Y: 250}, Heading: 0, Shields: 80, AE: 60},
		ShipB: ShipState{Position: geometry.Vec2D{X: 900, Y: 250}, Heading: math.Pi, Shields: 100, AE: 40, PhaserConfig: PhaserFocused},
		Torpedoes: []TorpedoState{
			{ID: "ship_a_torpedo_2", Owner: ShipA, Position: geometry.Vec2D{X: 150, Y: 250}, AERemaining: 30, DetonationTimer: &timer},
		},
		BlastZones: []BlastZone{
			{ID: "ship_b_torpedo_1_blast", Owner: ShipB, Phase: PhasePersistence, Age: 10, CurrentRadius: 15, BaseDamage: 45},
		},
	}
}

var testLimits = Limits{MaxAE: 100, MaxBlastRadius: 15, MaxTorpedoesPerShip: 2}

func TestCloneSharesNoMemory(t *testing.T) {
	original := sampleState()
	clone := original.Clone()

	clone.ShipA.Shields = 1
	clone.Torpedoes[0].AERemaining = 0
	*clone.Torpedoes[0].DetonationTimer = 0
	clone.BlastZones[0].CurrentRadius = 2

	if original.ShipA.Shields != 80 {
		t.Fatalf("ship mutated through clone: %v", original.ShipA.Shields)
	}
	if original.Torpedoes[0].AERemaining != 30 || *original.Torpedoes[0].DetonationTimer != 4.5 {
		t.Fatalf("torpedo mutated through clone: %+v", original.Torpedoes[0])
	}
	if original.BlastZones[0].CurrentRadius != 15 {
		t.Fatalf("blast zone mutated through clone: %+v", original.BlastZones[0])
	}
}

func TestShipAccessorAndCounts(t *testing.T) {
	g := sampleState()
	g.Ship(ShipB).AE = 5
	if g.ShipB.AE != 5 {
		t.Fatalf("expected accessor to address the embedded ship")
	}
	if g.Ship("ship_c") != nil {
		t.Fatalf("expected nil for unknown ship")
	}
	if got := g.ActiveTorpedoes(ShipA); got != 1 {
		t.Fatalf("expected one ship_a torpedo, got %d", got)
	}
	if ids := g.TorpedoIDs(ShipB); len(ids) != 0 {
		t.Fatalf("expected no ship_b torpedoes, got %v", ids)
	}
	if ShipA.Opponent() != ShipB || ShipB.Opponent() != ShipA {
		t.Fatalf("opponent mapping broken")
	}
}

func TestCheckInvariantsAcceptsWellFormedState(t *testing.T) {
	if err := CheckInvariants(sampleState(), testLimits); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestCheckInvariantsFlagsBadValues(t *testing.T) {
	cases := map[string]func(*GameState){
		"nan position":   func(g *GameState) { g.ShipA.Position.X = math.NaN() },
		"heading 2pi":    func(g *GameState) { g.ShipB.Heading = geometry.TwoPi },
		"negative ae":    func(g *GameState) { g.ShipA.AE = -0.1 },
		"ae over max":    func(g *GameState) { g.ShipB.AE = 100.5 },
		"torpedo inf":    func(g *GameState) { g.Torpedoes[0].Velocity.Y = math.Inf(1) },
		"radius too big": func(g *GameState) { g.BlastZones[0].CurrentRadius = 15.01 },
		"duplicate torpedo id": func(g *GameState) {
			g.Torpedoes = append(g.Torpedoes, g.Torpedoes[0].Clone())
		},
		"unknown torpedo owner": func(g *GameState) { g.Torpedoes[0].Owner = "ship_c" },
		"too many torpedoes": func(g *GameState) {
			for _, id := range []string{"ship_a_torpedo_4", "ship_a_torpedo_5"} {
				extra := g.Torpedoes[0].Clone()
				extra.ID = id
				g.Torpedoes = append(g.Torpedoes, extra)
			}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := sampleState()
			mutate(&g)
			var violation *InvariantViolation
			if err := CheckInvariants(g, testLimits); !errors.As(err, &violation) {
				t.Fatalf("expected InvariantViolation, got %v", err)
			}
		})
	}
}

func TestStateJSONUsesStableNames(t *testing.T) {
	data, err := json.Marshal(sampleState())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, fragment := range []string{
		`"phaser_config":"FOCUSED"`,
		`"reconfiguring_phaser":false`,
		`"phase":"persistence"`,
		`"detonation_timer":4.5`,
		`"owner":"ship_a"`,
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %s in %s", fragment, text)
		}
	}

	var decoded GameState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ShipB.PhaserConfig != PhaserFocused || decoded.BlastZones[0].Phase != PhasePersistence {
		t.Fatalf("enum round trip failed: %+v", decoded)
	}
}

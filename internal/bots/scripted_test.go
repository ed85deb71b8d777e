package bots

import (
	"context"
	"math"
	"testing"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/match"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

func request(ship state.ShipID, gs state.GameState) match.DecisionRequest {
	return match.DecisionRequest{Ship: ship, Turn: gs.Turn + 1, State: gs, Config: gameplay.Default()}
}

func TestNewResolvesPilotNames(t *testing.T) {
	for _, name := range []string{Aggressor, Evader, "http://localhost:9000/decide"} {
		if _, err := New(name, nil); err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
	}
	if _, err := New("gpt-unknown", nil); err == nil {
		t.Fatalf("expected unknown pilot to be rejected")
	}
	if names := Scripted(); len(names) != 2 || names[0] != Aggressor {
		t.Fatalf("unexpected scripted pilots %v", names)
	}
}

func TestAggressorLaunchesAtLongRange(t *testing.T) {
	gs := match.Spawn(gameplay.Default())
	decision, err := aggress(context.Background(), request(state.ShipA, gs))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	got := decision.Orders
	if got.Movement != orders.MoveForward || got.Rotation != orders.RotateNone || got.WeaponAction != orders.WeaponLaunchTorpedo {
		t.Fatalf("unexpected opening orders %+v", got)
	}
	if decision.Thinking == "" {
		t.Fatalf("expected reasoning to be recorded")
	}
}

func TestAggressorTurnsTowardAndHoldsInRange(t *testing.T) {
	gs := state.GameState{
		ShipA: state.ShipState{Position: geometry.Vec2D{X: 100, Y: 100}, Heading: 0, Shields: 100, AE: 100},
		ShipB: state.ShipState{Position: geometry.Vec2D{X: 100, Y: 120}, Heading: 0, Shields: 100, AE: 100},
	}
	decision, err := aggress(context.Background(), request(state.ShipA, gs))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	//1.- The opponent is straight "up", a quarter turn to the left.
	if decision.Orders.Rotation != orders.RotateHardLeft || decision.Orders.Movement != orders.MoveStop {
		t.Fatalf("unexpected close range orders %+v", decision.Orders)
	}
	if decision.Orders.WeaponAction != orders.WeaponMaintainConfig {
		t.Fatalf("expected phaser engagement, got %s", decision.Orders.WeaponAction)
	}
}

func TestTorpedoGuidance(t *testing.T) {
	gs := match.Spawn(gameplay.Default())
	gs.Torpedoes = []state.TorpedoState{
		{ID: "ship_a_torpedo_1", Owner: state.ShipA, Position: geometry.Vec2D{X: 500, Y: 200}, Heading: 0, AERemaining: 30},
		{ID: "ship_a_torpedo_2", Owner: state.ShipA, Position: geometry.Vec2D{X: 895, Y: 250}, Heading: 0, AERemaining: 30},
		{ID: "ship_b_torpedo_1", Owner: state.ShipB, Position: geometry.Vec2D{X: 300, Y: 250}, Heading: math.Pi, AERemaining: 30},
	}
	commands := guideTorpedoes(request(state.ShipA, gs), gs.ShipB.Position)
	if len(commands) != 2 {
		t.Fatalf("expected commands for owned torpedoes only, got %v", commands)
	}
	if steer, ok := commands["ship_a_torpedo_1"].(orders.Steer); !ok || steer.Direction != orders.SteerHardLeft {
		t.Fatalf("expected low torpedo to climb toward the target, got %v", commands["ship_a_torpedo_1"])
	}
	if _, ok := commands["ship_a_torpedo_2"].(orders.DetonateAfter); !ok {
		t.Fatalf("expected close torpedo to detonate, got %v", commands["ship_a_torpedo_2"])
	}
	if err := orders.Validate("ship_a", orders.Orders{TorpedoOrders: commands}, gs.TorpedoIDs(state.ShipA)); err != nil {
		t.Fatalf("guidance produced invalid orders: %v", err)
	}
}

func TestEvaderReconfiguresAndKeepsDistance(t *testing.T) {
	gs := match.Spawn(gameplay.Default())
	decision, err := evade(context.Background(), request(state.ShipB, gs))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.Orders.WeaponAction != orders.WeaponConfigureFocused || decision.Orders.Movement != orders.MoveForward {
		t.Fatalf("unexpected opening orders %+v", decision.Orders)
	}

	gs.ShipB.Position = geometry.Vec2D{X: 120, Y: 250}
	gs.ShipB.PhaserConfig = state.PhaserFocused
	decision, err = evade(context.Background(), request(state.ShipB, gs))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.Orders.Movement != orders.MoveBackward || decision.Orders.WeaponAction != orders.WeaponMaintainConfig {
		t.Fatalf("expected retreat while firing, got %+v", decision.Orders)
	}

	gs.ShipB.AE = 5
	decision, _ = evade(context.Background(), request(state.ShipB, gs))
	if decision.Orders.Movement != orders.MoveStop || decision.Orders.Rotation != orders.RotateNone {
		t.Fatalf("expected energy saving orders, got %+v", decision.Orders)
	}
}

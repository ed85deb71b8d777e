package state

import (
	"fmt"
	"math"

	"aiarena/engine/internal/geometry"
)

// Limits bounds the values CheckInvariants accepts.
type Limits struct {
	MaxAE          float64
	MaxBlastRadius float64
	// MaxTorpedoesPerShip caps torpedoes in flight per owner. Zero disables the cap.
	MaxTorpedoesPerShip int
}

// InvariantViolation reports a state the simulation must never produce.
type InvariantViolation struct {
	Entity string
	Field  string
	Value  float64
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated: %s.%s=%v (%s)", e.Entity, e.Field, e.Value, e.Reason)
}

// CheckInvariants returns the first violated invariant in g, or nil when the state is well formed.
func CheckInvariants(g GameState, limits Limits) error {
	for _, id := range Ships {
		if err := checkShip(string(id), *g.Ship(id), limits); err != nil {
			return err
		}
	}
	if err := checkTorpedoRoster(g.Torpedoes, limits); err != nil {
		return err
	}
	for _, torpedo := range g.Torpedoes {
		if err := checkVector(torpedo.ID, "position", torpedo.Position); err != nil {
			return err
		}
		if err := checkVector(torpedo.ID, "velocity", torpedo.Velocity); err != nil {
			return err
		}
		if err := checkHeading(torpedo.ID, torpedo.Heading); err != nil {
			return err
		}
		if !finite(torpedo.AERemaining) {
			return &InvariantViolation{Entity: torpedo.ID, Field: "ae_remaining", Value: torpedo.AERemaining, Reason: "not finite"}
		}
	}
	for _, zone := range g.BlastZones {
		if err := checkVector(zone.ID, "position", zone.Position); err != nil {
			return err
		}
		if !finite(zone.CurrentRadius) || zone.CurrentRadius < 0 || zone.CurrentRadius > limits.MaxBlastRadius {
			return &InvariantViolation{Entity: zone.ID, Field: "current_radius", Value: zone.CurrentRadius, Reason: "outside [0, max_radius]"}
		}
		if !finite(zone.Age) || zone.Age < 0 {
			return &InvariantViolation{Entity: zone.ID, Field: "age", Value: zone.Age, Reason: "negative or not finite"}
		}
	}
	return nil
}

// checkTorpedoRoster enforces unique ids, known owners and the per-ship cap.
func checkTorpedoRoster(torpedoes []TorpedoState, limits Limits) error {
	seen := make(map[string]struct{}, len(torpedoes))
	perOwner := make(map[ShipID]int, len(Ships))
	for _, torpedo := range torpedoes {
		if _, dup := seen[torpedo.ID]; dup {
			return &InvariantViolation{Entity: torpedo.ID, Field: "id", Reason: "duplicate torpedo id"}
		}
		seen[torpedo.ID] = struct{}{}
		if !torpedo.Owner.Valid() {
			return &InvariantViolation{Entity: torpedo.ID, Field: "owner", Reason: fmt.Sprintf("unknown owner %q", torpedo.Owner)}
		}
		perOwner[torpedo.Owner]++
		if limits.MaxTorpedoesPerShip > 0 && perOwner[torpedo.Owner] > limits.MaxTorpedoesPerShip {
			return &InvariantViolation{Entity: string(torpedo.Owner), Field: "active_torpedoes", Value: float64(perOwner[torpedo.Owner]), Reason: "over max_active_per_ship"}
		}
	}
	return nil
}

func checkShip(entity string, ship ShipState, limits Limits) error {
	if err := checkVector(entity, "position", ship.Position); err != nil {
		return err
	}
	if err := checkVector(entity, "velocity", ship.Velocity); err != nil {
		return err
	}
	if err := checkHeading(entity, ship.Heading); err != nil {
		return err
	}
	if !finite(ship.Shields) || ship.Shields < 0 {
		return &InvariantViolation{Entity: entity, Field: "shields", Value: ship.Shields, Reason: "negative or not finite"}
	}
	if !finite(ship.AE) || ship.AE < 0 || ship.AE > limits.MaxAE {
		return &InvariantViolation{Entity: entity, Field: "ae", Value: ship.AE, Reason: "outside [0, max_ae]"}
	}
	if !finite(ship.PhaserCooldownRemaining) || ship.PhaserCooldownRemaining < 0 {
		return &InvariantViolation{Entity: entity, Field: "phaser_cooldown_remaining", Value: ship.PhaserCooldownRemaining, Reason: "negative or not finite"}
	}
	return nil
}

func checkVector(entity, field string, v geometry.Vec2D) error {
	if v.IsFinite() {
		return nil
	}
	value := v.X
	if finite(value) {
		value = v.Y
	}
	return &InvariantViolation{Entity: entity, Field: field, Value: value, Reason: "not finite"}
}

func checkHeading(entity string, heading float64) error {
	if finite(heading) && heading >= 0 && heading < geometry.TwoPi {
		return nil
	}
	return &InvariantViolation{Entity: entity, Field: "heading", Value: heading, Reason: "outside [0, 2pi)"}
}

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

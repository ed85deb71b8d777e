package state

import (
	"encoding/json"
	"fmt"

	"aiarena/engine/internal/geometry"
)

// TorpedoState tracks one torpedo in flight.
type TorpedoState struct {
	ID           string         `json:"id"`
	Position     geometry.Vec2D `json:"position"`
	Velocity     geometry.Vec2D `json:"velocity"`
	Heading      float64        `json:"heading"`
	AERemaining  float64        `json:"ae_remaining"`
	Owner        ShipID         `json:"owner"`
	JustLaunched bool           `json:"just_launched"`
	// DetonationTimer counts down the seconds left before a timed detonation; nil when unarmed.
	DetonationTimer *float64 `json:"detonation_timer,omitempty"`
}

// Clone returns a copy that shares no pointers with the receiver.
func (t TorpedoState) Clone() TorpedoState {
	clone := t
	if t.DetonationTimer != nil {
		timer := *t.DetonationTimer
		clone.DetonationTimer = &timer
	}
	return clone
}

// BlastZonePhase is the lifecycle stage of a blast zone. Phases only ever advance.
type BlastZonePhase int

const (
	PhaseExpansion BlastZonePhase = iota
	PhasePersistence
	PhaseDissipation
)

func (p BlastZonePhase) String() string {
	switch p {
	case PhaseExpansion:
		return "expansion"
	case PhasePersistence:
		return "persistence"
	case PhaseDissipation:
		return "dissipation"
	default:
		return fmt.Sprintf("BlastZonePhase(%d)", int(p))
	}
}

// MarshalJSON encodes the phase by name.
func (p BlastZonePhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase name.
func (p *BlastZonePhase) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "expansion":
		*p = PhaseExpansion
	case "persistence":
		*p = PhasePersistence
	case "dissipation":
		*p = PhaseDissipation
	default:
		return fmt.Errorf("unknown blast zone phase %q", raw)
	}
	return nil
}

// BlastZone is an area hazard left behind by a torpedo detonation.
type BlastZone struct {
	ID            string         `json:"id"`
	Position      geometry.Vec2D `json:"position"`
	BaseDamage    float64        `json:"base_damage"`
	Phase         BlastZonePhase `json:"phase"`
	Age           float64        `json:"age"`
	CurrentRadius float64        `json:"current_radius"`
	Owner         ShipID         `json:"owner"`
}

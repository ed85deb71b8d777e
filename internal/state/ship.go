package state

import (
	"encoding/json"
	"fmt"

	"aiarena/engine/internal/geometry"
)

// ShipID identifies one of the two combatants.
type ShipID string

const (
	ShipA ShipID = "ship_a"
	ShipB ShipID = "ship_b"
)

// Ships lists both combatants in the fixed processing order.
var Ships = [2]ShipID{ShipA, ShipB}

// Opponent returns the other ship.
func (id ShipID) Opponent() ShipID {
	if id == ShipA {
		return ShipB
	}
	return ShipA
}

// Valid reports whether id names one of the two ships.
func (id ShipID) Valid() bool { return id == ShipA || id == ShipB }

// PhaserConfig selects the phaser's arc/range/damage trade-off.
type PhaserConfig int

const (
	PhaserWide PhaserConfig = iota
	PhaserFocused
)

func (p PhaserConfig) String() string {
	switch p {
	case PhaserWide:
		return "WIDE"
	case PhaserFocused:
		return "FOCUSED"
	default:
		return fmt.Sprintf("PhaserConfig(%d)", int(p))
	}
}

// MarshalJSON encodes the configuration by name.
func (p PhaserConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes WIDE or FOCUSED.
func (p *PhaserConfig) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "WIDE":
		*p = PhaserWide
	case "FOCUSED":
		*p = PhaserFocused
	default:
		return fmt.Errorf("unknown phaser config %q", raw)
	}
	return nil
}

// ShipState is the complete per-ship state. Heading is in radians, 0 = +X, counterclockwise.
type ShipState struct {
	Position      geometry.Vec2D `json:"position"`
	Velocity      geometry.Vec2D `json:"velocity"`
	Heading       float64        `json:"heading"`
	Shields       float64        `json:"shields"`
	AE            float64        `json:"ae"`
	PhaserConfig  PhaserConfig   `json:"phaser_config"`
	Reconfiguring bool           `json:"reconfiguring_phaser"`
	// PhaserCooldownRemaining doubles as the reconfiguration timer while Reconfiguring is set.
	PhaserCooldownRemaining float64 `json:"phaser_cooldown_remaining"`
}

// Destroyed reports whether the ship's shields are exhausted.
func (s ShipState) Destroyed() bool {
	return s.Shields <= 0
}

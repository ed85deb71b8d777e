package orders

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MovementDirection sets the velocity direction relative to the current heading.
type MovementDirection int

const (
	MoveForward MovementDirection = iota
	MoveForwardLeft
	MoveForwardRight
	MoveLeft
	MoveRight
	MoveBackward
	MoveBackwardLeft
	MoveBackwardRight
	MoveStop
)

var movementNames = [...]string{
	MoveForward:       "FORWARD",
	MoveForwardLeft:   "FORWARD_LEFT",
	MoveForwardRight:  "FORWARD_RIGHT",
	MoveLeft:          "LEFT",
	MoveRight:         "RIGHT",
	MoveBackward:      "BACKWARD",
	MoveBackwardLeft:  "BACKWARD_LEFT",
	MoveBackwardRight: "BACKWARD_RIGHT",
	MoveStop:          "STOP",
}

// Valid reports whether m is one of the nine movement directions.
func (m MovementDirection) Valid() bool { return m >= MoveForward && m <= MoveStop }

func (m MovementDirection) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MovementDirection(%d)", int(m))
	}
	return movementNames[m]
}

// MovementClass buckets movement directions by energy cost.
type MovementClass int

const (
	ClassForward MovementClass = iota
	ClassDiagonal
	ClassPerpendicular
	ClassBackward
	ClassBackwardDiagonal
	ClassStop
)

// Class returns the energy bucket for the direction.
func (m MovementDirection) Class() MovementClass {
	switch m {
	case MoveForward:
		return ClassForward
	case MoveForwardLeft, MoveForwardRight:
		return ClassDiagonal
	case MoveLeft, MoveRight:
		return ClassPerpendicular
	case MoveBackward:
		return ClassBackward
	case MoveBackwardLeft, MoveBackwardRight:
		return ClassBackwardDiagonal
	default:
		return ClassStop
	}
}

// RotationCommand changes heading independently of movement.
type RotationCommand int

const (
	RotateNone RotationCommand = iota
	RotateSoftLeft
	RotateSoftRight
	RotateHardLeft
	RotateHardRight
)

var rotationNames = [...]string{
	RotateNone:      "NONE",
	RotateSoftLeft:  "SOFT_LEFT",
	RotateSoftRight: "SOFT_RIGHT",
	RotateHardLeft:  "HARD_LEFT",
	RotateHardRight: "HARD_RIGHT",
}

// Valid reports whether r is one of the five rotation commands.
func (r RotationCommand) Valid() bool { return r >= RotateNone && r <= RotateHardRight }

func (r RotationCommand) String() string {
	if !r.Valid() {
		return fmt.Sprintf("RotationCommand(%d)", int(r))
	}
	return rotationNames[r]
}

// WeaponAction is the single weapon instruction a ship issues per turn.
type WeaponAction int

const (
	// WeaponMaintainConfig keeps the current phaser configuration; phasers engage automatically.
	WeaponMaintainConfig WeaponAction = iota
	// WeaponFirePhaser requests the per-turn phaser shot explicitly.
	WeaponFirePhaser
	// WeaponHoldFire keeps the configuration and suppresses the phaser shot.
	WeaponHoldFire
	WeaponConfigureWide
	WeaponConfigureFocused
	// WeaponLaunchTorpedo launches a torpedo along the heading; phasers still engage.
	WeaponLaunchTorpedo
)

var weaponNames = [...]string{
	WeaponMaintainConfig:   "MAINTAIN_CONFIG",
	WeaponFirePhaser:       "FIRE_PHASER",
	WeaponHoldFire:         "HOLD_FIRE",
	WeaponConfigureWide:    "CONFIGURE_WIDE",
	WeaponConfigureFocused: "CONFIGURE_FOCUSED",
	WeaponLaunchTorpedo:    "LAUNCH_TORPEDO",
}

// Valid reports whether w is a known weapon action.
func (w WeaponAction) Valid() bool { return w >= WeaponMaintainConfig && w <= WeaponLaunchTorpedo }

func (w WeaponAction) String() string {
	if !w.Valid() {
		return fmt.Sprintf("WeaponAction(%d)", int(w))
	}
	return weaponNames[w]
}

// EngagesPhaser reports whether the action permits this turn's phaser shot.
func (w WeaponAction) EngagesPhaser() bool {
	switch w {
	case WeaponMaintainConfig, WeaponFirePhaser, WeaponLaunchTorpedo:
		return true
	default:
		return false
	}
}

// Orders is one ship's immutable intent for a single turn.
type Orders struct {
	Movement      MovementDirection
	Rotation      RotationCommand
	WeaponAction  WeaponAction
	TorpedoOrders map[string]TorpedoCommand
}

// Default returns the conservative orders used when a ship forfeits its turn.
func Default() Orders {
	return Orders{Movement: MoveStop, Rotation: RotateNone, WeaponAction: WeaponMaintainConfig}
}

// TorpedoCommand looks up the command for a torpedo; torpedoes without orders fly straight.
func (o Orders) TorpedoCommand(id string) TorpedoCommand {
	if cmd, ok := o.TorpedoOrders[id]; ok && cmd != nil {
		return cmd
	}
	return Steer{Direction: SteerStraight}
}

// TorpedoIDs returns the referenced torpedo ids in sorted order.
func (o Orders) TorpedoIDs() []string {
	ids := make([]string, 0, len(o.TorpedoOrders))
	for id := range o.TorpedoOrders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a copy that shares no map with the receiver.
func (o Orders) Clone() Orders {
	clone := o
	if o.TorpedoOrders != nil {
		clone.TorpedoOrders = make(map[string]TorpedoCommand, len(o.TorpedoOrders))
		for id, cmd := range o.TorpedoOrders {
			clone.TorpedoOrders[id] = cmd
		}
	}
	return clone
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func lookup(raw string, names []string, field string) (int, error) {
	value := normalize(raw)
	for idx, name := range names {
		if name == value {
			return idx, nil
		}
	}
	return 0, &ValidationError{Field: field, Value: raw, Reason: "unknown value"}
}

// ParseMovement converts a wire string such as "FORWARD_LEFT" into a MovementDirection.
func ParseMovement(raw string) (MovementDirection, error) {
	idx, err := lookup(raw, movementNames[:], "movement")
	return MovementDirection(idx), err
}

// ParseRotation converts a wire string such as "HARD_LEFT" into a RotationCommand.
func ParseRotation(raw string) (RotationCommand, error) {
	idx, err := lookup(raw, rotationNames[:], "rotation")
	return RotationCommand(idx), err
}

// ParseWeaponAction converts a wire string such as "LAUNCH_TORPEDO" into a WeaponAction.
func ParseWeaponAction(raw string) (WeaponAction, error) {
	idx, err := lookup(raw, weaponNames[:], "weapon_action")
	return WeaponAction(idx), err
}

// wireOrders is the stable JSON layout shared with the replay recorder and order providers.
type wireOrders struct {
	Movement      string            `json:"movement"`
	Rotation      string            `json:"rotation"`
	WeaponAction  string            `json:"weapon_action"`
	TorpedoOrders map[string]string `json:"torpedo_orders"`
}

// MarshalJSON encodes orders using their wire names.
func (o Orders) MarshalJSON() ([]byte, error) {
	wire := wireOrders{
		Movement:      o.Movement.String(),
		Rotation:      o.Rotation.String(),
		WeaponAction:  o.WeaponAction.String(),
		TorpedoOrders: make(map[string]string, len(o.TorpedoOrders)),
	}
	for id, cmd := range o.TorpedoOrders {
		if cmd == nil {
			continue
		}
		wire.TorpedoOrders[id] = cmd.String()
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes orders from wire names, rejecting unknown values.
func (o *Orders) UnmarshalJSON(data []byte) error {
	var wire wireOrders
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	parsed, err := FromWire(wire.Movement, wire.Rotation, wire.WeaponAction, wire.TorpedoOrders)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// FromWire builds Orders from raw string fields. Empty movement, rotation or weapon fields fall back to
// STOP, NONE and MAINTAIN_CONFIG respectively.
func FromWire(movement, rotation, weapon string, torpedoes map[string]string) (Orders, error) {
	result := Default()
	var err error
	if strings.TrimSpace(movement) != "" {
		if result.Movement, err = ParseMovement(movement); err != nil {
			return Orders{}, err
		}
	}
	if strings.TrimSpace(rotation) != "" {
		if result.Rotation, err = ParseRotation(rotation); err != nil {
			return Orders{}, err
		}
	}
	if strings.TrimSpace(weapon) != "" {
		if result.WeaponAction, err = ParseWeaponAction(weapon); err != nil {
			return Orders{}, err
		}
	}
	if len(torpedoes) > 0 {
		ids := make([]string, 0, len(torpedoes))
		for id := range torpedoes {
			ids = append(ids, id)
		}
		//1.- Parse in id order so the first reported error is the same on every run.
		sort.Strings(ids)
		result.TorpedoOrders = make(map[string]TorpedoCommand, len(torpedoes))
		for _, id := range ids {
			cmd, err := ParseTorpedoCommand(torpedoes[id])
			if err != nil {
				return Orders{}, err
			}
			result.TorpedoOrders[id] = cmd
		}
	}
	return result, nil
}

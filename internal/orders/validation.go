package orders

import (
	"errors"
	"fmt"
)

// ErrInvalidOrders is matched by every ValidationError via errors.Is.
var ErrInvalidOrders = errors.New("invalid orders")

// ValidationError describes malformed orders. It is fatal to the ship's turn and is raised before any
// substep runs.
type ValidationError struct {
	Ship   string
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Ship != "" {
		return fmt.Sprintf("%s: %s %q: %s", e.Ship, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets callers match any validation failure against ErrInvalidOrders.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidOrders
}

// Validate checks that every enum is in range and that each torpedo order references a torpedo the ship
// owns. owned lists the ids of the ship's torpedoes in flight at the start of the turn.
func Validate(ship string, o Orders, owned []string) error {
	fail := func(field, value, reason string) error {
		return &ValidationError{Ship: ship, Field: field, Value: value, Reason: reason}
	}
	//1.- Enum values built in code rather than parsed can still be out of range.
	if !o.Movement.Valid() {
		return fail("movement", o.Movement.String(), "unknown value")
	}
	if !o.Rotation.Valid() {
		return fail("rotation", o.Rotation.String(), "unknown value")
	}
	if !o.WeaponAction.Valid() {
		return fail("weapon_action", o.WeaponAction.String(), "unknown value")
	}

	known := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		known[id] = struct{}{}
	}
	//2.- Walk the torpedo orders in sorted order so the first reported failure is stable.
	for _, id := range o.TorpedoIDs() {
		if _, ok := known[id]; !ok {
			return fail("torpedo_orders", id, "no such torpedo owned by ship")
		}
		switch cmd := o.TorpedoOrders[id].(type) {
		case Steer:
			if !cmd.Direction.Valid() {
				return fail("torpedo_orders", id, "unknown steering command")
			}
		case DetonateAfter:
			if err := cmd.validate(); err != nil {
				var verr *ValidationError
				if errors.As(err, &verr) {
					verr.Ship = ship
				}
				return err
			}
		case nil:
			return fail("torpedo_orders", id, "missing command")
		default:
			return fail("torpedo_orders", id, "unsupported command type")
		}
	}
	return nil
}

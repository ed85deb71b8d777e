package orders

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDetonationDelaySeconds is the inclusive upper bound accepted by `detonate_after:<seconds>`.
const MaxDetonationDelaySeconds = 15.0

const detonateAfterPrefix = "detonate_after"

// TorpedoSteering is the per-turn steering command applied to a torpedo's own heading.
type TorpedoSteering int

const (
	SteerStraight TorpedoSteering = iota
	SteerHardLeft
	SteerHardRight
)

var steeringNames = [...]string{
	SteerStraight:  "STRAIGHT",
	SteerHardLeft:  "HARD_LEFT",
	SteerHardRight: "HARD_RIGHT",
}

// Valid reports whether s is a known steering command.
func (s TorpedoSteering) Valid() bool { return s >= SteerStraight && s <= SteerHardRight }

func (s TorpedoSteering) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TorpedoSteering(%d)", int(s))
	}
	return steeringNames[s]
}

// TorpedoCommand is a closed set: Steer or DetonateAfter.
type TorpedoCommand interface {
	fmt.Stringer
	isTorpedoCommand()
}

// Steer turns the torpedo for the whole turn.
type Steer struct {
	Direction TorpedoSteering
}

// DetonateAfter arms the torpedo to detonate once Delay seconds of the turn have elapsed.
type DetonateAfter struct {
	Delay float64
}

func (Steer) isTorpedoCommand()         {}
func (DetonateAfter) isTorpedoCommand() {}

func (s Steer) String() string { return s.Direction.String() }

func (d DetonateAfter) String() string {
	return detonateAfterPrefix + ":" + strconv.FormatFloat(d.Delay, 'f', -1, 64)
}

// ParseTorpedoCommand accepts a steering name or `detonate_after:<seconds>` with the delay in
// [0, MaxDetonationDelaySeconds].
func ParseTorpedoCommand(raw string) (TorpedoCommand, error) {
	trimmed := strings.TrimSpace(raw)
	if head, tail, found := strings.Cut(trimmed, ":"); found {
		if !strings.EqualFold(strings.TrimSpace(head), detonateAfterPrefix) {
			return nil, &ValidationError{Field: "torpedo_orders", Value: raw, Reason: "unknown torpedo command"}
		}
		delay, err := strconv.ParseFloat(strings.TrimSpace(tail), 64)
		if err != nil {
			return nil, &ValidationError{Field: "torpedo_orders", Value: raw, Reason: "invalid detonation delay format"}
		}
		cmd := DetonateAfter{Delay: delay}
		if err := cmd.validate(); err != nil {
			return nil, err
		}
		return cmd, nil
	}
	idx, err := lookup(trimmed, steeringNames[:], "torpedo_orders")
	if err != nil {
		return nil, err
	}
	return Steer{Direction: TorpedoSteering(idx)}, nil
}

func (d DetonateAfter) validate() error {
	if math.IsNaN(d.Delay) || d.Delay < 0 || d.Delay > MaxDetonationDelaySeconds {
		return &ValidationError{
			Field:  "torpedo_orders",
			Value:  d.String(),
			Reason: fmt.Sprintf("detonation delay outside [0, %v]", MaxDetonationDelaySeconds),
		}
	}
	return nil
}

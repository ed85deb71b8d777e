package physics

import (
	"math"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

// directionOffsets maps each movement direction to its angle relative to the heading, in radians.
var directionOffsets = [...]float64{
	orders.MoveForward:       0,
	orders.MoveForwardLeft:   math.Pi / 4,
	orders.MoveForwardRight:  -math.Pi / 4,
	orders.MoveLeft:          math.Pi / 2,
	orders.MoveRight:         -math.Pi / 2,
	orders.MoveBackward:      math.Pi,
	orders.MoveBackwardLeft:  3 * math.Pi / 4,
	orders.MoveBackwardRight: -3 * math.Pi / 4,
	orders.MoveStop:          0,
}

// DirectionOffset returns the angle between the heading and the direction of travel. STOP reports ok=false.
func DirectionOffset(move orders.MovementDirection) (offset float64, ok bool) {
	if move == orders.MoveStop || !move.Valid() {
		return 0, false
	}
	return directionOffsets[move], true
}

// RotationRate returns the signed turn rate in degrees per second. Positive turns left (counterclockwise).
func RotationRate(cmd orders.RotationCommand, cfg gameplay.RotationConfig) float64 {
	switch cmd {
	case orders.RotateSoftLeft:
		return cfg.SoftTurnDegreesPerSecond
	case orders.RotateSoftRight:
		return -cfg.SoftTurnDegreesPerSecond
	case orders.RotateHardLeft:
		return cfg.HardTurnDegreesPerSecond
	case orders.RotateHardRight:
		return -cfg.HardTurnDegreesPerSecond
	default:
		return 0
	}
}

// SteeringRate returns a torpedo's signed turn rate in degrees per second.
func SteeringRate(steer orders.TorpedoSteering, cfg gameplay.TorpedoConfig) float64 {
	switch steer {
	case orders.SteerHardLeft:
		return cfg.TurnRateDegreesPerSecond
	case orders.SteerHardRight:
		return -cfg.TurnRateDegreesPerSecond
	default:
		return 0
	}
}

// IntegrateShip advances one ship by a single substep: rotate first, then translate along the updated heading.
func IntegrateShip(ship *state.ShipState, move orders.MovementDirection, rotation orders.RotationCommand, cfg gameplay.GameConfig, dt float64) {
	//1.- Guard against nil ships or invalid timesteps.
	if ship == nil || dt <= 0 {
		return
	}
	//2.- Apply the rotation so the translation below follows the new heading.
	ship.Heading = rotate(ship.Heading, RotationRate(rotation, cfg.Rotation), dt)
	//3.- STOP zeroes velocity and skips translation; heading may still have changed.
	offset, moving := DirectionOffset(move)
	if !moving {
		ship.Velocity = geometry.Vec2D{}
		return
	}
	//4.- Speed is constant; only the direction of travel depends on the movement order.
	ship.Velocity = geometry.FromAngle(ship.Heading+offset, cfg.Ship.BaseSpeedUnitsPerSecond)
	ship.Position = ship.Position.Add(ship.Velocity.Scale(dt))
}

// IntegrateTorpedo advances a torpedo by a single substep using the same rotate-then-translate order as ships.
func IntegrateTorpedo(torpedo *state.TorpedoState, steer orders.TorpedoSteering, cfg gameplay.TorpedoConfig, dt float64) {
	if torpedo == nil || dt <= 0 {
		return
	}
	torpedo.Heading = rotate(torpedo.Heading, SteeringRate(steer, cfg), dt)
	torpedo.Velocity = geometry.FromAngle(torpedo.Heading, cfg.SpeedUnitsPerSecond)
	torpedo.Position = torpedo.Position.Add(torpedo.Velocity.Scale(dt))
}

func rotate(heading, degreesPerSecond, dt float64) float64 {
	if degreesPerSecond == 0 {
		return geometry.WrapAngle(heading)
	}
	return geometry.WrapAngle(heading + geometry.Radians(degreesPerSecond*dt))
}

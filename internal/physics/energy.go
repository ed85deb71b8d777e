package physics

import (
	"math"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

// MovementDrain returns the AE cost per second of a movement direction.
func MovementDrain(move orders.MovementDirection, cfg gameplay.MovementConfig) float64 {
	switch move.Class() {
	case orders.ClassForward:
		return cfg.ForwardAEPerSecond
	case orders.ClassDiagonal:
		return cfg.ForwardDiagonalAEPerSecond
	case orders.ClassPerpendicular:
		return cfg.LateralAEPerSecond
	case orders.ClassBackward:
		return cfg.BackwardAEPerSecond
	case orders.ClassBackwardDiagonal:
		return cfg.BackwardDiagonalAEPerSecond
	default:
		return cfg.StopAEPerSecond
	}
}

// RotationDrain returns the AE cost per second of a rotation command.
func RotationDrain(rotation orders.RotationCommand, cfg gameplay.RotationConfig) float64 {
	switch rotation {
	case orders.RotateSoftLeft, orders.RotateSoftRight:
		return cfg.SoftTurnAEPerSecond
	case orders.RotateHardLeft, orders.RotateHardRight:
		return cfg.HardTurnAEPerSecond
	default:
		return cfg.NoneAEPerSecond
	}
}

// ManeuverDrain is the combined per-second cost of a movement and rotation pair.
func ManeuverDrain(move orders.MovementDirection, rotation orders.RotationCommand, cfg gameplay.GameConfig) float64 {
	return MovementDrain(move, cfg.Movement) + RotationDrain(rotation, cfg.Rotation)
}

// CanSustain reports whether the ship holds enough AE to pay for the maneuver over a whole turn, ignoring regen.
func CanSustain(ship state.ShipState, move orders.MovementDirection, rotation orders.RotationCommand, cfg gameplay.GameConfig) bool {
	cost := ManeuverDrain(move, rotation, cfg) * cfg.Simulation.DecisionIntervalSeconds
	return cost <= ship.AE
}

// ApplyEnergy charges one substep of maneuver cost, credits one substep of regen and clamps to [0, max_ae].
func ApplyEnergy(ship *state.ShipState, drainPerSecond float64, cfg gameplay.ShipConfig, dt float64) {
	if ship == nil || dt <= 0 {
		return
	}
	next := ship.AE - drainPerSecond*dt + cfg.AERegenPerSecond*dt
	ship.AE = math.Min(math.Max(next, 0), cfg.MaxAE)
}

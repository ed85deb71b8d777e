package combat

import (
	"math"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

// timerEpsilon absorbs the rounding left after subtracting dt from a timer many times.
const timerEpsilon = 1e-9

// Reconfigure starts a WIDE/FOCUSED toggle when the action selects the configuration the ship is not already
// using. The phaser cooldown timer doubles as the reconfiguration timer. It reports whether a toggle started.
func Reconfigure(log *events.Log, id state.ShipID, ship *state.ShipState, action orders.WeaponAction, cfg gameplay.PhaserConfig) bool {
	var want state.PhaserConfig
	switch action {
	case orders.WeaponConfigureWide:
		want = state.PhaserWide
	case orders.WeaponConfigureFocused:
		want = state.PhaserFocused
	default:
		return false
	}
	if ship == nil || ship.PhaserConfig == want {
		return false
	}
	ship.PhaserConfig = want
	ship.Reconfiguring = true
	ship.PhaserCooldownRemaining = cfg.ReconfigurationTimeSeconds
	log.Emit(events.TurnStart, events.TypePhaserReconfigured, map[string]any{
		"ship":     string(id),
		"config":   want.String(),
		"duration": cfg.ReconfigurationTimeSeconds,
	})
	return true
}

// TickPhaser advances the cooldown/reconfiguration timer by one substep, floored at zero. A finished
// reconfiguration returns the phaser to idle.
func TickPhaser(ship *state.ShipState, dt float64) {
	if ship == nil {
		return
	}
	if ship.PhaserCooldownRemaining > 0 {
		remaining := ship.PhaserCooldownRemaining - dt
		if remaining <= timerEpsilon {
			remaining = 0
		}
		ship.PhaserCooldownRemaining = remaining
	}
	if ship.PhaserCooldownRemaining == 0 {
		ship.Reconfiguring = false
	}
}

// Shot describes an evaluated phaser shot.
type Shot struct {
	InRange bool
	InArc   bool
	Range   float64
	Bearing float64
}

// Aim measures whether target lies inside the attacker's current phaser envelope. Coincident ships have no
// bearing and are never in arc.
func Aim(attacker, target state.ShipState, mode gameplay.PhaserModeConfig) Shot {
	distance := attacker.Position.Distance(target.Position)
	shot := Shot{Range: distance, InRange: distance <= mode.RangeUnits}
	bearing, ok := geometry.Bearing(attacker.Position, target.Position)
	if !ok {
		return shot
	}
	shot.Bearing = bearing
	shot.InArc = math.Abs(geometry.AngleDiff(attacker.Heading, bearing)) <= geometry.Radians(mode.ArcDegrees)/2
	return shot
}

// FirePhaser evaluates the single per-turn phaser shot for attackerID. Firing that is not possible (held,
// toggled this turn, cooling down, out of range or arc) is a silent no-op. It reports whether the shot hit.
func FirePhaser(log *events.Log, substep int, gs *state.GameState, attackerID state.ShipID, action orders.WeaponAction, toggled bool, cfg gameplay.PhaserConfig, tally *Tally) bool {
	attacker := gs.Ship(attackerID)
	targetID := attackerID.Opponent()
	target := gs.Ship(targetID)
	//1.- Gate on intent and weapon state before any geometry.
	if attacker == nil || target == nil || !action.EngagesPhaser() || toggled {
		return false
	}
	if attacker.Reconfiguring || attacker.PhaserCooldownRemaining > 0 {
		return false
	}
	//2.- Check the envelope of the active configuration.
	mode := cfg.Wide
	if attacker.PhaserConfig == state.PhaserFocused {
		mode = cfg.Focused
	}
	shot := Aim(*attacker, *target, mode)
	if !shot.InRange || !shot.InArc {
		return false
	}
	//3.- Start the cooldown before applying damage so the event order reads fire then destruction.
	attacker.PhaserCooldownRemaining = mode.CooldownSeconds
	log.Emit(substep, events.TypePhaserFired, map[string]any{
		"attacker": string(attackerID),
		"target":   string(targetID),
		"damage":   mode.Damage,
		"config":   attacker.PhaserConfig.String(),
		"distance": shot.Range,
	})
	ApplyDamage(log, substep, targetID, target, mode.Damage, DamageSourcePhaser, tally)
	return true
}

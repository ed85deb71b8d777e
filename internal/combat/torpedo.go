package combat

import (
	"fmt"
	"math"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/physics"
	"aiarena/engine/internal/state"
)

// DetonationType records which trigger removed a torpedo.
type DetonationType string

const (
	DetonationTimed     DetonationType = "timed"
	DetonationProximity DetonationType = "proximity"
	// DetonationAuto fires when the torpedo's fuel runs out; exhausted torpedoes always detonate.
	DetonationAuto DetonationType = "auto"
)

// TorpedoID names the torpedo a ship launches on the given turn.
func TorpedoID(owner state.ShipID, turn int) string {
	return fmt.Sprintf("%s_torpedo_%d", owner, turn)
}

// BlastZoneID names the zone left behind by a torpedo.
func BlastZoneID(torpedoID string) string {
	return torpedoID + "_blast"
}

// Commands maps each ship to the orders it issued this turn so torpedoes can look up their owner's command.
type Commands map[state.ShipID]orders.Orders

// For returns the command for a torpedo; torpedoes without orders fly straight.
func (c Commands) For(torpedo state.TorpedoState) orders.TorpedoCommand {
	return c[torpedo.Owner].TorpedoCommand(torpedo.ID)
}

// Launch fires a torpedo from the ship along its heading when the ship can pay for it and has a free slot.
// It reports whether a torpedo was created.
func Launch(log *events.Log, gs *state.GameState, owner state.ShipID, cfg gameplay.TorpedoConfig) bool {
	ship := gs.Ship(owner)
	//1.- Unaffordable or over-limit launches are silently ignored.
	if ship == nil || ship.AE < cfg.LaunchCostAE || gs.ActiveTorpedoes(owner) >= cfg.MaxActivePerShip {
		return false
	}
	ship.AE -= cfg.LaunchCostAE
	//2.- The torpedo inherits the ship's position and heading; it flies straight for the rest of this turn.
	torpedo := state.TorpedoState{
		ID:           TorpedoID(owner, gs.Turn),
		Position:     ship.Position,
		Heading:      ship.Heading,
		AERemaining:  cfg.MaxAECapacity,
		Owner:        owner,
		JustLaunched: true,
		Velocity:     geometry.FromAngle(ship.Heading, cfg.SpeedUnitsPerSecond),
	}
	gs.Torpedoes = append(gs.Torpedoes, torpedo)
	log.Emit(events.TurnStart, events.TypeTorpedoLaunched, map[string]any{
		"ship":       string(owner),
		"torpedo_id": torpedo.ID,
		"position":   events.Point(torpedo.Position),
		"heading":    torpedo.Heading,
	})
	return true
}

// ArmTimers starts the countdown on every torpedo whose owner ordered a timed detonation this turn. A new
// order replaces a countdown armed on an earlier turn.
func ArmTimers(gs *state.GameState, cmds Commands) {
	for idx := range gs.Torpedoes {
		torpedo := &gs.Torpedoes[idx]
		if detonate, ok := cmds.For(*torpedo).(orders.DetonateAfter); ok {
			delay := detonate.Delay
			torpedo.DetonationTimer = &delay
		}
	}
}

// StepTorpedoes moves every torpedo by one substep, burns its fuel and evaluates detonation triggers in
// priority order: timer, then proximity to a non-owner ship, then fuel exhaustion.
func StepTorpedoes(log *events.Log, substep int, gs *state.GameState, cmds Commands, cfg gameplay.TorpedoConfig, dt float64) {
	survivors := gs.Torpedoes[:0]
	for _, torpedo := range gs.Torpedoes {
		//1.- Launch-turn torpedoes and armed torpedoes fly straight.
		steer := orders.SteerStraight
		if !torpedo.JustLaunched && torpedo.DetonationTimer == nil {
			if cmd, ok := cmds.For(torpedo).(orders.Steer); ok {
				steer = cmd.Direction
			}
		}
		physics.IntegrateTorpedo(&torpedo, steer, cfg, dt)
		torpedo.AERemaining -= burnRate(steer, cfg) * dt

		//2.- Evaluate triggers; the first that fires wins.
		trigger, fired := detonationTrigger(&torpedo, gs, cfg, dt)
		if !fired {
			survivors = append(survivors, torpedo)
			continue
		}
		detonate(log, substep, gs, torpedo, trigger, cfg)
	}
	gs.Torpedoes = survivors
}

func burnRate(steer orders.TorpedoSteering, cfg gameplay.TorpedoConfig) float64 {
	if steer == orders.SteerStraight {
		return cfg.AEBurnStraightPerSecond
	}
	return cfg.AEBurnHardTurnPerSecond
}

func detonationTrigger(torpedo *state.TorpedoState, gs *state.GameState, cfg gameplay.TorpedoConfig, dt float64) (DetonationType, bool) {
	if torpedo.DetonationTimer != nil {
		remaining := *torpedo.DetonationTimer - dt
		torpedo.DetonationTimer = &remaining
		if remaining <= timerEpsilon {
			return DetonationTimed, true
		}
	}
	for _, id := range state.Ships {
		if id == torpedo.Owner {
			continue
		}
		if torpedo.Position.Distance(gs.Ship(id).Position) <= cfg.ProximityTriggerUnits {
			return DetonationProximity, true
		}
	}
	if torpedo.AERemaining <= 0 {
		return DetonationAuto, true
	}
	return "", false
}

func detonate(log *events.Log, substep int, gs *state.GameState, torpedo state.TorpedoState, trigger DetonationType, cfg gameplay.TorpedoConfig) {
	//1.- Payload is whatever fuel remains; an exhausted torpedo still leaves a zero-damage zone.
	payload := math.Max(torpedo.AERemaining, 0)
	zone := state.BlastZone{
		ID:         BlastZoneID(torpedo.ID),
		Position:   torpedo.Position,
		BaseDamage: payload * cfg.BlastDamageMultiplier,
		Phase:      state.PhaseExpansion,
		Owner:      torpedo.Owner,
	}
	gs.BlastZones = append(gs.BlastZones, zone)
	log.Emit(substep, events.TypeTorpedoDetonated, map[string]any{
		"torpedo_id":      torpedo.ID,
		"owner":           string(torpedo.Owner),
		"position":        events.Point(torpedo.Position),
		"ae_remaining":    payload,
		"blast_zone_id":   zone.ID,
		"detonation_type": string(trigger),
	})
	log.Emit(substep, events.TypeBlastZoneCreated, map[string]any{
		"blast_zone_id": zone.ID,
		"owner":         string(zone.Owner),
		"position":      events.Point(zone.Position),
		"base_damage":   zone.BaseDamage,
	})
}

// ClearLaunchFlags marks every torpedo as eligible for steering from the next turn on.
func ClearLaunchFlags(gs *state.GameState) {
	for idx := range gs.Torpedoes {
		gs.Torpedoes[idx].JustLaunched = false
	}
}

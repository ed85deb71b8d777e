package combat

import (
	"math"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/state"
)

// Lifecycle is the radius and phase of a blast zone at a given age.
type Lifecycle struct {
	Phase   state.BlastZonePhase
	Radius  float64
	Expired bool
}

// LifecycleAt computes the zone's phase and radius from its age alone, so rounding never accumulates in the
// radius. Phase boundaries snap within timerEpsilon so the radius reaches exactly max_radius on entering
// persistence.
func LifecycleAt(age float64, cfg gameplay.BlastConfig) Lifecycle {
	expansion := cfg.ExpansionSeconds
	dissipationStart := expansion + cfg.PersistenceSeconds
	end := dissipationStart + cfg.DissipationSeconds
	maxRadius := cfg.MaxRadiusUnits

	switch {
	case age < expansion-timerEpsilon:
		return Lifecycle{Phase: state.PhaseExpansion, Radius: clampRadius(maxRadius*age/expansion, maxRadius)}
	case age < dissipationStart-timerEpsilon:
		return Lifecycle{Phase: state.PhasePersistence, Radius: maxRadius}
	case age < end-timerEpsilon:
		shrunk := maxRadius - maxRadius*(age-dissipationStart)/cfg.DissipationSeconds
		radius := clampRadius(shrunk, maxRadius)
		return Lifecycle{Phase: state.PhaseDissipation, Radius: radius, Expired: radius <= timerEpsilon}
	default:
		return Lifecycle{Phase: state.PhaseDissipation, Radius: 0, Expired: true}
	}
}

func clampRadius(radius, maxRadius float64) float64 {
	return math.Min(math.Max(radius, 0), maxRadius)
}

// UpdateBlastZones ages every zone by one substep in creation order, emitting phase changes and removing
// zones that have fully dissipated.
func UpdateBlastZones(log *events.Log, substep int, gs *state.GameState, cfg gameplay.BlastConfig, dt float64) {
	survivors := gs.BlastZones[:0]
	for _, zone := range gs.BlastZones {
		zone.Age += dt
		next := LifecycleAt(zone.Age, cfg)
		//1.- Phases only advance; report every boundary crossed, even if a large dt skips one.
		for zone.Phase < next.Phase {
			from := zone.Phase
			zone.Phase++
			log.Emit(substep, events.TypeBlastZonePhaseChanged, map[string]any{
				"blast_zone_id": zone.ID,
				"from":          from.String(),
				"to":            zone.Phase.String(),
				"age":           zone.Age,
			})
		}
		zone.CurrentRadius = next.Radius
		if next.Expired {
			log.Emit(substep, events.TypeBlastZoneDissipated, map[string]any{
				"blast_zone_id": zone.ID,
				"age":           zone.Age,
			})
			continue
		}
		survivors = append(survivors, zone)
	}
	gs.BlastZones = survivors
}

// BlastDamage returns the damage a ship at distance takes from the zone during one substep, or 0 when it is
// outside the radius. Contact is strict: a ship exactly on the edge is unharmed.
func BlastDamage(zone state.BlastZone, distance float64, cfg gameplay.BlastConfig, dt float64) float64 {
	if !(distance < zone.CurrentRadius) || cfg.DamageReferenceSeconds <= 0 {
		return 0
	}
	amount := zone.BaseDamage / cfg.DamageReferenceSeconds * dt
	if cfg.DamageMode == gameplay.DamageModeLinear {
		amount *= 1 - distance/zone.CurrentRadius
	}
	return amount
}

// ApplyBlastDamage damages every ship inside each zone, owners included. A ship inside several zones takes
// damage from each of them.
func ApplyBlastDamage(log *events.Log, substep int, gs *state.GameState, cfg gameplay.BlastConfig, dt float64, tally *Tally) {
	for _, zone := range gs.BlastZones {
		for _, id := range state.Ships {
			ship := gs.Ship(id)
			distance := ship.Position.Distance(zone.Position)
			amount := BlastDamage(zone, distance, cfg, dt)
			if amount <= 0 || ship.Shields <= 0 {
				continue
			}
			log.Emit(substep, events.TypeBlastDamage, map[string]any{
				"ship":          string(id),
				"blast_zone_id": zone.ID,
				"damage":        amount,
				"distance":      distance,
				"zone_phase":    zone.Phase.String(),
				"zone_radius":   zone.CurrentRadius,
			})
			ApplyDamage(log, substep, id, ship, amount, DamageSourceBlast, tally)
		}
	}
}

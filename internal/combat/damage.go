package combat

import (
	"fmt"
	"math"
	"sort"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/state"
)

// DamageSource enumerates the origins of shield damage for breakdowns.
type DamageSource string

const (
	// DamageSourcePhaser captures direct phaser hits.
	DamageSourcePhaser DamageSource = "phaser"
	// DamageSourceBlast captures damage taken inside blast zones, including the owner's own.
	DamageSourceBlast DamageSource = "blast"
)

// Tally accumulates the shield damage each ship took during one turn, split by source.
type Tally struct {
	totals map[state.ShipID]map[DamageSource]float64
}

// NewTally returns an empty damage tally.
func NewTally() *Tally {
	return &Tally{totals: make(map[state.ShipID]map[DamageSource]float64, 2)}
}

func (t *Tally) add(id state.ShipID, source DamageSource, amount float64) {
	if t == nil || amount <= 0 {
		return
	}
	bySource, ok := t.totals[id]
	if !ok {
		bySource = make(map[DamageSource]float64, 2)
		t.totals[id] = bySource
	}
	bySource[source] += amount
}

// Total returns the damage id took from every source.
func (t *Tally) Total(id state.ShipID) float64 {
	if t == nil {
		return 0
	}
	total := 0.0
	for _, source := range sortedSources(t.totals[id]) {
		total += t.totals[id][source]
	}
	return total
}

// From returns the damage id took from one source.
func (t *Tally) From(id state.ShipID, source DamageSource) float64 {
	if t == nil {
		return 0
	}
	return t.totals[id][source]
}

// LoggingFields returns structured logging fields describing the turn's damage with deterministic keys.
func (t *Tally) LoggingFields() []logging.Field {
	if t == nil {
		return nil
	}
	fields := make([]logging.Field, 0, 6)
	for _, id := range state.Ships {
		//1.- Emit per-source entries in sorted order so log lines diff cleanly between runs.
		for _, source := range sortedSources(t.totals[id]) {
			fields = append(fields, logging.Float64(fmt.Sprintf("%s_damage_%s", id, source), roundDamage(t.totals[id][source])))
		}
		fields = append(fields, logging.Float64(fmt.Sprintf("%s_damage_total", id), roundDamage(t.Total(id))))
	}
	return fields
}

func sortedSources(bySource map[DamageSource]float64) []DamageSource {
	sources := make([]DamageSource, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

func roundDamage(amount float64) float64 {
	//1.- Clamp floating point noise so tiny residues read as zero.
	if math.Abs(amount) < 1e-6 {
		return 0
	}
	return math.Round(amount*100) / 100
}

// ApplyDamage lowers the ship's shields by amount, clamped at zero, and returns the damage actually absorbed.
// The first time shields reach zero a ship_destroyed event is emitted.
func ApplyDamage(log *events.Log, substep int, id state.ShipID, ship *state.ShipState, amount float64, source DamageSource, tally *Tally) float64 {
	//1.- Ignore empty hits and ships that are already destroyed.
	if ship == nil || !(amount > 0) || ship.Shields <= 0 {
		return 0
	}
	applied := math.Min(amount, ship.Shields)
	ship.Shields = math.Max(ship.Shields-amount, 0)
	tally.add(id, source, applied)
	//2.- Destruction is reported exactly once, at the substep the shields hit zero.
	if ship.Shields <= 0 {
		log.Emit(substep, events.TypeShipDestroyed, map[string]any{
			"ship":   string(id),
			"source": string(source),
		})
	}
	return applied
}

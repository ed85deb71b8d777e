package match

import (
	"math"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/replay"
	"aiarena/engine/internal/state"
)

// Reasons a match ends.
const (
	ReasonDestroyed         = "destroyed"
	ReasonMutualDestruction = "mutual_destruction"
	ReasonMaxTurns          = "max_turns"
	ReasonCancelled         = "cancelled"
)

// Outcome is the verdict on a finished match.
type Outcome struct {
	Winner string
	Reason string
}

// Spawn builds the turn-0 state: both ships on the arena's horizontal centre line, spawn distance apart,
// facing each other with full shields and starting AE.
func Spawn(cfg gameplay.GameConfig) state.GameState {
	centre := geometry.Vec2D{X: cfg.Arena.WidthUnits / 2, Y: cfg.Arena.HeightUnits / 2}
	offset := cfg.Arena.SpawnDistanceUnits / 2
	ship := func(x, heading float64) state.ShipState {
		return state.ShipState{
			Position:     geometry.Vec2D{X: x, Y: centre.Y},
			Heading:      heading,
			Shields:      cfg.Ship.StartingShields,
			AE:           cfg.Ship.StartingAE,
			PhaserConfig: state.PhaserWide,
		}
	}
	return state.GameState{
		ShipA:      ship(centre.X-offset, 0),
		ShipB:      ship(centre.X+offset, math.Pi),
		Torpedoes:  []state.TorpedoState{},
		BlastZones: []state.BlastZone{},
	}
}

// Evaluate decides whether the match is over after gs. Destruction is checked before the turn limit, so a
// ship destroyed on the final turn still loses.
func Evaluate(gs state.GameState, maxTurns int) (Outcome, bool) {
	destroyedA := gs.ShipA.Destroyed()
	destroyedB := gs.ShipB.Destroyed()
	switch {
	case destroyedA && destroyedB:
		return Outcome{Winner: replay.WinnerTie, Reason: ReasonMutualDestruction}, true
	case destroyedA:
		return Outcome{Winner: replay.WinnerShipB, Reason: ReasonDestroyed}, true
	case destroyedB:
		return Outcome{Winner: replay.WinnerShipA, Reason: ReasonDestroyed}, true
	case maxTurns > 0 && gs.Turn >= maxTurns:
		return Outcome{Winner: replay.WinnerTie, Reason: ReasonMaxTurns}, true
	default:
		return Outcome{}, false
	}
}

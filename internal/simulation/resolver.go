// Package simulation resolves whole combat turns by running the fixed substep loop over the physics and
// combat subsystems.
package simulation

import (
	"fmt"

	"aiarena/engine/internal/combat"
	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/physics"
	"aiarena/engine/internal/state"
)

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger for per-turn debug summaries. Logging never influences results.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver turns a state plus both ships' orders into the next state and its event log. It holds only
// immutable configuration, so one Resolver may serve concurrent matches.
type Resolver struct {
	cfg      gameplay.GameConfig
	substeps int
	dt       float64
	limits   state.Limits
	logger   *logging.Logger
}

// NewResolver validates cfg and prepares a resolver for it.
func NewResolver(cfg gameplay.GameConfig, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		cfg:      cfg,
		substeps: cfg.Substeps(),
		dt:       cfg.Dt(),
		limits: state.Limits{
			MaxAE:               cfg.Ship.MaxAE,
			MaxBlastRadius:      cfg.Blast.MaxRadiusUnits,
			MaxTorpedoesPerShip: cfg.Torpedo.MaxActivePerShip,
		},
		logger: logging.NewTestLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the game configuration the resolver was built with.
func (r *Resolver) Config() gameplay.GameConfig {
	return r.cfg
}

// Substeps reports how many physics substeps make up one turn.
func (r *Resolver) Substeps() int {
	return r.substeps
}

// turn carries the working state of a single ResolveTurn call.
type turn struct {
	gs      state.GameState
	orders  combat.Commands
	toggled map[state.ShipID]bool
	drain   map[state.ShipID]float64
	log     *events.Log
	tally   *combat.Tally
}

// ResolveTurn runs one full decision interval. The input state is never modified; the returned state is a
// fresh value sharing no memory with it. Malformed orders yield an *orders.ValidationError before anything
// is simulated, and a state that breaks an invariant yields a *state.InvariantViolation.
func (r *Resolver) ResolveTurn(prev state.GameState, ordersA, ordersB orders.Orders) (state.GameState, []events.Event, error) {
	//1.- Reject malformed input before touching any state.
	if err := state.CheckInvariants(prev, r.limits); err != nil {
		return state.GameState{}, nil, fmt.Errorf("turn %d input: %w", prev.Turn+1, err)
	}
	if err := orders.Validate(string(state.ShipA), ordersA, prev.TorpedoIDs(state.ShipA)); err != nil {
		return state.GameState{}, nil, fmt.Errorf("turn %d: %w", prev.Turn+1, err)
	}
	if err := orders.Validate(string(state.ShipB), ordersB, prev.TorpedoIDs(state.ShipB)); err != nil {
		return state.GameState{}, nil, fmt.Errorf("turn %d: %w", prev.Turn+1, err)
	}

	//2.- Work on a private deep copy stamped with the new turn number.
	t := &turn{
		gs:      prev.Clone(),
		orders:  combat.Commands{state.ShipA: ordersA.Clone(), state.ShipB: ordersB.Clone()},
		toggled: make(map[state.ShipID]bool, 2),
		drain:   make(map[state.ShipID]float64, 2),
		tally:   combat.NewTally(),
	}
	t.gs.Turn++
	t.log = events.NewLog(t.gs.Turn, r.dt)

	//3.- Turn-start bookkeeping, then the fixed substep loop.
	r.prepare(t)
	for substep := 0; substep < r.substeps; substep++ {
		r.step(t, substep)
	}
	combat.ClearLaunchFlags(&t.gs)

	//4.- Refuse to hand back a corrupt state.
	if err := state.CheckInvariants(t.gs, r.limits); err != nil {
		return state.GameState{}, nil, fmt.Errorf("turn %d output: %w", t.gs.Turn, err)
	}

	out := t.log.Events()
	fields := append([]logging.Field{
		logging.Int("turn", t.gs.Turn),
		logging.Int("substeps", r.substeps),
		logging.Int("events", len(out)),
		logging.Int("torpedoes", len(t.gs.Torpedoes)),
		logging.Int("blast_zones", len(t.gs.BlastZones)),
	}, t.tally.LoggingFields()...)
	r.logger.Debug("turn resolved", fields...)
	return t.gs, out, nil
}

// prepare applies everything that happens once before substep 0: affordability downgrades, phaser toggles,
// torpedo launches and detonation timers.
func (r *Resolver) prepare(t *turn) {
	for _, id := range state.Ships {
		ship := t.gs.Ship(id)
		o := t.orders[id]
		//1.- A maneuver the ship cannot sustain for the whole turn falls back to STOP/NONE.
		if !physics.CanSustain(*ship, o.Movement, o.Rotation, r.cfg) {
			t.log.Emit(events.TurnStart, events.TypeOrdersDowngraded, map[string]any{
				"ship":               string(id),
				"requested_movement": o.Movement.String(),
				"requested_rotation": o.Rotation.String(),
				"ae":                 ship.AE,
			})
			r.logger.Warn("orders downgraded", logging.String("ship", string(id)), logging.Int("turn", t.gs.Turn))
			o.Movement = orders.MoveStop
			o.Rotation = orders.RotateNone
			t.orders[id] = o
		}
		t.drain[id] = physics.ManeuverDrain(o.Movement, o.Rotation, r.cfg)
	}
	for _, id := range state.Ships {
		//2.- Weapon actions resolve in ship order so the event log is stable.
		ship := t.gs.Ship(id)
		action := t.orders[id].WeaponAction
		t.toggled[id] = combat.Reconfigure(t.log, id, ship, action, r.cfg.Phaser)
		if action == orders.WeaponLaunchTorpedo {
			combat.Launch(t.log, &t.gs, id, r.cfg.Torpedo)
		}
	}
	combat.ArmTimers(&t.gs, t.orders)
}

// step runs one substep in the fixed subsystem order.
func (r *Resolver) step(t *turn, substep int) {
	//1.- Kinematics for both ships.
	for _, id := range state.Ships {
		o := t.orders[id]
		physics.IntegrateShip(t.gs.Ship(id), o.Movement, o.Rotation, r.cfg, r.dt)
	}
	//2.- Energy economy for both ships.
	for _, id := range state.Ships {
		physics.ApplyEnergy(t.gs.Ship(id), t.drain[id], r.cfg.Ship, r.dt)
	}
	//3.- Phaser timers; the single per-turn shot is taken on the final substep.
	for _, id := range state.Ships {
		combat.TickPhaser(t.gs.Ship(id), r.dt)
	}
	if substep == r.substeps-1 {
		for _, id := range state.Ships {
			combat.FirePhaser(t.log, substep, &t.gs, id, t.orders[id].WeaponAction, t.toggled[id], r.cfg.Phaser, t.tally)
		}
	}
	//4.- Torpedo flight and detonation.
	combat.StepTorpedoes(t.log, substep, &t.gs, t.orders, r.cfg.Torpedo, r.dt)
	//5.- Blast zone lifecycle, then damage from the zones that remain.
	combat.UpdateBlastZones(t.log, substep, &t.gs, r.cfg.Blast, r.dt)
	combat.ApplyBlastDamage(t.log, substep, &t.gs, r.cfg.Blast, r.dt, t.tally)
}

package bots

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/match"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

// Names of the built-in scripted pilots.
const (
	Aggressor = "scripted-aggressor"
	Evader    = "scripted-evader"
)

const (
	softTurnThreshold = 2 * math.Pi / 180
	hardTurnThreshold = 10 * math.Pi / 180
	launchCone        = 20 * math.Pi / 180
	aeReserve         = 20.0
	detonateRange     = 12.0
)

var scripted = map[string]match.ProviderFunc{
	Aggressor: aggress,
	Evader:    evade,
}

// Scripted lists the names of the built-in pilots.
func Scripted() []string {
	names := make([]string, 0, len(scripted))
	for name := range scripted {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New resolves a pilot name: http(s) URLs become remote pilots, everything else must name a scripted pilot.
func New(name string, client *http.Client, opts ...HTTPPilotOption) (match.OrdersProvider, error) {
	trimmed := strings.TrimSpace(name)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return NewHTTPPilot(trimmed, client, opts...)
	}
	if pilot, ok := scripted[trimmed]; ok {
		return pilot, nil
	}
	return nil, fmt.Errorf("unknown pilot %q (scripted pilots: %s)", name, strings.Join(Scripted(), ", "))
}

// situation is the pilot's view of the board.
type situation struct {
	me       state.ShipState
	foe      state.ShipState
	distance float64
	offset   float64
}

func observe(req match.DecisionRequest) situation {
	gs := req.State
	me, foe := *gs.Ship(req.Ship), *gs.Ship(req.Ship.Opponent())
	view := situation{me: me, foe: foe, distance: me.Position.Distance(foe.Position)}
	if bearing, ok := geometry.Bearing(me.Position, foe.Position); ok {
		view.offset = geometry.AngleDiff(me.Heading, bearing)
	}
	return view
}

// turnToward picks the rotation that closes a signed heading offset; positive offsets turn left.
func turnToward(offset float64) orders.RotationCommand {
	switch {
	case offset > hardTurnThreshold:
		return orders.RotateHardLeft
	case offset < -hardTurnThreshold:
		return orders.RotateHardRight
	case offset > softTurnThreshold:
		return orders.RotateSoftLeft
	case offset < -softTurnThreshold:
		return orders.RotateSoftRight
	default:
		return orders.RotateNone
	}
}

// guideTorpedoes steers every owned torpedo at the opponent and detonates the ones already close.
func guideTorpedoes(req match.DecisionRequest, target geometry.Vec2D) map[string]orders.TorpedoCommand {
	commands := make(map[string]orders.TorpedoCommand)
	for _, torpedo := range req.State.Torpedoes {
		if torpedo.Owner != req.Ship {
			continue
		}
		if torpedo.Position.Distance(target) <= detonateRange {
			commands[torpedo.ID] = orders.DetonateAfter{Delay: 0}
			continue
		}
		steer := orders.SteerStraight
		if bearing, ok := geometry.Bearing(torpedo.Position, target); ok {
			switch offset := geometry.AngleDiff(torpedo.Heading, bearing); {
			case offset > softTurnThreshold:
				steer = orders.SteerHardLeft
			case offset < -softTurnThreshold:
				steer = orders.SteerHardRight
			}
		}
		commands[torpedo.ID] = orders.Steer{Direction: steer}
	}
	return commands
}

// aggress closes to phaser range nose first and launches torpedoes while the opponent is out of reach.
func aggress(_ context.Context, req match.DecisionRequest) (match.Decision, error) {
	view := observe(req)
	cfg := req.Config
	phaserRange := cfg.PhaserMode(view.me.PhaserConfig == state.PhaserFocused).RangeUnits

	result := orders.Orders{
		Movement:      orders.MoveForward,
		Rotation:      turnToward(view.offset),
		WeaponAction:  orders.WeaponMaintainConfig,
		TorpedoOrders: guideTorpedoes(req, view.foe.Position),
	}
	//1.- Hold position once inside phaser range so the arc stays on target.
	if view.distance <= phaserRange*0.8 {
		result.Movement = orders.MoveStop
	}
	//2.- Spend surplus energy on torpedoes while the opponent is still far away.
	canLaunch := req.State.ActiveTorpedoes(req.Ship) < cfg.Torpedo.MaxActivePerShip &&
		view.me.AE >= cfg.Torpedo.LaunchCostAE+aeReserve
	if view.distance > phaserRange && canLaunch && math.Abs(view.offset) < launchCone {
		result.WeaponAction = orders.WeaponLaunchTorpedo
	}
	thinking := fmt.Sprintf("range %.1f, bearing offset %.1f deg, %s", view.distance, geometry.Degrees(view.offset), result.WeaponAction)
	return match.Decision{Orders: result, Thinking: thinking}, nil
}

// evade keeps the opponent at the edge of focused phaser range while strafing and facing it.
func evade(_ context.Context, req match.DecisionRequest) (match.Decision, error) {
	view := observe(req)
	cfg := req.Config
	focused := cfg.Phaser.Focused.RangeUnits

	result := orders.Orders{
		Movement:      orders.MoveLeft,
		Rotation:      turnToward(view.offset),
		WeaponAction:  orders.WeaponMaintainConfig,
		TorpedoOrders: guideTorpedoes(req, view.foe.Position),
	}
	//1.- Reconfigure to the long range mode on the first turn, while nothing is in range anyway.
	if view.me.PhaserConfig == state.PhaserWide && !view.me.Reconfiguring && view.distance > cfg.Phaser.Wide.RangeUnits*2 {
		result.WeaponAction = orders.WeaponConfigureFocused
	}
	switch {
	case view.distance < focused*0.6:
		result.Movement = orders.MoveBackward
	case view.distance > focused:
		result.Movement = orders.MoveForward
	case req.Turn%2 == 0:
		result.Movement = orders.MoveRight
	}
	//2.- Drop to the cheapest manoeuvre when energy runs low.
	if view.me.AE < aeReserve/2 {
		result.Movement = orders.MoveStop
		result.Rotation = orders.RotateNone
	}
	thinking := fmt.Sprintf("range %.1f, keeping %.0f units, %s %s", view.distance, focused, result.Movement, result.Rotation)
	return match.Decision{Orders: result, Thinking: thinking}, nil
}

package gameplay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	_ "embed"
)

// DamageMode selects how blast zone damage scales with distance from the zone centre.
type DamageMode string

const (
	// DamageModeFlat applies the full per-second rate anywhere inside the radius.
	DamageModeFlat DamageMode = "flat"
	// DamageModeLinear fades the rate linearly from the centre to zero at the edge.
	DamageModeLinear DamageMode = "linear"
)

// SimulationConfig fixes the turn length and the physics substep.
type SimulationConfig struct {
	DecisionIntervalSeconds float64 `json:"decision_interval_seconds"`
	PhysicsTickRateSeconds  float64 `json:"physics_tick_rate_seconds"`
}

// ShipConfig holds the per-ship base parameters.
type ShipConfig struct {
	StartingShields         float64 `json:"starting_shields"`
	StartingAE              float64 `json:"starting_ae"`
	MaxAE                   float64 `json:"max_ae"`
	AERegenPerSecond        float64 `json:"ae_regen_per_second"`
	BaseSpeedUnitsPerSecond float64 `json:"base_speed_units_per_second"`
}

// MovementConfig buckets AE drain per second by movement class.
type MovementConfig struct {
	ForwardAEPerSecond          float64 `json:"forward_ae_per_second"`
	ForwardDiagonalAEPerSecond  float64 `json:"forward_diagonal_ae_per_second"`
	LateralAEPerSecond          float64 `json:"lateral_ae_per_second"`
	BackwardAEPerSecond         float64 `json:"backward_ae_per_second"`
	BackwardDiagonalAEPerSecond float64 `json:"backward_diagonal_ae_per_second"`
	StopAEPerSecond             float64 `json:"stop_ae_per_second"`
}

// RotationConfig holds turn rates and their AE drain.
type RotationConfig struct {
	NoneAEPerSecond          float64 `json:"none_ae_per_second"`
	SoftTurnAEPerSecond      float64 `json:"soft_turn_ae_per_second"`
	SoftTurnDegreesPerSecond float64 `json:"soft_turn_degrees_per_second"`
	HardTurnAEPerSecond      float64 `json:"hard_turn_ae_per_second"`
	HardTurnDegreesPerSecond float64 `json:"hard_turn_degrees_per_second"`
}

// PhaserModeConfig describes one phaser configuration (WIDE or FOCUSED).
type PhaserModeConfig struct {
	ArcDegrees      float64 `json:"arc_degrees"`
	RangeUnits      float64 `json:"range_units"`
	Damage          float64 `json:"damage"`
	CooldownSeconds float64 `json:"cooldown_seconds"`
}

// PhaserConfig groups both phaser modes with the toggle duration.
type PhaserConfig struct {
	Wide                       PhaserModeConfig `json:"wide"`
	Focused                    PhaserModeConfig `json:"focused"`
	ReconfigurationTimeSeconds float64          `json:"reconfiguration_time_seconds"`
}

// TorpedoConfig holds launch, flight and trigger parameters.
type TorpedoConfig struct {
	LaunchCostAE             float64 `json:"launch_cost_ae"`
	MaxAECapacity            float64 `json:"max_ae_capacity"`
	SpeedUnitsPerSecond      float64 `json:"speed_units_per_second"`
	TurnRateDegreesPerSecond float64 `json:"turn_rate_degrees_per_second"`
	MaxActivePerShip         int     `json:"max_active_per_ship"`
	AEBurnStraightPerSecond  float64 `json:"ae_burn_straight_per_second"`
	AEBurnHardTurnPerSecond  float64 `json:"ae_burn_hard_turn_per_second"`
	ProximityTriggerUnits    float64 `json:"proximity_trigger_units"`
	BlastDamageMultiplier    float64 `json:"blast_damage_multiplier"`
}

// BlastConfig holds the blast zone lifecycle timings and damage shape.
type BlastConfig struct {
	ExpansionSeconds       float64    `json:"expansion_seconds"`
	PersistenceSeconds     float64    `json:"persistence_seconds"`
	DissipationSeconds     float64    `json:"dissipation_seconds"`
	MaxRadiusUnits         float64    `json:"max_radius_units"`
	DamageReferenceSeconds float64    `json:"damage_reference_seconds"`
	DamageMode             DamageMode `json:"damage_mode"`
}

// ArenaConfig holds the arena dimensions used for spawning.
type ArenaConfig struct {
	WidthUnits         float64 `json:"width_units"`
	HeightUnits        float64 `json:"height_units"`
	SpawnDistanceUnits float64 `json:"spawn_distance_units"`
}

// GameConfig is the complete, immutable set of numeric game parameters.
type GameConfig struct {
	Simulation SimulationConfig `json:"simulation"`
	Ship       ShipConfig       `json:"ship"`
	Movement   MovementConfig   `json:"movement"`
	Rotation   RotationConfig   `json:"rotation"`
	Phaser     PhaserConfig     `json:"phaser"`
	Torpedo    TorpedoConfig    `json:"torpedo"`
	Blast      BlastConfig      `json:"blast"`
	Arena      ArenaConfig      `json:"arena"`
}

// Substeps returns the number of physics substeps in one decision interval.
func (c GameConfig) Substeps() int {
	if !(c.Simulation.PhysicsTickRateSeconds > 0) {
		return 0
	}
	return int(math.Round(c.Simulation.DecisionIntervalSeconds / c.Simulation.PhysicsTickRateSeconds))
}

// Dt returns the substep length in seconds.
func (c GameConfig) Dt() float64 {
	return c.Simulation.PhysicsTickRateSeconds
}

// PhaserMode returns the parameters for the focused or wide configuration.
func (c GameConfig) PhaserMode(focused bool) PhaserModeConfig {
	if focused {
		return c.Phaser.Focused
	}
	return c.Phaser.Wide
}

// ConfigError lists every problem found while loading or validating a GameConfig.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid game configuration: " + strings.Join(e.Problems, "; ")
}

//go:embed arena.json
var defaultPayload []byte

var (
	defaultOnce sync.Once
	defaultData GameConfig
	defaultErr  error
)

// Default exposes the embedded baseline configuration.
func Default() GameConfig {
	defaultOnce.Do(func() {
		//1.- Parse and validate the embedded payload exactly once.
		defaultData, defaultErr = Parse(defaultPayload)
	})
	//2.- A broken embedded payload is a build defect, so fail loudly.
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultData
}

// Load reads a JSON configuration file and validates it.
func Load(path string) (GameConfig, error) {
	if strings.TrimSpace(path) == "" {
		return GameConfig{}, &ConfigError{Problems: []string{"config path must not be empty"}}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("read game config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON payload, rejecting unknown fields, and validates the result.
func Parse(data []byte) (GameConfig, error) {
	var cfg GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return GameConfig{}, &ConfigError{Problems: []string{fmt.Sprintf("decode: %v", err)}}
	}
	if cfg.Blast.DamageMode == "" {
		cfg.Blast.DamageMode = DamageModeFlat
	}
	if err := cfg.Validate(); err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

// Validate checks ranges and logical consistency, returning a *ConfigError listing all problems.
func (c GameConfig) Validate() error {
	var problems []string
	positive := func(name string, value float64) {
		if !(value > 0) || math.IsInf(value, 0) {
			problems = append(problems, fmt.Sprintf("%s must be > 0 (got: %v)", name, value))
		}
	}
	nonNegative := func(name string, value float64) {
		if !(value >= 0) || math.IsInf(value, 0) {
			problems = append(problems, fmt.Sprintf("%s must be >= 0 (got: %v)", name, value))
		}
	}

	//1.- Simulation timing must split a turn into a whole number of substeps.
	positive("simulation.decision_interval_seconds", c.Simulation.DecisionIntervalSeconds)
	positive("simulation.physics_tick_rate_seconds", c.Simulation.PhysicsTickRateSeconds)
	if c.Simulation.PhysicsTickRateSeconds > c.Simulation.DecisionIntervalSeconds {
		problems = append(problems, fmt.Sprintf("simulation.physics_tick_rate_seconds must be <= decision_interval_seconds (got: %v > %v)",
			c.Simulation.PhysicsTickRateSeconds, c.Simulation.DecisionIntervalSeconds))
	} else if c.Simulation.PhysicsTickRateSeconds > 0 {
		ratio := c.Simulation.DecisionIntervalSeconds / c.Simulation.PhysicsTickRateSeconds
		if math.Abs(ratio-math.Round(ratio)) > 1e-6 {
			problems = append(problems, fmt.Sprintf("simulation.decision_interval_seconds must be a whole multiple of physics_tick_rate_seconds (got ratio %v)", ratio))
		}
	}

	//2.- Ship and energy economy.
	positive("ship.starting_shields", c.Ship.StartingShields)
	nonNegative("ship.starting_ae", c.Ship.StartingAE)
	positive("ship.max_ae", c.Ship.MaxAE)
	if c.Ship.MaxAE < c.Ship.StartingAE {
		problems = append(problems, fmt.Sprintf("ship.max_ae must be >= starting_ae (got: %v < %v)", c.Ship.MaxAE, c.Ship.StartingAE))
	}
	nonNegative("ship.ae_regen_per_second", c.Ship.AERegenPerSecond)
	positive("ship.base_speed_units_per_second", c.Ship.BaseSpeedUnitsPerSecond)
	nonNegative("movement.forward_ae_per_second", c.Movement.ForwardAEPerSecond)
	nonNegative("movement.forward_diagonal_ae_per_second", c.Movement.ForwardDiagonalAEPerSecond)
	nonNegative("movement.lateral_ae_per_second", c.Movement.LateralAEPerSecond)
	nonNegative("movement.backward_ae_per_second", c.Movement.BackwardAEPerSecond)
	nonNegative("movement.backward_diagonal_ae_per_second", c.Movement.BackwardDiagonalAEPerSecond)
	nonNegative("movement.stop_ae_per_second", c.Movement.StopAEPerSecond)
	nonNegative("rotation.none_ae_per_second", c.Rotation.NoneAEPerSecond)
	nonNegative("rotation.soft_turn_ae_per_second", c.Rotation.SoftTurnAEPerSecond)
	nonNegative("rotation.hard_turn_ae_per_second", c.Rotation.HardTurnAEPerSecond)
	nonNegative("rotation.soft_turn_degrees_per_second", c.Rotation.SoftTurnDegreesPerSecond)
	nonNegative("rotation.hard_turn_degrees_per_second", c.Rotation.HardTurnDegreesPerSecond)
	if c.Rotation.SoftTurnDegreesPerSecond >= c.Rotation.HardTurnDegreesPerSecond {
		problems = append(problems, fmt.Sprintf("rotation.soft_turn_degrees_per_second must be < hard_turn_degrees_per_second (got: %v >= %v)",
			c.Rotation.SoftTurnDegreesPerSecond, c.Rotation.HardTurnDegreesPerSecond))
	}

	//3.- Phaser modes.
	for _, mode := range []struct {
		name string
		cfg  PhaserModeConfig
	}{{"phaser.wide", c.Phaser.Wide}, {"phaser.focused", c.Phaser.Focused}} {
		if !(mode.cfg.ArcDegrees > 0) || mode.cfg.ArcDegrees > 360 {
			problems = append(problems, fmt.Sprintf("%s.arc_degrees must be > 0 and <= 360 (got: %v)", mode.name, mode.cfg.ArcDegrees))
		}
		positive(mode.name+".range_units", mode.cfg.RangeUnits)
		positive(mode.name+".damage", mode.cfg.Damage)
		nonNegative(mode.name+".cooldown_seconds", mode.cfg.CooldownSeconds)
	}
	nonNegative("phaser.reconfiguration_time_seconds", c.Phaser.ReconfigurationTimeSeconds)

	//4.- Torpedoes.
	positive("torpedo.launch_cost_ae", c.Torpedo.LaunchCostAE)
	positive("torpedo.max_ae_capacity", c.Torpedo.MaxAECapacity)
	positive("torpedo.speed_units_per_second", c.Torpedo.SpeedUnitsPerSecond)
	nonNegative("torpedo.turn_rate_degrees_per_second", c.Torpedo.TurnRateDegreesPerSecond)
	if c.Torpedo.MaxActivePerShip <= 0 {
		problems = append(problems, fmt.Sprintf("torpedo.max_active_per_ship must be > 0 (got: %d)", c.Torpedo.MaxActivePerShip))
	}
	nonNegative("torpedo.ae_burn_straight_per_second", c.Torpedo.AEBurnStraightPerSecond)
	nonNegative("torpedo.ae_burn_hard_turn_per_second", c.Torpedo.AEBurnHardTurnPerSecond)
	nonNegative("torpedo.proximity_trigger_units", c.Torpedo.ProximityTriggerUnits)
	positive("torpedo.blast_damage_multiplier", c.Torpedo.BlastDamageMultiplier)

	//5.- Blast zone lifecycle.
	positive("blast.expansion_seconds", c.Blast.ExpansionSeconds)
	nonNegative("blast.persistence_seconds", c.Blast.PersistenceSeconds)
	positive("blast.dissipation_seconds", c.Blast.DissipationSeconds)
	positive("blast.max_radius_units", c.Blast.MaxRadiusUnits)
	positive("blast.damage_reference_seconds", c.Blast.DamageReferenceSeconds)
	switch c.Blast.DamageMode {
	case DamageModeFlat, DamageModeLinear:
	default:
		problems = append(problems, fmt.Sprintf("blast.damage_mode must be %q or %q (got: %q)", DamageModeFlat, DamageModeLinear, c.Blast.DamageMode))
	}

	//6.- Arena.
	positive("arena.width_units", c.Arena.WidthUnits)
	positive("arena.height_units", c.Arena.HeightUnits)
	positive("arena.spawn_distance_units", c.Arena.SpawnDistanceUnits)
	if c.Arena.SpawnDistanceUnits > c.Arena.WidthUnits {
		problems = append(problems, fmt.Sprintf("arena.spawn_distance_units must be <= width_units (got: %v > %v)",
			c.Arena.SpawnDistanceUnits, c.Arena.WidthUnits))
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultReplayDir is where finished match bundles are written.
	DefaultReplayDir = "replays"
	// DefaultMaxTurns ends a match in a tie when neither ship has been destroyed.
	DefaultMaxTurns = 20
	// DefaultDecisionTimeout bounds how long both order providers may take for one turn.
	DefaultDecisionTimeout = 30 * time.Second
	// DefaultMatchTimeout bounds the wall-clock duration of a whole match.
	DefaultMatchTimeout = 30 * time.Minute

	// DefaultBreakerMaxFailures opens an order provider's breaker after this many consecutive failures.
	DefaultBreakerMaxFailures = 3
	// DefaultBreakerOpenTimeout keeps an open breaker rejecting calls before probing again.
	DefaultBreakerOpenTimeout = time.Minute

	// DefaultReplayMaxBundles bounds how many replay bundles the retention sweep keeps.
	DefaultReplayMaxBundles = 50
	// DefaultReplayMaxAge prunes bundles older than this during the retention sweep.
	DefaultReplayMaxAge = 7 * 24 * time.Hour

	// DefaultEventRetention caps how many events the live spectator stream keeps for unacked subscribers.
	DefaultEventRetention = 512

	// DefaultLogLevel controls verbosity for arena logs.
	DefaultLogLevel = "info"

	// DefaultModelA and DefaultModelB name the built-in scripted pilots.
	DefaultModelA = "scripted-aggressor"
	DefaultModelB = "scripted-evader"
)

// Config captures all runtime tunables for the arena process. Game rules live in gameplay.GameConfig.
type Config struct {
	GameConfigPath     string
	ReplayDir          string
	ReplayMaxBundles   int
	ReplayMaxAge       time.Duration
	MaxTurns           int
	DecisionTimeout    time.Duration
	MatchTimeout       time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	EventRetention     int
	PilotRateLimit     int
	ModelA             string
	ModelB             string
	Logging            LoggingConfig
}

// LoggingConfig captures structured logging configuration options. An empty Path logs to stdout only.
type LoggingConfig struct {
	Level string
	Path  string
}

// LoadDotEnv merges variables from a .env file into the process environment without overriding values
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the arena configuration from ARENA_* environment variables, applying defaults and returning
// every invalid override in a single error.
func Load() (*Config, error) {
	cfg := &Config{
		GameConfigPath:     strings.TrimSpace(os.Getenv("ARENA_GAME_CONFIG")),
		ReplayDir:          getString("ARENA_REPLAY_DIR", DefaultReplayDir),
		ReplayMaxBundles:   DefaultReplayMaxBundles,
		ReplayMaxAge:       DefaultReplayMaxAge,
		MaxTurns:           DefaultMaxTurns,
		DecisionTimeout:    DefaultDecisionTimeout,
		MatchTimeout:       DefaultMatchTimeout,
		BreakerMaxFailures: DefaultBreakerMaxFailures,
		BreakerOpenTimeout: DefaultBreakerOpenTimeout,
		EventRetention:     DefaultEventRetention,
		ModelA:             getString("ARENA_MODEL_A", DefaultModelA),
		ModelB:             getString("ARENA_MODEL_B", DefaultModelB),
		Logging: LoggingConfig{
			Level: getString("ARENA_LOG_LEVEL", DefaultLogLevel),
			Path:  strings.TrimSpace(os.Getenv("ARENA_LOG_PATH")),
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("ARENA_MAX_TURNS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_MAX_TURNS must be a positive integer, got %q", raw))
		} else {
			cfg.MaxTurns = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_REPLAY_MAX_BUNDLES")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ARENA_REPLAY_MAX_BUNDLES must be a non-negative integer, got %q", raw))
		} else {
			cfg.ReplayMaxBundles = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_REPLAY_MAX_AGE")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration < 0 {
			problems = append(problems, fmt.Sprintf("ARENA_REPLAY_MAX_AGE must be a non-negative duration, got %q", raw))
		} else {
			cfg.ReplayMaxAge = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_DECISION_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_DECISION_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.DecisionTimeout = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_MATCH_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_MATCH_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.MatchTimeout = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_BREAKER_MAX_FAILURES")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || value == 0 {
			problems = append(problems, fmt.Sprintf("ARENA_BREAKER_MAX_FAILURES must be a positive integer, got %q", raw))
		} else {
			cfg.BreakerMaxFailures = uint32(value)
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_BREAKER_OPEN_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_BREAKER_OPEN_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.BreakerOpenTimeout = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_PILOT_REQUESTS_PER_MINUTE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ARENA_PILOT_REQUESTS_PER_MINUTE must be a non-negative integer, got %q", raw))
		} else {
			cfg.PilotRateLimit = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ARENA_EVENT_RETENTION")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_EVENT_RETENTION must be a positive integer, got %q", raw))
		} else {
			cfg.EventRetention = value
		}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("ARENA_LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.Logging.Level))
	}

	if cfg.ModelA == cfg.ModelB {
		problems = append(problems, "ARENA_MODEL_A and ARENA_MODEL_B must name different pilots")
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

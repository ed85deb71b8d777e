package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var arenaVars = []string{
	"ARENA_GAME_CONFIG", "ARENA_REPLAY_DIR", "ARENA_MAX_TURNS", "ARENA_DECISION_TIMEOUT", "ARENA_MATCH_TIMEOUT",
	"ARENA_BREAKER_MAX_FAILURES", "ARENA_BREAKER_OPEN_TIMEOUT", "ARENA_EVENT_RETENTION", "ARENA_MODEL_A",
	"ARENA_MODEL_B", "ARENA_LOG_LEVEL", "ARENA_LOG_PATH", "ARENA_REPLAY_MAX_BUNDLES", "ARENA_REPLAY_MAX_AGE",
	"ARENA_PILOT_REQUESTS_PER_MINUTE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range arenaVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ReplayDir != DefaultReplayDir {
		t.Fatalf("expected default replay dir %q, got %q", DefaultReplayDir, cfg.ReplayDir)
	}
	if cfg.MaxTurns != DefaultMaxTurns {
		t.Fatalf("expected default max turns %d, got %d", DefaultMaxTurns, cfg.MaxTurns)
	}
	if cfg.DecisionTimeout != DefaultDecisionTimeout || cfg.MatchTimeout != DefaultMatchTimeout {
		t.Fatalf("unexpected timeouts decision=%v match=%v", cfg.DecisionTimeout, cfg.MatchTimeout)
	}
	if cfg.BreakerMaxFailures != DefaultBreakerMaxFailures || cfg.BreakerOpenTimeout != DefaultBreakerOpenTimeout {
		t.Fatalf("unexpected breaker settings %d/%v", cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Path != "" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.ReplayMaxBundles != DefaultReplayMaxBundles || cfg.ReplayMaxAge != DefaultReplayMaxAge {
		t.Fatalf("unexpected replay retention %d/%v", cfg.ReplayMaxBundles, cfg.ReplayMaxAge)
	}
	if cfg.PilotRateLimit != 0 {
		t.Fatalf("expected unlimited pilot requests by default, got %d", cfg.PilotRateLimit)
	}
	if cfg.GameConfigPath != "" {
		t.Fatalf("expected embedded game config by default, got %q", cfg.GameConfigPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARENA_GAME_CONFIG", "/etc/arena/game.json")
	t.Setenv("ARENA_REPLAY_DIR", "/tmp/replays")
	t.Setenv("ARENA_MAX_TURNS", "40")
	t.Setenv("ARENA_DECISION_TIMEOUT", "5s")
	t.Setenv("ARENA_BREAKER_MAX_FAILURES", "7")
	t.Setenv("ARENA_BREAKER_OPEN_TIMEOUT", "10s")
	t.Setenv("ARENA_LOG_LEVEL", "debug")
	t.Setenv("ARENA_MODEL_A", "pilot-one")
	t.Setenv("ARENA_REPLAY_MAX_BUNDLES", "0")
	t.Setenv("ARENA_REPLAY_MAX_AGE", "36h")
	t.Setenv("ARENA_PILOT_REQUESTS_PER_MINUTE", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.GameConfigPath != "/etc/arena/game.json" || cfg.ReplayDir != "/tmp/replays" {
		t.Fatalf("unexpected paths %+v", cfg)
	}
	if cfg.MaxTurns != 40 || cfg.DecisionTimeout != 5*time.Second {
		t.Fatalf("unexpected turn settings %d/%v", cfg.MaxTurns, cfg.DecisionTimeout)
	}
	if cfg.BreakerMaxFailures != 7 || cfg.BreakerOpenTimeout != 10*time.Second {
		t.Fatalf("unexpected breaker settings %d/%v", cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
	}
	if cfg.ReplayMaxBundles != 0 || cfg.ReplayMaxAge != 36*time.Hour {
		t.Fatalf("unexpected replay retention %d/%v", cfg.ReplayMaxBundles, cfg.ReplayMaxAge)
	}
	if cfg.PilotRateLimit != 6 {
		t.Fatalf("unexpected pilot rate limit %d", cfg.PilotRateLimit)
	}
	if cfg.ModelA != "pilot-one" || cfg.ModelB != DefaultModelB {
		t.Fatalf("unexpected models %q/%q", cfg.ModelA, cfg.ModelB)
	}
}

func TestLoadReturnsValidationErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARENA_MAX_TURNS", "-5")
	t.Setenv("ARENA_DECISION_TIMEOUT", "abc")
	t.Setenv("ARENA_BREAKER_MAX_FAILURES", "0")
	t.Setenv("ARENA_LOG_LEVEL", "chatty")
	t.Setenv("ARENA_MODEL_A", "same")
	t.Setenv("ARENA_MODEL_B", "same")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"ARENA_MAX_TURNS", "ARENA_DECISION_TIMEOUT", "ARENA_BREAKER_MAX_FAILURES", "ARENA_LOG_LEVEL", "ARENA_MODEL_B"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected error to mention %s, got %v", fragment, err)
		}
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARENA_MAX_TURNS", "12")
	path := filepath.Join(t.TempDir(), "arena.env")
	if err := os.WriteFile(path, []byte("ARENA_MAX_TURNS=99\nARENA_TEST_DOTENV_ONLY=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ARENA_TEST_DOTENV_ONLY") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ARENA_TEST_DOTENV_ONLY"); got != "from-file" {
		t.Fatalf("expected variable from file, got %q", got)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.MaxTurns != 12 {
		t.Fatalf("expected environment to win over .env, got %d", cfg.MaxTurns)
	}
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aiarena/engine/internal/bots"
	"aiarena/engine/internal/config"
	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/match"
	"aiarena/engine/internal/replay"
	"aiarena/engine/internal/simulation"
	"aiarena/engine/internal/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "arena:", err)
		os.Exit(1)
	}
}

// run plays the requested number of matches between the configured pilots and persists each replay.
func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("arena", flag.ContinueOnError)
	envPath := flags.String("env", ".env", "optional dotenv file merged into the environment")
	matches := flags.Int("matches", 1, "number of matches to play")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *matches <= 0 {
		return errors.New("matches must be positive")
	}

	//1.- Resolve configuration and logging before anything can fail noisily.
	if err := config.LoadDotEnv(*envPath); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	game := gameplay.Default()
	if cfg.GameConfigPath != "" {
		if game, err = gameplay.Load(cfg.GameConfigPath); err != nil {
			return err
		}
	}
	resolver, err := simulation.NewResolver(game, simulation.WithLogger(logger))
	if err != nil {
		return err
	}

	//2.- Wrap both pilots in breakers so a dead model degrades to default orders instead of stalling.
	breaker := match.BreakerSettings{MaxFailures: cfg.BreakerMaxFailures, OpenTimeout: cfg.BreakerOpenTimeout}
	client := &http.Client{Timeout: cfg.DecisionTimeout}
	pilots := make(map[state.ShipID]match.OrdersProvider, 2)
	for id, name := range map[state.ShipID]string{state.ShipA: cfg.ModelA, state.ShipB: cfg.ModelB} {
		pilot, err := bots.New(name, client, bots.WithQuota(bots.NewQuota(time.Minute, cfg.PilotRateLimit, nil)))
		if err != nil {
			return err
		}
		pilots[id] = match.NewBreakerProvider(name, pilot, breaker, logger)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream := events.NewStream(events.Config{Retain: cfg.EventRetention})
	spectate(ctx, stream, logger)
	monitor := match.NewTurnMonitor()

	for played := 0; played < *matches; played++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := playMatch(ctx, cfg, game, resolver, pilots, stream, monitor, logger); err != nil {
			return err
		}
	}

	//3.- Apply retention once every replay of this run is on disk.
	cleaner := replay.NewCleaner(cfg.ReplayDir, replay.RetentionPolicy{MaxBundles: cfg.ReplayMaxBundles, MaxAge: cfg.ReplayMaxAge}, logger)
	stats := cleaner.RunOnce()
	logger.Info("replay storage",
		logging.Int("bundles", stats.Bundles),
		logging.Int("removed", stats.Removed),
		logging.Int("bytes", int(stats.Bytes)),
	)
	return nil
}

func playMatch(ctx context.Context, cfg *config.Config, game gameplay.GameConfig, resolver *simulation.Resolver,
	pilots map[state.ShipID]match.OrdersProvider, stream *events.Stream, monitor *match.TurnMonitor, logger *logging.Logger) error {
	recorder := replay.NewRecorder(replay.Models{string(state.ShipA): cfg.ModelA, string(state.ShipB): cfg.ModelB}, nil)
	ctx, cancel := context.WithTimeout(ctx, cfg.MatchTimeout)
	defer cancel()
	ctx, matchLogger := logging.WithMatch(ctx, logger, recorder.MatchID())

	monitor.Reset()
	session, err := match.NewSession(resolver, pilots[state.ShipA], pilots[state.ShipB],
		match.WithLogger(matchLogger),
		match.WithMaxTurns(cfg.MaxTurns),
		match.WithDecisionTimeout(cfg.DecisionTimeout),
		match.WithStream(stream),
		match.WithRecorder(recorder),
		match.WithMonitor(monitor),
	)
	if err != nil {
		return err
	}
	matchLogger.Info("match starting", logging.String("ship_a", cfg.ModelA), logging.String("ship_b", cfg.ModelB))
	result, err := session.Run(ctx)
	if err != nil {
		return fmt.Errorf("match %s: %w", recorder.MatchID(), err)
	}

	dir, err := replay.WriteMatch(cfg.ReplayDir, *result.Record, game, nil)
	if err != nil {
		return fmt.Errorf("write replay: %w", err)
	}
	matchLogger.Info("replay written",
		logging.String("path", dir),
		logging.String("winner", result.Winner),
		logging.Float64("turns_per_minute", monitor.Snapshot().TurnsPerMinute()),
	)
	return nil
}

const (
	spectatorID     = "arena-log"
	spectatorBuffer = 256
)

// spectate drains the live event stream into debug logs until ctx ends.
func spectate(ctx context.Context, stream *events.Stream, logger *logging.Logger) {
	sub, err := stream.Subscribe(ctx, spectatorID, spectatorBuffer)
	if err != nil {
		logger.Warn("spectator unavailable", logging.Error(err))
		return
	}
	go drain(ctx, stream, sub, logger)
}

// drain logs and acks every delivered event. A rejected ack means a live copy was dropped on a full buffer,
// so the spectator reconnects and the stream replays everything still pending.
func drain(ctx context.Context, stream *events.Stream, sub *events.Subscription, logger *logging.Logger) {
	defer func() { sub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-sub.Events():
			if !ok || envelope == nil {
				return
			}
			if event, err := envelope.Event(); err == nil {
				logger.Debug("event",
					logging.String("type", string(event.Type)),
					logging.Int("turn", event.Turn),
					logging.Int("sequence", int(envelope.Sequence)),
				)
			}
			err := sub.Ack(envelope.Sequence)
			switch {
			case err == nil:
			case errors.Is(err, events.ErrOutOfOrderAck):
				logger.Warn("spectator fell behind, resubscribing", logging.Int("sequence", int(envelope.Sequence)))
				next, err := stream.Subscribe(ctx, spectatorID, spectatorBuffer)
				if err != nil {
					logger.Warn("spectator resubscribe failed", logging.Error(err))
					return
				}
				sub = next
			default:
				logger.Warn("spectator ack failed", logging.Error(err), logging.Int("sequence", int(envelope.Sequence)))
			}
		}
	}
}

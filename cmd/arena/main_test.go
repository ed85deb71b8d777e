package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/replay"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunPlaysScriptedMatchAndWritesReplay(t *testing.T) {
	dir := t.TempDir()
	previous := logging.L()
	t.Cleanup(func() { logging.ReplaceGlobals(previous) })
	t.Setenv("ARENA_REPLAY_DIR", dir)
	t.Setenv("ARENA_MAX_TURNS", "2")
	t.Setenv("ARENA_LOG_LEVEL", "error")

	if err := run(context.Background(), []string{"-env", filepath.Join(dir, "missing.env"), "-matches", "2"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read replay dir: %v", err)
	}
	loaded := 0
	for _, entry := range entries {
		bundle, err := replay.Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.Fatalf("load %s: %v", entry.Name(), err)
		}
		if bundle.Header.TotalTurns != 2 || len(bundle.Record.Turns) != 2 {
			t.Fatalf("expected a two turn match, got %+v", bundle.Header)
		}
		if bundle.Header.Models["ship_a"] != "scripted-aggressor" {
			t.Fatalf("unexpected models %v", bundle.Header.Models)
		}
		loaded++
	}
	if loaded == 0 {
		t.Fatalf("expected at least one replay bundle")
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	if err := run(context.Background(), []string{"-matches", "0"}); err == nil {
		t.Fatalf("expected zero matches to be rejected")
	}
	if err := run(context.Background(), []string{"-unknown"}); err == nil {
		t.Fatalf("expected unknown flag to be rejected")
	}
}

func TestDrainRecoversEventsDroppedOnFullBuffer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.FromZap(zap.New(core))
	stream := events.NewStream(events.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publish := func(turn int) {
		t.Helper()
		if _, err := stream.Publish(events.Event{Type: events.TypePhaserFired, Turn: turn, Data: map[string]any{}}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	delivered := func(sequence int) bool {
		for _, entry := range logs.FilterMessage("event").All() {
			if entry.ContextMap()["sequence"] == int64(sequence) {
				return true
			}
		}
		return false
	}
	waitFor := func(sequence int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !delivered(sequence) {
			if time.Now().After(deadline) {
				t.Fatalf("event %d never reached the spectator", sequence)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	//1.- A one slot buffer keeps event 1 and drops the live copy of event 2.
	sub, err := stream.Subscribe(ctx, spectatorID, 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	publish(1)
	publish(2)
	go drain(ctx, stream, sub, logger)
	waitFor(1)

	//2.- Event 3 arrives while 2 is still pending, so its ack is refused and the spectator reconnects.
	publish(3)
	waitFor(2)
	if logs.FilterMessage("spectator fell behind, resubscribing").Len() == 0 {
		t.Fatalf("expected the spectator to resubscribe")
	}
	if logs.FilterMessage("spectator ack failed").Len() != 0 {
		t.Fatalf("unexpected ack failure logs")
	}
}

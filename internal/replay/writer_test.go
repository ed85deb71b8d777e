package replay

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/geometry"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
	"github.com/golang/snappy"
)

func sampleMatch(t *testing.T) MatchRecord {
	t.Helper()
	created := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorder(Models{"ship_a": "alpha", "ship_b": "bravo"}, func() time.Time { return created })

	timer := 4.5
	start := state.GameState{
		ShipA: state.ShipState{Position: geometry.Vec2D{X: 100, Y: 250}, Shields: 100, AE: 100},
		ShipB: state.ShipState{Position: geometry.Vec2D{X: 900, Y: 250}, Heading: math.Pi, Shields: 100, AE: 100, PhaserConfig: state.PhaserFocused},
	}
	second := start.Clone()
	second.Turn = 1
	second.Torpedoes = []state.TorpedoState{{ID: "ship_a_torpedo_1", Owner: state.ShipA, Position: geometry.Vec2D{X: 160, Y: 250}, AERemaining: 35.5, DetonationTimer: &timer}}
	second.BlastZones = []state.BlastZone{{ID: "ship_b_torpedo_0_blast", Owner: state.ShipB, Phase: state.PhasePersistence, CurrentRadius: 15, BaseDamage: 30, Age: 9.5}}
	final := second.Clone()
	final.Turn = 2
	final.ShipB.Shields = 0

	launch := orders.Orders{Movement: orders.MoveStop, WeaponAction: orders.WeaponLaunchTorpedo}
	detonate := orders.Orders{Movement: orders.MoveForwardLeft, Rotation: orders.RotateHardRight,
		TorpedoOrders: map[string]orders.TorpedoCommand{"ship_a_torpedo_1": orders.DetonateAfter{Delay: 2.5}}}
	turnOne := []events.Event{{Type: events.TypeTorpedoLaunched, Turn: 1, Substep: events.TurnStart, Data: map[string]any{
		"torpedo_id": "ship_a_torpedo_1", "position": events.Point(geometry.Vec2D{X: 100, Y: 250}),
	}}}
	turnTwo := []events.Event{{Type: events.TypePhaserFired, Turn: 2, Substep: 149, Time: 15.000000000000002, Data: map[string]any{
		"attacker": "ship_a", "damage": 15.0, "distance": 24.75,
	}}}

	if err := recorder.RecordTurn(1, start, launch, orders.Default(), "open fire", "", turnOne); err != nil {
		t.Fatalf("RecordTurn 1: %v", err)
	}
	if err := recorder.RecordTurn(2, second, detonate, orders.Default(), "", "hold", turnTwo); err != nil {
		t.Fatalf("RecordTurn 2: %v", err)
	}
	record, err := recorder.Finalize(WinnerShipA, 2, final)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return record
}

func TestWriteMatchRoundTripsThroughLoad(t *testing.T) {
	root := t.TempDir()
	record := sampleMatch(t)
	clock := func() time.Time { return time.Date(2024, 7, 10, 12, 30, 0, 0, time.UTC) }

	dir, err := WriteMatch(root, record, gameplay.Default(), clock)
	if err != nil {
		t.Fatalf("WriteMatch: %v", err)
	}
	if !strings.HasSuffix(dir, "-20240710T123000Z") {
		t.Fatalf("unexpected bundle directory %s", dir)
	}

	bundle, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded := bundle.Record
	if loaded.MatchID != record.MatchID || loaded.Winner != WinnerShipA || loaded.TotalTurns != 2 {
		t.Fatalf("unexpected metadata %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(record.CreatedAt) || loaded.Models["ship_a"] != "alpha" {
		t.Fatalf("unexpected created_at/models %+v", loaded)
	}
	if bundle.Manifest.FrameEncoding != "msgpack" || bundle.Header.Config != gameplay.Default() {
		t.Fatalf("unexpected manifest/header %+v", bundle.Manifest)
	}
	if len(loaded.Turns) != 2 || len(bundle.Frames) != 3 {
		t.Fatalf("expected 2 turns and 3 frames, got %d/%d", len(loaded.Turns), len(bundle.Frames))
	}

	//1.- Orders, thinking and events survive the JSON and protojson encodings.
	for idx, want := range record.Turns {
		got := loaded.Turns[idx]
		if got.Turn != want.Turn || got.ThinkingA != want.ThinkingA || got.ThinkingB != want.ThinkingB {
			t.Fatalf("turn %d: unexpected metadata %+v", want.Turn, got)
		}
		if !reflect.DeepEqual(got.OrdersA, want.OrdersA) || !reflect.DeepEqual(got.OrdersB, want.OrdersB) {
			t.Fatalf("turn %d: orders mismatch %+v vs %+v", want.Turn, got.OrdersA, want.OrdersA)
		}
		if !reflect.DeepEqual(got.Events, want.Events) {
			t.Fatalf("turn %d: events mismatch\n%+v\n%+v", want.Turn, got.Events, want.Events)
		}
	}

	//2.- States survive the msgpack frames.
	second := loaded.Turns[1].StateBefore
	if second.Turn != 1 || second.ShipB != record.Turns[1].StateBefore.ShipB {
		t.Fatalf("unexpected decoded ship %+v", second.ShipB)
	}
	if len(second.Torpedoes) != 1 || second.Torpedoes[0].DetonationTimer == nil || *second.Torpedoes[0].DetonationTimer != 4.5 {
		t.Fatalf("unexpected decoded torpedoes %+v", second.Torpedoes)
	}
	if len(second.BlastZones) != 1 || second.BlastZones[0] != record.Turns[1].StateBefore.BlastZones[0] {
		t.Fatalf("unexpected decoded blast zones %+v", second.BlastZones)
	}
	if loaded.FinalState.Turn != 2 || loaded.FinalState.ShipB.Shields != 0 {
		t.Fatalf("unexpected final state %+v", loaded.FinalState)
	}
	if bundle.Frames[2].SimulatedMs != 30000 {
		t.Fatalf("expected final frame at 30 s, got %d ms", bundle.Frames[2].SimulatedMs)
	}

	var visited []int
	if err := bundle.Replay(func(turn TurnRecord) error {
		visited = append(visited, turn.Turn)
		return nil
	}); err != nil || len(visited) != 2 || visited[0] != 1 {
		t.Fatalf("unexpected replay walk %v (%v)", visited, err)
	}
}

func TestTurnStreamIsSnappyJSONLines(t *testing.T) {
	root := t.TempDir()
	dir, err := WriteMatch(root, sampleMatch(t), gameplay.Default(), nil)
	if err != nil {
		t.Fatalf("WriteMatch: %v", err)
	}
	file, err := os.Open(filepath.Join(dir, turnsFile))
	if err != nil {
		t.Fatalf("open turns: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	lines := 0
	for scanner.Scan() {
		var line struct {
			Turn    int `json:"turn"`
			OrdersA struct {
				Movement     string `json:"movement"`
				WeaponAction string `json:"weapon_action"`
			} `json:"orders_a"`
			Events []map[string]any `json:"events"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines++
		if line.Turn == 1 && (line.OrdersA.WeaponAction != "LAUNCH_TORPEDO" || line.Events[0]["type"] != "torpedo_launched") {
			t.Fatalf("unexpected first line %+v", line)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 2 {
		t.Fatalf("expected 2 turn lines, got %d", lines)
	}
}

func TestLoadRejectsUnfinishedBundle(t *testing.T) {
	root := t.TempDir()
	writer, manifest, err := NewWriter(root, "half match", 15, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if manifest.TurnsPath != turnsFile || manifest.FramesPath != framesFile {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if !strings.HasPrefix(filepath.Base(writer.Directory()), "halfmatch-") {
		t.Fatalf("expected cleaned match id in directory, got %s", writer.Directory())
	}
	if err := writer.AppendFrame(state.GameState{}); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	if err := writer.Close(nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := writer.AppendFrame(state.GameState{}); err == nil {
		t.Fatalf("expected closed writer to reject frames")
	}
	if _, err := Load(writer.Directory()); err == nil {
		t.Fatalf("expected bundle without header to be rejected")
	}
}

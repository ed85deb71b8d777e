package replayplayer

import (
	"encoding/json"
	"fmt"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/replay"
	"aiarena/engine/internal/simulation"
	"aiarena/engine/internal/state"
)

// Mismatch describes a turn whose re-simulation disagrees with the recording.
type Mismatch struct {
	Turn   int    `json:"turn"`
	Reason string `json:"reason"`
}

// Report is the outcome of re-simulating a bundle.
type Report struct {
	MatchID    string     `json:"match_id"`
	Winner     string     `json:"winner"`
	Turns      int        `json:"turns"`
	Events     int        `json:"events"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Consistent reports whether every turn reproduced exactly.
func (r Report) Consistent() bool {
	return len(r.Mismatches) == 0
}

// Verify loads the bundle at dir and re-resolves every recorded turn with the recorded configuration. A
// bundle written by a deterministic resolver reproduces bit for bit.
func Verify(dir string) (Report, error) {
	bundle, err := replay.Load(dir)
	if err != nil {
		return Report{}, err
	}
	resolver, err := simulation.NewResolver(bundle.Header.Config)
	if err != nil {
		return Report{}, fmt.Errorf("recorded config: %w", err)
	}

	report := Report{MatchID: bundle.Header.MatchID, Winner: bundle.Header.Winner, Mismatches: []Mismatch{}}
	err = bundle.Replay(func(turn replay.TurnRecord) error {
		report.Turns++
		report.Events += len(turn.Events)
		//1.- The state after turn N is the frame recorded before turn N+1, or the final state.
		expected := bundle.Frames[report.Turns].State
		next, log, err := resolver.ResolveTurn(turn.StateBefore, turn.OrdersA, turn.OrdersB)
		if err != nil {
			report.Mismatches = append(report.Mismatches, Mismatch{Turn: turn.Turn, Reason: err.Error()})
			return nil
		}
		//2.- Compare canonical encodings so nil and empty collections read the same.
		if reason := compareStates(expected, next); reason != "" {
			report.Mismatches = append(report.Mismatches, Mismatch{Turn: turn.Turn, Reason: reason})
			return nil
		}
		if reason := compareEvents(turn.Events, log); reason != "" {
			report.Mismatches = append(report.Mismatches, Mismatch{Turn: turn.Turn, Reason: reason})
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func compareStates(recorded, replayed state.GameState) string {
	want, err := canonical(recorded)
	if err != nil {
		return err.Error()
	}
	got, err := canonical(replayed)
	if err != nil {
		return err.Error()
	}
	if want != got {
		return "state diverged"
	}
	return ""
}

func canonical(gs state.GameState) (string, error) {
	gs = gs.Clone()
	payload, err := json.Marshal(gs)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func compareEvents(recorded, replayed []events.Event) string {
	if len(recorded) != len(replayed) {
		return fmt.Sprintf("recorded %d events, re-simulation produced %d", len(recorded), len(replayed))
	}
	for idx := range recorded {
		if recorded[idx].Type != replayed[idx].Type || recorded[idx].Substep != replayed[idx].Substep {
			return fmt.Sprintf("event %d: recorded %s@%d, re-simulation produced %s@%d", idx,
				recorded[idx].Type, recorded[idx].Substep, replayed[idx].Type, replayed[idx].Substep)
		}
	}
	return ""
}

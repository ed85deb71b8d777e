package replay

import (
	"fmt"
	"sync"
	"time"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
	"github.com/google/uuid"
)

// Winner values recorded in a finished match.
const (
	WinnerShipA = "ship_a"
	WinnerShipB = "ship_b"
	WinnerTie   = "tie"
)

// Models names the pilot behind each ship.
type Models map[string]string

// Clone returns a copy that callers may mutate freely.
func (m Models) Clone() Models {
	if len(m) == 0 {
		return nil
	}
	//1.- Allocate a fresh map so recorded metadata never aliases the caller's map.
	clone := make(Models, len(m))
	for key, value := range m {
		clone[key] = value
	}
	return clone
}

// TurnRecord captures everything needed to audit one resolved turn: the state the ships decided on, what
// they ordered and why, and the events the resolver produced.
type TurnRecord struct {
	Turn        int             `json:"turn"`
	StateBefore state.GameState `json:"state_before"`
	OrdersA     orders.Orders   `json:"orders_a"`
	OrdersB     orders.Orders   `json:"orders_b"`
	ThinkingA   string          `json:"thinking_a"`
	ThinkingB   string          `json:"thinking_b"`
	Events      []events.Event  `json:"events"`
}

func (r TurnRecord) clone() TurnRecord {
	out := r
	out.StateBefore = r.StateBefore.Clone()
	out.OrdersA = r.OrdersA.Clone()
	out.OrdersB = r.OrdersB.Clone()
	out.Events = make([]events.Event, len(r.Events))
	for idx, event := range r.Events {
		out.Events[idx] = event.Clone()
	}
	return out
}

// MatchRecord is the complete record of a finished match.
type MatchRecord struct {
	MatchID    string          `json:"match_id"`
	Models     Models          `json:"models"`
	Winner     string          `json:"winner"`
	TotalTurns int             `json:"total_turns"`
	CreatedAt  time.Time       `json:"created_at"`
	FinalState state.GameState `json:"final_state"`
	Turns      []TurnRecord    `json:"turns"`
}

// Recorder accumulates turn records in memory until the match finishes.
type Recorder struct {
	mu        sync.Mutex
	matchID   string
	models    Models
	createdAt time.Time
	turns     []TurnRecord
	events    int
	finalized bool
}

// Stats summarises recorder progress for monitoring.
type Stats struct {
	MatchID        string
	BufferedTurns  int
	BufferedEvents int
	Finalized      bool
}

// NewRecorder starts a record for a new match with a random match id. A nil clock uses time.Now.
func NewRecorder(models Models, clock func() time.Time) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{matchID: uuid.NewString(), models: models.Clone(), createdAt: clock().UTC()}
}

// MatchID returns the identifier assigned to the match.
func (r *Recorder) MatchID() string {
	if r == nil {
		return ""
	}
	return r.matchID
}

// RecordTurn stores a deep copy of the turn so later mutation by the caller cannot rewrite history.
func (r *Recorder) RecordTurn(turn int, before state.GameState, ordersA, ordersB orders.Orders, thinkingA, thinkingB string, log []events.Event) error {
	if r == nil {
		return fmt.Errorf("recorder not configured")
	}
	record := TurnRecord{
		Turn:        turn,
		StateBefore: before,
		OrdersA:     ordersA,
		OrdersB:     ordersB,
		ThinkingA:   thinkingA,
		ThinkingB:   thinkingB,
		Events:      log,
	}.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	//1.- A finalized record is immutable.
	if r.finalized {
		return fmt.Errorf("match %s already finalized", r.matchID)
	}
	//2.- Turns must arrive in order so the replay steps forward deterministically.
	if n := len(r.turns); n > 0 && r.turns[n-1].Turn >= turn {
		return fmt.Errorf("turn %d recorded after turn %d", turn, r.turns[n-1].Turn)
	}
	r.turns = append(r.turns, record)
	r.events += len(record.Events)
	return nil
}

// Finalize closes the record and returns the finished match.
func (r *Recorder) Finalize(winner string, totalTurns int, final state.GameState) (MatchRecord, error) {
	if r == nil {
		return MatchRecord{}, fmt.Errorf("recorder not configured")
	}
	switch winner {
	case WinnerShipA, WinnerShipB, WinnerTie:
	default:
		return MatchRecord{}, fmt.Errorf("unknown winner %q", winner)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finalized = true
	turns := make([]TurnRecord, len(r.turns))
	for idx, record := range r.turns {
		turns[idx] = record.clone()
	}
	return MatchRecord{
		MatchID:    r.matchID,
		Models:     r.models.Clone(),
		Winner:     winner,
		TotalTurns: totalTurns,
		CreatedAt:  r.createdAt,
		FinalState: final.Clone(),
		Turns:      turns,
	}, nil
}

// Snapshot returns statistics describing the recorder state.
func (r *Recorder) Snapshot() Stats {
	if r == nil {
		return Stats{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{MatchID: r.matchID, BufferedTurns: len(r.turns), BufferedEvents: r.events, Finalized: r.finalized}
}

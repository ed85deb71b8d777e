package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/replay"
	"aiarena/engine/internal/simulation"
	"aiarena/engine/internal/state"
	"golang.org/x/sync/errgroup"
)

// DefaultDecisionTimeout bounds one round of order collection when no option overrides it.
const DefaultDecisionTimeout = 30 * time.Second

var (
	// ErrMatchOver is returned by Step once an outcome has been reached.
	ErrMatchOver = errors.New("match is over")
	// ErrMissingProvider is returned when a ship has no orders provider.
	ErrMissingProvider = errors.New("both ships need an orders provider")
)

// TurnResult is everything one Step produced.
type TurnResult struct {
	Turn      int
	State     state.GameState
	Events    []events.Event
	Decisions map[state.ShipID]Decision
	Forfeits  []state.ShipID
	Duration  time.Duration
}

// Result summarises a finished match.
type Result struct {
	Outcome
	TotalTurns int
	Final      state.GameState
	Record     *replay.MatchRecord
}

// SessionOption configures optional Session behaviour at construction time.
type SessionOption func(*Session)

// WithSessionClock overrides the wall-clock source used for turn timing.
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithMaxTurns ends the match in a tie after n turns. Zero means no limit.
func WithMaxTurns(n int) SessionOption {
	return func(s *Session) {
		if n >= 0 {
			s.maxTurns = n
		}
	}
}

// WithDecisionTimeout bounds how long both providers may take for one turn.
func WithDecisionTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if timeout > 0 {
			s.decisionTimeout = timeout
		}
	}
}

// WithStream publishes every resolved event to a live stream.
func WithStream(stream *events.Stream) SessionOption {
	return func(s *Session) {
		s.stream = stream
	}
}

// WithRecorder records every resolved turn for the replay.
func WithRecorder(recorder *replay.Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// WithMonitor reports turn durations to monitor.
func WithMonitor(monitor *TurnMonitor) SessionOption {
	return func(s *Session) {
		if monitor != nil {
			s.monitor = monitor
		}
	}
}

// WithInitialState starts the match from gs instead of the spawn layout.
func WithInitialState(gs state.GameState) SessionOption {
	return func(s *Session) {
		s.state = gs.Clone()
	}
}

// Session runs one match: it collects orders from both pilots, resolves turns and decides the winner.
type Session struct {
	mu sync.Mutex

	resolver        *simulation.Resolver
	providers       map[state.ShipID]OrdersProvider
	now             func() time.Time
	log             *logging.Logger
	maxTurns        int
	decisionTimeout time.Duration
	stream          *events.Stream
	recorder        *replay.Recorder
	monitor         *TurnMonitor

	state   state.GameState
	outcome *Outcome
}

// NewSession prepares a match between providerA (ship_a) and providerB (ship_b).
func NewSession(resolver *simulation.Resolver, providerA, providerB OrdersProvider, opts ...SessionOption) (*Session, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	if providerA == nil || providerB == nil {
		return nil, ErrMissingProvider
	}
	session := &Session{
		resolver:        resolver,
		providers:       map[state.ShipID]OrdersProvider{state.ShipA: providerA, state.ShipB: providerB},
		now:             time.Now,
		log:             logging.L(),
		decisionTimeout: DefaultDecisionTimeout,
		monitor:         NewTurnMonitor(),
		state:           Spawn(resolver.Config()),
	}
	//1.- Apply caller options after the defaults so they win.
	for _, opt := range opts {
		if opt != nil {
			opt(session)
		}
	}
	return session, nil
}

// State returns a copy of the current match state.
func (s *Session) State() state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Monitor exposes the turn timing monitor.
func (s *Session) Monitor() *TurnMonitor {
	return s.monitor
}

// Step plays one turn: collect, validate, resolve, record and publish.
func (s *Session) Step(ctx context.Context) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return TurnResult{}, ErrMatchOver
	}
	started := s.now()
	prev := s.state
	turn := prev.Turn + 1
	logger := s.log.With(logging.Int("turn", turn))

	//1.- Ask both pilots concurrently; a failure only costs that pilot its turn.
	decisions, err := s.collect(ctx, prev, turn, logger)
	if err != nil {
		return TurnResult{}, err
	}

	//2.- Malformed orders forfeit the ship's turn rather than the whole turn.
	result := TurnResult{Turn: turn, Decisions: decisions}
	for _, id := range state.Ships {
		decision := decisions[id]
		if err := orders.Validate(string(id), decision.Orders, prev.TorpedoIDs(id)); err != nil {
			logger.Warn("orders rejected", logging.String("ship", string(id)), logging.Error(err))
			decision.Orders = orders.Default()
			decisions[id] = decision
			result.Forfeits = append(result.Forfeits, id)
		}
	}

	next, log, err := s.resolver.ResolveTurn(prev, decisions[state.ShipA].Orders, decisions[state.ShipB].Orders)
	if err != nil {
		return TurnResult{}, fmt.Errorf("resolve turn %d: %w", turn, err)
	}

	//3.- Record before publishing so the replay never lags the live feed.
	if s.recorder != nil {
		if err := s.recorder.RecordTurn(turn, prev, decisions[state.ShipA].Orders, decisions[state.ShipB].Orders,
			decisions[state.ShipA].Thinking, decisions[state.ShipB].Thinking, log); err != nil {
			return TurnResult{}, fmt.Errorf("record turn %d: %w", turn, err)
		}
	}
	if s.stream != nil {
		if _, err := s.stream.PublishAll(log); err != nil {
			logger.Warn("event publish failed", logging.Error(err))
		}
	}

	s.state = next
	result.State = next.Clone()
	result.Events = log
	result.Duration = s.now().Sub(started)
	s.monitor.Observe(result.Duration)
	if outcome, over := Evaluate(next, s.maxTurns); over {
		s.outcome = &outcome
	}
	logger.Info("turn complete",
		logging.Int("events", len(log)),
		logging.Float64("shields_a", next.ShipA.Shields),
		logging.Float64("shields_b", next.ShipB.Shields),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

// collect gathers both decisions under the decision timeout. A pilot that fails or runs out of time gets
// default orders and never disturbs the other pilot; only cancellation of the match itself aborts the group.
func (s *Session) collect(ctx context.Context, prev state.GameState, turn int, logger *logging.Logger) (map[state.ShipID]Decision, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.decisionTimeout)
	defer cancel()
	group, groupCtx := errgroup.WithContext(timeoutCtx)

	var results [len(state.Ships)]Decision
	for idx, id := range state.Ships {
		idx, id := idx, id
		req := DecisionRequest{Ship: id, Turn: turn, State: prev.Clone(), Config: s.resolver.Config()}
		group.Go(func() error {
			decision, err := decide(groupCtx, s.providers[id], req)
			if err != nil {
				if matchErr := ctx.Err(); matchErr != nil {
					return matchErr
				}
				logger.Warn("orders provider failed, using default orders", logging.String("ship", string(id)), logging.Error(err))
				decision = Decision{Orders: orders.Default()}
			}
			results[idx] = decision
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	decisions := make(map[state.ShipID]Decision, len(state.Ships))
	for idx, id := range state.Ships {
		decisions[id] = results[idx]
	}
	return decisions, nil
}

// decide runs one provider call and gives up when ctx expires, even if the provider ignores ctx.
func decide(ctx context.Context, provider OrdersProvider, req DecisionRequest) (Decision, error) {
	type answer struct {
		decision Decision
		err      error
	}
	done := make(chan answer, 1)
	go func() {
		decision, err := provider.Decide(ctx, req)
		done <- answer{decision: decision, err: err}
	}()
	select {
	case got := <-done:
		return got.decision, got.err
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// Run plays turns until the match ends or ctx is cancelled, then finalizes the replay record.
func (s *Session) Run(ctx context.Context) (Result, error) {
	for {
		if _, err := s.Step(ctx); err != nil {
			if errors.Is(err, ErrMatchOver) {
				break
			}
			if ctx.Err() != nil {
				return s.finish(Outcome{Winner: replay.WinnerTie, Reason: ReasonCancelled})
			}
			return Result{}, err
		}
		s.mu.Lock()
		over := s.outcome != nil
		s.mu.Unlock()
		if over {
			break
		}
	}
	s.mu.Lock()
	outcome := *s.outcome
	s.mu.Unlock()
	return s.finish(outcome)
}

func (s *Session) finish(outcome Outcome) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = &outcome
	result := Result{Outcome: outcome, TotalTurns: s.state.Turn, Final: s.state.Clone()}
	if s.recorder != nil {
		record, err := s.recorder.Finalize(outcome.Winner, s.state.Turn, s.state)
		if err != nil {
			return Result{}, err
		}
		result.Record = &record
	}
	metrics := s.monitor.Snapshot()
	s.log.Info("match finished",
		logging.String("winner", outcome.Winner),
		logging.String("reason", outcome.Reason),
		logging.Int("turns", s.state.Turn),
		logging.Duration("average_turn", metrics.Average),
		logging.Duration("slowest_turn", metrics.Max),
	)
	return result, nil
}

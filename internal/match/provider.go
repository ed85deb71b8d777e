package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/logging"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
	"github.com/sony/gobreaker"
)

// ErrNoDecision is returned when a provider finishes without producing a decision.
var ErrNoDecision = errors.New("orders provider returned no decision")

// DecisionRequest is what a pilot sees before a turn. State is a private copy.
type DecisionRequest struct {
	Ship   state.ShipID
	Turn   int
	State  state.GameState
	Config gameplay.GameConfig
}

// Decision is a pilot's answer: orders plus free-form reasoning kept for the replay.
type Decision struct {
	Orders   orders.Orders
	Thinking string
}

// OrdersProvider produces orders for one ship. Implementations must honour ctx cancellation.
type OrdersProvider interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

// ProviderFunc adapts a function to OrdersProvider.
type ProviderFunc func(ctx context.Context, req DecisionRequest) (Decision, error)

// Decide calls f.
func (f ProviderFunc) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	return f(ctx, req)
}

// BreakerSettings tunes the circuit breaker around a provider.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerProvider isolates a flaky provider: after MaxFailures consecutive failures it stops calling it for
// OpenTimeout and fails fast with gobreaker.ErrOpenState, which the session turns into default orders.
type BreakerProvider struct {
	name    string
	next    OrdersProvider
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewBreakerProvider wraps next with a circuit breaker named after the pilot.
func NewBreakerProvider(name string, next OrdersProvider, settings BreakerSettings, logger *logging.Logger) *BreakerProvider {
	if logger == nil {
		logger = logging.L()
	}
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}
	provider := &BreakerProvider{name: name, next: next, logger: logger}
	provider.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			provider.logger.Warn("orders provider breaker changed state",
				logging.String("provider", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
	return provider
}

// Decide forwards to the wrapped provider unless the breaker is open.
func (p *BreakerProvider) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	if p == nil || p.next == nil {
		return Decision{}, ErrNoDecision
	}
	result, err := p.breaker.Execute(func() (interface{}, error) {
		decision, err := p.next.Decide(ctx, req)
		if err != nil {
			return nil, err
		}
		return decision, nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("provider %s: %w", p.name, err)
	}
	decision, ok := result.(Decision)
	if !ok {
		return Decision{}, ErrNoDecision
	}
	return decision, nil
}

// State reports the breaker state for monitoring.
func (p *BreakerProvider) State() gobreaker.State {
	if p == nil {
		return gobreaker.StateClosed
	}
	return p.breaker.State()
}

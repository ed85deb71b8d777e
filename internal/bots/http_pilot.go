package bots

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/match"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
)

// HTTPPilot asks a remote model service for orders, one POST per turn.
type HTTPPilot struct {
	client   *http.Client
	endpoint string
	quota    *Quota
}

// HTTPPilotOption configures optional HTTPPilot behaviour.
type HTTPPilotOption func(*HTTPPilot)

// WithQuota caps how many requests the pilot may send per window.
func WithQuota(quota *Quota) HTTPPilotOption {
	return func(p *HTTPPilot) {
		p.quota = quota
	}
}

type decisionPayload struct {
	Ship   state.ShipID        `json:"ship"`
	Turn   int                 `json:"turn"`
	State  state.GameState     `json:"state"`
	Config gameplay.GameConfig `json:"config"`
}

type decisionReply struct {
	Orders   *orders.Orders `json:"orders"`
	Thinking string         `json:"thinking"`
}

// NewHTTPPilot wires an HTTP client to the remote pilot endpoint.
func NewHTTPPilot(endpoint string, client *http.Client, opts ...HTTPPilotOption) (*HTTPPilot, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint must not be empty")
	}
	//1.- Reuse the provided client when available so callers can inject transport tweaks.
	if client == nil {
		client = http.DefaultClient
	}
	pilot := &HTTPPilot{endpoint: endpoint, client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(pilot)
		}
	}
	return pilot, nil
}

// Decide posts the board to the remote pilot and decodes its orders.
func (p *HTTPPilot) Decide(ctx context.Context, req match.DecisionRequest) (match.Decision, error) {
	if p == nil {
		return match.Decision{}, errors.New("pilot is nil")
	}
	if !p.quota.Allow() {
		return match.Decision{}, ErrQuotaExceeded
	}
	body, err := json.Marshal(decisionPayload{Ship: req.Ship, Turn: req.Turn, State: req.State, Config: req.Config})
	if err != nil {
		return match.Decision{}, fmt.Errorf("marshal request: %w", err)
	}
	//1.- Build the POST request inline so contexts propagate cancellation semantics downstream.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return match.Decision{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return match.Decision{}, fmt.Errorf("send decision request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return match.Decision{}, fmt.Errorf("pilot responded with status %s", resp.Status)
	}
	var reply decisionReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return match.Decision{}, fmt.Errorf("decode response: %w", err)
	}
	//2.- A reply without orders is a failed decision, not an implicit stop.
	if reply.Orders == nil {
		return match.Decision{}, match.ErrNoDecision
	}
	return match.Decision{Orders: *reply.Orders, Thinking: reply.Thinking}, nil
}

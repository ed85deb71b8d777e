package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Kind groups event types for spectators that only follow part of the match.
type Kind string

const (
	KindCombat    Kind = "combat"
	KindOrders    Kind = "orders"
	KindLifecycle Kind = "lifecycle"
)

// KindOf classifies an event type.
func KindOf(kind Type) Kind {
	switch kind {
	case TypeOrdersDowngraded, TypePhaserReconfigured:
		return KindOrders
	case TypeShipDestroyed, TypeBlastZoneCreated, TypeBlastZonePhaseChanged, TypeBlastZoneDissipated:
		return KindLifecycle
	default:
		return KindCombat
	}
}

// Envelope carries one resolved event in protobuf form plus the routing fields spectators filter on.
type Envelope struct {
	Sequence uint64
	Turn     int
	Type     Type
	Kind     Kind
	Payload  *structpb.Struct
}

// Event decodes the payload back into an Event.
func (e *Envelope) Event() (Event, error) {
	if e == nil {
		return Event{}, errors.New("nil envelope")
	}
	return FromStruct(e.Payload)
}

// Clone duplicates the protobuf payload so each spectator owns its copy.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Payload != nil {
		if msg, ok := proto.Clone(e.Payload).(*structpb.Struct); ok {
			clone.Payload = msg
		}
	}
	return &clone
}

// Config controls how many published events the stream keeps for spectators that have not acked them.
type Config struct {
	Retain int
}

const defaultRetention = 512

// Stream fans a match's resolved events out to spectators with at-least-once delivery: every event stays
// pending for a spectator until acked, and a spectator that reconnects under the same id gets the pending
// events again. Publishing never blocks on a slow spectator.
type Stream struct {
	mu          sync.Mutex
	nextSeq     uint64
	retention   int
	logOrder    []uint64
	logPayloads map[uint64]*Envelope
	subscribers map[string]*subscriberState
}

type subscriberState struct {
	id      string
	kinds   map[Kind]struct{}
	pending []uint64
	lastAck uint64
	ch      chan *Envelope
	active  bool
}

// wants reports whether the spectator follows events of kind. No filter means everything.
func (s *subscriberState) wants(kind Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// Subscription is one spectator connection.
type Subscription struct {
	id     string
	stream *Stream
	events chan *Envelope
	once   sync.Once
}

// ErrOutOfOrderAck signals that a spectator tried to ack something other than its oldest pending event.
var ErrOutOfOrderAck = errors.New("ack sequence must match the next pending event")

// NewStream constructs a stream using the provided configuration.
func NewStream(cfg Config) *Stream {
	retention := cfg.Retain
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Stream{
		retention:   retention,
		logPayloads: make(map[uint64]*Envelope),
		subscribers: make(map[string]*subscriberState),
	}
}

// Subscribe attaches a spectator following the given kinds (all kinds when none are given). Events the
// spectator never acked under a previous connection are queued first. The subscription closes itself when ctx
// ends.
func (s *Stream) Subscribe(ctx context.Context, subscriberID string, buffer int, kinds ...Kind) (*Subscription, error) {
	if s == nil {
		return nil, errors.New("nil stream")
	}
	if subscriberID == "" {
		return nil, errors.New("subscriber id must be provided")
	}
	if buffer <= 0 {
		buffer = 32
	}

	s.mu.Lock()
	state := s.ensureSubscriberLocked(subscriberID)
	if len(kinds) > 0 {
		state.kinds = make(map[Kind]struct{}, len(kinds))
		for _, kind := range kinds {
			state.kinds[kind] = struct{}{}
		}
	}
	//1.- Size the channel so the whole backlog fits; live events beyond the buffer stay pending instead.
	backlog := s.collectBacklogLocked(state)
	if len(backlog) > buffer {
		buffer = len(backlog)
	}
	if state.ch != nil {
		close(state.ch)
	}
	state.ch = make(chan *Envelope, buffer)
	state.active = true
	state.pending = backlog
	for _, seq := range backlog {
		state.ch <- s.logPayloads[seq].Clone()
	}
	sub := &Subscription{id: subscriberID, stream: s, events: state.ch}
	s.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub, nil
}

// Events exposes the ordered delivery channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan *Envelope {
	if s == nil {
		return nil
	}
	return s.events
}

// Ack marks the spectator's oldest pending event as processed.
func (s *Subscription) Ack(sequence uint64) error {
	if s == nil || s.stream == nil {
		return errors.New("subscription closed")
	}
	return s.stream.ack(s.id, sequence)
}

// Close detaches the spectator while keeping its acknowledgement state for a later reconnect.
func (s *Subscription) Close() {
	if s == nil || s.stream == nil {
		return
	}
	s.once.Do(func() {
		s.stream.deactivateSubscriber(s.id, s.events)
	})
}

func (s *Stream) ensureSubscriberLocked(subscriberID string) *subscriberState {
	state, ok := s.subscribers[subscriberID]
	if !ok {
		state = &subscriberState{id: subscriberID}
		s.subscribers[subscriberID] = state
	}
	return state
}

// collectBacklogLocked lists the retained events the spectator follows and has not acked yet.
func (s *Stream) collectBacklogLocked(state *subscriberState) []uint64 {
	backlog := make([]uint64, 0, len(state.pending))
	for _, seq := range s.logOrder {
		if seq <= state.lastAck || !state.wants(s.logPayloads[seq].Kind) {
			continue
		}
		backlog = append(backlog, seq)
	}
	return backlog
}

// Publish converts the event and enqueues it for reliable delivery.
func (s *Stream) Publish(event Event) (uint64, error) {
	if s == nil {
		return 0, errors.New("nil stream")
	}
	payload, err := event.ToStruct()
	if err != nil {
		return 0, err
	}
	return s.publishEnvelope(&Envelope{Turn: event.Turn, Type: event.Type, Kind: KindOf(event.Type), Payload: payload})
}

// PublishAll publishes a turn's events in order and returns the last sequence assigned.
func (s *Stream) PublishAll(all []Event) (uint64, error) {
	var last uint64
	for idx, event := range all {
		seq, err := s.Publish(event)
		if err != nil {
			return last, fmt.Errorf("publish event %d: %w", idx, err)
		}
		last = seq
	}
	return last, nil
}

func (s *Stream) publishEnvelope(envelope *Envelope) (uint64, error) {
	if envelope == nil {
		return 0, errors.New("envelope required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	seq := s.nextSeq
	envelope.Sequence = seq
	s.logPayloads[seq] = envelope
	s.logOrder = append(s.logOrder, seq)

	for _, state := range s.subscribers {
		if !state.wants(envelope.Kind) {
			continue
		}
		state.pending = append(state.pending, seq)
		if !state.active || state.ch == nil {
			continue
		}
		//1.- A full buffer drops the live copy; the event stays pending and comes back on reconnect.
		select {
		case state.ch <- envelope.Clone():
		default:
		}
	}
	s.enforceRetentionLocked()
	return seq, nil
}

func (s *Stream) enforceRetentionLocked() {
	if len(s.logOrder) <= s.retention {
		return
	}
	//1.- Keep everything a spectator still needs, unless that exceeds the retention window.
	minAck := s.nextSeq
	for _, state := range s.subscribers {
		if state.lastAck < minAck {
			minAck = state.lastAck
		}
	}
	cutoff := s.logOrder[len(s.logOrder)-s.retention]
	pruneBefore := minAck
	if cutoff < pruneBefore {
		pruneBefore = cutoff
	}
	if pruneBefore == 0 {
		return
	}
	idx := sort.Search(len(s.logOrder), func(i int) bool { return s.logOrder[i] > pruneBefore })
	for _, seq := range s.logOrder[:idx] {
		delete(s.logPayloads, seq)
	}
	s.logOrder = append([]uint64(nil), s.logOrder[idx:]...)
	//2.- Pending entries that fell out of the log can never be delivered again.
	for _, state := range s.subscribers {
		kept := state.pending[:0]
		for _, seq := range state.pending {
			if seq > pruneBefore {
				kept = append(kept, seq)
			}
		}
		state.pending = kept
	}
}

func (s *Stream) ack(subscriberID string, sequence uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.subscribers[subscriberID]
	if !ok {
		return fmt.Errorf("unknown subscriber %q", subscriberID)
	}
	if len(state.pending) == 0 {
		if sequence <= state.lastAck {
			return nil
		}
		return ErrOutOfOrderAck
	}
	if sequence != state.pending[0] {
		return ErrOutOfOrderAck
	}
	state.pending = state.pending[1:]
	state.lastAck = sequence
	s.enforceRetentionLocked()
	return nil
}

// deactivateSubscriber closes ch if it is still the spectator's live channel; a newer connection is left alone.
func (s *Stream) deactivateSubscriber(subscriberID string, ch chan *Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.subscribers[subscriberID]
	if !ok || state.ch != ch || ch == nil {
		return
	}
	state.active = false
	close(state.ch)
	state.ch = nil
}

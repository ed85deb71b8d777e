package events

import (
	"fmt"
	"sort"

	"aiarena/engine/internal/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

// Type tags an Event. The string values are part of the replay format and must stay stable.
type Type string

const (
	TypeOrdersDowngraded      Type = "orders_downgraded"
	TypePhaserReconfigured    Type = "phaser_reconfigured"
	TypePhaserFired           Type = "phaser_fired"
	TypeTorpedoLaunched       Type = "torpedo_launched"
	TypeTorpedoDetonated      Type = "torpedo_detonated"
	TypeBlastZoneCreated      Type = "blast_zone_created"
	TypeBlastZonePhaseChanged Type = "blast_zone_phase_changed"
	TypeBlastZoneDissipated   Type = "blast_zone_dissipated"
	TypeBlastDamage           Type = "blast_damage"
	TypeShipDestroyed         Type = "ship_destroyed"
)

// TurnStart marks events produced before the first substep of a turn.
const TurnStart = -1

// Event is one tagged, timestamped record of something the resolver did. Time is seconds since the start of
// the turn; Data values are restricted to JSON scalars, nested maps and slices so every event converts to a
// protobuf Struct.
type Event struct {
	Type    Type           `json:"type"`
	Turn    int            `json:"turn"`
	Substep int            `json:"substep"`
	Time    float64        `json:"time"`
	Data    map[string]any `json:"data"`
}

// Clone copies the event and its payload map.
func (e Event) Clone() Event {
	clone := e
	clone.Data = cloneValue(e.Data).(map[string]any)
	return clone
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return map[string]any{}
		}
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[key] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, inner := range typed {
			out[idx] = cloneValue(inner)
		}
		return out
	default:
		return value
	}
}

// Keys returns the payload keys in sorted order.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e.Data))
	for key := range e.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Float returns a numeric payload value.
func (e Event) Float(key string) (float64, bool) {
	switch value := e.Data[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	default:
		return 0, false
	}
}

// String returns a string payload value.
func (e Event) String(key string) (string, bool) {
	value, ok := e.Data[key].(string)
	return value, ok
}

// ToStruct converts the event into a protobuf Struct with the same field names used by the JSON encoding.
func (e Event) ToStruct() (*structpb.Struct, error) {
	//1.- Normalise ints to float64 so structpb accepts every payload shape we emit.
	data, ok := normalise(e.Data).(map[string]any)
	if !ok || data == nil {
		data = map[string]any{}
	}
	payload, err := structpb.NewStruct(map[string]any{
		"type":    string(e.Type),
		"turn":    float64(e.Turn),
		"substep": float64(e.Substep),
		"time":    e.Time,
		"data":    data,
	})
	if err != nil {
		return nil, fmt.Errorf("convert %s event: %w", e.Type, err)
	}
	return payload, nil
}

// FromStruct rebuilds an Event from its protobuf form. Integral payload numbers come back as float64.
func FromStruct(payload *structpb.Struct) (Event, error) {
	if payload == nil {
		return Event{}, fmt.Errorf("nil event payload")
	}
	raw := payload.AsMap()
	kind, ok := raw["type"].(string)
	if !ok || kind == "" {
		return Event{}, fmt.Errorf("event payload missing type")
	}
	event := Event{Type: Type(kind), Data: map[string]any{}}
	if turn, ok := raw["turn"].(float64); ok {
		event.Turn = int(turn)
	}
	if substep, ok := raw["substep"].(float64); ok {
		event.Substep = int(substep)
	}
	if at, ok := raw["time"].(float64); ok {
		event.Time = at
	}
	if data, ok := raw["data"].(map[string]any); ok {
		event.Data = data
	}
	return event, nil
}

func normalise(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[key] = normalise(inner)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, inner := range typed {
			out[idx] = normalise(inner)
		}
		return out
	case int:
		return float64(typed)
	default:
		return value
	}
}

// Point encodes a position for an event payload.
func Point(v geometry.Vec2D) map[string]any {
	return map[string]any{"x": v.X, "y": v.Y}
}

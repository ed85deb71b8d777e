package events

// Log is the append-only, ordered event sink for one turn. It is not safe for concurrent use; the resolver
// owns one Log per call.
type Log struct {
	turn   int
	dt     float64
	events []Event
}

// NewLog creates a sink for the given turn number and substep length.
func NewLog(turn int, dt float64) *Log {
	return &Log{turn: turn, dt: dt}
}

// Emit appends an event stamped with the turn, substep and the simulated time at the end of that substep.
// Substep TurnStart stamps time 0.
func (l *Log) Emit(substep int, kind Type, data map[string]any) {
	at := 0.0
	if substep >= 0 {
		at = float64(substep+1) * l.dt
	}
	if data == nil {
		data = map[string]any{}
	}
	l.events = append(l.events, Event{Type: kind, Turn: l.turn, Substep: substep, Time: at, Data: data})
}

// Len reports the number of events recorded so far.
func (l *Log) Len() int {
	return len(l.events)
}

// Events returns a copy of the recorded events in emission order.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	for idx, event := range l.events {
		out[idx] = event.Clone()
	}
	return out
}

// Filter returns the events of one type, preserving order.
func Filter(all []Event, kind Type) []Event {
	var out []Event
	for _, event := range all {
		if event.Type == kind {
			out = append(out, event)
		}
	}
	return out
}

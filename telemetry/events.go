// Package telemetry provides simulation performance tracking, windowed
// statistics and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventEnter EventType = iota
	EventExit
	EventRespawn
)

func (t EventType) String() string {
	switch t {
	case EventEnter:
		return "enter"
	case EventExit:
		return "exit"
	case EventRespawn:
		return "respawn"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type   EventType
	Tick   int32
	Entity uint32
	Field  string // empty for respawns
}

// NewEnterEvent creates a field enter event.
func NewEnterEvent(tick int32, entity uint32, field string) Event {
	return Event{Type: EventEnter, Tick: tick, Entity: entity, Field: field}
}

// NewExitEvent creates a field exit event.
func NewExitEvent(tick int32, entity uint32, field string) Event {
	return Event{Type: EventExit, Tick: tick, Entity: entity, Field: field}
}

// NewRespawnEvent creates a respawn event.
func NewRespawnEvent(tick int32, entity uint32) Event {
	return Event{Type: EventRespawn, Tick: tick, Entity: entity}
}

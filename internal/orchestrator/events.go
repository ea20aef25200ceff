package orchestrator

import "encoding/json"

// EventBuffer is the capacity of the event channel; events are dropped when
// no one drains it.
const EventBuffer = 100

// EventType names an event pushed to the shell.
type EventType string

const (
	EventScreenshotTaken   EventType = "screenshot-taken"
	EventScreenshotDeleted EventType = "screenshot-deleted"
	EventQueuesCleared     EventType = "queues-cleared"
	EventViewChanged       EventType = "view-changed"
	EventReset             EventType = "reset"
	EventProcessingResult  EventType = "processing-result"
	EventProcessingError   EventType = "processing-error"
)

// Event is a state change the shell should render.
type Event struct {
	Type      EventType       `json:"type"`
	Path      string          `json:"path,omitempty"`
	Preview   string          `json:"preview,omitempty"`
	Duplicate bool            `json:"duplicate,omitempty"`
	View      string          `json:"view,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Events returns the channel of shell-facing events.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// emit sends an event without blocking.
func (m *Manager) emit(e Event) {
	select {
	case m.events <- e:
	default:
		m.log.Warn("event dropped", "type", e.Type)
	}
}

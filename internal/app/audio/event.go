package audio

// EventType represents a playback event type.
type EventType int

const (
	EventStarted EventType = iota // Playback of a file started
	EventStopped                  // Playback stopped
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event, emitted synchronously by the
// command executor after the corresponding state transition.
type Event struct {
	Type EventType
	Path string // File that started, or that was playing before the stop
}

// Package audio provides the command-driven audio playback engine.
package audio

// State represents the playback state.
type State int

const (
	StateStopped State = iota // Nothing playing
	StatePlaying              // File is playing
	StatePaused               // File is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

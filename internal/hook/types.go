// Package hook runs user-supplied executables when a session reaches its goal
// or stops, e.g. to announce the result or log it elsewhere.
package hook

import "encoding/json"

// Event names a session event a hook can subscribe to.
type Event string

const (
	EventGoalReached Event = "goal_reached"
	EventStopped     Event = "stopped"
)

// Manifest describes a hook's metadata and the events it wants.
type Manifest struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Executable  string  `json:"executable"`
	Events      []Event `json:"events"`
}

// Subscribes reports whether the manifest lists e.
func (m Manifest) Subscribes(e Event) bool {
	for _, ev := range m.Events {
		if ev == e {
			return true
		}
	}
	return false
}

// Request is written to the hook's stdin as JSON.
type Request struct {
	Event     Event           `json:"event"`
	SessionID string          `json:"session_id"`
	Exercise  string          `json:"exercise"`
	Stats     json.RawMessage `json:"stats"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook represents a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

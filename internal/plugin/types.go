// Package plugin runs external key-injection plugins that speak JSON over stdin and stdout.
package plugin

// ActionKey is the only action a key-injection plugin has to support.
const ActionKey = "key"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin, one per process.
type Request struct {
	Action     string `json:"action"`
	Key        string `json:"key"`        // key name, e.g. "RIGHT" or "W"
	Code       uint16 `json:"code"`       // virtual-key code
	Transition string `json:"transition"` // "down" or "up"
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Package native injects key events into the desktop session through robotgo.
package native

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/kinectkeys/internal/input"
)

// keyNames maps virtual-key codes to robotgo key names.
var keyNames = map[input.KeyCode]string{
	input.KeyBackspace: "backspace",
	input.KeyTab:       "tab",
	input.KeyEnter:     "enter",
	input.KeyShift:     "shift",
	input.KeyControl:   "ctrl",
	input.KeyAlt:       "alt",
	input.KeyEscape:    "esc",
	input.KeySpace:     "space",
	input.KeyLeft:      "left",
	input.KeyUp:        "up",
	input.KeyRight:     "right",
	input.KeyDown:      "down",
}

// KeyName returns the robotgo name for a virtual-key code.
func KeyName(key input.KeyCode) (string, error) {
	if name, ok := keyNames[key]; ok {
		return name, nil
	}
	if key.IsAlphanumeric() {
		return strings.ToLower(key.String()), nil
	}
	return "", fmt.Errorf("%w: no desktop key for %s", input.ErrUnknownKey, key)
}

// Injector sends key transitions with robotgo.KeyToggle.
type Injector struct{}

// New creates a new Injector.
func New() *Injector {
	return &Injector{}
}

// Inject toggles the key down or up.
func (i *Injector) Inject(key input.KeyCode, t input.Transition) error {
	name, err := KeyName(key)
	if err != nil {
		return err
	}

	direction := "down"
	if t == input.Release {
		direction = "up"
	}

	if err := robotgo.KeyToggle(name, direction); err != nil {
		return fmt.Errorf("toggle %s %s: %w", name, direction, err)
	}
	return nil
}

// Package input provides the key-injection interface and virtual key codes
// used to turn recognized gestures into keyboard input.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned when a key name cannot be parsed.
var ErrUnknownKey = errors.New("unknown key")

// KeyCode is a Windows virtual-key code (the wVk field of a keyboard INPUT).
// Letters and digits use their ASCII upper-case values.
type KeyCode uint16

// Virtual-key codes from MSDN.
const (
	KeyBackspace KeyCode = 0x08
	KeyTab       KeyCode = 0x09
	KeyEnter     KeyCode = 0x0D
	KeyShift     KeyCode = 0x10
	KeyControl   KeyCode = 0x11
	KeyAlt       KeyCode = 0x12
	KeyEscape    KeyCode = 0x1B
	KeySpace     KeyCode = 0x20
	KeyLeft      KeyCode = 0x25
	KeyUp        KeyCode = 0x26
	KeyRight     KeyCode = 0x27
	KeyDown      KeyCode = 0x28
	Key0         KeyCode = 0x30
	Key1         KeyCode = 0x31
	Key2         KeyCode = 0x32
	Key9         KeyCode = 0x39
	KeyA         KeyCode = 0x41
	KeyQ         KeyCode = 0x51
	KeyW         KeyCode = 0x57
	KeyZ         KeyCode = 0x5A
)

// namedKeys maps key names to codes for keys that are not a single letter or digit.
var namedKeys = map[string]KeyCode{
	"BACKSPACE": KeyBackspace,
	"TAB":       KeyTab,
	"ENTER":     KeyEnter,
	"SHIFT":     KeyShift,
	"CONTROL":   KeyControl,
	"CTRL":      KeyControl,
	"ALT":       KeyAlt,
	"ESCAPE":    KeyEscape,
	"ESC":       KeyEscape,
	"SPACE":     KeySpace,
	"LEFT":      KeyLeft,
	"UP":        KeyUp,
	"RIGHT":     KeyRight,
	"DOWN":      KeyDown,
}

// keyNames is the canonical name for each named key.
var keyNames = map[KeyCode]string{
	KeyBackspace: "BACKSPACE",
	KeyTab:       "TAB",
	KeyEnter:     "ENTER",
	KeyShift:     "SHIFT",
	KeyControl:   "CONTROL",
	KeyAlt:       "ALT",
	KeyEscape:    "ESCAPE",
	KeySpace:     "SPACE",
	KeyLeft:      "LEFT",
	KeyUp:        "UP",
	KeyRight:     "RIGHT",
	KeyDown:      "DOWN",
}

// IsAlphanumeric reports whether k is a letter or digit key.
func (k KeyCode) IsAlphanumeric() bool {
	return (k >= Key0 && k <= Key9) || (k >= KeyA && k <= KeyZ)
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k.IsAlphanumeric() {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%02X", uint16(k))
}

// ParseKey parses a key name such as "RIGHT", "w", "1" or "0x27".
func ParseKey(name string) (KeyCode, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if code, ok := namedKeys[upper]; ok {
		return code, nil
	}
	if len(upper) == 1 {
		k := KeyCode(upper[0])
		if k.IsAlphanumeric() {
			return k, nil
		}
	}
	if strings.HasPrefix(upper, "0X") {
		v, err := strconv.ParseUint(upper[2:], 16, 16)
		if err == nil && v > 0 {
			return KeyCode(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// ParseKeys parses a list of key names.
func ParseKeys(names []string) ([]KeyCode, error) {
	keys := make([]KeyCode, 0, len(names))
	for _, n := range names {
		k, err := ParseKey(n)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// KeyNames formats a list of keys as their names.
func KeyNames(keys []KeyCode) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

// MarshalText implements encoding.TextMarshaler.
func (k KeyCode) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *KeyCode) UnmarshalText(text []byte) error {
	code, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = code
	return nil
}

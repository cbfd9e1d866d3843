// Package main provides a keyboard plugin for macOS.
// It turns key transitions into System Events calls via AppleScript.
//
// System Events can only hold modifier keys down. Every other key is tapped
// on its "down" transition and its "up" transition is acknowledged without
// doing anything.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string `json:"action"`
	Key        string `json:"key"`
	Code       uint16 `json:"code"`
	Transition string `json:"transition"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// modifiers maps virtual-key names to AppleScript modifier names.
var modifiers = map[string]string{
	"SHIFT":   "shift",
	"CONTROL": "control",
	"ALT":     "option",
}

// keyCodes maps virtual-key names to macOS virtual key codes.
var keyCodes = map[string]int{
	"BACKSPACE": 51,
	"TAB":       48,
	"ENTER":     36,
	"ESCAPE":    53,
	"SPACE":     49,
	"LEFT":      123,
	"RIGHT":     124,
	"DOWN":      125,
	"UP":        126,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	if req.Action != "key" {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	script, err := buildScript(req.Key, req.Transition)
	if err != nil {
		writeResponse(err)
		return
	}
	if script == "" {
		writeResponse(nil)
		return
	}

	writeResponse(runAppleScript(script))
}

// buildScript returns the AppleScript for one transition, or "" when the
// transition needs no action.
func buildScript(key, transition string) (string, error) {
	if transition != "down" && transition != "up" {
		return "", fmt.Errorf("unknown transition: %q", transition)
	}

	name := strings.ToUpper(key)
	if mod, ok := modifiers[name]; ok {
		return fmt.Sprintf(`tell application "System Events" to key %s %s`, transition, mod), nil
	}

	if transition == "up" {
		return "", nil
	}

	if code, ok := keyCodes[name]; ok {
		return fmt.Sprintf(`tell application "System Events" to key code %d`, code), nil
	}
	if len(name) == 1 && strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, strings.ToLower(name)), nil
	}

	return "", fmt.Errorf("unsupported key: %q", key)
}

// writeResponse writes a success response, or an error response when err is set.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

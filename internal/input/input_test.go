package input

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		want    KeyCode
		wantErr bool
	}{
		{name: "RIGHT", want: KeyRight},
		{name: "left", want: KeyLeft},
		{name: " up ", want: KeyUp},
		{name: "1", want: Key1},
		{name: "w", want: KeyW},
		{name: "Q", want: KeyQ},
		{name: "esc", want: KeyEscape},
		{name: "0x27", want: KeyRight},
		{name: "0x00", wantErr: true},
		{name: "F13", wantErr: true},
		{name: "", wantErr: true},
		{name: "!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKey) {
					t.Errorf("ParseKey(%q) expected ErrUnknownKey, got %v", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestKeyCode_String(t *testing.T) {
	if KeyRight.String() != "RIGHT" {
		t.Errorf("expected RIGHT, got %s", KeyRight)
	}
	if KeyW.String() != "W" {
		t.Errorf("expected W, got %s", KeyW)
	}
	if KeyCode(0xB3).String() != "0xB3" {
		t.Errorf("expected 0xB3, got %s", KeyCode(0xB3))
	}

	// Unnamed codes survive a round trip through their name
	k, err := ParseKey(KeyCode(0xB3).String())
	if err != nil || k != 0xB3 {
		t.Errorf("expected 0xB3 round trip, got %v (%v)", k, err)
	}
}

func TestKeyCode_JSONIsNames(t *testing.T) {
	data, err := json.Marshal([]KeyCode{KeyDown, KeyRight, Key1})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["DOWN","RIGHT","1"]` {
		t.Errorf("unexpected JSON %s", data)
	}

	var keys []KeyCode
	if err := json.Unmarshal([]byte(`["w","q"]`), &keys); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != KeyW || keys[1] != KeyQ {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestTap(t *testing.T) {
	rec := NewRecorder()
	var slept []time.Duration

	if err := Tap(rec, KeyRight, 30*time.Millisecond, func(d time.Duration) { slept = append(slept, d) }); err != nil {
		t.Fatalf("Tap() error = %v", err)
	}

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Transition != Press || events[1].Transition != Release {
		t.Errorf("expected press then release, got %v", events)
	}
	if len(slept) != 1 || slept[0] != 30*time.Millisecond {
		t.Errorf("expected one 30ms hold, got %v", slept)
	}
}

func TestTap_ReleasesAfterFailedPress(t *testing.T) {
	rec := NewRecorder()
	rec.SetError(errors.New("injection failed"))

	if err := Tap(rec, KeyUp, 0, nil); err == nil {
		t.Error("expected error from failed injection")
	}
	if rec.Count(KeyUp, Release) != 1 {
		t.Error("expected release to be attempted")
	}
}

func TestRecorder_Outstanding(t *testing.T) {
	rec := NewRecorder()
	rec.Inject(KeyLeft, Press)
	rec.Inject(KeyRight, Press)
	rec.Inject(KeyLeft, Release)

	down := rec.Outstanding()
	if len(down) != 1 || down[0] != KeyRight {
		t.Errorf("expected only RIGHT outstanding, got %v", down)
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("expected no events after reset")
	}
}

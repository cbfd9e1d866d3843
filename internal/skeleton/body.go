package skeleton

import (
	"fmt"
	"strings"
	"time"
)

// MaxBodies is the number of body slots a sensor reports per frame.
const MaxBodies = 6

// TrackingState describes how completely a body is being tracked.
type TrackingState int

const (
	// NotTracked means the body slot is empty.
	NotTracked TrackingState = iota
	// PositionOnly means only the body's overall position is known.
	PositionOnly
	// Tracked means every joint position is available.
	Tracked
)

func (s TrackingState) String() string {
	switch s {
	case NotTracked:
		return "not_tracked"
	case PositionOnly:
		return "position_only"
	case Tracked:
		return "tracked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s TrackingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TrackingState) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "not_tracked", "":
		*s = NotTracked
	case "position_only":
		*s = PositionOnly
	case "tracked":
		*s = Tracked
	default:
		return fmt.Errorf("unknown tracking state %q", string(text))
	}
	return nil
}

// Body is one body slot in a skeleton frame.
type Body struct {
	TrackingID int           `json:"tracking_id"`
	State      TrackingState `json:"state"`
	Joints     Snapshot      `json:"joints"`
}

// IsTracked reports whether the body's joints can be used for classification.
func (b *Body) IsTracked() bool {
	return b.State == Tracked
}

// Frame is a single skeleton frame delivered by a sensor.
type Frame struct {
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Bodies    []Body    `json:"bodies"`
}

// TrackedBodies returns the bodies in the frame that are fully tracked, in frame order.
func (f *Frame) TrackedBodies() []Body {
	if f == nil {
		return nil
	}
	var tracked []Body
	for i := range f.Bodies {
		if f.Bodies[i].IsTracked() {
			tracked = append(tracked, f.Bodies[i])
		}
	}
	return tracked
}

// ColorFrame is a single RGB frame in BGRA byte order.
type ColorFrame struct {
	Width     int
	Height    int
	Pitch     int // bytes per row, 0 means the frame carries no data
	Pixels    []byte
	Timestamp time.Time
}

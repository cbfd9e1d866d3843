package skeleton

import "errors"

// ErrNoSensor is returned by Open when no ready sensor could be found.
var ErrNoSensor = errors.New("no ready sensor found")

// ErrNoFrame is returned when no new frame is available yet.
var ErrNoFrame = errors.New("no frame available")

// ErrSensorClosed is returned when reading from a sensor that is not open.
var ErrSensorClosed = errors.New("sensor is not open")

// Capability selects the streams a sensor is opened with.
type Capability uint8

const (
	CapSkeleton Capability = 1 << iota
	CapDepth
	CapColor
)

// Has reports whether c includes every bit of other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Sensor defines the interface for skeleton sensor implementations.
type Sensor interface {
	// Open discovers and initializes a sensor with the requested streams.
	// Returns an error wrapping ErrNoSensor if none is ready.
	Open(caps Capability) error

	// FrameReady is signalled whenever a new frame can be fetched. Signals
	// coalesce, so a slow reader only ever sees the latest frame. The channel
	// is closed when the sensor will produce no further frames.
	FrameReady() <-chan struct{}

	// NextSkeletonFrame returns the latest skeleton frame without blocking.
	// Returns ErrNoFrame if nothing new is available.
	NextSkeletonFrame() (*Frame, error)

	// NextColorFrame returns the latest color frame without blocking.
	// Returns ErrNoFrame if nothing new is available.
	NextColorFrame() (*ColorFrame, error)

	// Close releases any resources held by the sensor.
	Close() error
}

// signal performs a non-blocking send on a capacity-1 channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

package skeleton

import (
	"sync"
	"time"
)

// MockSensor is a test implementation of the Sensor interface.
// Frames are pushed by the test and served one at a time.
type MockSensor struct {
	mu       sync.Mutex
	ready    chan struct{}
	frame    *Frame
	color    *ColorFrame
	openErr  error
	frameErr error
	running  bool
	closed   bool
	caps     Capability
	seq      int64
}

// NewMockSensor creates a new MockSensor instance.
func NewMockSensor() *MockSensor {
	return &MockSensor{
		ready: make(chan struct{}, 1),
	}
}

// SetOpenError sets the error that will be returned by Open.
func (m *MockSensor) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// SetFrameError sets the error that will be returned by NextSkeletonFrame.
func (m *MockSensor) SetFrameError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameErr = err
}

// Open records the requested capabilities. Reopening a closed sensor gives it
// a new frame signal channel.
func (m *MockSensor) Open(caps Capability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	if m.closed {
		m.ready = make(chan struct{}, 1)
		m.closed = false
		m.frame = nil
		m.color = nil
	}
	m.caps = caps
	m.running = true
	return nil
}

// Capabilities returns the capabilities passed to Open.
func (m *MockSensor) Capabilities() Capability {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.caps
}

// Push replaces the pending skeleton frame and signals that it is ready.
// An unread pending frame is dropped, like a real sensor would.
func (m *MockSensor) Push(bodies ...Body) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.seq++
	m.frame = &Frame{
		Sequence:  m.seq,
		Timestamp: time.Now(),
		Bodies:    bodies,
	}
	signal(m.ready)
}

// PushColor replaces the pending color frame and signals that it is ready.
func (m *MockSensor) PushColor(frame *ColorFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.color = frame
	signal(m.ready)
}

// FrameReady returns the frame signal channel.
func (m *MockSensor) FrameReady() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// NextSkeletonFrame returns the pending frame, or ErrNoFrame.
func (m *MockSensor) NextSkeletonFrame() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil, ErrSensorClosed
	}
	if m.frameErr != nil {
		return nil, m.frameErr
	}
	if m.frame == nil {
		return nil, ErrNoFrame
	}

	frame := m.frame
	m.frame = nil
	return frame, nil
}

// NextColorFrame returns the pending color frame, or ErrNoFrame.
func (m *MockSensor) NextColorFrame() (*ColorFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil, ErrSensorClosed
	}
	if m.color == nil {
		return nil, ErrNoFrame
	}

	frame := m.color
	m.color = nil
	return frame, nil
}

// Close stops the sensor and closes the frame signal channel.
func (m *MockSensor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	if !m.closed {
		m.closed = true
		close(m.ready)
	}
	return nil
}

// IsOpen returns true if the sensor is currently open.
func (m *MockSensor) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

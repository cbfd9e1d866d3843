package skeleton

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFPS is the Kinect v1 skeleton stream rate.
const DefaultFPS = 30

// RecordedFrame is one frame of a recording.
type RecordedFrame struct {
	Bodies []Body `json:"bodies"`
}

// Recording is a sequence of skeleton frames captured at a fixed rate.
type Recording struct {
	FPS    int             `json:"fps"`
	Frames []RecordedFrame `json:"frames"`
}

// LoadRecording reads and parses a JSON recording file.
func LoadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return ParseRecording(data)
}

// ParseRecording parses a JSON recording.
func ParseRecording(data []byte) (*Recording, error) {
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}
	if rec.FPS <= 0 {
		rec.FPS = DefaultFPS
	}
	return &rec, nil
}

// SaveRecording writes a recording as indented JSON.
func SaveRecording(path string, rec *Recording) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}

// ReplaySensor plays back a Recording at its frame rate.
type ReplaySensor struct {
	rec  *Recording
	loop bool

	mu      sync.Mutex
	ready   chan struct{}
	current *Frame
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	ended   bool // ready has been closed

	produced uint64
	dropped  uint64
}

// NewReplaySensor creates a sensor that replays rec. When loop is true playback
// restarts from the first frame, otherwise the sensor ends after the last frame.
func NewReplaySensor(rec *Recording, loop bool) *ReplaySensor {
	return &ReplaySensor{
		rec:   rec,
		loop:  loop,
		ready: make(chan struct{}, 1),
	}
}

// Open starts playback. An empty recording counts as no sensor.
func (r *ReplaySensor) Open(caps Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if r.rec == nil || len(r.rec.Frames) == 0 {
		return fmt.Errorf("replay: empty recording: %w", ErrNoSensor)
	}

	if r.ended {
		r.ready = make(chan struct{}, 1)
		r.ended = false
	}
	r.running = true
	r.current = nil
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.ready, r.stopCh, r.done)

	return nil
}

func (r *ReplaySensor) run(ready, stopCh, done chan struct{}) {
	defer close(done)

	fps := r.rec.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var seq int64
	index := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if index >= len(r.rec.Frames) {
				if !r.loop {
					r.finish(ready)
					return
				}
				index = 0
			}

			seq++
			frame := &Frame{
				Sequence:  seq,
				Timestamp: time.Now(),
				Bodies:    r.rec.Frames[index].Bodies,
			}
			index++

			r.mu.Lock()
			if r.current != nil {
				atomic.AddUint64(&r.dropped, 1)
			}
			r.current = frame
			r.mu.Unlock()

			atomic.AddUint64(&r.produced, 1)
			signal(ready)
		}
	}
}

// finish closes ready unless Open has already replaced it or it is closed.
func (r *ReplaySensor) finish(ready chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended || r.ready != ready {
		return
	}
	r.ended = true
	close(ready)
}

// FrameReady returns the frame signal channel of the current playback.
// Reopening after the channel was closed creates a new one.
func (r *ReplaySensor) FrameReady() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// NextSkeletonFrame returns the most recent unread frame.
func (r *ReplaySensor) NextSkeletonFrame() (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		if !r.running {
			return nil, ErrSensorClosed
		}
		return nil, ErrNoFrame
	}

	frame := r.current
	r.current = nil
	return frame, nil
}

// NextColorFrame always returns ErrNoFrame; recordings carry skeleton data only.
func (r *ReplaySensor) NextColorFrame() (*ColorFrame, error) {
	return nil, ErrNoFrame
}

// Close stops playback.
func (r *ReplaySensor) Close() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done, ready := r.done, r.ready
	r.mu.Unlock()

	<-done
	r.finish(ready)
	return nil
}

// Stats returns how many frames were produced and how many were overwritten unread.
func (r *ReplaySensor) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped)
}

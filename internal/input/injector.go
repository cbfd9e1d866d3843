package input

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Transition is the direction of a key event.
type Transition int

const (
	// Press pushes a key down.
	Press Transition = iota
	// Release lets a key back up.
	Release
)

func (t Transition) String() string {
	if t == Press {
		return "down"
	}
	return "up"
}

// KeyEvent is a single injected key transition.
type KeyEvent struct {
	Key        KeyCode
	Transition Transition
	Time       time.Time
}

func (e KeyEvent) String() string {
	return fmt.Sprintf("%s %s", e.Key, e.Transition)
}

// Injector defines the interface for synthetic keyboard input implementations.
type Injector interface {
	// Inject sends a single key transition to the operating system.
	Inject(key KeyCode, t Transition) error
}

// Sleeper pauses between key transitions. Tests substitute a no-op.
type Sleeper func(time.Duration)

// Tap presses key, waits hold, and releases it. The release is attempted even
// when the press fails so no key is left down.
func Tap(inj Injector, key KeyCode, hold time.Duration, sleep Sleeper) error {
	pressErr := inj.Inject(key, Press)
	if hold > 0 && sleep != nil {
		sleep(hold)
	}
	if err := inj.Inject(key, Release); err != nil {
		return err
	}
	return pressErr
}

// LogInjector writes every key transition to the standard logger instead of
// sending it anywhere.
type LogInjector struct{}

// Inject logs the transition.
func (LogInjector) Inject(key KeyCode, t Transition) error {
	log.Printf("Key %s %s", key, t)
	return nil
}

// Recorder is an Injector that records every transition it receives.
type Recorder struct {
	mu     sync.Mutex
	events []KeyEvent
	err    error
}

// NewRecorder creates a new Recorder instance.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError sets the error that will be returned by Inject. Events are still recorded.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Inject records the transition.
func (r *Recorder) Inject(key KeyCode, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, KeyEvent{Key: key, Transition: t, Time: time.Now()})
	return r.err
}

// Events returns a copy of all recorded events in order.
func (r *Recorder) Events() []KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]KeyEvent, len(r.events))
	copy(events, r.events)
	return events
}

// Count returns how many transitions of t were recorded for key.
func (r *Recorder) Count(key KeyCode, t Transition) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Key == key && e.Transition == t {
			n++
		}
	}
	return n
}

// Outstanding returns the keys that have been pressed more often than released.
func (r *Recorder) Outstanding() []KeyCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance := make(map[KeyCode]int)
	var order []KeyCode
	for _, e := range r.events {
		if _, seen := balance[e.Key]; !seen {
			order = append(order, e.Key)
		}
		if e.Transition == Press {
			balance[e.Key]++
		} else {
			balance[e.Key]--
		}
	}

	var down []KeyCode
	for _, k := range order {
		if balance[k] > 0 {
			down = append(down, k)
		}
	}
	return down
}

// Reset clears all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

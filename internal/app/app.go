// Package app runs the kinectkeys control loop: it waits on the sensor, classifies
// tracked bodies and fans fired gestures out to the log, the store and listeners.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/kinectkeys/internal/capture"
	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/skeleton"
	"github.com/ayusman/kinectkeys/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Sensor     skeleton.Sensor
	Injector   input.Injector
	Store      *store.Store // optional
	Thresholds gesture.Thresholds
	// Bindings are the configured defaults; store overrides are applied on top.
	// Nil means gesture.DefaultBindings.
	Bindings gesture.Bindings
	Timing   gesture.Timing
	// Color copies sensor color frames into the ColorBuffer.
	Color bool
	// Sleeper replaces time.Sleep for combo taps.
	Sleeper input.Sleeper
}

// GestureEvent is a gesture that emitted keys for one body.
type GestureEvent struct {
	Gesture gesture.Gesture
	Kind    gesture.Kind
	Keys    []input.KeyCode
	BodyID  int
	Time    time.Time
}

// Status is a snapshot of the control loop state.
type Status struct {
	Running     bool     `json:"running"`
	Enabled     bool     `json:"enabled"`
	Held        []string `json:"held"`
	LastGesture string   `json:"last_gesture,omitempty"`
	Frames      uint64   `json:"frames"`
	Fired       uint64   `json:"fired"`
	Bodies      int      `json:"bodies"` // tracked in the latest frame
}

// App owns the sensor, the classifier and everything that listens to them.
type App struct {
	config     Config
	classifier *gesture.Classifier
	color      *capture.ColorBuffer

	// procMu serializes frame processing with enable, reload and shutdown so
	// none of them lands in the middle of a frame.
	procMu sync.Mutex

	mu          sync.RWMutex
	enabled     bool
	stopCh      chan struct{}
	done        chan struct{}
	callbacks   []func(GestureEvent)
	subscribers map[chan skeleton.Frame]struct{}
	lastGesture string
	frames      uint64
	fired       uint64
	bodies      int
}

// New creates a new App. Detection starts enabled unless the store says otherwise.
func New(config Config) *App {
	if config.Injector == nil {
		config.Injector = input.LogInjector{}
	}
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.Bindings == nil {
		config.Bindings = gesture.DefaultBindings()
	}
	if config.Timing == (gesture.Timing{}) {
		config.Timing = gesture.DefaultTiming()
	}

	opts := []gesture.Option{gesture.WithTiming(config.Timing)}
	if config.Sleeper != nil {
		opts = append(opts, gesture.WithSleeper(config.Sleeper))
	}

	a := &App{
		config:      config,
		classifier:  gesture.NewClassifier(gesture.DefaultRules(config.Thresholds, config.Bindings), config.Injector, opts...),
		color:       capture.NewColorBuffer(capture.DefaultWidth, capture.DefaultHeight),
		enabled:     true,
		subscribers: make(map[chan skeleton.Frame]struct{}),
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingEnabled, true)
		if err := a.ReloadBindings(); err != nil {
			log.Printf("Failed to load binding overrides: %v", err)
		}
	}

	return a
}

// SetEnabled enables or disables gesture detection. Disabling releases every held key.
func (a *App) SetEnabled(enabled bool) {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if !enabled {
		if released := a.classifier.ReleaseAll(); len(released) > 0 {
			log.Printf("Detection disabled, released %v", released)
		}
	}

	if changed {
		log.Printf("Detection enabled: %v", enabled)
		if a.config.Store != nil {
			if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
				log.Printf("Failed to save enabled setting: %v", err)
			}
		}
	}
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Bindings returns the configured bindings with store overrides applied.
func (a *App) Bindings() (gesture.Bindings, error) {
	b := a.config.Bindings.Clone()
	if a.config.Store == nil {
		return b, nil
	}

	overrides, err := a.config.Store.Bindings().List()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		g := gesture.Gesture(o.Gesture)
		if !gesture.IsKnown(g) {
			log.Printf("Ignoring override for unknown gesture %q", o.Gesture)
			continue
		}
		if !o.Enabled || len(o.Keys) == 0 {
			delete(b, g)
			continue
		}
		b[g] = o.Keys
	}
	return b, nil
}

// ReloadBindings rebuilds the rule table from the current bindings. Held keys
// are released before the new table takes effect.
func (a *App) ReloadBindings() error {
	b, err := a.Bindings()
	if err != nil {
		return fmt.Errorf("load bindings: %w", err)
	}

	a.procMu.Lock()
	defer a.procMu.Unlock()
	a.classifier.SetRules(gesture.DefaultRules(a.config.Thresholds, b))

	log.Printf("Loaded %d gesture bindings", len(b))
	return nil
}

// RegisterGestureCallback adds fn to the listeners called for every fired gesture.
// Callbacks run on the control loop goroutine and must not block.
func (a *App) RegisterGestureCallback(fn func(GestureEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// SubscribeSkeleton returns a channel receiving every frame's tracked bodies.
// Slow subscribers miss frames. The returned function unsubscribes.
func (a *App) SubscribeSkeleton() (<-chan skeleton.Frame, func()) {
	ch := make(chan skeleton.Frame, 1)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subscribers, ch)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// Start opens the sensor and launches the control loop. Any failure to open
// the sensor is reported as skeleton.ErrNoSensor.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.config.Sensor == nil {
		return skeleton.ErrNoSensor
	}

	caps := skeleton.CapSkeleton | skeleton.CapDepth
	if a.config.Color {
		caps |= skeleton.CapColor
	}
	if err := a.config.Sensor.Open(caps); err != nil {
		if !errors.Is(err, skeleton.ErrNoSensor) {
			err = fmt.Errorf("%w: %v", skeleton.ErrNoSensor, err)
		}
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runLoop(a.stopCh, a.done)

	log.Println("Control loop started")
	return nil
}

// Stop ends the control loop, releases every held key and closes the sensor.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	a.procMu.Lock()
	if released := a.classifier.ReleaseAll(); len(released) > 0 {
		log.Printf("Released %v on shutdown", released)
	}
	a.procMu.Unlock()

	if err := a.config.Sensor.Close(); err != nil {
		log.Printf("Error closing sensor: %v", err)
	}

	log.Println("Control loop stopped")
}

// Done returns a channel closed when the control loop exits, either after
// Stop or when the sensor's frame stream ends. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// IsRunning reports whether the control loop is running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return a.stopCh != nil
	}
}

// Status returns a snapshot of the loop state.
func (a *App) Status() Status {
	held := a.classifier.Held()
	names := make([]string, len(held))
	for i, s := range held {
		names[i] = s.String()
	}

	running := a.IsRunning()

	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		Running:     running,
		Enabled:     a.enabled,
		Held:        names,
		LastGesture: a.lastGesture,
		Frames:      a.frames,
		Fired:       a.fired,
		Bodies:      a.bodies,
	}
}

// Classifier returns the gesture classifier.
func (a *App) Classifier() *gesture.Classifier {
	return a.classifier
}

// ColorBuffer returns the buffer holding the latest color frame.
func (a *App) ColorBuffer() *capture.ColorBuffer {
	return a.color
}

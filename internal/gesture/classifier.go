// Package gesture turns tracked skeleton snapshots into key presses.
package gesture

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// Timing controls how keys are tapped for combos.
type Timing struct {
	Press time.Duration // time a tapped key is held down
	Gap   time.Duration // pause between taps in a combo
}

// DefaultTiming returns 30ms press and gap durations.
func DefaultTiming() Timing {
	return Timing{Press: 30 * time.Millisecond, Gap: 30 * time.Millisecond}
}

// Detection is a gesture that emitted keys during an evaluation.
type Detection struct {
	Gesture Gesture
	Kind    Kind
	Slot    Slot // hold detections only
	Keys    []input.KeyCode
}

// Result describes what a single evaluation did.
type Result struct {
	Fired    []Detection // key-downs issued and combos tapped
	Active   []Gesture   // gestures whose predicate won, including holds already down
	Released []Slot      // slots whose keys went up
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTiming sets the combo timing.
func WithTiming(t Timing) Option {
	return func(c *Classifier) {
		c.timing = t
	}
}

// WithSleeper replaces time.Sleep for combo pauses.
func WithSleeper(s input.Sleeper) Option {
	return func(c *Classifier) {
		c.sleep = s
	}
}

// Classifier evaluates the rule table against each tracked body and keeps
// the hold state consistent with the keys that are down.
type Classifier struct {
	mu       sync.Mutex
	rules    []Rule
	state    *HoldState
	injector input.Injector
	timing   Timing
	sleep    input.Sleeper
}

// NewClassifier creates a Classifier over rules that sends keys to inj.
// Rules that fail validation are dropped with a log line.
func NewClassifier(rules []Rule, inj input.Injector, opts ...Option) *Classifier {
	c := &Classifier{
		rules:    validRules(rules),
		state:    NewHoldState(),
		injector: inj,
		timing:   DefaultTiming(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func validRules(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			log.Printf("Skipping rule: %v", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Classify evaluates one body. Bodies that are not fully tracked are ignored
// and leave the hold state untouched.
func (c *Classifier) Classify(body *skeleton.Body) Result {
	if body == nil || !body.IsTracked() {
		return Result{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &body.Joints
	c.state.beginFrame()

	var res Result
	won := make(map[Group]bool)
	for _, r := range c.rules {
		if r.Group != GroupNone && won[r.Group] {
			continue
		}
		if !r.When(snap) {
			continue
		}
		if r.Group != GroupNone {
			won[r.Group] = true
		}
		res.Active = append(res.Active, r.Gesture)

		switch r.Kind {
		case KindHold:
			if c.press(r) {
				res.Fired = append(res.Fired, Detection{Gesture: r.Gesture, Kind: KindHold, Slot: r.Slot, Keys: r.Keys})
			}
		case KindCombo:
			c.combo(r)
			res.Fired = append(res.Fired, Detection{Gesture: r.Gesture, Kind: KindCombo, Keys: r.Keys})
		}
	}

	for _, s := range c.state.stale() {
		c.release(s)
		res.Released = append(res.Released, s)
	}
	return res
}

// press issues the key-down for a hold rule unless its slot is already down.
func (c *Classifier) press(r Rule) bool {
	needsPress, ok := c.state.activate(r.Slot)
	if !ok || !needsPress {
		return false
	}

	log.Printf("Gesture %s: key down %v", r.Gesture, r.Keys)
	pressed := make([]input.KeyCode, 0, len(r.Keys))
	for _, k := range r.Keys {
		if err := c.injector.Inject(k, input.Press); err != nil {
			log.Printf("Failed to press %s: %v", k, err)
		}
		// Recorded even on failure so the release is always attempted.
		pressed = append(pressed, k)
	}
	c.state.pressed(r.Slot, pressed)
	return true
}

// combo taps every key of r in order.
func (c *Classifier) combo(r Rule) {
	log.Printf("Gesture %s: combo %v", r.Gesture, r.Keys)
	for i, k := range r.Keys {
		if err := input.Tap(c.injector, k, c.timing.Press, c.sleep); err != nil {
			log.Printf("Failed to tap %s: %v", k, err)
		}
		if i < len(r.Keys)-1 && c.timing.Gap > 0 {
			c.sleep(c.timing.Gap)
		}
	}
}

func (c *Classifier) release(s Slot) {
	for _, k := range c.state.release(s) {
		if err := c.injector.Inject(k, input.Release); err != nil {
			log.Printf("Failed to release %s: %v", k, err)
		}
	}
}

// Held returns the slots whose keys are currently down.
func (c *Classifier) Held() []Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Held()
}

// ReleaseAll releases every held slot and returns the slots released.
func (c *Classifier) ReleaseAll() []Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseAllLocked()
}

func (c *Classifier) releaseAllLocked() []Slot {
	held := c.state.Held()
	for _, s := range held {
		c.release(s)
	}
	return held
}

// SetRules replaces the rule table. Held keys are released first so no key
// stays down under a binding that no longer exists.
func (c *Classifier) SetRules(rules []Rule) {
	valid := validRules(rules)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseAllLocked()
	c.rules = valid
}

// Rules returns a copy of the current rule table.
func (c *Classifier) Rules() []Rule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Rule(nil), c.rules...)
}

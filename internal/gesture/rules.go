package gesture

import (
	"fmt"

	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// Gesture is the stable name of a recognized pose.
type Gesture string

const (
	RightArmExtended Gesture = "right_arm_extended"
	LeftArmExtended  Gesture = "left_arm_extended"
	Uppercut         Gesture = "uppercut"
	ArmRaised        Gesture = "arm_raised"
	Hadouken         Gesture = "hadouken"
	RightHandForward Gesture = "right_hand_forward"
	LeftHandForward  Gesture = "left_hand_forward"
	LeftFootForward  Gesture = "left_foot_forward"
	RightFootForward Gesture = "right_foot_forward"
)

// Gestures returns every built-in gesture in evaluation order.
func Gestures() []Gesture {
	return []Gesture{
		RightArmExtended,
		LeftArmExtended,
		Uppercut,
		ArmRaised,
		Hadouken,
		RightHandForward,
		LeftHandForward,
		LeftFootForward,
		RightFootForward,
	}
}

// IsKnown reports whether g is a built-in gesture.
func IsKnown(g Gesture) bool {
	for _, known := range Gestures() {
		if g == known {
			return true
		}
	}
	return false
}

// Kind selects how a rule's keys are emitted.
type Kind string

const (
	// KindHold presses the keys once when the pose starts and releases them when it ends.
	KindHold Kind = "hold"
	// KindCombo taps the keys in sequence each time the pose is evaluated.
	KindCombo Kind = "combo"
)

// KindOf returns how a built-in gesture emits its keys.
func KindOf(g Gesture) Kind {
	if g == Uppercut || g == Hadouken {
		return KindCombo
	}
	return KindHold
}

// Group ties rules into an else-chain: within a group only the first rule
// whose predicate holds is acted on. GroupNone rules are always evaluated.
type Group int

const (
	GroupNone Group = iota
	GroupHorizontal
	GroupVertical
	GroupDepth
)

// Rule binds a predicate to the keys it emits.
type Rule struct {
	Gesture Gesture
	Group   Group
	When    Predicate
	Kind    Kind
	Slot    Slot // hold rules only
	Keys    []input.KeyCode
}

// Validate checks that the rule can be evaluated.
func (r Rule) Validate() error {
	if r.Gesture == "" {
		return fmt.Errorf("rule has no gesture name")
	}
	if r.When == nil {
		return fmt.Errorf("rule %s has no predicate", r.Gesture)
	}
	switch r.Kind {
	case KindHold:
		if r.Slot < 0 || r.Slot >= NumSlots {
			return fmt.Errorf("rule %s: unknown slot %d", r.Gesture, int(r.Slot))
		}
	case KindCombo:
	default:
		return fmt.Errorf("rule %s: unknown kind %q", r.Gesture, r.Kind)
	}
	return nil
}

// ValidateRules validates every rule in order.
func ValidateRules(rules []Rule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Bindings maps gestures to the keys they emit.
type Bindings map[Gesture][]input.KeyCode

// DefaultBindings returns the stock key bindings.
func DefaultBindings() Bindings {
	return Bindings{
		RightArmExtended: {input.KeyRight},
		LeftArmExtended:  {input.KeyLeft},
		Uppercut:         {input.KeyRight, input.KeyDown, input.KeyRight, input.Key1},
		ArmRaised:        {input.KeyUp},
		Hadouken:         {input.KeyDown, input.KeyRight, input.Key1},
		RightHandForward: {input.Key1},
		LeftHandForward:  {input.Key2},
		LeftFootForward:  {input.KeyW},
		RightFootForward: {input.KeyQ},
	}
}

// Clone returns a deep copy of b.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for g, keys := range b {
		out[g] = append([]input.KeyCode(nil), keys...)
	}
	return out
}

// DefaultRules builds the stock rule table from thresholds and bindings. A nil
// bindings map means DefaultBindings; gestures missing from a non-nil map are
// left out of the table.
func DefaultRules(th Thresholds, b Bindings) []Rule {
	if b == nil {
		b = DefaultBindings()
	}

	near := func(a skeleton.Axis) Predicate {
		return Near(skeleton.HandLeft, skeleton.HandRight, a, th.Proximity)
	}
	rightRaised := Above(skeleton.HandRight, skeleton.AxisY, th.ArmRaise)
	leftRaised := Above(skeleton.HandLeft, skeleton.AxisY, th.ArmRaise)

	table := []Rule{
		{
			Gesture: RightArmExtended,
			Group:   GroupHorizontal,
			Kind:    KindHold,
			Slot:    SlotRightArm,
			When:    Above(skeleton.HandRight, skeleton.AxisX, th.ArmExtend),
		},
		{
			Gesture: LeftArmExtended,
			Group:   GroupHorizontal,
			Kind:    KindHold,
			Slot:    SlotLeftArm,
			When:    Below(skeleton.HandLeft, skeleton.AxisX, -th.ArmExtend),
		},
		{
			Gesture: Uppercut,
			Group:   GroupVertical,
			Kind:    KindCombo,
			When:    All(rightRaised, leftRaised, near(skeleton.AxisX), near(skeleton.AxisY)),
		},
		{
			Gesture: ArmRaised,
			Group:   GroupVertical,
			Kind:    KindHold,
			Slot:    SlotArmRaised,
			When:    Any(rightRaised, leftRaised),
		},
		{
			Gesture: Hadouken,
			Group:   GroupDepth,
			Kind:    KindCombo,
			When: All(
				Below(skeleton.HandLeft, skeleton.AxisZ, -th.HandForward),
				near(skeleton.AxisX),
				near(skeleton.AxisY),
				near(skeleton.AxisZ),
			),
		},
		{
			Gesture: RightHandForward,
			Group:   GroupDepth,
			Kind:    KindHold,
			Slot:    SlotRightHand,
			When:    Below(skeleton.HandRight, skeleton.AxisZ, -th.HandForward),
		},
		{
			Gesture: LeftHandForward,
			Group:   GroupDepth,
			Kind:    KindHold,
			Slot:    SlotLeftHand,
			When:    Below(skeleton.HandLeft, skeleton.AxisZ, -th.HandForward),
		},
		{
			Gesture: LeftFootForward,
			Group:   GroupDepth,
			Kind:    KindHold,
			Slot:    SlotLeftFoot,
			When:    Below(skeleton.FootLeft, skeleton.AxisZ, -th.FootForward),
		},
		{
			Gesture: RightFootForward,
			Group:   GroupDepth,
			Kind:    KindHold,
			Slot:    SlotRightFoot,
			When:    Below(skeleton.FootRight, skeleton.AxisZ, -th.FootForward),
		},
	}

	rules := make([]Rule, 0, len(table))
	for _, r := range table {
		keys, ok := b[r.Gesture]
		if !ok {
			continue
		}
		r.Keys = append([]input.KeyCode(nil), keys...)
		rules = append(rules, r)
	}
	return rules
}

package gesture

import (
	"math"

	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// Predicate is a pure test over one snapshot.
type Predicate func(s *skeleton.Snapshot) bool

// Above holds when joint j's coordinate on axis a exceeds the spine's by more than threshold.
func Above(j skeleton.Joint, a skeleton.Axis, threshold float64) Predicate {
	return func(s *skeleton.Snapshot) bool {
		return s.Offset(j, a) > threshold
	}
}

// Below holds when joint j's coordinate on axis a minus the spine's is less than threshold.
func Below(j skeleton.Joint, a skeleton.Axis, threshold float64) Predicate {
	return func(s *skeleton.Snapshot) bool {
		return s.Offset(j, a) < threshold
	}
}

// Near holds when joints j and k are closer than tolerance on axis a.
func Near(j, k skeleton.Joint, a skeleton.Axis, tolerance float64) Predicate {
	return func(s *skeleton.Snapshot) bool {
		return math.Abs(s.Joint(j).Axis(a)-s.Joint(k).Axis(a)) < tolerance
	}
}

// All holds when every predicate holds.
func All(ps ...Predicate) Predicate {
	return func(s *skeleton.Snapshot) bool {
		for _, p := range ps {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one predicate holds.
func Any(ps ...Predicate) Predicate {
	return func(s *skeleton.Snapshot) bool {
		for _, p := range ps {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// Thresholds are the joint displacements, in sensor units, that trigger gestures.
type Thresholds struct {
	ArmExtend   float64 `yaml:"arm_extend" json:"arm_extend"`
	ArmRaise    float64 `yaml:"arm_raise" json:"arm_raise"`
	HandForward float64 `yaml:"hand_forward" json:"hand_forward"`
	// FootForward is stricter than HandForward because feet rest slightly in
	// front of the spine.
	FootForward float64 `yaml:"foot_forward" json:"foot_forward"`
	Proximity   float64 `yaml:"proximity" json:"proximity"`
}

// DefaultThresholds returns the thresholds tuned for a Kinect v1 at two meters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArmExtend:   0.5,
		ArmRaise:    0.65,
		HandForward: 0.5,
		FootForward: 0.7,
		Proximity:   0.1,
	}
}

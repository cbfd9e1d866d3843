// Package skeleton provides the body-tracking data model and the sensor interface
// consumed by the gesture classifier.
package skeleton

import (
	"encoding/json"
	"fmt"
	"math"
)

// Joint indices following the Kinect v1 skeleton convention.
const (
	HipCenter      = 0
	Spine          = 1
	ShoulderCenter = 2
	Head           = 3
	ShoulderLeft   = 4
	ElbowLeft      = 5
	WristLeft      = 6
	HandLeft       = 7
	ShoulderRight  = 8
	ElbowRight     = 9
	WristRight     = 10
	HandRight      = 11
	HipLeft        = 12
	KneeLeft       = 13
	AnkleLeft      = 14
	FootLeft       = 15
	HipRight       = 16
	KneeRight      = 17
	AnkleRight     = 18
	FootRight      = 19
	NumJoints      = 20
)

// Joint identifies a single tracked joint.
type Joint int

var jointNames = [NumJoints]string{
	"hip_center",
	"spine",
	"shoulder_center",
	"head",
	"shoulder_left",
	"elbow_left",
	"wrist_left",
	"hand_left",
	"shoulder_right",
	"elbow_right",
	"wrist_right",
	"hand_right",
	"hip_left",
	"knee_left",
	"ankle_left",
	"foot_left",
	"hip_right",
	"knee_right",
	"ankle_right",
	"foot_right",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint returns the joint with the given snake_case name.
func ParseJoint(name string) (Joint, error) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", name)
}

// Axis selects one coordinate of a Point3D.
type Axis int

const (
	// AxisX runs left (negative) to right (positive).
	AxisX Axis = iota
	// AxisY runs down (negative) to up (positive).
	AxisY
	// AxisZ is the distance from the sensor; smaller is closer.
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Axis returns the coordinate of p along a.
func (p Point3D) Axis(a Axis) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// Distance returns the Euclidean distance between two points.
func (p Point3D) Distance(q Point3D) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Snapshot holds the positions of every joint of one body in one frame.
// It is a value type; copies never alias the sensor's buffers.
type Snapshot struct {
	Points [NumJoints]Point3D
}

// Joint returns the position of joint j.
func (s *Snapshot) Joint(j Joint) Point3D {
	return s.Points[j]
}

// Offset returns joint j's coordinate on axis a minus the spine's.
func (s *Snapshot) Offset(j Joint, a Axis) float64 {
	return s.Points[j].Axis(a) - s.Points[Spine].Axis(a)
}

// MarshalJSON encodes the snapshot as an object keyed by joint name.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	m := make(map[string]Point3D, NumJoints)
	for i, p := range s.Points {
		m[jointNames[i]] = p
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by joint name. Missing joints stay at the origin.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var m map[string]Point3D
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = Snapshot{}
	for name, p := range m {
		j, err := ParseJoint(name)
		if err != nil {
			return err
		}
		s.Points[j] = p
	}
	return nil
}

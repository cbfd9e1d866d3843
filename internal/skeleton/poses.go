package skeleton

// With returns a copy of the snapshot with joint j moved to p.
func (s Snapshot) With(j Joint, p Point3D) Snapshot {
	s.Points[j] = p
	return s
}

// WithOffset returns a copy of the snapshot with joint j's coordinate on axis a
// set to the spine's coordinate plus offset. The other coordinates are unchanged.
func (s Snapshot) WithOffset(j Joint, a Axis, offset float64) Snapshot {
	v := s.Points[Spine].Axis(a) + offset
	switch a {
	case AxisX:
		s.Points[j].X = v
	case AxisY:
		s.Points[j].Y = v
	default:
		s.Points[j].Z = v
	}
	return s
}

// NeutralPose returns a preset Snapshot of a person standing two meters from the
// sensor with both arms relaxed at their sides. No gesture threshold is crossed.
func NeutralPose() Snapshot {
	var s Snapshot

	s.Points[HipCenter] = Point3D{X: 0.0, Y: -0.25, Z: 2.0}
	s.Points[Spine] = Point3D{X: 0.0, Y: 0.0, Z: 2.0}
	s.Points[ShoulderCenter] = Point3D{X: 0.0, Y: 0.3, Z: 2.0}
	s.Points[Head] = Point3D{X: 0.0, Y: 0.5, Z: 2.0}

	// Left arm hanging down
	s.Points[ShoulderLeft] = Point3D{X: -0.18, Y: 0.28, Z: 2.0}
	s.Points[ElbowLeft] = Point3D{X: -0.22, Y: 0.02, Z: 2.0}
	s.Points[WristLeft] = Point3D{X: -0.24, Y: -0.2, Z: 1.98}
	s.Points[HandLeft] = Point3D{X: -0.25, Y: -0.28, Z: 1.97}

	// Right arm hanging down
	s.Points[ShoulderRight] = Point3D{X: 0.18, Y: 0.28, Z: 2.0}
	s.Points[ElbowRight] = Point3D{X: 0.22, Y: 0.02, Z: 2.0}
	s.Points[WristRight] = Point3D{X: 0.24, Y: -0.2, Z: 1.98}
	s.Points[HandRight] = Point3D{X: 0.25, Y: -0.28, Z: 1.97}

	// Legs, feet resting slightly in front of the spine
	s.Points[HipLeft] = Point3D{X: -0.1, Y: -0.3, Z: 2.0}
	s.Points[KneeLeft] = Point3D{X: -0.11, Y: -0.65, Z: 1.98}
	s.Points[AnkleLeft] = Point3D{X: -0.12, Y: -0.95, Z: 2.0}
	s.Points[FootLeft] = Point3D{X: -0.12, Y: -1.0, Z: 1.9}

	s.Points[HipRight] = Point3D{X: 0.1, Y: -0.3, Z: 2.0}
	s.Points[KneeRight] = Point3D{X: 0.11, Y: -0.65, Z: 1.98}
	s.Points[AnkleRight] = Point3D{X: 0.12, Y: -0.95, Z: 2.0}
	s.Points[FootRight] = Point3D{X: 0.12, Y: -1.0, Z: 1.9}

	return s
}

// TrackedBody wraps a snapshot in a fully tracked Body.
func TrackedBody(id int, s Snapshot) Body {
	return Body{TrackingID: id, State: Tracked, Joints: s}
}

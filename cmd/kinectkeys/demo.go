package main

import (
	"time"

	"github.com/ayusman/kinectkeys/internal/capture"
	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// demoStep is one pose of the demo script and how long it is held.
type demoStep struct {
	pose skeleton.Snapshot
	hold time.Duration
}

// demoScript walks through a few holds and one combo, returning to neutral in between.
func demoScript() []demoStep {
	n := skeleton.NeutralPose()
	rest := demoStep{pose: n, hold: 2 * time.Second}
	// Both hands up and together. The combo repeats every frame it is held.
	uppercut := n.
		WithOffset(skeleton.HandRight, skeleton.AxisX, 0.03).
		WithOffset(skeleton.HandLeft, skeleton.AxisX, -0.03).
		WithOffset(skeleton.HandRight, skeleton.AxisY, 0.7).
		WithOffset(skeleton.HandLeft, skeleton.AxisY, 0.7)
	return []demoStep{
		rest,
		{pose: n.WithOffset(skeleton.HandRight, skeleton.AxisX, 0.6), hold: time.Second},
		rest,
		{pose: n.WithOffset(skeleton.HandLeft, skeleton.AxisX, -0.6), hold: time.Second},
		rest,
		{pose: n.WithOffset(skeleton.HandRight, skeleton.AxisY, 0.7), hold: time.Second},
		rest,
		{pose: n.WithOffset(skeleton.FootLeft, skeleton.AxisZ, -0.8), hold: time.Second},
		rest,
		{pose: uppercut, hold: 500 * time.Millisecond},
	}
}

// runDemoFeed pushes the demo script into sensor at fps until stop is closed.
func runDemoFeed(stop <-chan struct{}, sensor *skeleton.MockSensor, fps int, color bool) {
	if fps <= 0 {
		fps = skeleton.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	script := demoScript()
	step := 0
	stepStart := time.Now()
	var seq int64

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if now.Sub(stepStart) >= script[step].hold {
				step = (step + 1) % len(script)
				stepStart = now
			}

			seq++
			if color {
				sensor.PushColor(capture.TestPattern(capture.DefaultWidth, capture.DefaultHeight, seq))
			}
			sensor.Push(skeleton.TrackedBody(1, script[step].pose))
		}
	}
}

package app

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/kinectkeys/internal/capture"
	"github.com/ayusman/kinectkeys/internal/skeleton"
	"github.com/ayusman/kinectkeys/internal/store"
)

// runLoop is the control loop. It blocks until the sensor signals a new frame
// or stop is requested, and runs at most one ProcessFrame per wake. Frames that
// arrive while a pass is running are coalesced by the sensor.
func (a *App) runLoop(stopCh, done chan struct{}) {
	defer close(done)

	ready := a.config.Sensor.FrameReady()
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-ready:
			a.ProcessFrame()
			if !ok {
				log.Println("Sensor frame stream ended")
				return
			}
		}
	}
}

// ProcessFrame fetches the latest frames from the sensor and classifies every
// tracked body. It returns the gestures that fired. Nothing is read while
// detection is disabled, and a missing frame skips the pass.
func (a *App) ProcessFrame() []GestureEvent {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	if !a.IsEnabled() {
		return nil
	}

	if a.config.Color {
		a.copyColor()
	}

	frame, err := a.config.Sensor.NextSkeletonFrame()
	if err != nil {
		if !errors.Is(err, skeleton.ErrNoFrame) {
			log.Printf("Error reading skeleton frame: %v", err)
		}
		return nil
	}

	tracked := frame.TrackedBodies()
	var events []GestureEvent
	now := time.Now()
	for i := range tracked {
		body := &tracked[i]
		res := a.classifier.Classify(body)
		for _, d := range res.Fired {
			events = append(events, GestureEvent{
				Gesture: d.Gesture,
				Kind:    d.Kind,
				Keys:    d.Keys,
				BodyID:  body.TrackingID,
				Time:    now,
			})
		}
	}

	a.mu.Lock()
	a.frames++
	if n := len(tracked); n != a.bodies {
		if n > 1 && a.bodies <= 1 {
			log.Printf("%d bodies tracked, held keys are shared between them", n)
		}
		a.bodies = n
	}
	a.mu.Unlock()

	a.publish(skeleton.Frame{Sequence: frame.Sequence, Timestamp: frame.Timestamp, Bodies: tracked})
	for _, ev := range events {
		a.record(ev)
	}
	return events
}

func (a *App) copyColor() {
	cf, err := a.config.Sensor.NextColorFrame()
	if err != nil {
		if !errors.Is(err, skeleton.ErrNoFrame) {
			log.Printf("Error reading color frame: %v", err)
		}
		return
	}
	if err := a.color.Copy(cf); err != nil && !errors.Is(err, capture.ErrEmptyFrame) {
		log.Printf("Error copying color frame: %v", err)
	}
}

// publish sends frame to every skeleton subscriber without blocking.
func (a *App) publish(frame skeleton.Frame) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for ch := range a.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
}

// record logs a fired gesture, stores it and notifies callbacks.
func (a *App) record(ev GestureEvent) {
	log.Printf("Gesture fired: %s (%s) keys=%v body=%d", ev.Gesture, ev.Kind, ev.Keys, ev.BodyID)

	if a.config.Store != nil {
		err := a.config.Store.Events().Create(&store.Event{
			Gesture: string(ev.Gesture),
			Kind:    string(ev.Kind),
			Keys:    ev.Keys,
			BodyID:  ev.BodyID,
			FiredAt: ev.Time,
		})
		if err != nil {
			log.Printf("Failed to record gesture %s: %v", ev.Gesture, err)
		}
	}

	a.mu.Lock()
	a.lastGesture = string(ev.Gesture)
	a.fired++
	callbacks := append([]func(GestureEvent){}, a.callbacks...)
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(ev)
	}
}

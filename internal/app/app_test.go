package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/skeleton"
	"github.com/ayusman/kinectkeys/internal/store"
)

func noSleep(time.Duration) {}

type testApp struct {
	app    *App
	sensor *skeleton.MockSensor
	rec    *input.Recorder
	store  *store.Store
}

func newTestApp(t *testing.T, withStore bool) *testApp {
	t.Helper()

	ta := &testApp{
		sensor: skeleton.NewMockSensor(),
		rec:    input.NewRecorder(),
	}
	if withStore {
		s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("store.New() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		ta.store = s
	}

	ta.app = New(Config{
		Sensor:   ta.sensor,
		Injector: ta.rec,
		Store:    ta.store,
		Sleeper:  noSleep,
	})
	return ta
}

func rightArmOut(id int) skeleton.Body {
	return skeleton.TrackedBody(id, skeleton.NeutralPose().WithOffset(skeleton.HandRight, skeleton.AxisX, 0.6))
}

func neutral(id int) skeleton.Body {
	return skeleton.TrackedBody(id, skeleton.NeutralPose())
}

func TestApp_ProcessFrame(t *testing.T) {
	ta := newTestApp(t, true)
	if err := ta.sensor.Open(skeleton.CapSkeleton); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var fired []GestureEvent
	ta.app.RegisterGestureCallback(func(ev GestureEvent) {
		fired = append(fired, ev)
	})

	ta.sensor.Push(rightArmOut(3))
	events := ta.app.ProcessFrame()

	if len(events) != 1 || events[0].Gesture != gesture.RightArmExtended {
		t.Fatalf("expected right_arm_extended, got %+v", events)
	}
	if events[0].BodyID != 3 || events[0].Kind != gesture.KindHold {
		t.Errorf("unexpected event %+v", events[0])
	}
	if len(fired) != 1 {
		t.Errorf("expected callback once, got %d", len(fired))
	}
	if ta.rec.Count(input.KeyRight, input.Press) != 1 {
		t.Error("expected RIGHT to be pressed")
	}

	stored, err := ta.store.Events().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 1 || stored[0].Gesture != "right_arm_extended" || stored[0].BodyID != 3 {
		t.Errorf("unexpected stored events %+v", stored)
	}

	status := ta.app.Status()
	if status.LastGesture != "right_arm_extended" || status.Frames != 1 || status.Fired != 1 {
		t.Errorf("unexpected status %+v", status)
	}
	if len(status.Held) != 1 || status.Held[0] != "right_arm" {
		t.Errorf("expected right_arm held, got %v", status.Held)
	}

	// No new frame: nothing happens
	if events := ta.app.ProcessFrame(); len(events) != 0 {
		t.Errorf("expected no events without a frame, got %v", events)
	}
}

func TestApp_ProcessFrame_SkipsUntrackedBodies(t *testing.T) {
	ta := newTestApp(t, false)
	ta.sensor.Open(skeleton.CapSkeleton)

	body := rightArmOut(1)
	body.State = skeleton.PositionOnly
	ta.sensor.Push(body, skeleton.Body{TrackingID: 2, State: skeleton.NotTracked})

	if events := ta.app.ProcessFrame(); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if len(ta.rec.Events()) != 0 {
		t.Error("expected no key events")
	}
}

func TestApp_ProcessFrame_FetchErrorSkipsTick(t *testing.T) {
	ta := newTestApp(t, false)
	ta.sensor.Open(skeleton.CapSkeleton)
	ta.sensor.SetFrameError(errors.New("usb hiccup"))

	ta.sensor.Push(rightArmOut(1))
	if events := ta.app.ProcessFrame(); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if ta.app.Status().Frames != 0 {
		t.Error("failed fetch should not count as a frame")
	}
}

func TestApp_BodiesShareHoldState(t *testing.T) {
	ta := newTestApp(t, false)
	ta.sensor.Open(skeleton.CapSkeleton)

	// The second body is classified after the first against the same hold state
	ta.sensor.Push(rightArmOut(1), neutral(2))
	ta.app.ProcessFrame()

	got := ta.rec.Events()
	if len(got) != 2 || got[0].String() != "RIGHT down" || got[1].String() != "RIGHT up" {
		t.Errorf("expected RIGHT down then up, got %v", got)
	}
	if n := ta.app.Status().Bodies; n != 2 {
		t.Errorf("expected 2 tracked bodies in status, got %d", n)
	}

	ta.sensor.Push(rightArmOut(1))
	ta.app.ProcessFrame()
	if n := ta.app.Status().Bodies; n != 1 {
		t.Errorf("expected 1 tracked body in status, got %d", n)
	}
	if out := ta.rec.Outstanding(); len(out) != 1 || out[0] != input.KeyRight {
		t.Errorf("expected RIGHT held once the second body leaves, outstanding %v", out)
	}
}

func TestApp_SetEnabled(t *testing.T) {
	ta := newTestApp(t, true)
	ta.sensor.Open(skeleton.CapSkeleton)

	ta.sensor.Push(rightArmOut(1))
	ta.app.ProcessFrame()

	ta.app.SetEnabled(false)
	if ta.app.IsEnabled() {
		t.Fatal("expected disabled")
	}
	if len(ta.rec.Outstanding()) != 0 {
		t.Errorf("disabling should release held keys, outstanding %v", ta.rec.Outstanding())
	}

	ta.sensor.Push(rightArmOut(1))
	if events := ta.app.ProcessFrame(); len(events) != 0 {
		t.Errorf("disabled app fired %v", events)
	}
	if ta.store.Settings().GetBool(store.SettingEnabled, true) {
		t.Error("expected enabled=false to be persisted")
	}

	// A new app on the same store starts disabled
	again := New(Config{Sensor: skeleton.NewMockSensor(), Injector: input.NewRecorder(), Store: ta.store})
	if again.IsEnabled() {
		t.Error("expected persisted disabled state")
	}

	ta.app.SetEnabled(true)
	if events := ta.app.ProcessFrame(); len(events) != 1 {
		t.Errorf("expected pending frame to fire after enabling, got %v", events)
	}
}

func TestApp_ReloadBindings(t *testing.T) {
	ta := newTestApp(t, true)
	ta.sensor.Open(skeleton.CapSkeleton)

	ta.sensor.Push(rightArmOut(1))
	ta.app.ProcessFrame()

	err := ta.store.Bindings().Upsert(&store.Binding{
		Gesture: string(gesture.RightArmExtended),
		Keys:    []input.KeyCode{input.KeyCode('D')},
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := ta.app.ReloadBindings(); err != nil {
		t.Fatalf("ReloadBindings() error = %v", err)
	}
	if len(ta.rec.Outstanding()) != 0 {
		t.Fatalf("reload should release held keys, outstanding %v", ta.rec.Outstanding())
	}

	ta.sensor.Push(rightArmOut(1))
	ta.app.ProcessFrame()
	if ta.rec.Count(input.KeyCode('D'), input.Press) != 1 {
		t.Error("expected the overridden key to be pressed")
	}

	// A disabled override removes the gesture
	ta.store.Bindings().Upsert(&store.Binding{Gesture: string(gesture.LeftFootForward), Enabled: false})
	b, err := ta.app.Bindings()
	if err != nil {
		t.Fatalf("Bindings() error = %v", err)
	}
	if _, ok := b[gesture.LeftFootForward]; ok {
		t.Error("expected left_foot_forward to be disabled")
	}
	if len(b[gesture.Hadouken]) != 3 {
		t.Errorf("expected default hadouken binding, got %v", b[gesture.Hadouken])
	}
}

func TestApp_ColorFrames(t *testing.T) {
	sensor := skeleton.NewMockSensor()
	a := New(Config{Sensor: sensor, Injector: input.NewRecorder(), Color: true, Sleeper: noSleep})
	sensor.Open(skeleton.CapSkeleton | skeleton.CapColor)

	// Zero pitch means no data and is ignored
	sensor.PushColor(&skeleton.ColorFrame{Width: 640, Height: 480})
	a.ProcessFrame()
	if a.ColorBuffer().HasFrame() {
		t.Fatal("expected empty color frame to be skipped")
	}

	pix := make([]byte, 2*2*4)
	sensor.PushColor(&skeleton.ColorFrame{Width: 2, Height: 2, Pitch: 8, Pixels: pix})
	a.ProcessFrame()
	if !a.ColorBuffer().HasFrame() {
		t.Error("expected color frame to be copied")
	}
}

func TestApp_StartFailsWithoutSensor(t *testing.T) {
	sensor := skeleton.NewMockSensor()
	sensor.SetOpenError(errors.New("device busy"))
	a := New(Config{Sensor: sensor})

	err := a.Start()
	if !errors.Is(err, skeleton.ErrNoSensor) {
		t.Fatalf("expected ErrNoSensor, got %v", err)
	}
	if a.IsRunning() {
		t.Error("loop should not run without a sensor")
	}

	if err := New(Config{}).Start(); !errors.Is(err, skeleton.ErrNoSensor) {
		t.Errorf("expected ErrNoSensor for missing sensor, got %v", err)
	}
}

func TestApp_StartStop(t *testing.T) {
	ta := newTestApp(t, false)

	fired := make(chan GestureEvent, 4)
	ta.app.RegisterGestureCallback(func(ev GestureEvent) {
		fired <- ev
	})
	frames, unsubscribe := ta.app.SubscribeSkeleton()
	defer unsubscribe()

	if err := ta.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !ta.app.IsRunning() {
		t.Fatal("expected loop to be running")
	}
	if !ta.sensor.Capabilities().Has(skeleton.CapSkeleton) {
		t.Error("expected skeleton capability to be requested")
	}

	ta.sensor.Push(rightArmOut(5))

	select {
	case ev := <-fired:
		if ev.Gesture != gesture.RightArmExtended {
			t.Errorf("unexpected gesture %s", ev.Gesture)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for gesture")
	}

	select {
	case f := <-frames:
		if len(f.Bodies) != 1 || f.Bodies[0].TrackingID != 5 {
			t.Errorf("unexpected skeleton frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for skeleton frame")
	}

	ta.app.Stop()

	if ta.app.IsRunning() {
		t.Error("expected loop to be stopped")
	}
	if ta.sensor.IsOpen() {
		t.Error("expected sensor to be closed")
	}
	if len(ta.rec.Outstanding()) != 0 {
		t.Errorf("expected all keys released on stop, outstanding %v", ta.rec.Outstanding())
	}

	// Stopping twice is harmless
	ta.app.Stop()
}

func TestApp_ReplayEndsLoop(t *testing.T) {
	rec := &skeleton.Recording{FPS: 20}
	for i := 0; i < 5; i++ {
		rec.Frames = append(rec.Frames, skeleton.RecordedFrame{Bodies: []skeleton.Body{rightArmOut(1)}})
	}
	rec.Frames = append(rec.Frames, skeleton.RecordedFrame{Bodies: []skeleton.Body{neutral(1)}})

	keys := input.NewRecorder()
	a := New(Config{Sensor: skeleton.NewReplaySensor(rec, false), Injector: keys, Sleeper: noSleep})
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not end with the recording")
	}
	a.Stop()

	if keys.Count(input.KeyRight, input.Press) != 1 {
		t.Errorf("expected a single RIGHT press, got %d", keys.Count(input.KeyRight, input.Press))
	}
	if len(keys.Outstanding()) != 0 {
		t.Errorf("expected no keys left down, got %v", keys.Outstanding())
	}
}

func TestApp_Restart(t *testing.T) {
	waitFor := func(t *testing.T, fired <-chan GestureEvent, round int) {
		t.Helper()
		select {
		case ev := <-fired:
			if ev.Gesture != gesture.RightArmExtended {
				t.Errorf("round %d: unexpected gesture %s", round, ev.Gesture)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: timed out waiting for gesture", round)
		}
	}

	t.Run("mock sensor", func(t *testing.T) {
		ta := newTestApp(t, false)
		fired := make(chan GestureEvent, 8)
		ta.app.RegisterGestureCallback(func(ev GestureEvent) {
			select {
			case fired <- ev:
			default:
			}
		})

		for round := 1; round <= 2; round++ {
			if err := ta.app.Start(); err != nil {
				t.Fatalf("round %d: Start() error = %v", round, err)
			}
			select {
			case <-ta.app.Done():
				t.Fatalf("round %d: loop ended right after Start", round)
			case <-time.After(50 * time.Millisecond):
			}

			ta.sensor.Push(rightArmOut(1))
			waitFor(t, fired, round)
			ta.app.Stop()
		}

		if got := ta.rec.Count(input.KeyRight, input.Press); got != 2 {
			t.Errorf("expected one RIGHT press per run, got %d", got)
		}
		if len(ta.rec.Outstanding()) != 0 {
			t.Errorf("expected no keys left down, got %v", ta.rec.Outstanding())
		}
	})

	t.Run("replay sensor", func(t *testing.T) {
		rec := &skeleton.Recording{FPS: 50, Frames: []skeleton.RecordedFrame{{Bodies: []skeleton.Body{rightArmOut(1)}}}}
		keys := input.NewRecorder()
		a := New(Config{Sensor: skeleton.NewReplaySensor(rec, true), Injector: keys, Sleeper: noSleep})

		fired := make(chan GestureEvent, 8)
		a.RegisterGestureCallback(func(ev GestureEvent) {
			select {
			case fired <- ev:
			default:
			}
		})

		for round := 1; round <= 2; round++ {
			if err := a.Start(); err != nil {
				t.Fatalf("round %d: Start() error = %v", round, err)
			}
			waitFor(t, fired, round)
			a.Stop()
		}

		if got := keys.Count(input.KeyRight, input.Press); got != 2 {
			t.Errorf("expected one RIGHT press per run, got %d", got)
		}
		if len(keys.Outstanding()) != 0 {
			t.Errorf("expected no keys left down, got %v", keys.Outstanding())
		}
	})
}

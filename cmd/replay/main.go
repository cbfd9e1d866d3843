// Command replay runs a skeleton recording through the gesture classifier
// offline and prints the resulting key timeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/kinectkeys/internal/config"
	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/skeleton"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func main() {
	recordingPath := flag.String("recording", "", "skeleton recording (JSON)")
	configPath := flag.String("config", "", "kinectkeys config file")
	quiet := flag.Bool("quiet", false, "hide the progress bar")
	flag.Parse()

	if *recordingPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -recording file.json [-config kinectkeys.yaml]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	bindings, err := cfg.GestureBindings()
	if err != nil {
		log.Fatalf("Failed to load bindings: %v", err)
	}

	rec, err := skeleton.LoadRecording(*recordingPath)
	if err != nil {
		log.Fatalf("Failed to load recording: %v", err)
	}

	// The classifier logs every gesture; keep the timeline readable.
	log.SetOutput(os.Stderr)

	var bar *pb.ProgressBar
	if !*quiet {
		bar = pb.ProgressBarTemplate(barTemplate).Start(len(rec.Frames))
		bar.Set("prefix", "replay")
	}

	tl := replay(rec, cfg.Thresholds, bindings, cfg.GestureTiming(), func() {
		if bar != nil {
			bar.Increment()
		}
	})
	if bar != nil {
		bar.Finish()
	}

	fmt.Printf("Replayed %d frames at %d fps\n", len(rec.Frames), rec.FPS)
	for _, ev := range tl.events {
		fmt.Printf("%9.3fs  %-10s %s\n", ev.At.Seconds(), ev.Event, ev.Gesture)
	}
	fmt.Printf("%d key events, %d gestures fired\n", len(tl.events), tl.fired)
}

// timedEvent is a key event at a point in recording time.
type timedEvent struct {
	At      time.Duration
	Event   input.KeyEvent
	Gesture gesture.Gesture
}

// timeline is an injector with a virtual clock. Combo pauses advance the clock
// instead of sleeping.
type timeline struct {
	now     time.Duration
	gesture gesture.Gesture
	events  []timedEvent
	fired   int
}

func (tl *timeline) Inject(key input.KeyCode, t input.Transition) error {
	tl.events = append(tl.events, timedEvent{
		At:      tl.now,
		Event:   input.KeyEvent{Key: key, Transition: t},
		Gesture: tl.gesture,
	})
	return nil
}

func (tl *timeline) sleep(d time.Duration) {
	tl.now += d
}

// replay classifies every tracked body of every frame in order. Frame i
// starts at i/fps, or later if a combo on an earlier frame ran over.
func replay(rec *skeleton.Recording, th gesture.Thresholds, b gesture.Bindings, timing gesture.Timing, progress func()) *timeline {
	tl := &timeline{}
	c := gesture.NewClassifier(gesture.DefaultRules(th, b), tl,
		gesture.WithTiming(timing),
		gesture.WithSleeper(tl.sleep),
	)

	fps := rec.FPS
	if fps <= 0 {
		fps = skeleton.DefaultFPS
	}
	frameDur := time.Second / time.Duration(fps)

	for i, f := range rec.Frames {
		if start := time.Duration(i) * frameDur; start > tl.now {
			tl.now = start
		}

		frame := skeleton.Frame{Sequence: int64(i + 1), Bodies: f.Bodies}
		for _, body := range frame.TrackedBodies() {
			before := len(tl.events)
			res := c.Classify(&body)
			tl.fired += len(res.Fired)
			tl.label(before, res)
		}

		if progress != nil {
			progress()
		}
	}

	// Nothing stays down past the end of the recording.
	c.ReleaseAll()
	return tl
}

// label attributes the events added since index from to the gesture that
// caused them. Within one evaluation the fired keys come first, in rule order,
// and releases last; releases carry no gesture.
func (tl *timeline) label(from int, res gesture.Result) {
	i := from
	for _, d := range res.Fired {
		n := len(d.Keys)
		if d.Kind == gesture.KindCombo {
			n *= 2
		}
		for end := i + n; i < end && i < len(tl.events); i++ {
			tl.events[i].Gesture = d.Gesture
		}
	}
}

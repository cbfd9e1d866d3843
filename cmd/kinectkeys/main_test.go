package main

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/kinectkeys/internal/config"
	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/plugin"
	"github.com/ayusman/kinectkeys/internal/skeleton"
)

func TestDemoScript_Gestures(t *testing.T) {
	c := gesture.NewClassifier(gesture.DefaultRules(gesture.DefaultThresholds(), nil), input.NewRecorder(),
		gesture.WithSleeper(func(time.Duration) {}))

	var got []gesture.Gesture
	for _, step := range demoScript() {
		body := skeleton.TrackedBody(1, step.pose)
		got = append(got, c.Classify(&body).Active...)
	}

	want := []gesture.Gesture{
		gesture.RightArmExtended,
		gesture.LeftArmExtended,
		gesture.ArmRaised,
		gesture.LeftFootForward,
		gesture.Uppercut,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNewSensor(t *testing.T) {
	cfg := config.DefaultConfig()
	s, err := newSensor(cfg)
	if err != nil {
		t.Fatalf("newSensor() error = %v", err)
	}
	if _, ok := s.(*skeleton.MockSensor); !ok {
		t.Errorf("expected mock sensor, got %T", s)
	}

	cfg.Sensor.Kind = config.SensorReplay
	cfg.Sensor.Recording = filepath.Join(t.TempDir(), "missing.json")
	if _, err := newSensor(cfg); err == nil {
		t.Error("expected error for a missing recording")
	}
}

func TestNewInjector(t *testing.T) {
	cfg := config.DefaultConfig()
	inj, err := newInjector(cfg)
	if err != nil {
		t.Fatalf("newInjector() error = %v", err)
	}
	if _, ok := inj.(input.LogInjector); !ok {
		t.Errorf("expected log injector, got %T", inj)
	}

	cfg.Injector.Kind = config.InjectorPlugin
	cfg.Injector.PluginDir = t.TempDir()
	if _, err := newInjector(cfg); !errors.Is(err, plugin.ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

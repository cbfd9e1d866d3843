// Package config loads the kinectkeys YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/input"
)

// Sensor kinds
const (
	SensorMock   = "mock"
	SensorReplay = "replay"
)

// Injector kinds
const (
	InjectorLog    = "log"
	InjectorNative = "native"
	InjectorPlugin = "plugin"
)

// SensorConfig selects and tunes the skeleton source.
type SensorConfig struct {
	Kind      string `yaml:"kind"`
	Recording string `yaml:"recording"`
	FPS       int    `yaml:"fps"`
	Loop      bool   `yaml:"loop"`
	Color     bool   `yaml:"color"`
}

// InjectorConfig selects where key events go.
type InjectorConfig struct {
	Kind      string `yaml:"kind"`
	PluginDir string `yaml:"plugin_dir"`
	Plugin    string `yaml:"plugin"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// TimingConfig sets combo tap durations.
type TimingConfig struct {
	PressMs    int `yaml:"press_ms"`
	ComboGapMs int `yaml:"combo_gap_ms"`
}

type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
	// RetentionDays prunes older gesture events at startup. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the top-level structure for kinectkeys.yaml.
type Config struct {
	Sensor     SensorConfig       `yaml:"sensor"`
	Injector   InjectorConfig     `yaml:"injector"`
	Timing     TimingConfig       `yaml:"timing"`
	Thresholds gesture.Thresholds `yaml:"thresholds"`
	// Bindings overrides the default keys per gesture. An empty list disables the gesture.
	Bindings map[string][]string `yaml:"bindings"`
	Server   ServerConfig        `yaml:"server"`
	Store    StoreConfig         `yaml:"store"`
	Tray     TrayConfig          `yaml:"tray"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Sensor: SensorConfig{
			Kind:  SensorMock,
			FPS:   30,
			Color: true,
		},
		Injector: InjectorConfig{
			Kind:      InjectorLog,
			PluginDir: "plugins",
			Plugin:    "keyboard",
			TimeoutMs: 2000,
		},
		Timing: TimingConfig{
			PressMs:    30,
			ComboGapMs: 30,
		},
		Thresholds: gesture.DefaultThresholds(),
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8080",
		},
		Store: StoreConfig{
			Path:          "kinectkeys.db",
			RetentionDays: 30,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks kinds, thresholds and bindings.
func (c *Config) Validate() error {
	switch c.Sensor.Kind {
	case SensorMock:
	case SensorReplay:
		if c.Sensor.Recording == "" {
			return errors.New("sensor.recording is required for the replay sensor")
		}
	default:
		return fmt.Errorf("unknown sensor kind %q", c.Sensor.Kind)
	}
	if c.Sensor.FPS <= 0 {
		return fmt.Errorf("sensor.fps must be positive, got %d", c.Sensor.FPS)
	}

	switch c.Injector.Kind {
	case InjectorLog, InjectorNative:
	case InjectorPlugin:
		if c.Injector.Plugin == "" {
			return errors.New("injector.plugin is required for the plugin injector")
		}
		if c.Injector.TimeoutMs <= 0 {
			return fmt.Errorf("injector.timeout_ms must be positive, got %d", c.Injector.TimeoutMs)
		}
	default:
		return fmt.Errorf("unknown injector kind %q", c.Injector.Kind)
	}

	if c.Store.RetentionDays < 0 {
		return fmt.Errorf("store.retention_days must not be negative, got %d", c.Store.RetentionDays)
	}

	if c.Timing.PressMs < 0 || c.Timing.ComboGapMs < 0 {
		return errors.New("timing values must not be negative")
	}

	th := c.Thresholds
	for name, v := range map[string]float64{
		"arm_extend":   th.ArmExtend,
		"arm_raise":    th.ArmRaise,
		"hand_forward": th.HandForward,
		"foot_forward": th.FootForward,
		"proximity":    th.Proximity,
	} {
		if v <= 0 {
			return fmt.Errorf("thresholds.%s must be positive, got %v", name, v)
		}
	}

	_, err := c.GestureBindings()
	return err
}

// GestureBindings merges the configured overrides into the default bindings.
func (c *Config) GestureBindings() (gesture.Bindings, error) {
	b := gesture.DefaultBindings()

	names := make([]string, 0, len(c.Bindings))
	for name := range c.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := gesture.Gesture(name)
		if !gesture.IsKnown(g) {
			return nil, fmt.Errorf("bindings: unknown gesture %q", name)
		}
		keys, err := input.ParseKeys(c.Bindings[name])
		if err != nil {
			return nil, fmt.Errorf("bindings.%s: %w", name, err)
		}
		if len(keys) == 0 {
			delete(b, g)
			continue
		}
		b[g] = keys
	}
	return b, nil
}

// GestureTiming returns the combo timing.
func (c *Config) GestureTiming() gesture.Timing {
	return gesture.Timing{
		Press: time.Duration(c.Timing.PressMs) * time.Millisecond,
		Gap:   time.Duration(c.Timing.ComboGapMs) * time.Millisecond,
	}
}

// Retention returns how long gesture events are kept, or zero to keep them forever.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Store.RetentionDays) * 24 * time.Hour
}

// PluginTimeout returns the per-call plugin timeout.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.Injector.TimeoutMs) * time.Millisecond
}

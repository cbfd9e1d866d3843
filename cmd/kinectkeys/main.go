package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/kinectkeys/internal/app"
	"github.com/ayusman/kinectkeys/internal/config"
	"github.com/ayusman/kinectkeys/internal/input"
	"github.com/ayusman/kinectkeys/internal/input/native"
	"github.com/ayusman/kinectkeys/internal/plugin"
	"github.com/ayusman/kinectkeys/internal/server"
	"github.com/ayusman/kinectkeys/internal/skeleton"
	"github.com/ayusman/kinectkeys/internal/store"
	"github.com/ayusman/kinectkeys/internal/tray"
)

func main() {
	configPath := flag.String("config", "kinectkeys.yaml", "path to the YAML config file")
	flag.Parse()

	fmt.Println("kinectkeys - Kinect gestures to key presses")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()

		if keep := cfg.Retention(); keep > 0 {
			n, err := st.Events().DeleteBefore(time.Now().Add(-keep))
			if err != nil {
				log.Printf("Failed to prune events: %v", err)
			} else if n > 0 {
				log.Printf("Pruned %d events older than %d days", n, cfg.Store.RetentionDays)
			}
		}
	}

	sensor, err := newSensor(cfg)
	if err != nil {
		log.Fatalf("Failed to create sensor: %v", err)
	}

	injector, err := newInjector(cfg)
	if err != nil {
		log.Fatalf("Failed to create injector: %v", err)
	}

	bindings, err := cfg.GestureBindings()
	if err != nil {
		log.Fatalf("Failed to load bindings: %v", err)
	}

	application := app.New(app.Config{
		Sensor:     sensor,
		Injector:   injector,
		Store:      st,
		Thresholds: cfg.Thresholds,
		Bindings:   bindings,
		Timing:     cfg.GestureTiming(),
		Color:      cfg.Sensor.Color,
	})

	if err := application.Start(); err != nil {
		if !errors.Is(err, skeleton.ErrNoSensor) {
			log.Fatalf("Failed to start: %v", err)
		}
		log.Printf("No sensor available, serving API only: %v", err)
	}

	stopDemo := make(chan struct{})
	if mock, ok := sensor.(*skeleton.MockSensor); ok {
		fmt.Printf("Using demo sensor at %d fps\n", cfg.Sensor.FPS)
		go runDemoFeed(stopDemo, mock, cfg.Sensor.FPS, cfg.Sensor.Color)
	}

	if cfg.Server.Enabled {
		staticDir := cfg.Server.StaticDir
		if staticDir == "" {
			staticDir = findWebDir()
		}
		if staticDir != "" {
			fmt.Printf("Serving static files from: %s\n", staticDir)
		}

		srv := server.New(server.Config{
			StaticDir: staticDir,
			Store:     st,
			App:       application,
			Color:     application.ColorBuffer(),
			Skeleton:  application,
			Defaults:  bindings,
			Reload:    application.ReloadBindings,
		})

		go func() {
			fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
			if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if cfg.Tray.Enabled {
		t := tray.New(application.IsEnabled())
		t.OnToggle(application.SetEnabled)
		if cfg.Server.Enabled {
			url := "http://" + cfg.Server.Addr
			t.OnDashboard(func() { openBrowser(url) })
		}
		application.RegisterGestureCallback(func(ev app.GestureEvent) {
			t.SetLastGesture(string(ev.Gesture))
		})

		go func() {
			select {
			case <-sigCh:
			case <-application.Done():
			}
			t.Quit()
		}()
		t.Run()
	} else {
		select {
		case sig := <-sigCh:
			log.Printf("Received %v, shutting down", sig)
		case <-application.Done():
			log.Println("Sensor stream ended, shutting down")
		}
	}

	close(stopDemo)
	application.Stop()
}

// newSensor builds the configured skeleton source.
func newSensor(cfg *config.Config) (skeleton.Sensor, error) {
	switch cfg.Sensor.Kind {
	case config.SensorReplay:
		rec, err := skeleton.LoadRecording(cfg.Sensor.Recording)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Replaying %s (%d frames at %d fps)\n", cfg.Sensor.Recording, len(rec.Frames), rec.FPS)
		return skeleton.NewReplaySensor(rec, cfg.Sensor.Loop), nil
	default:
		return skeleton.NewMockSensor(), nil
	}
}

// newInjector builds the configured key injector.
func newInjector(cfg *config.Config) (input.Injector, error) {
	switch cfg.Injector.Kind {
	case config.InjectorNative:
		return native.New(), nil
	case config.InjectorPlugin:
		m := plugin.NewManager(cfg.Injector.PluginDir)
		if err := m.Discover(); err != nil {
			return nil, fmt.Errorf("discover plugins: %w", err)
		}
		p, err := m.Get(cfg.Injector.Plugin)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", cfg.Injector.Plugin, err)
		}
		fmt.Printf("Sending keys through plugin %s %s\n", p.Manifest.Name, p.Manifest.Version)
		return plugin.NewInjector(plugin.NewExecutor(cfg.PluginTimeout()), p)
	default:
		return input.LogInjector{}, nil
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.kinectkeys/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".kinectkeys", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

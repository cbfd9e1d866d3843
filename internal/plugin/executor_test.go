package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/kinectkeys/internal/input"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{ActionKey},
		},
		Path:       tmpDir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok-plugin", `#!/bin/sh
cat > /dev/null
echo '{"success":true}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{
		Action:     ActionKey,
		Key:        "RIGHT",
		Code:       0x27,
		Transition: "down",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "error-plugin", `#!/bin/sh
echo '{"success":false,"error":"something went wrong"}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionKey})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", `#!/bin/sh
exec sleep 10
echo '{"success":true}'
`)

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, &Request{Action: ActionKey})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "invalid-json",
			script: "#!/bin/sh\necho 'not valid json'\n",
			want:   "failed to parse plugin response",
		},
		{
			name:   "non-zero-exit",
			script: "#!/bin/sh\necho 'Error: something failed' >&2\nexit 1\n",
			want:   "something failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, tt.name, tt.script)

			_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionKey})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestInjector_SendsTransitions(t *testing.T) {
	// The script appends every request it receives to requests.log
	plugin := scriptPlugin(t, "record-plugin", `#!/bin/sh
cat >> requests.log
echo >> requests.log
echo '{"success":true}'
`)

	inj, err := NewInjector(NewExecutor(5*time.Second), plugin)
	if err != nil {
		t.Fatalf("NewInjector() failed: %v", err)
	}

	if err := input.Tap(inj, input.KeyW, 0, nil); err != nil {
		t.Fatalf("Tap() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(plugin.Path, "requests.log"))
	if err != nil {
		t.Fatalf("failed to read request log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 requests, got %d: %s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"key":"W"`) || !strings.Contains(lines[0], `"transition":"down"`) {
		t.Errorf("unexpected first request %s", lines[0])
	}
	if !strings.Contains(lines[1], `"code":87`) || !strings.Contains(lines[1], `"transition":"up"`) {
		t.Errorf("unexpected second request %s", lines[1])
	}
}

func TestInjector_ReportsPluginError(t *testing.T) {
	plugin := scriptPlugin(t, "refuse-plugin", `#!/bin/sh
echo '{"success":false,"error":"no display"}'
`)

	inj, err := NewInjector(NewExecutor(5*time.Second), plugin)
	if err != nil {
		t.Fatalf("NewInjector() failed: %v", err)
	}

	err = inj.Inject(input.KeyUp, input.Press)
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("expected plugin error, got %v", err)
	}
}

func TestNewInjector_RequiresKeyAction(t *testing.T) {
	plugin := &Plugin{Manifest: Manifest{Name: "volume", Actions: []string{"volume-up"}}}

	if _, err := NewInjector(NewExecutor(time.Second), plugin); err == nil {
		t.Error("expected error for plugin without key action")
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/kinectkeys/internal/app"
)

// stubApp reports a fixed loop state.
type stubApp struct {
	running bool
	enabled bool
}

func (s *stubApp) Status() app.Status {
	return app.Status{Running: s.running, Enabled: s.enabled, Held: []string{}}
}

func (s *stubApp) SetEnabled(enabled bool) { s.enabled = enabled }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name        string
		app         *stubApp
		wantRunning interface{} // nil when the field is absent
	}{
		{name: "without app", app: nil, wantRunning: nil},
		{name: "loop running", app: &stubApp{running: true}, wantRunning: true},
		{name: "loop stopped", app: &stubApp{running: false}, wantRunning: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			if tt.app != nil {
				cfg.App = tt.app
			}
			rec := get(t, New(cfg), "/api/health")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["status"] != "ok" {
				t.Errorf("expected status 'ok', got %v", body["status"])
			}
			if _, ok := body["uptime"]; !ok {
				t.Error("expected 'uptime' field in response")
			}

			running, ok := body["running"]
			if tt.wantRunning == nil {
				if ok {
					t.Errorf("expected no 'running' field without an app, got %v", running)
				}
				return
			}
			if running != tt.wantRunning {
				t.Errorf("expected running %v, got %v", tt.wantRunning, running)
			}
		})
	}
}

func TestServer_HealthRejectsWrites(t *testing.T) {
	s := New(Config{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestServer_Dashboard(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>kinectkeys</body></html>",
		"app.js":     "connectSkeleton();",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/", wantCode: http.StatusOK, wantBody: files["index.html"]},
		{path: "/app.js", wantCode: http.StatusOK, wantBody: files["app.js"]},
		{path: "/missing.html", wantCode: http.StatusNotFound},
		{path: "/api/unknown", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := get(t, s, tt.path)
		if rec.Code != tt.wantCode {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.wantCode, rec.Code)
			continue
		}
		if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
			t.Errorf("%s: expected body %q, got %q", tt.path, tt.wantBody, rec.Body.String())
		}
	}
}

func TestServer_NoDashboard(t *testing.T) {
	if rec := get(t, New(Config{}), "/"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d without a static dir, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_OptionalRoutes(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/status", "/api/bindings", "/api/events", "/api/stream", "/api/skeleton"} {
		if rec := get(t, s, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d without dependencies, got %d", path, http.StatusNotFound, rec.Code)
		}
	}

	withApp := New(Config{App: &stubApp{running: true, enabled: true}})
	rec := get(t, withApp, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/status: expected status %d with an app, got %d", http.StatusOK, rec.Code)
	}
	var status app.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if !status.Running || !status.Enabled {
		t.Errorf("expected running and enabled status, got %+v", status)
	}
}

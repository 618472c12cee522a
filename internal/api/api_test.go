package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vitrinedev/vitrine/internal/supervisor"
)

// --- Mock implementations ---

type mockStatus struct {
	shuttingDown bool
	snapshot     supervisor.Status
}

func (m *mockStatus) Snapshot() supervisor.Status { return m.snapshot }
func (m *mockStatus) IsShuttingDown() bool        { return m.shuttingDown }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, path string, auth func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if auth != nil {
		auth(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := NewServer(Config{}, &mockStatus{}, nil, discard())

	rec := get(t, srv.Handler(), "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	status := &mockStatus{}
	srv := NewServer(Config{}, status, nil, discard())

	if rec := get(t, srv.Handler(), "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	status.shuttingDown = true
	if rec := get(t, srv.Handler(), "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 while shutting down", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	status := &mockStatus{snapshot: supervisor.Status{
		State: "running",
		Power: "AC",
		Workload: supervisor.WorkloadStatus{
			Command: "worker --serve",
			Running: true,
			PID:     42,
		},
	}}
	srv := NewServer(Config{}, status, nil, discard())

	rec := get(t, srv.Handler(), "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var got supervisor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.State != "running" || got.Workload.PID != 42 || got.Power != "AC" {
		t.Fatalf("decoded status = %+v", got)
	}
}

func TestVersionEndpoint(t *testing.T) {
	srv := NewServer(Config{}, &mockStatus{}, nil, discard())

	rec := get(t, srv.Handler(), "/api/v1/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["version"]; !ok {
		t.Fatalf("version missing from %v", got)
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Config{Username: "admin", Password: string(hash)}, &mockStatus{}, nil, discard())

	// No credentials.
	if rec := get(t, srv.Handler(), "/api/v1/status", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without credentials", rec.Code)
	}

	// Wrong password.
	rec := get(t, srv.Handler(), "/api/v1/status", func(r *http.Request) {
		r.SetBasicAuth("admin", "wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 with wrong password", rec.Code)
	}

	// Correct credentials.
	rec = get(t, srv.Handler(), "/api/v1/status", func(r *http.Request) {
		r.SetBasicAuth("admin", "secret")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with valid credentials", rec.Code)
	}

	// Probes stay open.
	if rec := get(t, srv.Handler(), "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200 without auth", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("vitrine_test_metric 1\n"))
	})
	srv := NewServer(Config{}, &mockStatus{}, metricsHandler, discard())

	rec := get(t, srv.Handler(), "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "vitrine_test_metric 1\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	// Without a metrics handler the endpoint does not exist.
	srv = NewServer(Config{}, &mockStatus{}, nil, discard())
	if rec := get(t, srv.Handler(), "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStartStop(t *testing.T) {
	srv := NewServer(Config{}, &mockStatus{}, nil, discard())
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	defer srv.Stop(t.Context())

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

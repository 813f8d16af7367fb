package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"skyline-hq/skyway/pkg/config"
	"skyline-hq/skyway/pkg/registry"
)

func newChecker(reg *registry.Registry) *Checker {
	return New(reg, config.HealthCheckConfig{
		Enabled: true,
		Path:    "/health",
		Timeout: 2 * time.Second,
	})
}

func TestProbeStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"200 ok", http.StatusOK, true},
		{"204 no content", http.StatusNoContent, true},
		{"301 redirect", http.StatusMovedPermanently, false},
		{"404 not found", http.StatusNotFound, false},
		{"500 server error", http.StatusInternalServerError, false},
		{"503 unavailable", http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("probe hit %s, want /health", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			reg := registry.New([]config.BackendConfig{{URL: srv.URL, Region: "us-east"}}, false)
			c := newChecker(reg)

			if got := c.Probe(context.Background(), reg.First()); got != tt.want {
				t.Errorf("Probe with status %d = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestProbeUnreachableBackend(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	reg := registry.New([]config.BackendConfig{{URL: url, Region: "us-east"}}, false)
	c := newChecker(reg)

	if c.Probe(context.Background(), reg.First()) {
		t.Error("probe of unreachable backend should fail")
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	reg := registry.New([]config.BackendConfig{{URL: srv.URL, Region: "us-east"}}, false)
	c := New(reg, config.HealthCheckConfig{
		Enabled: true,
		Path:    "/health",
		Timeout: 50 * time.Millisecond,
	})

	if c.Probe(context.Background(), reg.First()) {
		t.Error("probe exceeding timeout should count as unhealthy")
	}
}

func TestRefreshUpdatesRegistry(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	reg := registry.New([]config.BackendConfig{
		{URL: up.URL, Region: "us-east"},
		{URL: down.URL, Region: "eu-west"},
	}, false)
	c := newChecker(reg)

	c.Refresh(context.Background())

	if !reg.Lookup(up.URL).Healthy() {
		t.Error("responsive backend not marked healthy after refresh")
	}
	if reg.Lookup(down.URL).Healthy() {
		t.Error("failing backend marked healthy after refresh")
	}
	if reg.Lookup(up.URL).LastProbeAt().IsZero() {
		t.Error("refresh did not record probe time")
	}
}

func TestRefreshClearsTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := registry.New([]config.BackendConfig{{URL: srv.URL, Region: "us-east"}}, true)
	reg.First().Trip()

	c := newChecker(reg)
	c.Refresh(context.Background())

	if reg.First().Tripped() {
		t.Error("refresh with successful probe should clear trip")
	}
}

func TestRefreshDisabled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	reg := registry.New([]config.BackendConfig{{URL: srv.URL, Region: "us-east"}}, true)
	c := New(reg, config.HealthCheckConfig{Enabled: false, Path: "/health", Timeout: time.Second})

	c.Refresh(context.Background())

	if hits.Load() != 0 {
		t.Errorf("disabled checker probed %d times, want 0", hits.Load())
	}
	if !reg.First().Healthy() {
		t.Error("disabled checker must not flip trusted backends unhealthy")
	}
}

func TestCheckReadiness(t *testing.T) {
	reg := registry.New([]config.BackendConfig{{URL: "http://b:9000", Region: "us-east"}}, false)
	c := newChecker(reg)

	if err := c.Check(context.Background()); err == nil {
		t.Error("Check should fail with no healthy backends")
	}

	reg.First().SetProbeResult(true)
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check failed with a healthy backend: %v", err)
	}
}

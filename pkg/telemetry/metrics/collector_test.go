package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestCollector() *Collector {
	return NewCollector(Config{Enabled: true}, nil)
}

func TestSnapshotCounters(t *testing.T) {
	c := newTestCollector()

	for i := 0; i < 5; i++ {
		c.RecordRequest()
	}
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()

	snap := c.Snapshot()
	if snap.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want 5", snap.TotalRequests)
	}
	if snap.CacheHits != 2 {
		t.Errorf("CacheHits = %d, want 2", snap.CacheHits)
	}
	if snap.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", snap.CacheMisses)
	}
	if snap.ActiveConnections != 1 {
		t.Errorf("ActiveConnections = %d, want 1", snap.ActiveConnections)
	}
}

func TestSnapshotCountersSurviveDisabledPrometheus(t *testing.T) {
	// The JSON read models depend on the atomic counters, which must keep
	// counting even when Prometheus recording is off.
	c := NewCollector(Config{Enabled: false}, nil)

	c.RecordRequest()
	c.RecordCacheHit()
	c.SessionOpened()

	snap := c.Snapshot()
	if snap.TotalRequests != 1 || snap.CacheHits != 1 || snap.ActiveConnections != 1 {
		t.Errorf("snapshot = %+v, want counters maintained with metrics disabled", snap)
	}
}

func exposition(t *testing.T, c *Collector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics/prometheus", nil))
	body, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestPrometheusSeries(t *testing.T) {
	c := newTestCollector()

	c.RecordOutcome("forwarded")
	c.RecordOutcome("cache_hit")
	c.RecordRateLimited()
	c.RecordForward("http://b:9000", 20*time.Millisecond)
	c.RecordForwardError("http://b:9000")
	c.UpdateBackendHealth("http://b:9000", true)
	c.SessionOpened()

	out := exposition(t, c)
	for _, series := range []string{
		`skyway_gateway_requests_total{outcome="forwarded"} 1`,
		`skyway_gateway_requests_total{outcome="cache_hit"} 1`,
		`skyway_gateway_rate_limited_total 1`,
		`skyway_gateway_forward_errors_total{backend="http://b:9000"} 1`,
		`skyway_gateway_backend_healthy{backend="http://b:9000"} 1`,
		`skyway_gateway_active_sessions 1`,
	} {
		if !strings.Contains(out, series) {
			t.Errorf("exposition missing %q", series)
		}
	}
	if !strings.Contains(out, "skyway_gateway_forward_duration_seconds_bucket") {
		t.Error("exposition missing forward duration histogram")
	}
}

func TestCustomNamespaceAndSubsystem(t *testing.T) {
	c := NewCollector(Config{Enabled: true, Namespace: "edge", Subsystem: "proxy"}, nil)
	c.RecordOutcome("forwarded")

	out := exposition(t, c)
	if !strings.Contains(out, "edge_proxy_requests_total") {
		t.Error("custom namespace/subsystem not applied")
	}
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(Config{Enabled: true}, reg)

	if c.Registry() != reg {
		t.Error("collector did not keep the provided registry")
	}
}

func TestDisabledCollectorSkipsPrometheus(t *testing.T) {
	c := NewCollector(Config{Enabled: false}, nil)

	c.RecordOutcome("forwarded")
	c.RecordRateLimited()

	out := exposition(t, c)
	if strings.Contains(out, `outcome="forwarded"`) {
		t.Error("disabled collector recorded a Prometheus sample")
	}
}

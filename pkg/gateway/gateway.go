// Package gateway composes admission control, caching, routing, header
// rewriting, and session management into the per-request lifecycle and
// exposes the health/metrics read models.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skyline-hq/skyway/pkg/cache"
	"skyline-hq/skyway/pkg/cache/storage"
	"skyline-hq/skyway/pkg/limits/ratelimit"
	"skyline-hq/skyway/pkg/optimize"
	"skyline-hq/skyway/pkg/registry"
	"skyline-hq/skyway/pkg/routing"
	"skyline-hq/skyway/pkg/sessions"
	"skyline-hq/skyway/pkg/telemetry/metrics"
)

// Diagnostic headers attached to proxied responses.
const (
	headerCache     = "X-Cache"
	headerBackend   = "X-Backend"
	headerLatency   = "X-Latency"
	headerRegion    = "X-Region"
	headerCacheHits = "X-Cache-Hits"
	headerRateLimit = "X-Rate-Limit"
)

// Gateway is the request orchestrator. One instance serves all inbound
// traffic for the process lifetime.
type Gateway struct {
	registry  *registry.Registry
	limiter   *ratelimit.Limiter
	cache     *cache.Cache
	router    *routing.Router
	optimizer *optimize.Optimizer
	sessions  *sessions.Manager
	metrics   *metrics.Collector
	forwarder Forwarder
}

// New assembles a gateway from its collaborators.
func New(
	reg *registry.Registry,
	limiter *ratelimit.Limiter,
	c *cache.Cache,
	router *routing.Router,
	optimizer *optimize.Optimizer,
	sm *sessions.Manager,
	collector *metrics.Collector,
	forwarder Forwarder,
) *Gateway {
	return &Gateway{
		registry:  reg,
		limiter:   limiter,
		cache:     c,
		router:    router,
		optimizer: optimizer,
		sessions:  sm,
		metrics:   collector,
		forwarder: forwarder,
	}
}

// ServeHTTP runs the per-request sequence, short-circuiting at the first
// terminal outcome: introspection, WebSocket delegation, admission denial,
// cache hit, routing failure, then forward.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.metrics.RecordRequest()

	// Introspection paths never touch the limiter, cache, or router.
	switch r.URL.Path {
	case "/health":
		g.metrics.RecordOutcome("introspection")
		g.handleHealth(w, r)
		return
	case "/metrics":
		g.metrics.RecordOutcome("introspection")
		g.handleMetrics(w, r)
		return
	case "/metrics/prometheus":
		g.metrics.RecordOutcome("introspection")
		g.metrics.Handler().ServeHTTP(w, r)
		return
	}

	if sessions.IsUpgrade(r) {
		g.metrics.RecordOutcome("websocket")
		g.sessions.HandleUpgrade(w, r)
		return
	}

	g.proxy(w, r)
}

// proxy handles steps 4-9 of the request lifecycle for plain HTTP traffic.
func (g *Gateway) proxy(w http.ResponseWriter, r *http.Request) {
	decision := g.limiter.Admit(clientID(r))
	if !decision.Allowed {
		g.metrics.RecordOutcome("rate_limited")
		g.metrics.RecordRateLimited()
		g.writeRateLimited(w, decision)
		return
	}

	if entry, ok := g.cache.Lookup(r.Context(), r); ok {
		g.metrics.RecordOutcome("cache_hit")
		g.writeCached(w, entry)
		return
	}

	result, err := g.router.Select(countryHint(r))
	if err != nil {
		g.metrics.RecordOutcome("error")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "no_backend_available",
			"message": ErrNoBackendConfigured.Error(),
		})
		return
	}
	backend := result.Backend
	if result.Degraded {
		slog.Warn("routing degraded: no healthy backend, using first configured",
			"backend", backend.URL,
		)
	}

	header := g.optimizer.Rewrite(r.Header)

	start := time.Now()
	resp, err := g.forwarder.Forward(r.Context(), r, backend.URL, header)
	latency := time.Since(start)

	if err != nil {
		// Fail fast: trip the backend immediately; the next successful
		// probe corrects the mark.
		backend.Trip()
		g.metrics.RecordOutcome("error")
		g.metrics.RecordForwardError(backend.URL)
		g.metrics.UpdateBackendHealth(backend.URL, false)

		slog.Error("forward failed",
			"backend", backend.URL,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "backend_unreachable",
			"message": err.Error(),
			"backend": backend.URL,
		})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		backend.Trip()
		g.metrics.RecordOutcome("error")
		g.metrics.RecordForwardError(backend.URL)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "backend_response_unreadable",
			"message": err.Error(),
			"backend": backend.URL,
		})
		return
	}

	g.metrics.RecordOutcome("forwarded")
	g.metrics.RecordForward(backend.URL, latency)

	// Best-effort: storage errors are logged inside the cache, never
	// surfaced to this request.
	g.cache.Store(r.Context(), r, resp.StatusCode, resp.Header, body)

	h := w.Header()
	copyHeader(h, resp.Header)
	h.Set(headerCache, "MISS")
	h.Set(headerBackend, backend.URL)
	h.Set(headerLatency, fmt.Sprintf("%dms", latency.Milliseconds()))
	h.Set(headerRegion, result.Region)
	h.Set(headerCacheHits, strconv.FormatInt(g.metrics.Snapshot().CacheHits, 10))

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		slog.Debug("client write failed", "error", err)
	}
}

// writeCached serves a cache hit.
func (g *Gateway) writeCached(w http.ResponseWriter, entry *storage.Entry) {
	h := w.Header()
	copyHeader(h, entry.Header)
	h.Set(headerCache, "HIT")
	h.Set(headerCacheHits, strconv.FormatInt(g.metrics.Snapshot().CacheHits, 10))

	w.WriteHeader(entry.Status)
	if _, err := w.Write(entry.Body); err != nil {
		slog.Debug("client write failed", "error", err)
	}
}

// writeRateLimited serves a 429 with retry hints.
func (g *Gateway) writeRateLimited(w http.ResponseWriter, d ratelimit.Decision) {
	retryAfter := int(d.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set(headerRateLimit, strconv.Itoa(d.Limit))

	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "rate_limit_exceeded",
		"message":    ErrAdmissionDenied.Error(),
		"retryAfter": retryAfter,
	})
}

// handleHealth serves the gateway's own health read model.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := g.metrics.Snapshot()
	backends := g.registry.Snapshot()

	status := "degraded"
	for _, b := range backends {
		if b.Healthy {
			status = "healthy"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"metrics":   snapshot,
		"backends":  backends,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics serves the JSON metrics read model.
func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":    g.metrics.Snapshot(),
		"rateLimits": g.limiter.ActiveClients(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// clientID extracts the client identifier for rate limiting. Requests with
// no attributable origin share the limiter's "unknown" bucket.
func clientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop in the chain is the originating client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && ip != "" {
		return ip
	}
	return ""
}

// countryHint extracts the request's origin-country hint for region
// resolution.
func countryHint(r *http.Request) string {
	if c := r.Header.Get("X-Client-Country"); c != "" {
		return c
	}
	return r.Header.Get("CF-IPCountry")
}

// copyHeader copies values from src to dst, excluding hop-by-hop headers.
func copyHeader(dst, src http.Header) {
	for k, values := range src {
		switch http.CanonicalHeaderKey(k) {
		case "Connection", "Keep-Alive", "Transfer-Encoding", "Upgrade":
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

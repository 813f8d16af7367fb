package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock returns a limiter whose time is controlled by the test.
func fakeClock(l *Limiter, start time.Time) func(d time.Duration) {
	current := start
	l.clock = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestAdmitWithinLimit(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 3, Window: time.Minute})
	fakeClock(l, time.Unix(1000, 0))

	for i := 0; i < 3; i++ {
		d := l.Admit("client-a")
		if !d.Allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if want := 3 - (i + 1); d.Remaining != want {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}
}

func TestAdmitDeniesOverLimit(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 2, Window: time.Minute})
	advance := fakeClock(l, time.Unix(1000, 0))

	l.Admit("client-a")
	advance(10 * time.Second)
	l.Admit("client-a")
	advance(10 * time.Second)

	d := l.Admit("client-a")
	if d.Allowed {
		t.Fatal("third request within window should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
	// Oldest admit was 20s ago, so a slot frees in 40s.
	if d.RetryAfter != 40*time.Second {
		t.Errorf("RetryAfter = %v, want 40s", d.RetryAfter)
	}
}

func TestAdmitAfterWindowSlides(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 2, Window: time.Minute})
	advance := fakeClock(l, time.Unix(1000, 0))

	l.Admit("client-a")
	l.Admit("client-a")
	if d := l.Admit("client-a"); d.Allowed {
		t.Fatal("expected denial at limit")
	}

	advance(61 * time.Second)

	if d := l.Admit("client-a"); !d.Allowed {
		t.Fatal("expected admission after window expired")
	}
}

func TestDeniedRequestsNotRecorded(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 1, Window: time.Minute})
	advance := fakeClock(l, time.Unix(1000, 0))

	l.Admit("client-a")
	for i := 0; i < 5; i++ {
		l.Admit("client-a")
	}

	// If denials were recorded they would push the free slot out; the only
	// admitted timestamp is at t0, so the slot frees exactly one window later.
	advance(61 * time.Second)
	if d := l.Admit("client-a"); !d.Allowed {
		t.Fatal("denied requests must not extend the window")
	}
}

func TestClientsIsolated(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 1, Window: time.Minute})
	fakeClock(l, time.Unix(1000, 0))

	if d := l.Admit("client-a"); !d.Allowed {
		t.Fatal("client-a first request should be admitted")
	}
	if d := l.Admit("client-b"); !d.Allowed {
		t.Fatal("client-b must have its own window")
	}
	if d := l.Admit("client-a"); d.Allowed {
		t.Fatal("client-a second request should be denied")
	}
}

func TestEmptyClientSharesUnknownBucket(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 2, Window: time.Minute})
	fakeClock(l, time.Unix(1000, 0))

	l.Admit("")
	l.Admit("")

	if d := l.Admit(""); d.Allowed {
		t.Fatal("anonymous requests share one bucket and should be denied")
	}
	if d := l.Admit(UnknownClient); d.Allowed {
		t.Fatal("explicit unknown client shares the anonymous bucket")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := NewLimiter(Config{Enabled: false, RequestsPerWindow: 1, Window: time.Minute})

	for i := 0; i < 100; i++ {
		if d := l.Admit("client-a"); !d.Allowed {
			t.Fatalf("request %d denied with limiter disabled", i+1)
		}
	}
	if got := l.ActiveClients(); got != 0 {
		t.Errorf("disabled limiter tracked %d clients, want 0", got)
	}
}

func TestCleanupRemovesEmptyWindows(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 5, Window: time.Minute})
	advance := fakeClock(l, time.Unix(1000, 0))

	l.Admit("client-a")
	l.Admit("client-b")
	advance(30 * time.Second)
	l.Admit("client-c")

	if got := l.ActiveClients(); got != 3 {
		t.Fatalf("ActiveClients = %d, want 3", got)
	}

	// Only a and b have fallen out of the window.
	advance(45 * time.Second)
	if removed := l.Cleanup(); removed != 2 {
		t.Errorf("Cleanup removed %d clients, want 2", removed)
	}
	if got := l.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients after cleanup = %d, want 1", got)
	}
}

func TestConcurrentAdmitNeverExceedsLimit(t *testing.T) {
	const limit = 50
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: limit, Window: time.Minute})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := l.Admit("client-a"); d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("admitted %d concurrent requests, want exactly %d", allowed, limit)
	}
}

func TestConcurrentDistinctClients(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerWindow: 1, Window: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if d := l.Admit(fmt.Sprintf("client-%d", n)); !d.Allowed {
				t.Errorf("client-%d denied its first request", n)
			}
		}(i)
	}
	wg.Wait()

	if got := l.ActiveClients(); got != 100 {
		t.Errorf("ActiveClients = %d, want 100", got)
	}
}

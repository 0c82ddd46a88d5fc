package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("4th request should be rate-limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	rl.allow("ip")
	clock.Advance(30 * time.Second)
	rl.allow("ip")
	if rl.allow("ip") {
		t.Fatal("should be rate-limited")
	}

	// The first request leaves the window; the second is still inside it.
	clock.Advance(31 * time.Second)
	if !rl.allow("ip") {
		t.Error("one slot should have freed up")
	}
	if rl.allow("ip") {
		t.Error("only one slot should have freed up")
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)
	for _, ip := range []string{"a", "b", "c"} {
		rl.allow(ip)
	}
	if rl.size() != 3 {
		t.Fatalf("size = %d, want 3", rl.size())
	}

	clock.Advance(2 * time.Minute)
	rl.allow("d")
	if rl.size() != 1 {
		t.Errorf("idle clients should be swept, size = %d", rl.size())
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)
	next, _ := okHandler()
	h := rl.Middleware(next)

	req := httptest.NewRequest(http.MethodPost, "/api/rsvp", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remote: "[::1]:8080", want: "::1"},
		{name: "remote without port", remote: "192.168.1.1", want: "192.168.1.1"},
		{name: "forwarded for", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, want: "203.0.113.5"},
		{name: "forwarded chain", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.2"}, want: "203.0.113.5"},
		{name: "real ip", remote: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, want: "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

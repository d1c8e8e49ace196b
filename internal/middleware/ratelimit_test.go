// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock returns a now func that the test advances by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	rl := NewRateLimiter(limit, window)
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Second)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("test-ip"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if ok, _ := rl.allow("test-ip"); ok {
		t.Error("4th request should be rate-limited")
	}

	if ok, _ := rl.allow("other-ip"); !ok {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.allow("test-ip")
	clock.t = clock.t.Add(20 * time.Second)
	rl.allow("test-ip")

	ok, wait := rl.allow("test-ip")
	if ok {
		t.Fatal("should be rate-limited")
	}
	if wait != 40*time.Second {
		t.Errorf("wait = %v, want 40s until the first request expires", wait)
	}

	clock.t = clock.t.Add(41 * time.Second)
	if ok, _ := rl.allow("test-ip"); !ok {
		t.Error("should be allowed after the first request left the window")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute)

	rl.allow("idle")
	clock.t = clock.t.Add(50 * time.Second)
	rl.allow("active")
	clock.t = clock.t.Add(20 * time.Second)

	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if _, ok := rl.clients["idle"]; ok {
		t.Error("idle client should be removed")
	}
	if _, ok := rl.clients["active"]; !ok {
		t.Error("active client should be kept")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/convert/markdown", nil)
		req.RemoteAddr = "203.0.113.7:52100"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(); rr.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rr.Code)
	}

	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
		{
			name:       "x-forwarded-for takes the first hop",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"},
			want:       "198.51.100.4",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.9 "},
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"
)

func send(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/get/Dune", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func limitPerIP(ctx context.Context, rpm, burst int) func(http.Handler) http.Handler {
	return RateLimitWithConfig(ctx, RateLimitConfig{RequestsPerMin: rpm, Burst: burst})
}

func TestRateLimitAllowsBurst(t *testing.T) {
	h := limitPerIP(t.Context(), 60, 10)(okHandler())
	for i := 0; i < 10; i++ {
		if w := send(h, "192.168.1.1:12345"); w.Code != http.StatusOK {
			t.Errorf("request %d: status %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimitBlocksExcess(t *testing.T) {
	h := limitPerIP(t.Context(), 6, 3)(okHandler())

	ok, blocked := 0, 0
	var last *httptest.ResponseRecorder
	for i := 0; i < 10; i++ {
		w := send(h, "192.168.1.1:12345")
		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			blocked++
			last = w
		}
	}
	if ok != 3 || blocked != 7 {
		t.Fatalf("ok=%d blocked=%d, want 3/7", ok, blocked)
	}
	if body := strings.TrimSpace(last.Body.String()); body != "TOO_MANY_REQUESTS" {
		t.Errorf("body = %q", body)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set on 429")
	}
}

func TestRateLimitSeparatesClients(t *testing.T) {
	h := limitPerIP(t.Context(), 6, 2)(okHandler())

	client1Blocked := false
	for i := 0; i < 3; i++ {
		if send(h, "192.168.1.1:12345").Code == http.StatusTooManyRequests {
			client1Blocked = true
		}
	}
	client2OK := 0
	for i := 0; i < 2; i++ {
		if send(h, "192.168.1.2:12345").Code == http.StatusOK {
			client2OK++
		}
	}
	if !client1Blocked {
		t.Error("client 1 should have been limited")
	}
	if client2OK != 2 {
		t.Errorf("client 2 got %d successes, want 2", client2OK)
	}
}

func TestRateLimitTokenRefill(t *testing.T) {
	if testing.Short() {
		t.Skip("time-dependent")
	}
	h := limitPerIP(t.Context(), 60, 1)(okHandler())

	if w := send(h, "192.168.1.1:1"); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	if w := send(h, "192.168.1.1:1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d, want 429", w.Code)
	}
	time.Sleep(1100 * time.Millisecond)
	if w := send(h, "192.168.1.1:1"); w.Code != http.StatusOK {
		t.Errorf("after refill: %d", w.Code)
	}
}

func TestRateLimitSweeperStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runtime.GC()
	time.Sleep(10 * time.Millisecond)
	before := runtime.NumGoroutine()

	h := limitPerIP(ctx, 60, 10)(okHandler())
	send(h, "192.168.1.1:12345")

	cancel()
	time.Sleep(100 * time.Millisecond)
	runtime.GC()

	if after := runtime.NumGoroutine(); after > before+2 {
		t.Errorf("possible goroutine leak: before=%d after=%d", before, after)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		xff     string
		xri     string
		trusted []string
		want    string
	}{
		{"no proxies strips port", "192.168.1.1:12345", "", "", nil, "192.168.1.1"},
		{"ipv6 peer", "[::1]:3030", "", "", nil, "::1"},
		{"untrusted peer ignores xff", "1.2.3.4:1", "8.8.8.8", "", []string{"192.168.1.1"}, "1.2.3.4"},
		{"no proxies ignores xff", "1.2.3.4:1", "8.8.8.8", "", nil, "1.2.3.4"},
		{"trusted peer uses first xff", "192.168.1.1:1", "203.0.113.1, 198.51.100.1", "", []string{"192.168.1.1"}, "203.0.113.1"},
		{"trusted peer uses x-real-ip", "192.168.1.1:1", "", "203.0.113.9", []string{"192.168.1.1"}, "203.0.113.9"},
		{"trusted peer without headers", "192.168.1.1:1", "", "", []string{"192.168.1.1"}, "192.168.1.1"},
		{"spoofed xff from attacker", "203.0.113.1:1", "8.8.8.8", "", []string{"10.0.0.1"}, "203.0.113.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req, tt.trusted); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitWithTrustedProxy(t *testing.T) {
	h := RateLimitWithConfig(t.Context(), RateLimitConfig{
		RequestsPerMin: 6,
		Burst:          1,
		TrustedProxies: []string{"10.0.0.1"},
	})(okHandler())

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("client %s: status %d, want 200", client, w.Code)
		}
	}
}

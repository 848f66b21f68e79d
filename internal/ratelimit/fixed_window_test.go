package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"loveletter/internal/httputil"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	ctx := context.Background()
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "ip-2") {
		t.Fatalf("other keys have their own quota")
	}
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if !limiter.Allow(ctx, "ip-1") || limiter.Allow(ctx, "ip-1") {
		t.Fatalf("expected exactly one request in the first window")
	}
	now = now.Add(time.Minute)
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("new window should reset the quota")
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow(context.Background(), "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	if l, err := NewRedisFixedWindowLimiter("", "", "p", 1, time.Second); err == nil || l != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
	if l, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Second); err == nil || l != nil {
		t.Fatalf("expected constructor error for zero limit")
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) bool { return false }

func TestMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("nil limiter passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		Middleware(nil, nil, log, nil)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/letters", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("denied request gets JSON 429", func(t *testing.T) {
		w := httptest.NewRecorder()
		Middleware(denyAll{}, nil, log, nil)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/letters", nil))
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Errorf("expected Retry-After header")
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected JSON body, got %q: %v", w.Body.String(), err)
		}
		if body["error"] != Message {
			t.Errorf("expected error %q, got %q", Message, body["error"])
		}
	})

	t.Run("custom rejection writer", func(t *testing.T) {
		w := httptest.NewRecorder()
		onLimit := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
		Middleware(denyAll{}, nil, log, onLimit)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		if w.Code != http.StatusTeapot {
			t.Errorf("expected custom status, got %d", w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Errorf("expected Retry-After header")
		}
	})
}

func TestMiddlewareForwardedHeadersShareQuota(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	trusted, err := httputil.ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("parse trusted proxies: %v", err)
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(limiter, trusted, log, nil)(ok)

	passed := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/letters", nil)
		req.RemoteAddr = "198.51.100.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.114.%d", i+1))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			passed++
		}
	}
	if passed != 1 {
		t.Fatalf("untrusted peer with rotating forwarded headers: %d of 5 passed, want 1", passed)
	}

	// Behind a trusted proxy each forwarded client has its own quota.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/letters", nil)
		req.RemoteAddr = "10.0.0.2:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("forwarded client %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

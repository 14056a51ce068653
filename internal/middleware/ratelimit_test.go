package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-market/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	l := newLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2, Expiry: time.Minute})

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "clients are limited independently")
}

func TestLimiter_EvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1, Expiry: 10 * time.Minute})
	l.now = func() time.Time { return now }

	l.Allow("idle")
	now = now.Add(5 * time.Minute)
	l.Allow("recent")

	now = now.Add(6 * time.Minute)
	l.evictIdle()

	assert.NotContains(t, l.clients, "idle")
	assert.Contains(t, l.clients, "recent")
}

func TestLimiter_SweepStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := newLimiter(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1, Expiry: time.Minute})

	done := make(chan struct{})
	go func() {
		l.sweep(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop")
	}
}

func TestRateLimit(t *testing.T) {
	l := newLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Expiry: time.Minute})
	handler := RateLimit(l, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(remoteAddr, forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/feedback", nil)
		req.RemoteAddr = remoteAddr
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send("192.0.2.1:5000", "").Code)

	limited := send("192.0.2.1:5001", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, send("192.0.2.1:5002", "198.51.100.7, 10.0.0.1").Code, "forwarded client has its own bucket")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{"Remote address", "192.0.2.1:1234", "", "192.0.2.1"},
		{"Forwarded first hop", "10.0.0.1:1234", "198.51.100.7, 10.0.0.2", "198.51.100.7"},
		{"Remote without port", "192.0.2.9", "", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.expected, clientIP(req))
		})
	}
}

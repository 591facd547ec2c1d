package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mekaushikranjan/ConnectLocal-sub002/broker"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(broker.NewRedisBroker(client, slog.Default()), slog.Default()), mr
}

func TestLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("should allow up to the limit and reject the next hit", func(t *testing.T) {
		req := require.New(t)
		limiter, _ := newTestLimiter(t)

		for i := 1; i <= 5; i++ {
			res := limiter.Consume(ctx, "send:user-1", time.Minute, 5)
			req.True(res.Allowed, "hit %d should pass", i)
			req.EqualValues(i, res.Count)
			req.EqualValues(5-i, res.Remaining)
		}

		res := limiter.Consume(ctx, "send:user-1", time.Minute, 5)
		req.False(res.Allowed)
		req.EqualValues(6, res.Count)
		req.Zero(res.Remaining)
	})

	t.Run("should start a fresh window after expiry", func(t *testing.T) {
		req := require.New(t)
		limiter, mr := newTestLimiter(t)

		for i := 0; i < 6; i++ {
			limiter.Consume(ctx, "send:user-2", time.Minute, 5)
		}
		mr.FastForward(2 * time.Minute)

		res := limiter.Consume(ctx, "send:user-2", time.Minute, 5)
		req.True(res.Allowed)
		req.EqualValues(1, res.Count)
	})

	t.Run("should keep identifiers independent", func(t *testing.T) {
		req := require.New(t)
		limiter, _ := newTestLimiter(t)

		for i := 0; i < 6; i++ {
			limiter.Consume(ctx, "login:203.0.113.5", 15*time.Minute, 5)
		}
		res := limiter.Consume(ctx, "login:203.0.113.5", 15*time.Minute, 5)
		req.False(res.Allowed)
		// ResetAt lands roughly 15 minutes after the first attempt.
		req.WithinDuration(time.Now().Add(15*time.Minute), res.ResetAt, 5*time.Second)

		other := limiter.Consume(ctx, "login:198.51.100.7", 15*time.Minute, 5)
		req.True(other.Allowed)
	})

	t.Run("should fail open when the broker is unreachable", func(t *testing.T) {
		req := require.New(t)
		limiter, mr := newTestLimiter(t)
		mr.Close()

		res := limiter.Consume(ctx, "send:user-3", time.Minute, 5)
		req.True(res.Allowed)
		req.EqualValues(5, res.Remaining)
	})
}

func TestLimiter_Middleware(t *testing.T) {
	req := require.New(t)
	limiter, _ := newTestLimiter(t)

	handler := limiter.Middleware("login", 15*time.Minute, 5,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = "203.0.113.5:51234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 5; i++ {
		req.Equal(http.StatusOK, do().Code)
	}

	rejected := do()
	req.Equal(http.StatusTooManyRequests, rejected.Code)
	req.Equal("0", rejected.Header().Get("X-RateLimit-Remaining"))
	req.NotEmpty(rejected.Header().Get("Retry-After"))
	req.NotEmpty(rejected.Header().Get("X-RateLimit-Reset"))
}

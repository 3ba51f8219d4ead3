package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pay/internal/common"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestIdemMiddlewareRejectsReplay(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	idem := common.Idem{R: client, TTL: time.Minute}

	var calls int
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
	first.Header.Set("Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)

	replay := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
	replay.Header.Set("Idempotency-Key", "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, replay)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, calls)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")
}

func TestIdemMiddlewarePassthroughWithoutKey(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	idem := common.Idem{R: client, TTL: time.Minute}

	var calls int
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/payouts", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 3, calls)
}

func TestIdemMiddlewareThreadsKeyIntoContext(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	idem := common.Idem{R: client, TTL: time.Minute}

	var seen string
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = common.IdempotencyKeyFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
	req.Header.Set("Idempotency-Key", "key-777")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "key-777", seen)
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints. Redis is optional;
// when no checker is configured readiness reports it as disabled rather
// than failing, since routing itself has no hard Redis dependency.
type Handler struct {
	Checker      Checker
	RedisTimeout time.Duration
	Gateways     func() int
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes and the number of
// configured gateway adapters.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redisStatus := "disabled"
	if h.Checker != nil {
		redisStatus = "ok"
		if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
			redisStatus = err.Error()
		}
	}

	gateways := 0
	if h.Gateways != nil {
		gateways = h.Gateways()
	}

	status := map[string]any{
		"redis":    redisStatus,
		"gateways": gateways,
	}
	w.Header().Set("Content-Type", "application/json")
	if (redisStatus != "ok" && redisStatus != "disabled") || gateways == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

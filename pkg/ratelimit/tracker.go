package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for back-off tracking.
var (
	catalogRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rate_limit_blocks_total",
		Help: "Total number of throttled responses carrying Retry-After",
	})

	catalogRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a back-off window to pass",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})
)

// Tracker records back-off windows announced by the catalog API and makes
// callers wait them out. A nil Redis client keeps the state in memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	local State
}

// NewTracker creates a tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState returns the current back-off state.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		s := t.local
		return &s, nil
	}

	blockedMs, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}
	status, err := t.redis.Get(ctx, RedisKeyLastStatus).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last status: %w", err)
	}

	state := &State{LastStatus: status}
	if blockedMs > 0 {
		state.BlockedUntil = time.UnixMilli(blockedMs)
	}
	return state, nil
}

// UpdateFromResponse opens a back-off window when the response is a
// throttling status carrying Retry-After. Other responses are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	if !IsThrottleStatus(status) {
		return nil
	}
	wait := ParseRetryAfter(headers)
	if wait <= 0 {
		return nil
	}
	if wait > MaxBlock {
		wait = MaxBlock
	}

	state := State{
		BlockedUntil: time.Now().Add(wait),
		LastStatus:   status,
	}

	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
	} else {
		pipe := t.redis.Pipeline()
		pipe.Set(ctx, RedisKeyBlockedUntil, strconv.FormatInt(state.BlockedUntil.UnixMilli(), 10), wait)
		pipe.Set(ctx, RedisKeyLastStatus, status, wait)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store back-off state in redis: %w", err)
		}
	}

	catalogRateLimitBlocksTotal.Inc()
	t.logger.Warn().
		Int("status_code", status).
		Dur("retry_after", wait).
		Time("blocked_until", state.BlockedUntil).
		Msg("Catalog requested back-off")

	return nil
}

// Wait blocks until any active back-off window has passed or ctx is done.
// An unreadable back-off state is logged and treated as not blocked; only
// ctx ends the wait with an error.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		t.logger.Warn().Err(err).Msg("Back-off state unavailable - continuing without it")
		return nil
	}
	if !state.IsBlocked() {
		return nil
	}

	wait := state.TimeUntilUnblock()
	t.logger.Info().
		Dur("wait_duration", wait).
		Int("status_code", state.LastStatus).
		Msg("Waiting for catalog back-off window")

	start := time.Now()
	defer func() {
		catalogRateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

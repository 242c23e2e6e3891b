// Package ratelimit enforces the request budget imposed by the Zurg API:
// at most N requests are admitted before a mandatory backoff pause, and
// consecutive requests are spaced by a minimum delay.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var mBackoffs = promauto.NewCounter(prometheus.CounterOpts{
	Name: "zurgmon_ratelimit_backoffs_total",
	Help: "Times the request window was exhausted and a backoff pause was taken.",
})

type Config struct {
	Requests int           // requests admitted per window
	Delay    time.Duration // minimum spacing between consecutive requests
	Backoff  time.Duration // mandatory pause once the window is exhausted
}

// Limiter serializes access to the shared Zurg request budget. Acquire
// always eventually returns; the only failure mode is context
// cancellation. Safe for concurrent use: callers are fully serialized,
// including across backoff pauses, so the window accounting stays exact
// no matter how many goroutines share the instance.
type Limiter struct {
	cfg    Config
	spacer *rate.Limiter
	log    *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu           sync.Mutex
	inWindow     int
	backoffUntil time.Time
}

func New(cfg Config, log *zap.Logger) *Limiter {
	l := &Limiter{
		cfg:   cfg,
		log:   log.With(zap.String("component", "ratelimit")),
		now:   time.Now,
		sleep: sleepCtx,
	}
	if cfg.Delay > 0 {
		l.spacer = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}
	return l
}

// Acquire blocks until the next outbound request may be issued. It must
// be called immediately before every request to the remote API.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now := l.now(); now.Before(l.backoffUntil) {
		if err := l.sleep(ctx, l.backoffUntil.Sub(now)); err != nil {
			return err
		}
	}
	if l.inWindow >= l.cfg.Requests {
		l.backoffUntil = l.now().Add(l.cfg.Backoff)
		l.inWindow = 0
		mBackoffs.Inc()
		l.log.Debug("request window exhausted, backing off",
			zap.Int("window", l.cfg.Requests),
			zap.Duration("backoff", l.cfg.Backoff))
		if err := l.sleep(ctx, l.cfg.Backoff); err != nil {
			return err
		}
	}
	l.inWindow++
	if l.spacer != nil {
		if err := l.spacer.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

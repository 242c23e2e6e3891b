// Package retry runs an operation under a bounded retry policy. The
// attempt bound and the set of retryable failures are explicit in the
// policy rather than implicit in error-handling control flow.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

// Fixed pauses the same amount between every attempt.
type Fixed struct {
	Pause time.Duration
}

func (b Fixed) Next(int) time.Duration { return b.Pause }

// ExpoJitter doubles the pause per attempt up to Max, with optional
// proportional jitter.
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && time.Duration(d) > b.Max {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

// Policy bounds an operation's retries. Attempts counts the initial try.
type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
}

var (
	mAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zurgmon_retry_attempts_total",
		Help: "Attempts made under a retry policy, including the first.",
	}, []string{"name"})
	mExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zurgmon_retry_exhausted_total",
		Help: "Operations that failed after all permitted attempts.",
	}, []string{"name"})
)

// Do runs fn until it succeeds, fails non-retryably, exhausts the
// attempt budget, or the context is cancelled during a pause.
func Do(ctx context.Context, p Policy, fn func() error) error {
	name := p.Name
	if name == "" {
		name = "default"
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return err != nil }
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		mAttempts.WithLabelValues(name).Inc()
		if err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		if !retryable(err) {
			return err
		}
		if i == attempts-1 {
			mExhausted.WithLabelValues(name).Inc()
			return err
		}
		pause := time.NewTimer(p.Backoff.Next(i))
		select {
		case <-ctx.Done():
			pause.Stop()
			return ctx.Err()
		case <-pause.C:
		}
	}
	return err
}

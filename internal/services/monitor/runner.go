package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

var (
	mCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zurgmon_cycles_total", Help: "Check cycles started.",
	})
	mCycleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zurgmon_cycle_failures_total", Help: "Check cycles aborted by a listing failure.",
	})
	mRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zurgmon_repairs_triggered_total", Help: "Repair triggers dispatched successfully.",
	})
	mRepairFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zurgmon_repair_failures_total", Help: "Repair triggers that failed.",
	})
	mBrokenCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zurgmon_broken_current", Help: "Broken torrents seen in the most recent completed cycle.",
	})
	mCycleDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "zurgmon_cycle_duration_seconds", Help: "Full cycle duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Runner drives the engine once or on a timer. Each cycle runs inside an
// error boundary: a failed cycle is logged and the loop continues at the
// next interval, so a single bad cycle never terminates monitoring.
// Cancellation is observed at cycle boundaries and during the
// inter-cycle sleep; the runner retains at most the previous cycle's
// result for diffing.
type Runner struct {
	Log      *zap.Logger
	Engine   *Engine
	Interval time.Duration
	Once     bool

	prev *torrent.CycleResult
}

// Run blocks until the context is cancelled (continuous mode) or the
// single cycle finishes (run-once mode).
func (r *Runner) Run(ctx context.Context) error {
	if r.Once {
		return r.cycle(ctx)
	}
	for {
		if err := r.cycle(ctx); err != nil && errors.Is(err, context.Canceled) {
			return err
		}
		r.Log.Info("next check scheduled", zap.Duration("in", r.Interval))
		pause := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			pause.Stop()
			return ctx.Err()
		case <-pause.C:
		}
	}
}

// cycle is the error boundary around one engine pass.
func (r *Runner) cycle(ctx context.Context) error {
	start := time.Now()
	mCycles.Inc()

	res, err := r.Engine.RunCycle(ctx, r.prev)
	mCycleDur.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.Log.Debug("cycle abandoned by shutdown")
			return err
		}
		mCycleFailures.Inc()
		r.Log.Error("check cycle failed", zap.Error(err))
		return err
	}

	r.prev = res
	mRepairs.Add(float64(res.RepairsTriggered))
	mRepairFailures.Add(float64(res.RepairFailures))
	mBrokenCurrent.Set(float64(len(res.BrokenIDs)))
	return nil
}

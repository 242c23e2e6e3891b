// Package monitor implements the check-and-repair cycle: fetch the
// listing, classify every item, diff against the previous cycle,
// dispatch repairs for unhealthy items, and fold the outcome into the
// running statistics.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
	"github.com/dkotenko/zurgmon/internal/obs"
	"github.com/dkotenko/zurgmon/internal/zurg"
)

// API is the slice of the Zurg client the engine needs.
type API interface {
	ListTorrents(ctx context.Context) ([]torrent.Torrent, error)
	TriggerRepair(ctx context.Context, hash string) error
}

// Events receives cycle lifecycle notifications. Implementations must
// absorb their own failures; publishing never affects the cycle outcome.
type Events interface {
	RepairTriggered(ctx context.Context, t torrent.Torrent)
	CycleCompleted(ctx context.Context, res *torrent.CycleResult, sum Summary)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Engine runs one cycle at a time. It owns no goroutines; the runner
// drives it, so all mutation happens on a single control flow.
type Engine struct {
	API    API
	Stats  *StatsTracker
	Events Events
	Clock  Clock
	Log    *zap.Logger
}

// RunCycle performs one fetch-classify-diff-repair pass. A listing
// failure aborts the cycle with only the check counter advanced; a
// per-item repair failure is recorded and the remaining items are still
// attempted.
func (e *Engine) RunCycle(ctx context.Context, prev *torrent.CycleResult) (*torrent.CycleResult, error) {
	tr := otel.Tracer("monitor.engine")
	ctx, span := tr.Start(ctx, "monitor.cycle")
	defer span.End()

	items, err := e.API.ListTorrents(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown during the fetch: abandoned, not recorded.
			return nil, ctx.Err()
		}
		e.Stats.RecordFailedCycle(err)
		span.RecordError(err)
		return nil, fmt.Errorf("list torrents: %w", err)
	}

	res := &torrent.CycleResult{
		Timestamp:      e.Clock.Now(),
		Counts:         make(map[torrent.Status]int, 4),
		BrokenIDs:      make(map[string]struct{}),
		UnderRepairIDs: make(map[string]struct{}),
	}

	// Classification keeps listing order; the same order drives repair
	// dispatch so rate-limiter interaction is deterministic for a given
	// listing. Duplicate ids count once toward dispatch.
	var unhealthy []torrent.Torrent
	dispatched := make(map[string]struct{})
	for _, t := range items {
		res.Total++
		st := Classify(t.State)
		res.Counts[st]++

		switch st {
		case torrent.StatusBroken:
			res.BrokenIDs[t.Hash] = struct{}{}
		case torrent.StatusUnderRepair:
			res.UnderRepairIDs[t.Hash] = struct{}{}
		default:
			continue
		}
		if _, ok := dispatched[t.Hash]; !ok {
			dispatched[t.Hash] = struct{}{}
			unhealthy = append(unhealthy, t)
		}
	}
	span.SetAttributes(
		attribute.Int("cycle.total", res.Total),
		attribute.Int("cycle.unhealthy", len(unhealthy)),
	)

	for _, t := range unhealthy {
		if ctx.Err() != nil {
			// Shutdown mid-cycle: abandon without reporting a
			// completed cycle.
			return nil, ctx.Err()
		}
		e.dispatchRepair(ctx, tr, t, res)
	}

	e.Stats.RecordCycle(res)

	sum := Summarize(prev, res)
	sum.Log(obs.WithTrace(ctx, e.Log))
	if e.Events != nil {
		e.Events.CycleCompleted(ctx, res, sum)
	}
	return res, nil
}

func (e *Engine) dispatchRepair(ctx context.Context, tr trace.Tracer, t torrent.Torrent, res *torrent.CycleResult) {
	ctx, span := tr.Start(ctx, "monitor.repair",
		trace.WithAttributes(attribute.String("torrent.hash", t.Hash)))
	defer span.End()

	err := e.API.TriggerRepair(ctx, t.Hash)
	switch {
	case err == nil:
		res.RepairsTriggered++
		e.Log.Info("repair triggered",
			zap.String("hash", t.Hash),
			zap.String("name", t.Name))
		if e.Events != nil {
			e.Events.RepairTriggered(ctx, t)
		}
	case zurg.IsNotFound(err):
		// The torrent vanished between listing and dispatch. An
		// expected race, counted in neither bucket.
		e.Log.Info("torrent gone before repair",
			zap.String("hash", t.Hash),
			zap.String("name", t.Name))
	default:
		res.RepairFailures++
		span.RecordError(err)
		e.Log.Error("repair trigger failed",
			zap.String("hash", t.Hash),
			zap.String("name", t.Name),
			zap.Error(err))
	}
}

package monitor

import (
	"sync"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

// StatsTracker owns the process-lifetime RunStats. Only the engine
// mutates it, once per completed cycle; the statusz and healthz
// endpoints read it concurrently, hence the lock.
type StatsTracker struct {
	mu      sync.Mutex
	s       torrent.RunStats
	lastErr error
}

func NewStatsTracker() *StatsTracker { return &StatsTracker{} }

// RecordFailedCycle accounts for a cycle whose listing fetch failed. Per
// the accounting rules only the check counter moves; the failure is
// retained for the health surface.
func (t *StatsTracker) RecordFailedCycle(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.ChecksPerformed++
	t.lastErr = err
}

// RecordCycle folds a completed cycle into the running totals.
func (t *StatsTracker) RecordCycle(res *torrent.CycleResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.ChecksPerformed++
	t.s.TotalBrokenSeen += int64(len(res.BrokenIDs))
	t.s.TotalRepairsTriggered += int64(res.RepairsTriggered)
	t.s.LastCheckAt = res.Timestamp
	if len(res.BrokenIDs) > 0 {
		t.s.LastBrokenAt = res.Timestamp
	}
	t.lastErr = nil
}

// Health reports the most recent cycle outcome. Startup connectivity is
// gated separately, so a nil error before the first cycle means healthy.
// Reading recorded state keeps health probes off the remote API and its
// rate budget.
func (t *StatsTracker) Health() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *StatsTracker) Snapshot() torrent.RunStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s
}

package monitor

import (
	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

// Summary is the per-cycle report handed to the logging collaborator.
type Summary struct {
	Total       int
	OK          int
	Broken      int
	UnderRepair int
	Unknown     int

	OKPct          float64
	BrokenPct      float64
	UnderRepairPct float64

	RepairsTriggered int
	RepairFailures   int

	// Set only when a previous cycle exists.
	Transitions *torrent.Transitions
	SuccessRate float64
}

// Summarize builds the report for cur, diffing against prev when given.
func Summarize(prev, cur *torrent.CycleResult) Summary {
	s := Summary{
		Total:            cur.Total,
		OK:               cur.Counts[torrent.StatusOK],
		Broken:           cur.Counts[torrent.StatusBroken],
		UnderRepair:      cur.Counts[torrent.StatusUnderRepair],
		Unknown:          cur.Counts[torrent.StatusUnknown],
		RepairsTriggered: cur.RepairsTriggered,
		RepairFailures:   cur.RepairFailures,
	}
	if cur.Total > 0 {
		s.OKPct = pct(s.OK, cur.Total)
		s.BrokenPct = pct(s.Broken, cur.Total)
		s.UnderRepairPct = pct(s.UnderRepair, cur.Total)
	}
	if prev != nil {
		s.Transitions = Diff(prev, cur)
		s.SuccessRate = SuccessRate(prev, s.Transitions)
	}
	return s
}

func pct(n, total int) float64 {
	return float64(n) / float64(total) * 100
}

// Log emits the summary as one structured event.
func (s Summary) Log(log *zap.Logger) {
	fields := []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("ok", s.OK),
		zap.Int("broken", s.Broken),
		zap.Int("under_repair", s.UnderRepair),
		zap.Int("unknown", s.Unknown),
		zap.Float64("ok_pct", s.OKPct),
		zap.Float64("broken_pct", s.BrokenPct),
		zap.Float64("under_repair_pct", s.UnderRepairPct),
		zap.Int("repairs_triggered", s.RepairsTriggered),
		zap.Int("repair_failures", s.RepairFailures),
	}
	if t := s.Transitions; t != nil {
		fields = append(fields,
			zap.Int("repaired_since_last", len(t.Repaired)),
			zap.Int("moved_to_repair", len(t.MovedToRepair)),
			zap.Int("still_broken", len(t.StillBroken)),
			zap.Int("still_under_repair", len(t.StillUnderRepair)),
			zap.Int("newly_broken", len(t.NewlyBroken)),
			zap.Float64("repair_success_rate_pct", s.SuccessRate),
		)
	}
	log.Info("check summary", fields...)
}

package torrent

import "time"

// Status classifies a torrent's health as reported by Zurg.
type Status uint8

const (
	StatusOK Status = iota
	StatusBroken
	StatusUnderRepair
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBroken:
		return "broken"
	case StatusUnderRepair:
		return "under_repair"
	default:
		return "unknown"
	}
}

// Torrent is one record from the Zurg listing. Identity is the info
// hash; the name is display-only.
type Torrent struct {
	Hash  string `json:"hash"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// CycleResult captures one completed check cycle. It is built by the
// engine and never mutated afterwards; only the previous cycle's result
// is retained between cycles.
type CycleResult struct {
	Timestamp        time.Time
	Total            int
	Counts           map[Status]int
	BrokenIDs        map[string]struct{}
	UnderRepairIDs   map[string]struct{}
	RepairsTriggered int
	RepairFailures   int
}

// Unhealthy returns the number of distinct ids eligible for repair.
func (r *CycleResult) Unhealthy() int {
	n := len(r.BrokenIDs)
	for id := range r.UnderRepairIDs {
		if _, ok := r.BrokenIDs[id]; !ok {
			n++
		}
	}
	return n
}

// Transitions buckets every id present in either of two consecutive
// cycles by what happened to it in between. Derived from set membership
// only, never stored.
type Transitions struct {
	Repaired         []string
	MovedToRepair    []string
	StillBroken      []string
	StillUnderRepair []string
	NewlyBroken      []string
}

// RunStats accumulates counters across cycles for the lifetime of the
// process. Counters are monotonically non-decreasing and are mutated
// only by the check engine.
type RunStats struct {
	ChecksPerformed       int64     `json:"checks_performed"`
	TotalBrokenSeen       int64     `json:"total_broken_seen"`
	TotalRepairsTriggered int64     `json:"total_repairs_triggered"`
	LastCheckAt           time.Time `json:"last_check_at"`
	LastBrokenAt          time.Time `json:"last_broken_at"`
}

package monitor

import (
	"sort"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

// Diff buckets every id present in either of two consecutive cycles by
// what happened to it in between. Pure set arithmetic; the result is for
// reporting only and never influences repair dispatch.
func Diff(prev, cur *torrent.CycleResult) *torrent.Transitions {
	t := &torrent.Transitions{}

	inCur := func(id string) bool {
		if _, ok := cur.BrokenIDs[id]; ok {
			return true
		}
		_, ok := cur.UnderRepairIDs[id]
		return ok
	}
	inPrev := func(id string) bool {
		if _, ok := prev.BrokenIDs[id]; ok {
			return true
		}
		_, ok := prev.UnderRepairIDs[id]
		return ok
	}

	for id := range prev.BrokenIDs {
		if _, ok := cur.BrokenIDs[id]; ok {
			t.StillBroken = append(t.StillBroken, id)
		}
		if _, ok := cur.UnderRepairIDs[id]; ok {
			t.MovedToRepair = append(t.MovedToRepair, id)
		}
		if !inCur(id) {
			t.Repaired = append(t.Repaired, id)
		}
	}
	for id := range prev.UnderRepairIDs {
		if _, ok := cur.UnderRepairIDs[id]; ok {
			t.StillUnderRepair = append(t.StillUnderRepair, id)
		}
		if !inCur(id) {
			if _, wasBroken := prev.BrokenIDs[id]; !wasBroken {
				t.Repaired = append(t.Repaired, id)
			}
		}
	}
	for id := range cur.BrokenIDs {
		if !inPrev(id) {
			t.NewlyBroken = append(t.NewlyBroken, id)
		}
	}

	for _, s := range [][]string{t.Repaired, t.MovedToRepair, t.StillBroken, t.StillUnderRepair, t.NewlyBroken} {
		sort.Strings(s)
	}
	return t
}

// SuccessRate is the share of previously unhealthy items repaired since
// the last cycle, in percent. Zero when nothing was unhealthy before.
func SuccessRate(prev *torrent.CycleResult, t *torrent.Transitions) float64 {
	denom := prev.Unhealthy()
	if denom == 0 {
		return 0
	}
	return float64(len(t.Repaired)) / float64(denom) * 100
}

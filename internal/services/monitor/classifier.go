package monitor

import (
	"strings"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

// Classify maps a raw Zurg state tag to a Status. The mapping is total:
// every input yields exactly one Status, with Unknown for anything
// unrecognized or malformed. Both the plain tags and the management-page
// tags ("status_broken") are understood.
func Classify(state string) torrent.Status {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "ok", "ready", "status_ok":
		return torrent.StatusOK
	case "broken", "status_broken":
		return torrent.StatusBroken
	case "under_repair", "repairing", "status_under_repair":
		return torrent.StatusUnderRepair
	default:
		return torrent.StatusUnknown
	}
}

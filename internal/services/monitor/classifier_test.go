package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		state string
		want  torrent.Status
	}{
		{"ok", torrent.StatusOK},
		{"ready", torrent.StatusOK},
		{"OK", torrent.StatusOK},
		{"broken", torrent.StatusBroken},
		{"status_broken", torrent.StatusBroken},
		{" Broken ", torrent.StatusBroken},
		{"under_repair", torrent.StatusUnderRepair},
		{"status_under_repair", torrent.StatusUnderRepair},
		{"repairing", torrent.StatusUnderRepair},
		{"", torrent.StatusUnknown},
		{"weird", torrent.StatusUnknown},
		{"brokenish", torrent.StatusUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.state), "state %q", c.state)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	for _, state := range []string{"ok", "broken", "under_repair", "garbage"} {
		first := Classify(state)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Classify(state))
		}
	}
}

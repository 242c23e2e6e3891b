package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
	"github.com/dkotenko/zurgmon/internal/obs/retry"
	"github.com/dkotenko/zurgmon/internal/services/monitor"
)

// MonitorEvents adapts the producer to the engine's Events port.
type MonitorEvents struct {
	p   *Producer
	log *zap.Logger
}

var _ monitor.Events = (*MonitorEvents)(nil)

func NewMonitorEvents(p *Producer, log *zap.Logger) *MonitorEvents {
	return &MonitorEvents{p: p, log: log.With(zap.String("component", "kafka.events"))}
}

type repairTriggeredEvent struct {
	Event string    `json:"event"`
	Hash  string    `json:"hash"`
	Name  string    `json:"name"`
	At    time.Time `json:"at"`
}

type cycleCompletedEvent struct {
	Event            string    `json:"event"`
	At               time.Time `json:"at"`
	Total            int       `json:"total"`
	OK               int       `json:"ok"`
	Broken           int       `json:"broken"`
	UnderRepair      int       `json:"under_repair"`
	Unknown          int       `json:"unknown"`
	RepairsTriggered int       `json:"repairs_triggered"`
	RepairFailures   int       `json:"repair_failures"`
}

func (e *MonitorEvents) RepairTriggered(ctx context.Context, t torrent.Torrent) {
	e.publish(ctx, t.Hash, repairTriggeredEvent{
		Event: "repair.triggered",
		Hash:  t.Hash,
		Name:  t.Name,
		At:    time.Now().UTC(),
	})
}

func (e *MonitorEvents) CycleCompleted(ctx context.Context, res *torrent.CycleResult, sum monitor.Summary) {
	e.publish(ctx, "cycle", cycleCompletedEvent{
		Event:            "cycle.completed",
		At:               res.Timestamp,
		Total:            sum.Total,
		OK:               sum.OK,
		Broken:           sum.Broken,
		UnderRepair:      sum.UnderRepair,
		Unknown:          sum.Unknown,
		RepairsTriggered: sum.RepairsTriggered,
		RepairFailures:   sum.RepairFailures,
	})
}

func (e *MonitorEvents) publish(ctx context.Context, key string, v any) {
	err := retry.Do(ctx, retry.PublishPolicy(e.log), func() error {
		return e.p.PublishJSON(ctx, key, v)
	})
	if err != nil {
		e.log.Warn("event dropped", zap.String("key", key), zap.Error(err))
	}
}

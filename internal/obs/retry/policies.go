package retry

import (
	"time"

	"go.uber.org/zap"
)

// PublishPolicy bounds Kafka event publishing. Event delivery is best
// effort and must never stall a check cycle for long.
func PublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "kafka.publish",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 100 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}

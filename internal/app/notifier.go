package app

import (
	"context"

	"github.com/rs/zerolog"

	"baclog/internal/domain"
)

// LogNotifier publishes threshold crossings to the structured log. It stands
// in for the external push/local notification layer in deployments that have
// none attached.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier writing to log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

var _ domain.Notifier = (*LogNotifier)(nil)

// NotifyThresholdCrossed logs the crossing. Crossings into higher categories
// log at warn level, recoveries at info.
func (n *LogNotifier) NotifyThresholdCrossed(_ context.Context, c domain.ThresholdCrossing) error {
	evt := n.log.Info()
	if levelRank(c.To) > levelRank(c.From) {
		evt = n.log.Warn()
	}
	evt.
		Int64("user_id", c.UserID).
		Str("from", string(c.From)).
		Str("to", string(c.To)).
		Float64("bac", c.Estimate.BAC).
		Time("legal_at", c.Estimate.LegalAt).
		Time("sober_at", c.Estimate.SoberAt).
		Msg("bac threshold crossed")
	return nil
}

func levelRank(l domain.Level) int {
	switch l {
	case domain.LevelCaution:
		return 1
	case domain.LevelWarning:
		return 2
	case domain.LevelDanger:
		return 3
	default:
		return 0
	}
}

package planner

import (
	"context"
	"time"

	"github.com/gridsmith/energyplanner/history"
)

// HistoryStore exposes recorded sensor states for strategies that react to
// live consumption data rather than to prices alone.
type HistoryStore interface {
	LatestState(ctx context.Context, entityID string) (string, time.Time, error)
	StatesSince(ctx context.Context, entityID string, since time.Time) ([]history.SensorState, error)
}

// dynamicLookback is how far back from the latest observation runDynamic
// reads consumption history.
const dynamicLookback = 24 * time.Hour

// runDynamic adjusts the current schedule in place from recent consumption
// history instead of replanning from prices. It never resets the slot store:
// a dynamic run with no usable history is a no-op, so the previous schedule
// keeps running.
func (p *Planner) runDynamic(ctx context.Context) error {
	if p.history == nil || p.config.HistoryEntityID == "" {
		p.logger.Info("dynamic strategy has no history source, keeping current schedule")
		return nil
	}
	state, recordedAt, err := p.history.LatestState(ctx, p.config.HistoryEntityID)
	if err != nil {
		p.logger.Warn("dynamic strategy could not read history", "entity", p.config.HistoryEntityID, "error", err)
		return nil
	}
	recent, err := p.history.StatesSince(ctx, p.config.HistoryEntityID, recordedAt.Add(-dynamicLookback))
	if err != nil {
		p.logger.Warn("dynamic strategy could not read history", "entity", p.config.HistoryEntityID, "error", err)
		return nil
	}
	p.logger.Info("dynamic strategy placeholder, keeping current schedule",
		"entity", p.config.HistoryEntityID, "observations", len(recent), "state", state, "recorded_at", recordedAt)
	return nil
}

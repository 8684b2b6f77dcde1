package systems

import (
	"time"

	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
)

// debugReporter writes the "Show Debug Info" output: per-agent tier changes
// with the distance and interval behind them, and a periodic summary.
type debugReporter struct {
	logger  logging.Logger
	every   time.Duration
	elapsed time.Duration
}

func newDebugReporter(logger logging.Logger, every time.Duration) *debugReporter {
	if every <= 0 {
		every = config.Tuning.DebugSummaryEvery
	}
	return &debugReporter{
		logger: logger.With(logging.String("debug", "dynamicai")),
		every:  every,
	}
}

func (d *debugReporter) tierChanged(agent *components.AgentData, from config.Tier) {
	d.logger.Info("tier changed",
		logging.String("agent", string(agent.ID)),
		logging.String("category", agent.Category.String()),
		logging.String("from", from.String()),
		logging.String("to", agent.Tier.String()),
		logging.Float("distance", agent.Distance),
		logging.Duration("interval", agent.Interval),
		logging.Bool("managed", agent.Managed),
	)
}

func (d *debugReporter) tick(dt time.Duration, r *Registry) {
	if dt > 0 {
		d.elapsed += dt
	}
	if d.elapsed < d.every {
		return
	}
	d.elapsed = 0

	counts := r.TierCounts()
	zone := r.Zone()
	d.logger.Info("status",
		logging.String("zone", string(zone.ZoneID)),
		logging.Bool("zone_enabled", zone.Enabled),
		logging.Float("range", zone.EffectiveRange),
		logging.String("rate", r.Rate().Setting.String()),
		logging.Int("tracked", r.Len()),
		logging.Int("managed", r.ManagedLen()),
		logging.Int("near", counts[config.TierNear]),
		logging.Int("mid", counts[config.TierMid]),
		logging.Int("far", counts[config.TierFar]),
		logging.Int("dormant", counts[config.TierDormant]),
	)
}

package systems

import (
	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
)

// RateControl is the configuration surface of the scheduler. Every setter
// takes effect synchronously: by the time it returns the registry has
// re-evaluated each tracked agent, so nothing is stale past the next tick.
//
// Whatever owns persistence calls Apply (or a setter) and may subscribe
// with OnChange; RateControl itself knows nothing about storage.
type RateControl struct {
	registry  *Registry
	listeners []func(config.Settings)
}

func NewRateControl(r *Registry) *RateControl {
	return &RateControl{registry: r}
}

// Settings returns a copy of the current settings.
func (c *RateControl) Settings() config.Settings {
	return c.registry.Settings()
}

// OnChange registers fn to receive every applied settings snapshot.
func (c *RateControl) OnChange(fn func(config.Settings)) {
	c.listeners = append(c.listeners, fn)
}

// Apply replaces the settings snapshot. Out-of-range values are clamped.
// A rate-only change swaps the rate profile without re-scanning agents;
// anything that affects which agents are managed triggers RefreshAll.
func (c *RateControl) Apply(s config.Settings) {
	r := c.registry
	next := s.Clamped()
	prev := r.settings

	r.settings = next
	if next.Rate != prev.Rate {
		r.scheduler.SetRate(NewRateProfile(next.Rate, r.tuning))
		r.logger.Info("rate changed",
			logging.String("from", prev.Rate.String()),
			logging.String("to", next.Rate.String()),
		)
	}
	if needsRefresh(prev, next) {
		r.RefreshAll()
	}

	for _, fn := range c.listeners {
		fn(next.Clone())
	}
}

// ApplyTuning swaps the tier boundaries and intervals at runtime.
func (c *RateControl) ApplyTuning(t config.TuningConfig) {
	r := c.registry
	r.tuning = t.Clamped()
	r.classifier = NewClassifier(r.tuning)
	r.scheduler.SetRate(NewRateProfile(r.settings.Rate, r.tuning))
	r.debug.every = r.tuning.DebugSummaryEvery
}

func (c *RateControl) SetEnabled(enabled bool) {
	s := c.Settings()
	s.Enabled = enabled
	c.Apply(s)
}

func (c *RateControl) SetRate(rate config.RateSetting) {
	s := c.Settings()
	s.Rate = rate
	c.Apply(s)
}

func (c *RateControl) SetCategory(cat config.Category, affected bool) {
	s := c.Settings()
	if affected {
		s.Categories = s.Categories.With(cat)
	} else {
		s.Categories = s.Categories.Without(cat)
	}
	c.Apply(s)
}

func (c *RateControl) SetZoneEnabled(zone config.ZoneID, enabled bool) {
	s := c.Settings()
	canon, _ := config.CanonicalZone(string(zone))
	if enabled {
		delete(s.DisabledZones, canon)
	} else {
		s.DisabledZones[canon] = struct{}{}
	}
	c.Apply(s)
}

func (c *RateControl) SetZoneRange(zone config.ZoneID, rng float64) {
	s := c.Settings()
	canon, _ := config.CanonicalZone(string(zone))
	s.ZoneRanges[canon] = rng
	c.Apply(s)
}

func (c *RateControl) SetGlobalRange(rng float64) {
	s := c.Settings()
	s.GlobalRange = rng
	c.Apply(s)
}

func (c *RateControl) SetUseZoneRanges(use bool) {
	s := c.Settings()
	s.UseZoneSpecificRanges = use
	c.Apply(s)
}

func (c *RateControl) SetDebug(debug bool) {
	s := c.Settings()
	s.DebugLogging = debug
	c.Apply(s)
}

func needsRefresh(prev, next config.Settings) bool {
	if prev.Enabled != next.Enabled ||
		prev.GlobalRange != next.GlobalRange ||
		prev.UseZoneSpecificRanges != next.UseZoneSpecificRanges ||
		prev.Categories != next.Categories ||
		len(prev.DisabledZones) != len(next.DisabledZones) ||
		len(prev.ZoneRanges) != len(next.ZoneRanges) {
		return true
	}
	for z := range next.DisabledZones {
		if !prev.DisabledZones.Has(z) {
			return true
		}
	}
	for z, r := range next.ZoneRanges {
		if old, ok := prev.ZoneRanges[z]; !ok || old != r {
			return true
		}
	}
	return false
}

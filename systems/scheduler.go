package systems

import (
	"time"

	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/config"
)

// RateProfile is an immutable snapshot of the per-tier intervals for one
// rate setting. Replace it wholesale; never edit one in place.
type RateProfile struct {
	Setting    config.RateSetting
	Multiplier float64
	base       [config.TierCount]time.Duration
}

func NewRateProfile(setting config.RateSetting, t config.TuningConfig) *RateProfile {
	t = t.Clamped()
	return &RateProfile{
		Setting:    setting,
		Multiplier: t.RateMultiplier(setting),
		base: [config.TierCount]time.Duration{
			config.TierNear:    0,
			config.TierMid:     t.MidInterval,
			config.TierFar:     t.FarInterval,
			config.TierDormant: t.DormantInterval,
		},
	}
}

// Base returns the unscaled interval for tier.
func (p *RateProfile) Base(tier config.Tier) time.Duration {
	if tier < 0 || tier >= config.TierCount {
		tier = config.TierNear
	}
	return p.base[tier]
}

// Interval returns how long an agent in tier must idle before it updates.
// Near is always zero: it runs at the simulation's native tick rate.
func (p *RateProfile) Interval(tier config.Tier) time.Duration {
	base := p.Base(tier)
	if base <= 0 || p.Multiplier <= 0 {
		return base
	}
	return time.Duration(float64(base) / p.Multiplier)
}

// Scheduler decides, per agent and per tick, whether the AI update is due.
type Scheduler struct {
	rate *RateProfile
}

func NewScheduler(rate *RateProfile) *Scheduler {
	if rate == nil {
		rate = NewRateProfile(config.RateMedium, config.Tuning)
	}
	return &Scheduler{rate: rate}
}

func (s *Scheduler) Rate() *RateProfile { return s.rate }

// SetRate swaps in a new rate snapshot. Accumulated idle time is kept, so a
// faster rate takes effect on the very next tick.
func (s *Scheduler) SetRate(p *RateProfile) {
	if p != nil {
		s.rate = p
	}
}

// Step advances one agent by dt and applies next, the tier the classifier
// picked for this tick. It reports whether the AI update must fire.
//
// The interval is checked against the tier the agent was in while it idled.
// Moving to a more active tier always fires on the same tick so a bot that
// just became relevant is never left waiting out a stale interval.
func (s *Scheduler) Step(agent *components.AgentData, dt time.Duration, next config.Tier) bool {
	if dt < 0 {
		dt = 0
	}
	agent.Idle += dt

	fire := agent.Idle >= s.rate.Interval(agent.Tier)

	prev := agent.Tier
	agent.Tier = next
	if next.MoreActiveThan(prev) {
		fire = true
	}

	if fire {
		agent.Idle = 0
		agent.Fires++
	}
	agent.Interval = s.rate.Interval(agent.Tier)
	return fire
}

// Reset puts an agent back to a fresh Near state, used when its management
// status flips.
func (s *Scheduler) Reset(agent *components.AgentData) {
	agent.Tier = config.TierNear
	agent.Idle = 0
	agent.Interval = 0
}

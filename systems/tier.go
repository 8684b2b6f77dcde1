package systems

import (
	"math"

	"github.com/automoto/dynamicai/config"
)

// Classifier maps a distance to a tier. Boundaries are multiples of the
// effective range; leaving a tier requires crossing its boundary by the
// hysteresis margin so agents pacing along a boundary do not flap.
type Classifier struct {
	multipliers [config.TierCount - 1]float64 // Near, Mid, Far upper bounds
	hysteresis  float64
}

func NewClassifier(t config.TuningConfig) Classifier {
	t = t.Clamped()
	return Classifier{
		multipliers: [config.TierCount - 1]float64{t.NearMultiplier, t.MidMultiplier, t.FarMultiplier},
		hysteresis:  t.Hysteresis,
	}
}

// Classify returns the tier for an agent at distance from its nearest
// observer. previous is the agent's current tier and only affects the
// dead-band; override forces Near. effectiveRange is raised to MinRange but
// never lowered, so distance <= effectiveRange is always Near.
func (c Classifier) Classify(distance, effectiveRange float64, override bool, previous config.Tier) config.Tier {
	if override {
		return config.TierNear
	}
	if math.IsNaN(distance) {
		distance = math.Inf(1)
	}
	effectiveRange = floorRange(effectiveRange)

	for i, m := range c.multipliers {
		tier := config.Tier(i)
		limit := effectiveRange * m
		if tier >= previous {
			limit *= 1 + c.hysteresis
		}
		if distance <= limit {
			return tier
		}
	}
	return config.TierDormant
}

// Boundary returns the raw upper distance of tier t for effectiveRange.
// Dormant has no upper bound.
func (c Classifier) Boundary(t config.Tier, effectiveRange float64) float64 {
	if t < 0 || int(t) >= len(c.multipliers) {
		return math.Inf(1)
	}
	return floorRange(effectiveRange) * c.multipliers[t]
}

func floorRange(r float64) float64 {
	if math.IsNaN(r) || r < config.MinRange {
		return config.MinRange
	}
	return r
}

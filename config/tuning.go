package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TuningConfig holds the scheduler constants that are not exposed in the
// settings UI. Near always updates every tick and has no interval.
type TuningConfig struct {
	// Tier boundaries as multiples of the effective range.
	NearMultiplier float64 `yaml:"near_multiplier"`
	MidMultiplier  float64 `yaml:"mid_multiplier"`
	FarMultiplier  float64 `yaml:"far_multiplier"`

	// Fractional dead-band applied before an agent may drop to a less active tier.
	Hysteresis float64 `yaml:"hysteresis"`

	MidInterval     time.Duration `yaml:"mid_interval"`
	FarInterval     time.Duration `yaml:"far_interval"`
	DormantInterval time.Duration `yaml:"dormant_interval"`

	// Interval divisors per rate setting.
	RateLow    float64 `yaml:"rate_low"`
	RateMedium float64 `yaml:"rate_medium"`
	RateHigh   float64 `yaml:"rate_high"`

	// How often the debug summary line is written while debug logging is on.
	DebugSummaryEvery time.Duration `yaml:"debug_summary_every"`
}

const (
	maxHysteresis   = 0.5
	minIntervalStep = time.Millisecond
)

// Tuning holds the built-in tuning defaults.
var Tuning TuningConfig

func init() {
	Tuning = TuningConfig{
		NearMultiplier: 1,
		MidMultiplier:  2,
		FarMultiplier:  4,
		Hysteresis:     0.05,

		MidInterval:     250 * time.Millisecond,
		FarInterval:     time.Second,
		DormantInterval: 5 * time.Second,

		RateLow:    0.5,
		RateMedium: 1,
		RateHigh:   2,

		DebugSummaryEvery: 5 * time.Second,
	}
}

// LoadTuning reads a YAML tuning file on top of the built-in defaults.
func LoadTuning(path string) (TuningConfig, error) {
	t := Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning, fmt.Errorf("%s: %w", path, err)
	}
	return t.Clamped(), nil
}

// RateMultiplier returns the interval divisor for r.
func (t TuningConfig) RateMultiplier(r RateSetting) float64 {
	switch r {
	case RateLow:
		return t.RateLow
	case RateHigh:
		return t.RateHigh
	default:
		return t.RateMedium
	}
}

// Clamped returns a copy in which the tier boundaries, intervals and rate
// multipliers are positive and strictly ordered.
func (t TuningConfig) Clamped() TuningConfig {
	out := t

	out.NearMultiplier = positiveOr(out.NearMultiplier, Tuning.NearMultiplier)
	out.MidMultiplier = atLeast(positiveOr(out.MidMultiplier, Tuning.MidMultiplier), out.NearMultiplier)
	out.FarMultiplier = atLeast(positiveOr(out.FarMultiplier, Tuning.FarMultiplier), out.MidMultiplier)

	if math.IsNaN(out.Hysteresis) || out.Hysteresis < 0 {
		out.Hysteresis = 0
	} else if out.Hysteresis > maxHysteresis {
		out.Hysteresis = maxHysteresis
	}

	if out.MidInterval < minIntervalStep {
		out.MidInterval = minIntervalStep
	}
	if out.FarInterval <= out.MidInterval {
		out.FarInterval = out.MidInterval + minIntervalStep
	}
	if out.DormantInterval <= out.FarInterval {
		out.DormantInterval = out.FarInterval + minIntervalStep
	}

	// Higher settings divide by more, so intervals shrink Low -> High.
	out.RateLow = positiveOr(out.RateLow, Tuning.RateLow)
	out.RateMedium = atLeast(positiveOr(out.RateMedium, Tuning.RateMedium), out.RateLow)
	out.RateHigh = atLeast(positiveOr(out.RateHigh, Tuning.RateHigh), out.RateMedium)

	if out.DebugSummaryEvery <= 0 {
		out.DebugSummaryEvery = Tuning.DebugSummaryEvery
	}
	return out
}

func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

func atLeast(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

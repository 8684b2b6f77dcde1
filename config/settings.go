package config

import "math"

const (
	MinRange           = 50.0
	MaxRange           = 1000.0
	DefaultGlobalRange = 100.0
)

// Settings is the live, user-editable configuration surface. Values are
// treated as immutable snapshots: take a Clone before mutating one that is
// already in use.
type Settings struct {
	Enabled               bool
	GlobalRange           float64
	Rate                  RateSetting
	UseZoneSpecificRanges bool
	DebugLogging          bool

	Categories    CategorySet        // categories subject to throttling
	DisabledZones ZoneSet            // zones where throttling is off
	ZoneRanges    map[ZoneID]float64 // per-zone overrides of the stock range
}

// DefaultSettings mirrors what a fresh install ships with.
func DefaultSettings() Settings {
	s := Settings{
		Enabled:               true,
		GlobalRange:           DefaultGlobalRange,
		Rate:                  RateMedium,
		UseZoneSpecificRanges: true,
		Categories: NewCategorySet(
			CategoryScav,
			CategoryRaider,
			CategoryCultist,
			CategoryFollower,
		),
		DisabledZones: NewZoneSet(),
		ZoneRanges:    make(map[ZoneID]float64, len(Zones)),
	}
	for _, z := range Zones {
		s.ZoneRanges[z.ID] = z.DefaultRange
	}
	return s
}

func (s Settings) Clone() Settings {
	out := s
	out.DisabledZones = s.DisabledZones.Clone()
	out.ZoneRanges = make(map[ZoneID]float64, len(s.ZoneRanges))
	for z, r := range s.ZoneRanges {
		out.ZoneRanges[z] = r
	}
	return out
}

// Clamped returns a copy with every value pulled into its valid bounds.
func (s Settings) Clamped() Settings {
	out := s.Clone()
	out.GlobalRange = ClampRange(out.GlobalRange)
	if out.Rate < 0 || out.Rate >= RateCount {
		out.Rate = RateMedium
	}
	out.Categories &= AllCategories
	for z, r := range out.ZoneRanges {
		out.ZoneRanges[z] = ClampRange(r)
	}
	return out
}

func (s Settings) ZoneEnabled(z ZoneID) bool {
	return !s.DisabledZones.Has(z)
}

// ClampRange pulls r into [MinRange, MaxRange]. NaN maps to the default.
func ClampRange(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return DefaultGlobalRange
	case r < MinRange:
		return MinRange
	case r > MaxRange:
		return MaxRange
	}
	return r
}

package systems

import (
	"github.com/automoto/dynamicai/config"
)

// ZoneProfile is the resolved throttling configuration of the active map.
type ZoneProfile struct {
	ZoneID         config.ZoneID
	Enabled        bool
	EffectiveRange float64
}

// ZoneSource reports which map the host has loaded.
type ZoneSource interface {
	ActiveZone() config.ZoneID
}

// FixedZone is a ZoneSource for hosts that run a single map.
type FixedZone config.ZoneID

func (z FixedZone) ActiveZone() config.ZoneID { return config.ZoneID(z) }

// ZoneResolver turns a zone identifier into a ZoneProfile for one settings
// snapshot. The enable toggle and the range source are independent: a zone
// can be disabled while global ranges are in use and vice versa.
type ZoneResolver struct {
	settings config.Settings
}

func NewZoneResolver(s config.Settings) *ZoneResolver {
	return &ZoneResolver{settings: s}
}

// Resolve never fails. Unknown zones are enabled and use the global range.
func (r *ZoneResolver) Resolve(id config.ZoneID) ZoneProfile {
	canon, known := config.CanonicalZone(string(id))

	p := ZoneProfile{
		ZoneID:         canon,
		Enabled:        r.settings.ZoneEnabled(canon),
		EffectiveRange: config.ClampRange(r.settings.GlobalRange),
	}
	if !r.settings.UseZoneSpecificRanges {
		return p
	}

	if zr, ok := r.settings.ZoneRanges[canon]; ok {
		p.EffectiveRange = config.ClampRange(zr)
	} else if known {
		info, _ := config.LookupZone(string(canon))
		p.EffectiveRange = config.ClampRange(info.DefaultRange)
	}
	return p
}

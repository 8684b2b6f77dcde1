package systems

import (
	"testing"

	"github.com/automoto/dynamicai/config"
)

func TestResolveIgnoresZoneRangesWhenDisabledGlobally(t *testing.T) {
	s := config.DefaultSettings()
	s.UseZoneSpecificRanges = false
	s.GlobalRange = 100
	s.ZoneRanges[config.ZoneWoods] = 350

	p := NewZoneResolver(s).Resolve("Woods")
	if p.EffectiveRange != 100 {
		t.Fatalf("EffectiveRange = %v, want 100", p.EffectiveRange)
	}
	if !p.Enabled {
		t.Fatal("Woods should stay enabled")
	}
}

func TestResolveUsesZoneRange(t *testing.T) {
	s := config.DefaultSettings()
	s.ZoneRanges[config.ZoneWoods] = 350

	tests := []struct {
		zone config.ZoneID
		want float64
	}{
		{"woods", 350},
		{"Woods", 350},
		{"bigmap", 180},
		{"factory4_night", 80},
		{"Ground Zero", 150},
	}
	r := NewZoneResolver(s)
	for _, tt := range tests {
		if got := r.Resolve(tt.zone).EffectiveRange; got != tt.want {
			t.Errorf("Resolve(%q).EffectiveRange = %v, want %v", tt.zone, got, tt.want)
		}
	}
}

func TestResolveKnownZoneWithoutOverrideUsesStockRange(t *testing.T) {
	s := config.DefaultSettings()
	delete(s.ZoneRanges, config.ZoneReserve)

	if got := NewZoneResolver(s).Resolve("rezervbase").EffectiveRange; got != 250 {
		t.Fatalf("EffectiveRange = %v, want 250", got)
	}
}

func TestResolveUnknownZoneFallsBack(t *testing.T) {
	s := config.DefaultSettings()
	s.GlobalRange = 175

	p := NewZoneResolver(s).Resolve("moon_base")
	if !p.Enabled {
		t.Fatal("unknown zone should be enabled")
	}
	if p.EffectiveRange != 175 {
		t.Fatalf("EffectiveRange = %v, want 175", p.EffectiveRange)
	}
	if p.ZoneID != "moon_base" {
		t.Fatalf("ZoneID = %q, want moon_base", p.ZoneID)
	}
}

func TestResolveEnableToggleIsIndependentOfRangeSource(t *testing.T) {
	s := config.DefaultSettings()
	s.UseZoneSpecificRanges = false
	s.DisabledZones = config.NewZoneSet(config.ZoneCustoms)

	p := NewZoneResolver(s).Resolve("bigmap")
	if p.Enabled {
		t.Fatal("Customs should be disabled even in global range mode")
	}
	if p.EffectiveRange != config.DefaultGlobalRange {
		t.Fatalf("EffectiveRange = %v, want %v", p.EffectiveRange, config.DefaultGlobalRange)
	}
}

func TestResolveClampsStoredRange(t *testing.T) {
	s := config.DefaultSettings()
	s.ZoneRanges[config.ZoneLabs] = -20

	if got := NewZoneResolver(s).Resolve(config.ZoneLabs).EffectiveRange; got != config.MinRange {
		t.Fatalf("EffectiveRange = %v, want %v", got, config.MinRange)
	}
}

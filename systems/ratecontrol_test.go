package systems

import (
	"testing"
	"time"

	"github.com/automoto/dynamicai/config"
)

func TestSetRateSwapsProfileWithoutRescan(t *testing.T) {
	r := NewRegistry(nil)
	control := NewRateControl(r)
	r.OnSpawn("scav-1", config.CategoryScav, at(250))
	r.Tick(testTick, origin)

	control.SetRate(config.RateHigh)
	if got := r.Rate().Setting; got != config.RateHigh {
		t.Fatalf("rate = %v, want High", got)
	}
	a, _ := r.Agent("scav-1")
	if a.Tier != config.TierFar || !a.Managed {
		t.Fatalf("agent reset by a rate change: tier=%v managed=%v", a.Tier, a.Managed)
	}
	if got := r.Rate().Interval(config.TierFar); got != 500*time.Millisecond {
		t.Fatalf("High Far interval = %v, want 500ms", got)
	}
}

func TestApplyClampsRanges(t *testing.T) {
	r := NewRegistry(nil)
	control := NewRateControl(r)

	control.SetGlobalRange(10)
	if got := control.Settings().GlobalRange; got != config.MinRange {
		t.Fatalf("GlobalRange = %v, want %v", got, config.MinRange)
	}
	control.SetZoneRange("bigmap", 5000)
	if got := control.Settings().ZoneRanges[config.ZoneCustoms]; got != config.MaxRange {
		t.Fatalf("Customs range = %v, want %v", got, config.MaxRange)
	}
}

func TestZoneRangeChangeUpdatesActiveZone(t *testing.T) {
	r := NewRegistry(nil, WithZoneSource(FixedZone(config.ZoneWoods)))
	control := NewRateControl(r)

	if got := r.Zone().EffectiveRange; got != 350 {
		t.Fatalf("Woods range = %v, want 350", got)
	}
	control.SetZoneRange("Woods", 500)
	if got := r.Zone().EffectiveRange; got != 500 {
		t.Fatalf("Woods range = %v, want 500", got)
	}
	control.SetUseZoneRanges(false)
	if got := r.Zone().EffectiveRange; got != config.DefaultGlobalRange {
		t.Fatalf("range in global mode = %v, want %v", got, config.DefaultGlobalRange)
	}
}

func TestSetZoneEnabledTogglesManagement(t *testing.T) {
	r := NewRegistry(nil, WithZoneSource(FixedZone(config.ZoneLabs)))
	control := NewRateControl(r)
	r.OnSpawn("raider", config.CategoryRaider, at(10))

	control.SetZoneEnabled("laboratory", false)
	if got := r.ManagedLen(); got != 0 {
		t.Fatalf("ManagedLen = %d, want 0", got)
	}
	control.SetZoneEnabled(config.ZoneLabs, true)
	if got := r.ManagedLen(); got != 1 {
		t.Fatalf("ManagedLen = %d, want 1", got)
	}
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	control := NewRateControl(NewRegistry(nil))

	var got []config.Settings
	control.OnChange(func(s config.Settings) { got = append(got, s) })

	control.SetDebug(true)
	control.SetRate(config.RateLow)

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
	if !got[1].DebugLogging || got[1].Rate != config.RateLow {
		t.Fatalf("last snapshot = %+v", got[1])
	}

	// Listeners get copies.
	got[1].ZoneRanges[config.ZoneWoods] = 999
	if control.Settings().ZoneRanges[config.ZoneWoods] == 999 {
		t.Fatal("listener mutated the live settings")
	}
}

func TestApplyTuningChangesBoundaries(t *testing.T) {
	r := NewRegistry(nil)
	control := NewRateControl(r)
	r.OnSpawn("scav-1", config.CategoryScav, at(150))

	tuning := config.Tuning
	tuning.NearMultiplier = 2
	tuning.MidMultiplier = 3
	tuning.FarInterval = 2 * time.Second
	control.ApplyTuning(tuning)
	r.Tick(testTick, origin)

	if a, _ := r.Agent("scav-1"); a.Tier != config.TierNear {
		t.Fatalf("tier = %v, want Near", a.Tier)
	}
	if got := r.Rate().Interval(config.TierFar); got != 2*time.Second {
		t.Fatalf("Far interval = %v, want 2s", got)
	}
}

func TestNeedsRefresh(t *testing.T) {
	base := config.DefaultSettings()

	rateOnly := base.Clone()
	rateOnly.Rate = config.RateHigh
	if needsRefresh(base, rateOnly) {
		t.Error("rate-only change needs refresh")
	}

	debugOnly := base.Clone()
	debugOnly.DebugLogging = true
	if needsRefresh(base, debugOnly) {
		t.Error("debug-only change needs refresh")
	}

	zone := base.Clone()
	zone.DisabledZones[config.ZoneFactory] = struct{}{}
	if !needsRefresh(base, zone) {
		t.Error("disabling a zone does not need refresh")
	}

	rng := base.Clone()
	rng.ZoneRanges[config.ZoneWoods] = 300
	if !needsRefresh(base, rng) {
		t.Error("zone range change does not need refresh")
	}
}

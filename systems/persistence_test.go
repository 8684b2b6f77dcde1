package systems

import (
	"errors"
	"testing"

	"github.com/automoto/dynamicai/config"
)

type memItems struct {
	items   map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMemItems() *memItems {
	return &memItems{items: make(map[string][]byte)}
}

func (m *memItems) LoadItem(key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.items[key], nil
}

func (m *memItems) SaveItem(key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.items[key] = data
	return nil
}

func TestLoadWithoutSaveReturnsDefaults(t *testing.T) {
	store := NewSettingsStore(newMemItems(), nil)

	s, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if ok {
		t.Fatal("Load reported saved settings on empty storage")
	}
	if s.GlobalRange != config.DefaultGlobalRange || s.Rate != config.RateMedium {
		t.Fatalf("Load = %+v, want defaults", s)
	}
}

func TestSaveThenLoad(t *testing.T) {
	store := NewSettingsStore(newMemItems(), nil)

	want := config.DefaultSettings()
	want.Rate = config.RateHigh
	want.GlobalRange = 300
	want.Categories = want.Categories.With(config.CategoryPMC).Without(config.CategoryScav)
	want.DisabledZones = config.NewZoneSet(config.ZoneFactory)
	want.ZoneRanges[config.ZoneWoods] = 500

	if err := store.Save(want); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	if got.Rate != want.Rate || got.GlobalRange != want.GlobalRange || got.Categories != want.Categories {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
	if !got.DisabledZones.Has(config.ZoneFactory) || got.ZoneRanges[config.ZoneWoods] != 500 {
		t.Fatalf("zone settings lost: %+v", got)
	}
}

func TestLoadClampsSavedValues(t *testing.T) {
	items := newMemItems()
	items.items[settingsItemKey] = []byte(`{"enabled":true,"globalRange":5,"rateSetting":"bogus","zoneRange":{"Shoreline":9000}}`)

	got, ok, err := NewSettingsStore(items, nil).Load()
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	if got.GlobalRange != config.MinRange {
		t.Fatalf("GlobalRange = %v, want %v", got.GlobalRange, config.MinRange)
	}
	if got.Rate != config.RateMedium {
		t.Fatalf("Rate = %v, want Medium", got.Rate)
	}
	if got.ZoneRanges[config.ZoneShoreline] != config.MaxRange {
		t.Fatalf("Shoreline range = %v, want %v", got.ZoneRanges[config.ZoneShoreline], config.MaxRange)
	}
}

func TestLoadPartialSaveKeepsDefaults(t *testing.T) {
	items := newMemItems()
	items.items[settingsItemKey] = []byte(`{"rateSetting":"High"}`)

	got, ok, err := NewSettingsStore(items, nil).Load()
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	def := config.DefaultSettings()
	if got.Rate != config.RateHigh {
		t.Fatalf("Rate = %v, want High", got.Rate)
	}
	if got.Enabled != def.Enabled {
		t.Fatalf("Enabled = %v, want %v", got.Enabled, def.Enabled)
	}
	if got.GlobalRange != def.GlobalRange {
		t.Fatalf("GlobalRange = %v, want %v", got.GlobalRange, def.GlobalRange)
	}
	if got.UseZoneSpecificRanges != def.UseZoneSpecificRanges {
		t.Fatalf("UseZoneSpecificRanges = %v, want %v", got.UseZoneSpecificRanges, def.UseZoneSpecificRanges)
	}
	if got.Categories != def.Categories {
		t.Fatalf("Categories = %v, want %v", got.Categories, def.Categories)
	}
}

func TestLoadCorruptData(t *testing.T) {
	items := newMemItems()
	items.items[settingsItemKey] = []byte("{not json")

	if _, ok, err := NewSettingsStore(items, nil).Load(); err == nil || ok {
		t.Fatalf("Load = ok %v, err %v, want parse error", ok, err)
	}
}

func TestBindAppliesAndSaves(t *testing.T) {
	items := newMemItems()
	store := NewSettingsStore(items, nil)

	saved := config.DefaultSettings()
	saved.Rate = config.RateLow
	if err := store.Save(saved); err != nil {
		t.Fatal(err)
	}

	control := NewRateControl(NewRegistry(nil))
	store.Bind(control)
	if got := control.Settings().Rate; got != config.RateLow {
		t.Fatalf("rate after Bind = %v, want Low", got)
	}

	before := items.saves
	control.SetGlobalRange(200)
	if items.saves != before+1 {
		t.Fatalf("saves = %d, want %d", items.saves, before+1)
	}
	got, _, _ := store.Load()
	if got.GlobalRange != 200 {
		t.Fatalf("saved GlobalRange = %v, want 200", got.GlobalRange)
	}
}

func TestBindSurvivesStorageErrors(t *testing.T) {
	items := newMemItems()
	items.loadErr = errors.New("disk gone")
	items.saveErr = errors.New("disk gone")

	control := NewRateControl(NewRegistry(nil))
	NewSettingsStore(items, nil).Bind(control)
	control.SetRate(config.RateHigh)

	if got := control.Settings().Rate; got != config.RateHigh {
		t.Fatalf("rate = %v, want High", got)
	}
}

package systems

import (
	"encoding/json"
	"fmt"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/quasilyte/gdata"
)

const settingsItemKey = "dynamicai_settings"

// ItemStore is the subset of gdata.Manager the settings store needs.
type ItemStore interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

// SavedSettings represents the settings data stored on disk
type SavedSettings struct {
	Enabled               bool               `json:"enabled"`
	GlobalRange           float64            `json:"globalRange"`
	RateSetting           string             `json:"rateSetting"`
	UseZoneSpecificRanges bool               `json:"useZoneSpecificRanges"`
	DebugLogging          bool               `json:"debugLogging"`
	Affect                map[string]bool    `json:"affect"`
	ZoneEnabled           map[string]bool    `json:"zoneEnabled"`
	ZoneRange             map[string]float64 `json:"zoneRange"`
}

// SettingsStore persists Settings between sessions. It sits outside the
// scheduler: it loads once, applies through RateControl and then saves on
// every change.
type SettingsStore struct {
	items  ItemStore
	logger logging.Logger
}

// OpenSettingsStore opens the per-user gdata storage for appName.
func OpenSettingsStore(appName string, logger logging.Logger) (*SettingsStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open settings storage: %w", err)
	}
	return NewSettingsStore(m, logger), nil
}

func NewSettingsStore(items ItemStore, logger logging.Logger) *SettingsStore {
	if logger == nil {
		logger = logging.Noop()
	}
	return &SettingsStore{items: items, logger: logger}
}

// Load returns the saved settings. ok is false when nothing was saved yet.
func (s *SettingsStore) Load() (settings config.Settings, ok bool, err error) {
	data, err := s.items.LoadItem(settingsItemKey)
	if err != nil {
		return config.DefaultSettings(), false, fmt.Errorf("load settings: %w", err)
	}
	if len(data) == 0 {
		return config.DefaultSettings(), false, nil
	}

	saved := fromSettings(config.DefaultSettings())
	if err := json.Unmarshal(data, &saved); err != nil {
		return config.DefaultSettings(), false, fmt.Errorf("parse saved settings: %w", err)
	}
	return saved.toSettings(), true, nil
}

// Save writes settings to storage.
func (s *SettingsStore) Save(settings config.Settings) error {
	data, err := json.Marshal(fromSettings(settings))
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	if err := s.items.SaveItem(settingsItemKey, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Bind applies any saved settings to c and keeps storage in sync with later
// changes. Storage failures are logged, never fatal.
func (s *SettingsStore) Bind(c *RateControl) {
	saved, ok, err := s.Load()
	if err != nil {
		s.logger.Warn("could not load saved settings", logging.Err(err))
	}
	if ok {
		c.Apply(saved)
	}
	c.OnChange(func(next config.Settings) {
		if err := s.Save(next); err != nil {
			s.logger.Warn("could not save settings", logging.Err(err))
		}
	})
}

func fromSettings(s config.Settings) SavedSettings {
	out := SavedSettings{
		Enabled:               s.Enabled,
		GlobalRange:           s.GlobalRange,
		RateSetting:           s.Rate.String(),
		UseZoneSpecificRanges: s.UseZoneSpecificRanges,
		DebugLogging:          s.DebugLogging,
		Affect:                make(map[string]bool, config.CategoryCount),
		ZoneEnabled:           make(map[string]bool),
		ZoneRange:             make(map[string]float64, len(s.ZoneRanges)),
	}
	for c := config.Category(0); c < config.CategoryCount; c++ {
		out.Affect[c.String()] = s.Categories.Has(c)
	}
	for z := range s.DisabledZones {
		out.ZoneEnabled[string(z)] = false
	}
	for z, r := range s.ZoneRanges {
		out.ZoneRange[string(z)] = r
	}
	return out
}

// toSettings expects saved to have been decoded over fromSettings of the
// defaults, so keys missing from an older save keep their stock values.
func (saved SavedSettings) toSettings() config.Settings {
	s := config.DefaultSettings()
	s.Enabled = saved.Enabled
	s.GlobalRange = saved.GlobalRange
	if rate, ok := config.ParseRateSetting(saved.RateSetting); ok {
		s.Rate = rate
	}
	s.UseZoneSpecificRanges = saved.UseZoneSpecificRanges
	s.DebugLogging = saved.DebugLogging

	for name, affected := range saved.Affect {
		cat, ok := config.ParseCategory(name)
		if !ok {
			continue
		}
		if affected {
			s.Categories = s.Categories.With(cat)
		} else {
			s.Categories = s.Categories.Without(cat)
		}
	}
	for z, enabled := range saved.ZoneEnabled {
		canon, _ := config.CanonicalZone(z)
		if enabled {
			delete(s.DisabledZones, canon)
		} else {
			s.DisabledZones[canon] = struct{}{}
		}
	}
	for z, r := range saved.ZoneRange {
		canon, _ := config.CanonicalZone(z)
		s.ZoneRanges[canon] = r
	}
	return s.Clamped()
}

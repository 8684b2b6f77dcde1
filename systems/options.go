package systems

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/automoto/dynamicai/config"
)

// Option names understood by SetOption. They match the keys a settings UI
// sends; zone options take the zone as key.
const (
	OptionEnabled               = "enabled"
	OptionGlobalRange           = "globalRange"
	OptionRateSetting           = "rateSetting"
	OptionUseZoneSpecificRanges = "useZoneSpecificRanges"
	OptionDebugLogging          = "debugLogging"
	OptionZoneEnabled           = "zoneEnabled"
	OptionZoneRange             = "zoneRange"

	optionAffectPrefix = "affect" // affectScavs, affectPMCs, ...
)

var (
	ErrUnknownOption = errors.New("unknown option")
	ErrInvalidValue  = errors.New("invalid option value")
)

// SetOption applies one named option from a string-typed source such as a
// network message or a command line. Values are validated here, at the
// boundary; accepted values go through the regular setters.
func (c *RateControl) SetOption(name, key, value string) error {
	switch name {
	case OptionEnabled:
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		c.SetEnabled(b)
	case OptionGlobalRange:
		f, err := parseRange(name, value)
		if err != nil {
			return err
		}
		c.SetGlobalRange(f)
	case OptionRateSetting:
		rate, ok := config.ParseRateSetting(value)
		if !ok {
			return fmt.Errorf("%s=%q: %w", name, value, ErrInvalidValue)
		}
		c.SetRate(rate)
	case OptionUseZoneSpecificRanges:
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		c.SetUseZoneRanges(b)
	case OptionDebugLogging:
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		c.SetDebug(b)
	case OptionZoneEnabled:
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s: missing zone: %w", name, ErrInvalidValue)
		}
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		c.SetZoneEnabled(config.ZoneID(key), b)
	case OptionZoneRange:
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s: missing zone: %w", name, ErrInvalidValue)
		}
		f, err := parseRange(name, value)
		if err != nil {
			return err
		}
		c.SetZoneRange(config.ZoneID(key), f)
	default:
		cat, ok := affectCategory(name)
		if !ok {
			return fmt.Errorf("%q: %w", name, ErrUnknownOption)
		}
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		c.SetCategory(cat, b)
	}
	return nil
}

func affectCategory(name string) (config.Category, bool) {
	if !strings.HasPrefix(name, optionAffectPrefix) {
		return 0, false
	}
	return config.ParseCategory(strings.TrimPrefix(name, optionAffectPrefix))
}

func parseBool(name, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s=%q: %w", name, value, ErrInvalidValue)
	}
	return b, nil
}

func parseRange(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < config.MinRange || f > config.MaxRange {
		return 0, fmt.Errorf("%s=%q: want %v..%v: %w", name, value, config.MinRange, config.MaxRange, ErrInvalidValue)
	}
	return f, nil
}

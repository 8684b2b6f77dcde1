package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTuningOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte("mid_multiplier: 2.5\nfar_interval: 2s\nhysteresis: 0.1\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning error: %v", err)
	}
	if got.MidMultiplier != 2.5 || got.FarInterval != 2*time.Second || got.Hysteresis != 0.1 {
		t.Fatalf("LoadTuning = %+v", got)
	}
	if got.NearMultiplier != Tuning.NearMultiplier || got.DormantInterval != Tuning.DormantInterval {
		t.Fatalf("unset keys lost their defaults: %+v", got)
	}
}

func TestLoadTuningErrors(t *testing.T) {
	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadTuning of a missing file returned no error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mid_interval: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTuning(path)
	if err == nil {
		t.Fatal("LoadTuning of malformed YAML returned no error")
	}
	if got != Tuning {
		t.Fatalf("LoadTuning on error = %+v, want defaults", got)
	}
}

func TestTuningClampedOrdersTiers(t *testing.T) {
	in := TuningConfig{
		NearMultiplier:  3,
		MidMultiplier:   1,
		FarMultiplier:   -1,
		Hysteresis:      2,
		MidInterval:     time.Second,
		FarInterval:     time.Millisecond,
		DormantInterval: 0,
		RateLow:         4,
		RateMedium:      1,
		RateHigh:        0,
	}
	got := in.Clamped()

	if !(got.NearMultiplier <= got.MidMultiplier && got.MidMultiplier <= got.FarMultiplier) {
		t.Errorf("multipliers not ordered: %v %v %v", got.NearMultiplier, got.MidMultiplier, got.FarMultiplier)
	}
	if !(got.MidInterval < got.FarInterval && got.FarInterval < got.DormantInterval) {
		t.Errorf("intervals not ordered: %v %v %v", got.MidInterval, got.FarInterval, got.DormantInterval)
	}
	if !(got.RateLow <= got.RateMedium && got.RateMedium <= got.RateHigh) {
		t.Errorf("rate multipliers not ordered: %v %v %v", got.RateLow, got.RateMedium, got.RateHigh)
	}
	if got.Hysteresis != maxHysteresis {
		t.Errorf("Hysteresis = %v, want %v", got.Hysteresis, maxHysteresis)
	}
	if got.DebugSummaryEvery != Tuning.DebugSummaryEvery {
		t.Errorf("DebugSummaryEvery = %v, want default", got.DebugSummaryEvery)
	}
}

func TestDefaultTuningIsStable(t *testing.T) {
	if got := Tuning.Clamped(); got != Tuning {
		t.Fatalf("Tuning.Clamped() = %+v, want %+v", got, Tuning)
	}
}

func TestShippedTuningMatchesDefaults(t *testing.T) {
	got, err := LoadTuning(filepath.Join("..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("LoadTuning error: %v", err)
	}
	if got != Tuning {
		t.Fatalf("configs/tuning.yaml = %+v, want %+v", got, Tuning)
	}
}

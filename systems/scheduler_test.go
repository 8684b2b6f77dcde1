package systems

import (
	"testing"
	"time"

	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/config"
)

func TestIntervalsGrowWithTier(t *testing.T) {
	for rate := config.RateLow; rate < config.RateCount; rate++ {
		p := NewRateProfile(rate, config.Tuning)
		if got := p.Interval(config.TierNear); got != 0 {
			t.Errorf("%v: Near interval = %v, want 0", rate, got)
		}
		for tier := config.TierMid; tier < config.TierCount; tier++ {
			if p.Interval(tier) <= p.Interval(tier-1) {
				t.Errorf("%v: interval(%v) = %v, want > interval(%v) = %v",
					rate, tier, p.Interval(tier), tier-1, p.Interval(tier-1))
			}
		}
	}
}

func TestHigherRateNeverSlower(t *testing.T) {
	low := NewRateProfile(config.RateLow, config.Tuning)
	medium := NewRateProfile(config.RateMedium, config.Tuning)
	high := NewRateProfile(config.RateHigh, config.Tuning)

	for tier := config.TierNear; tier < config.TierCount; tier++ {
		if !(low.Interval(tier) >= medium.Interval(tier) && medium.Interval(tier) >= high.Interval(tier)) {
			t.Errorf("%v: low=%v medium=%v high=%v, want non-increasing",
				tier, low.Interval(tier), medium.Interval(tier), high.Interval(tier))
		}
	}
	if got := high.Interval(config.TierFar); got != 500*time.Millisecond {
		t.Fatalf("High Far interval = %v, want 500ms", got)
	}
	if got := low.Interval(config.TierFar); got != 2*time.Second {
		t.Fatalf("Low Far interval = %v, want 2s", got)
	}
}

func TestStepFarFiresOncePerInterval(t *testing.T) {
	s := NewScheduler(NewRateProfile(config.RateMedium, config.Tuning))
	agent := &components.AgentData{Tier: config.TierFar, Managed: true}

	fires := 0
	for i := 0; i < 10; i++ {
		if s.Step(agent, 100*time.Millisecond, config.TierFar) {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("fires = %d, want 1", fires)
	}
	if agent.Idle != 0 {
		t.Fatalf("Idle after firing on the last tick = %v, want 0", agent.Idle)
	}
	if agent.Fires != 1 {
		t.Fatalf("Fires = %d, want 1", agent.Fires)
	}
}

func TestStepSkipKeepsIdle(t *testing.T) {
	s := NewScheduler(nil)
	agent := &components.AgentData{Tier: config.TierDormant}

	if s.Step(agent, time.Second, config.TierDormant) {
		t.Fatal("dormant agent fired after 1s")
	}
	if agent.Idle != time.Second {
		t.Fatalf("Idle = %v, want 1s", agent.Idle)
	}
	if agent.Interval != 5*time.Second {
		t.Fatalf("Interval = %v, want 5s", agent.Interval)
	}
}

func TestStepUpgradeFiresImmediately(t *testing.T) {
	s := NewScheduler(nil)
	agent := &components.AgentData{Tier: config.TierDormant}

	if !s.Step(agent, time.Millisecond, config.TierNear) {
		t.Fatal("upgrade from Dormant to Near did not fire")
	}
	if agent.Tier != config.TierNear {
		t.Fatalf("Tier = %v, want Near", agent.Tier)
	}
}

func TestStepDowngradeDoesNotFire(t *testing.T) {
	s := NewScheduler(nil)
	agent := &components.AgentData{Tier: config.TierMid}

	if s.Step(agent, 10*time.Millisecond, config.TierFar) {
		t.Fatal("downgrade from Mid to Far fired early")
	}
	if agent.Tier != config.TierFar {
		t.Fatalf("Tier = %v, want Far", agent.Tier)
	}
}

func TestStepNegativeDeltaIsIgnored(t *testing.T) {
	s := NewScheduler(nil)
	agent := &components.AgentData{Tier: config.TierMid, Idle: 100 * time.Millisecond}

	s.Step(agent, -time.Second, config.TierMid)
	if agent.Idle != 100*time.Millisecond {
		t.Fatalf("Idle = %v, want 100ms", agent.Idle)
	}
}

func TestSetRateAppliesToAccumulatedIdle(t *testing.T) {
	s := NewScheduler(NewRateProfile(config.RateLow, config.Tuning))
	agent := &components.AgentData{Tier: config.TierFar}

	if s.Step(agent, 600*time.Millisecond, config.TierFar) {
		t.Fatal("Low Far fired after 600ms")
	}
	s.SetRate(NewRateProfile(config.RateHigh, config.Tuning))
	if !s.Step(agent, 0, config.TierFar) {
		t.Fatal("High Far did not fire with 600ms idle")
	}
}

package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTickCountsUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewThrottleCollector(reg)
	if err != nil {
		t.Fatalf("NewThrottleCollector: %v", err)
	}

	c.ObserveTick(200*time.Microsecond, 3, 7)
	c.ObserveTick(100*time.Microsecond, 1, 0)

	if got := testutil.ToFloat64(c.AIUpdates); got != 4 {
		t.Fatalf("dynamicai_ai_updates_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.SkippedUpdates); got != 7 {
		t.Fatalf("dynamicai_skipped_updates_total = %v, want 7", got)
	}
	if got := testutil.CollectAndCount(c.TickDuration); got != 1 {
		t.Fatalf("tick histogram series = %d, want 1", got)
	}
}

func TestSetPopulationLabelsEveryTier(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewThrottleCollector(reg)
	if err != nil {
		t.Fatalf("NewThrottleCollector: %v", err)
	}

	c.SetPopulation([config.TierCount]int{4, 3, 2, 1}, 6, 10)

	want := map[string]float64{"Near": 4, "Mid": 3, "Far": 2, "Dormant": 1}
	for tier, n := range want {
		if got := testutil.ToFloat64(c.AgentsByTier.WithLabelValues(tier)); got != n {
			t.Fatalf("dynamicai_agents{tier=%q} = %v, want %v", tier, got, n)
		}
	}
	if got := testutil.ToFloat64(c.ManagedAgents); got != 6 {
		t.Fatalf("dynamicai_managed_agents = %v, want 6", got)
	}
	if got := testutil.ToFloat64(c.TrackedAgents); got != 10 {
		t.Fatalf("dynamicai_tracked_agents = %v, want 10", got)
	}
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewThrottleCollector(reg)
	if err != nil {
		t.Fatalf("first NewThrottleCollector: %v", err)
	}
	second, err := NewThrottleCollector(reg)
	if err != nil {
		t.Fatalf("second NewThrottleCollector: %v", err)
	}

	first.AIUpdates.Inc()
	if got := testutil.ToFloat64(second.AIUpdates); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewThrottleCollector(reg)
	if err != nil {
		t.Fatalf("NewThrottleCollector: %v", err)
	}
	c.SetPopulation([config.TierCount]int{1, 0, 0, 0}, 1, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `dynamicai_agents{tier="Near"} 1`) {
		t.Fatalf("metrics output missing tier gauge:\n%s", body)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *ThrottleCollector
	c.ObserveTick(time.Millisecond, 1, 1)
	c.SetPopulation([config.TierCount]int{}, 0, 0)
	if c.Gatherer() != nil {
		t.Fatal("nil collector should have no gatherer")
	}
}

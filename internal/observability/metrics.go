package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ThrottleCollector exposes the dynamic AI scheduler as Prometheus metrics.
type ThrottleCollector struct {
	gatherer prometheus.Gatherer

	AgentsByTier   *prometheus.GaugeVec
	TrackedAgents  prometheus.Gauge
	ManagedAgents  prometheus.Gauge
	AIUpdates      prometheus.Counter
	SkippedUpdates prometheus.Counter
	TickDuration   prometheus.Histogram
}

// NewThrottleCollector registers the scheduler metrics against reg,
// defaulting to the global Prometheus registry when nil.
func NewThrottleCollector(reg prometheus.Registerer) (*ThrottleCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	byTier, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dynamicai_agents",
		Help: "Tracked agents per scheduling tier.",
	}, []string{"tier"}), "dynamicai_agents")
	if err != nil {
		return nil, err
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dynamicai_tracked_agents",
		Help: "Agents currently in the registry.",
	}), "dynamicai_tracked_agents")
	if err != nil {
		return nil, err
	}

	managed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dynamicai_managed_agents",
		Help: "Agents currently subject to throttling.",
	}), "dynamicai_managed_agents")
	if err != nil {
		return nil, err
	}

	updates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dynamicai_ai_updates_total",
		Help: "AI updates invoked by the scheduler.",
	}), "dynamicai_ai_updates_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dynamicai_skipped_updates_total",
		Help: "Agent ticks on which the AI update was skipped.",
	}), "dynamicai_skipped_updates_total")
	if err != nil {
		return nil, err
	}

	tick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dynamicai_tick_duration_seconds",
		Help:    "Wall time spent in one registry tick.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}), "dynamicai_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &ThrottleCollector{
		gatherer:       gatherer,
		AgentsByTier:   byTier,
		TrackedAgents:  tracked,
		ManagedAgents:  managed,
		AIUpdates:      updates,
		SkippedUpdates: skipped,
		TickDuration:   tick,
	}, nil
}

// ObserveTick records one registry tick.
func (c *ThrottleCollector) ObserveTick(d time.Duration, fired, skipped int) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
	c.AIUpdates.Add(float64(fired))
	c.SkippedUpdates.Add(float64(skipped))
}

// SetPopulation updates the per-tier and total gauges.
func (c *ThrottleCollector) SetPopulation(byTier [config.TierCount]int, managed, tracked int) {
	if c == nil {
		return
	}
	for t := config.Tier(0); t < config.TierCount; t++ {
		c.AgentsByTier.WithLabelValues(t.String()).Set(float64(byTier[t]))
	}
	c.ManagedAgents.Set(float64(managed))
	c.TrackedAgents.Set(float64(tracked))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ThrottleCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ThrottleCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

package systems

import (
	"math"
	"time"

	"github.com/automoto/dynamicai/archetypes"
	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// AIUpdater runs one AI decision step for a bot. It is opaque to the
// scheduler, which only decides when to call it.
type AIUpdater interface {
	InvokeAIUpdate(id config.AgentID)
}

// AIUpdaterFunc adapts a plain function to AIUpdater.
type AIUpdaterFunc func(id config.AgentID)

func (f AIUpdaterFunc) InvokeAIUpdate(id config.AgentID) { f(id) }

// AgentValidator is optionally implemented by the AIUpdater. Agents it
// reports invalid are dropped during the tick.
type AgentValidator interface {
	AgentValid(id config.AgentID) bool
}

// Metrics receives per-tick scheduler statistics.
type Metrics interface {
	ObserveTick(d time.Duration, fired, skipped int)
	SetPopulation(byTier [config.TierCount]int, managed, tracked int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(time.Duration, int, int)           {}
func (noopMetrics) SetPopulation([config.TierCount]int, int, int) {}

var agentQuery = donburi.NewQuery(filter.Contains(tags.Agent))

// Registry owns the set of tracked agents and drives the per-tick flow.
// It is built once per simulation session and is not safe for concurrent
// use: call it from the simulation loop only.
type Registry struct {
	world   donburi.World
	index   map[config.AgentID]donburi.Entity
	updater AIUpdater
	zones   ZoneSource
	logger  logging.Logger
	metrics Metrics
	debug   *debugReporter

	settings   config.Settings
	tuning     config.TuningConfig
	zone       ZoneProfile
	classifier Classifier
	scheduler  *Scheduler

	ticking  bool
	pending  []donburi.Entity
	snapshot []donburi.Entity
}

// Option configures a Registry.
type Option func(*Registry)

// WithWorld stores agents in an existing donburi world, e.g. one that is
// also network-synced.
func WithWorld(w donburi.World) Option {
	return func(r *Registry) { r.world = w }
}

func WithZoneSource(z ZoneSource) Option {
	return func(r *Registry) { r.zones = z }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func WithSettings(s config.Settings) Option {
	return func(r *Registry) { r.settings = s.Clamped() }
}

func WithTuning(t config.TuningConfig) Option {
	return func(r *Registry) { r.tuning = t.Clamped() }
}

// NewRegistry builds a registry that calls updater whenever an agent's AI
// update is due.
func NewRegistry(updater AIUpdater, opts ...Option) *Registry {
	r := &Registry{
		index:    make(map[config.AgentID]donburi.Entity),
		updater:  updater,
		settings: config.DefaultSettings(),
		tuning:   config.Tuning,
		logger:   logging.Noop(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.world == nil {
		r.world = donburi.NewWorld()
	}
	if r.zones == nil {
		r.zones = FixedZone("")
	}
	if r.updater == nil {
		r.updater = AIUpdaterFunc(func(config.AgentID) {})
	}
	r.logger = r.logger.With(logging.String("component", "dynamicai"))
	r.classifier = NewClassifier(r.tuning)
	r.scheduler = NewScheduler(NewRateProfile(r.settings.Rate, r.tuning))
	r.debug = newDebugReporter(r.logger, r.tuning.DebugSummaryEvery)
	r.zone = NewZoneResolver(r.settings).Resolve(r.zones.ActiveZone())
	return r
}

// World exposes the donburi world the agents live in.
func (r *Registry) World() donburi.World { return r.world }

// OnSpawn starts tracking a bot. Agents whose category is filtered out are
// still tracked, but unmanaged, so a later filter change can pick them up
// without a respawn. A second spawn for a live ID is ignored.
func (r *Registry) OnSpawn(id config.AgentID, category config.Category, pos gamemath.Vec3) {
	if _, ok := r.index[id]; ok {
		r.logger.Debug("duplicate spawn ignored", logging.String("agent", string(id)))
		return
	}

	entry := archetypes.Agent.Spawn(r.world)
	components.Agent.Set(entry, &components.AgentData{
		ID:       id,
		Category: category,
		Tier:     config.TierNear,
	})
	components.Position.Set(entry, &components.PositionData{Vec3: pos})
	r.index[id] = entry.Entity()

	r.refreshAgent(components.Agent.Get(entry))
}

// OnDespawn stops tracking a bot. Unknown IDs are a no-op. When called from
// inside Tick (e.g. by the AI hook) the entity is removed after the loop.
func (r *Registry) OnDespawn(id config.AgentID) {
	entity, ok := r.index[id]
	if !ok {
		return
	}
	delete(r.index, id)

	if r.ticking {
		if r.world.Valid(entity) {
			components.Agent.Get(r.world.Entry(entity)).Despawned = true
		}
		r.pending = append(r.pending, entity)
		return
	}
	r.removeEntity(entity)
}

// UpdatePosition records the latest position of a bot before the tick runs.
func (r *Registry) UpdatePosition(id config.AgentID, pos gamemath.Vec3) bool {
	entry, ok := r.Entry(id)
	if !ok {
		return false
	}
	components.Position.Get(entry).Vec3 = pos
	return true
}

// SetEngaged toggles the always-active override for a bot, e.g. when it
// enters or leaves combat with an observer.
func (r *Registry) SetEngaged(id config.AgentID, engaged bool) bool {
	entry, ok := r.Entry(id)
	if !ok {
		return false
	}
	agent := components.Agent.Get(entry)
	if agent.Engaged == engaged {
		return true
	}
	agent.Engaged = engaged
	r.refreshAgent(agent)
	return true
}

// Tick advances every tracked agent by dt and fires the AI updates that are
// due. observers are the current positions of every relevant player.
func (r *Registry) Tick(dt time.Duration, observers []gamemath.Vec3) {
	if len(r.index) == 0 {
		r.metrics.SetPopulation([config.TierCount]int{}, 0, 0)
		return
	}
	start := time.Now()

	r.snapshot = r.snapshot[:0]
	agentQuery.Each(r.world, func(e *donburi.Entry) {
		r.snapshot = append(r.snapshot, e.Entity())
	})

	validator, _ := r.updater.(AgentValidator)

	var fired, skipped int
	r.ticking = true
	for _, entity := range r.snapshot {
		if !r.world.Valid(entity) {
			continue
		}
		entry := r.world.Entry(entity)
		agent := components.Agent.Get(entry)
		if agent.Despawned {
			continue
		}
		if validator != nil && !validator.AgentValid(agent.ID) {
			r.OnDespawn(agent.ID)
			continue
		}

		agent.Distance = MinDistance(components.Position.Get(entry).Vec3, observers)
		prev := agent.Tier
		// No finite observer means relevance is unknown; run the agent.
		override := math.IsInf(agent.Distance, 1) || !agent.Managed
		next := r.classifier.Classify(agent.Distance, r.zone.EffectiveRange, override, agent.Tier)

		if r.scheduler.Step(agent, dt, next) {
			fired++
			r.updater.InvokeAIUpdate(agent.ID)
		} else {
			skipped++
		}

		if r.settings.DebugLogging && prev != agent.Tier {
			r.debug.tierChanged(agent, prev)
		}
	}
	r.ticking = false

	r.flushPending()

	if r.settings.DebugLogging {
		r.debug.tick(dt, r)
	}
	r.metrics.ObserveTick(time.Since(start), fired, skipped)
	r.metrics.SetPopulation(r.TierCounts(), r.ManagedLen(), r.Len())
}

// RefreshAll re-resolves the active zone and re-applies the category filter
// to every tracked agent. Call it after any configuration change or when the
// host loads a different map.
func (r *Registry) RefreshAll() {
	r.zone = NewZoneResolver(r.settings).Resolve(r.zones.ActiveZone())
	agentQuery.Each(r.world, func(e *donburi.Entry) {
		r.refreshAgent(components.Agent.Get(e))
	})
	if r.settings.DebugLogging {
		r.logger.Info("tracking refreshed",
			logging.String("zone", string(r.zone.ZoneID)),
			logging.Bool("zone_enabled", r.zone.Enabled),
			logging.Float("range", r.zone.EffectiveRange),
			logging.Int("managed", r.ManagedLen()),
			logging.Int("tracked", r.Len()),
		)
	}
}

// Clear drops every tracked agent, e.g. when the host stops its bot system
// at the end of a session.
func (r *Registry) Clear() {
	for id := range r.index {
		r.OnDespawn(id)
	}
}

func (r *Registry) refreshAgent(agent *components.AgentData) {
	managed := r.settings.Enabled &&
		r.zone.Enabled &&
		r.settings.Categories.Has(agent.Category) &&
		!agent.Engaged
	if managed == agent.Managed {
		return
	}
	agent.Managed = managed
	r.scheduler.Reset(agent)
}

func (r *Registry) flushPending() {
	for _, entity := range r.pending {
		r.removeEntity(entity)
	}
	r.pending = r.pending[:0]
}

func (r *Registry) removeEntity(entity donburi.Entity) {
	if r.world.Valid(entity) {
		r.world.Remove(entity)
	}
}

// Entry returns the donburi entry of a tracked agent.
func (r *Registry) Entry(id config.AgentID) (*donburi.Entry, bool) {
	entity, ok := r.index[id]
	if !ok || !r.world.Valid(entity) {
		return nil, false
	}
	return r.world.Entry(entity), true
}

// Agent returns a copy of the scheduling state of one agent.
func (r *Registry) Agent(id config.AgentID) (components.AgentData, bool) {
	entry, ok := r.Entry(id)
	if !ok {
		return components.AgentData{}, false
	}
	return *components.Agent.Get(entry), true
}

// Each calls fn with a copy of every tracked agent and its position.
func (r *Registry) Each(fn func(agent components.AgentData, pos gamemath.Vec3)) {
	agentQuery.Each(r.world, func(e *donburi.Entry) {
		agent := components.Agent.Get(e)
		if agent.Despawned {
			return
		}
		fn(*agent, components.Position.Get(e).Vec3)
	})
}

// Len is the number of tracked agents.
func (r *Registry) Len() int { return len(r.index) }

// ManagedLen is the number of agents currently subject to throttling.
func (r *Registry) ManagedLen() int {
	n := 0
	r.Each(func(a components.AgentData, _ gamemath.Vec3) {
		if a.Managed {
			n++
		}
	})
	return n
}

// TierCounts returns how many tracked agents sit in each tier.
func (r *Registry) TierCounts() [config.TierCount]int {
	var counts [config.TierCount]int
	r.Each(func(a components.AgentData, _ gamemath.Vec3) {
		if a.Tier >= 0 && a.Tier < config.TierCount {
			counts[a.Tier]++
		}
	})
	return counts
}

// Zone returns the active zone profile.
func (r *Registry) Zone() ZoneProfile { return r.zone }

// Settings returns a copy of the settings snapshot in effect.
func (r *Registry) Settings() config.Settings { return r.settings.Clone() }

// Tuning returns the tuning in effect.
func (r *Registry) Tuning() config.TuningConfig { return r.tuning }

// Rate returns the rate profile in effect.
func (r *Registry) Rate() *RateProfile { return r.scheduler.Rate() }

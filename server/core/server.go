package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/messages"
	"github.com/automoto/dynamicai/shared/netcomponents"
	"github.com/automoto/dynamicai/shared/zonemap"
	"github.com/automoto/dynamicai/systems"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTickRate = 20

	// OptionActiveZone switches the loaded map. It is handled by the server
	// rather than by RateControl because it is host state, not a setting.
	OptionActiveZone = "activeZone"

	commandQueueSize = 256
)

var observerQuery = donburi.NewQuery(filter.Contains(netcomponents.NetObserver, netcomponents.NetPosition))

// Config describes one server session.
type Config struct {
	TickRate int
	Name     string
	Version  string // required client version, empty accepts any
	Zone     config.ZoneID
	Bots     BotSimConfig
	// Anchors are fixed observer positions that count even with no
	// clients connected.
	Anchors []gamemath.Vec3
	// ZoneMaps holds drawn cover per zone. A zone without one keeps
	// whatever cover the bot simulation already has.
	ZoneMaps map[config.ZoneID]*zonemap.Layout
}

// Server hosts the bot simulation and streams the throttling state to
// connected observers. Router callbacks run on necs goroutines; they only
// enqueue commands, which the game loop drains before each step.
type Server struct {
	world     donburi.World
	loop      *GameLoop
	transport *transports.WsServerTransport
	logger    logging.Logger
	cfg       Config

	registry *systems.Registry
	control  *systems.RateControl
	sim      *BotSim
	session  donburi.Entity
	zone     config.ZoneID

	commands chan func()
	started  bool
	stopped  atomic.Bool
	status   atomic.Pointer[messages.DirectoryStatus]

	// Track which network client owns which observer entity
	clientEntities map[*router.NetworkClient]donburi.Entity
	mu             sync.RWMutex
}

// NewServer creates a server and populates its bots. opts are passed to
// the registry after the server's own world, zone source and logger.
func NewServer(cfg Config, logger logging.Logger, opts ...systems.Option) *Server {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if logger == nil {
		logger = logging.Noop()
	}
	world := donburi.NewWorld()

	s := &Server{
		world:          world,
		logger:         logger.With(logging.String("component", "server")),
		cfg:            cfg,
		zone:           cfg.Zone,
		commands:       make(chan func(), commandQueueSize),
		clientEntities: make(map[*router.NetworkClient]donburi.Entity),
	}
	s.loop = NewGameLoop(s, cfg.TickRate, s.logger)

	// Set up the world for esync
	srvsync.UseEsync(world)

	s.sim = NewBotSim(s, cfg.Bots)
	s.registry = systems.NewRegistry(s.sim, append([]systems.Option{
		systems.WithWorld(world),
		systems.WithZoneSource(s),
		systems.WithLogger(logger),
	}, opts...)...)
	s.control = systems.NewRateControl(s.registry)

	s.session = world.Create(netcomponents.NetSession)
	if err := srvsync.NetworkSync(world, &s.session, netcomponents.NetSession); err != nil {
		s.logger.Warn("failed to set up network sync for session", logging.Err(err))
	}

	s.loadZoneMap(cfg.Zone)
	s.sim.Populate()
	if c := s.sim.Cover(); c != nil {
		s.logger.Info("cover placed", logging.Int("blocks", c.Blocks()), logging.Int("spawns", len(c.Spawns())))
	}
	s.publish()
	return s
}

// Start begins the server on the given port
func (s *Server) Start(port uint) error {
	s.registerRouterCallbacks()

	s.started = true
	go s.loop.Run()

	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop halts the game loop and drops every tracked bot.
func (s *Server) Stop() {
	s.stopped.Store(true)
	if s.started {
		s.loop.Stop()
		s.started = false
	}
	s.ProcessCommands()
	s.registry.Clear()
}

// Enqueue schedules fn to run on the game loop goroutine. It never blocks:
// commands arriving after Stop, or while the queue is full, are dropped.
func (s *Server) Enqueue(fn func()) bool {
	if s.stopped.Load() {
		return false
	}
	select {
	case s.commands <- fn:
		return true
	default:
		s.logger.Warn("command queue full, dropping command", logging.Int("capacity", cap(s.commands)))
		return false
	}
}

// ProcessCommands runs every queued command.
func (s *Server) ProcessCommands() {
	for {
		select {
		case cmd := <-s.commands:
			cmd()
		default:
			return
		}
	}
}

// Step advances the session by one fixed tick.
func (s *Server) Step(dt time.Duration) {
	observers := s.observerPositions()
	s.sim.Step(dt, observers)
	s.registry.Tick(dt, observers)
	s.publish()
}

// ActiveZone implements systems.ZoneSource.
func (s *Server) ActiveZone() config.ZoneID { return s.zone }

// ChangeZone loads a different map and re-resolves its profile.
func (s *Server) ChangeZone(zone config.ZoneID) {
	s.zone = zone
	s.loadZoneMap(zone)
	s.registry.RefreshAll()
	s.logger.Info("zone changed",
		logging.String("zone", string(s.registry.Zone().ZoneID)),
		logging.Float("range", s.registry.Zone().EffectiveRange),
		logging.Bool("enabled", s.registry.Zone().Enabled),
	)
}

func (s *Server) loadZoneMap(zone config.ZoneID) {
	canon, _ := config.CanonicalZone(string(zone))
	if l, ok := s.cfg.ZoneMaps[canon]; ok {
		s.sim.SetCover(NewCoverMapFromLayout(l))
	}
}

// ApplyOption applies a named option. Call it from the loop goroutine.
func (s *Server) ApplyOption(option, key, value string) error {
	_, span := otel.Tracer(tracerName).Start(context.Background(), "dynamicai.settings",
		trace.WithAttributes(
			attribute.String("option", option),
			attribute.String("key", key),
			attribute.String("value", value),
		),
	)
	defer span.End()

	err := s.applyOption(option, key, value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Server) applyOption(option, key, value string) error {
	if option == OptionActiveZone {
		if value == "" {
			return systems.ErrInvalidValue
		}
		s.ChangeZone(config.ZoneID(value))
		return nil
	}
	return s.control.SetOption(option, key, value)
}

func (s *Server) SpawnAgent(id config.AgentID, category config.Category, pos gamemath.Vec3) {
	s.registry.OnSpawn(id, category, pos)
	entry, ok := s.registry.Entry(id)
	if !ok || entry.HasComponent(netcomponents.NetAgent) {
		return
	}

	donburi.Add(entry, netcomponents.NetPosition, &netcomponents.NetPositionData{X: pos.X, Y: pos.Y, Z: pos.Z})
	donburi.Add(entry, netcomponents.NetAgent, &netcomponents.NetAgentData{
		ID:       string(id),
		Category: int(category),
	})

	entity := entry.Entity()
	err := srvsync.NetworkSync(s.world, &entity,
		srvsync.WithInterp(netcomponents.NetPosition),
		netcomponents.NetAgent,
	)
	if err != nil {
		s.logger.Warn("failed to set up network sync for agent", logging.String("agent", string(id)), logging.Err(err))
	}
}

func (s *Server) DespawnAgent(id config.AgentID) { s.registry.OnDespawn(id) }

func (s *Server) MoveAgent(id config.AgentID, pos gamemath.Vec3) { s.registry.UpdatePosition(id, pos) }

func (s *Server) EngageAgent(id config.AgentID, engaged bool) { s.registry.SetEngaged(id, engaged) }

// publish copies the scheduling state into the replicated components.
func (s *Server) publish() {
	s.registry.Each(func(a components.AgentData, pos gamemath.Vec3) {
		entry, ok := s.registry.Entry(a.ID)
		if !ok || !entry.HasComponent(netcomponents.NetAgent) {
			return
		}
		netcomponents.NetPosition.Set(entry, &netcomponents.NetPositionData{X: pos.X, Y: pos.Y, Z: pos.Z})
		netcomponents.NetAgent.Set(entry, &netcomponents.NetAgentData{
			ID:       string(a.ID),
			Category: int(a.Category),
			Tier:     int(a.Tier),
			Managed:  a.Managed,
			Engaged:  a.Engaged,
			Fires:    a.Fires,
		})
	})

	if !s.world.Valid(s.session) {
		return
	}
	zone := s.registry.Zone()
	session := &netcomponents.NetSessionData{
		Zone:      string(zone.ZoneID),
		Enabled:   zone.Enabled,
		Range:     zone.EffectiveRange,
		Rate:      s.registry.Rate().Setting.String(),
		Tracked:   s.registry.Len(),
		Managed:   s.registry.ManagedLen(),
		TierCount: s.registry.TierCounts(),
		Observers: observerQuery.Count(s.world) + len(s.cfg.Anchors),
	}
	netcomponents.NetSession.Set(s.world.Entry(s.session), session)

	s.status.Store(&messages.DirectoryStatus{
		Zone:      session.Zone,
		Rate:      session.Rate,
		Observers: session.Observers,
		Tracked:   session.Tracked,
		Managed:   session.Managed,
		Tiers:     session.TierCount,
	})
}

// DirectoryStatus returns the summary taken at the end of the last step.
// It is safe to call from any goroutine.
func (s *Server) DirectoryStatus() messages.DirectoryStatus {
	if st := s.status.Load(); st != nil {
		return *st
	}
	return messages.DirectoryStatus{}
}

func (s *Server) observerPositions() []gamemath.Vec3 {
	out := append([]gamemath.Vec3(nil), s.cfg.Anchors...)
	observerQuery.Each(s.world, func(e *donburi.Entry) {
		p := netcomponents.NetPosition.Get(e)
		out = append(out, gamemath.Vec3{X: p.X, Y: p.Y, Z: p.Z})
	})
	return out
}

func (s *Server) registerRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.logger.Info("client connected", logging.String("client", client.Id()))
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		if err != nil {
			s.logger.Info("client disconnected", logging.String("client", client.Id()), logging.Err(err))
		} else {
			s.logger.Info("client disconnected", logging.String("client", client.Id()))
		}
		s.Enqueue(func() { s.removeObserver(client) })
	})

	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		s.Enqueue(func() { s.onJoin(client, msg) })
	})

	router.On(func(client *router.NetworkClient, msg messages.ObserverMove) {
		s.Enqueue(func() { s.onObserverMove(client, msg) })
	})

	router.On(func(client *router.NetworkClient, msg messages.SettingsChange) {
		s.Enqueue(func() { s.onSettingsChange(client, msg) })
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		s.logger.Warn("client error", logging.Err(err))
	})
}

func (s *Server) onJoin(client *router.NetworkClient, msg messages.JoinRequest) {
	if s.cfg.Version != "" && msg.Version != s.cfg.Version {
		s.send(client, messages.JoinRejected{Reason: "version mismatch: server requires " + s.cfg.Version})
		return
	}

	s.mu.RLock()
	_, joined := s.clientEntities[client]
	s.mu.RUnlock()
	if joined {
		return
	}

	entity := s.world.Create(netcomponents.NetObserver, netcomponents.NetPosition)
	entry := s.world.Entry(entity)
	netcomponents.NetObserver.Set(entry, &netcomponents.NetObserverData{Name: msg.Name})

	err := srvsync.NetworkSync(s.world, &entity,
		srvsync.WithInterp(netcomponents.NetPosition),
		netcomponents.NetObserver,
	)
	if err != nil {
		s.logger.Warn("failed to set up network sync for observer", logging.Err(err))
		s.world.Remove(entity)
		s.send(client, messages.JoinRejected{Reason: "internal error"})
		return
	}

	s.mu.Lock()
	s.clientEntities[client] = entity
	s.mu.Unlock()

	accepted := messages.JoinAccepted{
		ServerName: s.cfg.Name,
		TickRate:   s.cfg.TickRate,
		Zone:       string(s.registry.Zone().ZoneID),
	}
	if id := esync.GetNetworkId(s.world.Entry(entity)); id != nil {
		accepted.NetworkID = *id
	}
	s.send(client, accepted)
	s.logger.Info("observer joined", logging.String("client", client.Id()), logging.String("name", msg.Name))
}

func (s *Server) onObserverMove(client *router.NetworkClient, msg messages.ObserverMove) {
	entity, ok := s.observerEntity(client)
	if !ok {
		return
	}
	pos := gamemath.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}
	if !pos.IsFinite() {
		return
	}
	netcomponents.NetPosition.Set(s.world.Entry(entity), &netcomponents.NetPositionData{X: pos.X, Y: pos.Y, Z: pos.Z})
}

func (s *Server) onSettingsChange(client *router.NetworkClient, msg messages.SettingsChange) {
	if _, ok := s.observerEntity(client); !ok {
		return
	}
	result := messages.SettingsResult{Option: msg.Option}
	if err := s.ApplyOption(msg.Option, msg.Key, msg.Value); err != nil {
		result.Error = err.Error()
		if !errors.Is(err, systems.ErrUnknownOption) && !errors.Is(err, systems.ErrInvalidValue) {
			s.logger.Error("apply option", logging.String("option", msg.Option), logging.Err(err))
		}
	}
	s.send(client, result)
}

func (s *Server) removeObserver(client *router.NetworkClient) {
	s.mu.Lock()
	entity, exists := s.clientEntities[client]
	delete(s.clientEntities, client)
	s.mu.Unlock()

	if exists && s.world.Valid(entity) {
		s.world.Remove(entity)
	}
}

func (s *Server) observerEntity(client *router.NetworkClient) (donburi.Entity, bool) {
	s.mu.RLock()
	entity, ok := s.clientEntities[client]
	s.mu.RUnlock()
	return entity, ok && s.world.Valid(entity)
}

func (s *Server) send(client *router.NetworkClient, msg any) {
	if err := client.SendMessage(msg); err != nil {
		s.logger.Warn("send failed", logging.String("client", client.Id()), logging.Err(err))
	}
}

// World returns the ECS world
func (s *Server) World() donburi.World { return s.world }

// Registry returns the agent registry.
func (s *Server) Registry() *systems.Registry { return s.registry }

// Control returns the settings facade.
func (s *Server) Control() *systems.RateControl { return s.control }

// Sim returns the bot simulation.
func (s *Server) Sim() *BotSim { return s.sim }

// StepSize returns the fixed simulation step.
func (s *Server) StepSize() time.Duration { return s.loop.Step() }

// ObserverCount returns the number of joined observers
func (s *Server) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clientEntities)
}

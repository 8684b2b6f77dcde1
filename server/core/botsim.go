package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/systems"
	"github.com/solarlune/resolv"
)

// AgentHost is what the bot simulation reports its bots' lifecycle to.
type AgentHost interface {
	SpawnAgent(id config.AgentID, category config.Category, pos gamemath.Vec3)
	DespawnAgent(id config.AgentID)
	MoveAgent(id config.AgentID, pos gamemath.Vec3)
	EngageAgent(id config.AgentID, engaged bool)
}

type botState int

const (
	botStateIdle botState = iota
	botStatePatrol
	botStateChase
)

func (s botState) String() string {
	switch s {
	case botStatePatrol:
		return "patrol"
	case botStateChase:
		return "chase"
	default:
		return "idle"
	}
}

type simBot struct {
	id        config.AgentID
	category  config.Category
	pos       gamemath.Vec3
	target    gamemath.Vec3
	state     botState
	engaged   bool
	blocked   bool // cover stopped the last step
	alive     bool
	decisions uint64
	body      *resolv.Object
}

// BotSimConfig sizes the simulated bot population.
type BotSimConfig struct {
	Count       int
	Seed        int64
	HalfExtent  float64 // bots roam a square of side 2*HalfExtent around the origin
	Speed       float64 // units per second
	SightRange  float64 // a bot chases observers closer than this
	EngageRange float64 // and fights those closer than this
	ChurnPerSec float64 // chance per second that one bot dies and is replaced
	CoverBlocks int     // solid cover scattered over the map; 0 means open ground
}

func DefaultBotSimConfig() BotSimConfig {
	return BotSimConfig{
		Count:       40,
		Seed:        42,
		HalfExtent:  600,
		Speed:       4,
		SightRange:  60,
		EngageRange: 20,
		ChurnPerSec: 0.2,
		CoverBlocks: 60,
	}
}

// categoryWeights approximates a raid's bot mix.
var categoryWeights = []struct {
	category config.Category
	weight   int
}{
	{config.CategoryScav, 50},
	{config.CategoryPMC, 15},
	{config.CategoryRaider, 8},
	{config.CategoryRogue, 8},
	{config.CategoryCultist, 5},
	{config.CategorySniper, 5},
	{config.CategoryFollower, 7},
	{config.CategoryBoss, 2},
}

// BotSim is a stand-in for the game's bot brains. Locomotion runs every
// tick; decisions only happen when the scheduler invokes the AI update.
// It is driven from the game loop goroutine only.
type BotSim struct {
	host      AgentHost
	cfg       BotSimConfig
	rng       *rand.Rand
	cover     *CoverMap
	bots      map[config.AgentID]*simBot
	order     []config.AgentID
	nextID    int
	observers []gamemath.Vec3
	elapsed   time.Duration
}

func NewBotSim(host AgentHost, cfg BotSimConfig) *BotSim {
	def := DefaultBotSimConfig()
	if cfg.HalfExtent <= 0 {
		cfg.HalfExtent = def.HalfExtent
	}
	if cfg.Speed <= 0 {
		cfg.Speed = def.Speed
	}
	if cfg.SightRange <= 0 {
		cfg.SightRange = def.SightRange
	}
	if cfg.EngageRange <= 0 {
		cfg.EngageRange = def.EngageRange
	}
	b := &BotSim{
		host: host,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		bots: make(map[config.AgentID]*simBot),
	}
	if cfg.CoverBlocks > 0 {
		b.cover = NewCoverMap(cfg.HalfExtent, cfg.CoverBlocks, b.rng)
	}
	return b
}

// Populate spawns the configured number of bots.
func (b *BotSim) Populate() {
	for i := 0; i < b.cfg.Count; i++ {
		b.spawn()
	}
}

// Step moves every bot toward its current target, updates engagement
// against observers and applies population churn.
func (b *BotSim) Step(dt time.Duration, observers []gamemath.Vec3) {
	b.observers = observers
	b.elapsed += dt
	b.prune()

	maxStep := b.cfg.Speed * dt.Seconds()
	for _, id := range b.order {
		bot := b.bots[id]
		if !bot.alive {
			continue
		}
		if bot.state != botStateIdle {
			next, _ := bot.pos.MoveToward(bot.target, maxStep)
			if b.cover != nil {
				next, bot.blocked = b.cover.move(bot.body, bot.pos, next)
			}
			bot.pos = next
			b.host.MoveAgent(id, bot.pos)
		}

		engaged := systems.MinDistance(bot.pos, observers) <= b.cfg.EngageRange
		if engaged != bot.engaged {
			bot.engaged = engaged
			b.host.EngageAgent(id, engaged)
		}
	}

	if b.cfg.ChurnPerSec > 0 && len(b.order) > 0 && b.rng.Float64() < b.cfg.ChurnPerSec*dt.Seconds() {
		victim := b.bots[b.order[b.rng.Intn(len(b.order))]]
		// Dead bots are reported through AgentValid, not DespawnAgent.
		victim.alive = false
		b.spawn()
	}
}

// InvokeAIUpdate runs one decision for a bot: chase the nearest observer
// in sight, otherwise keep patrolling. A bot stuck on cover picks a new
// patrol point.
func (b *BotSim) InvokeAIUpdate(id config.AgentID) {
	bot, ok := b.bots[id]
	if !ok || !bot.alive {
		return
	}
	bot.decisions++

	if target, ok := b.nearestInSight(bot.pos); ok {
		bot.state = botStateChase
		bot.target = target
		return
	}
	if bot.state != botStatePatrol || bot.blocked || bot.pos.DistanceSq(bot.target) < 1 {
		bot.state = botStatePatrol
		bot.target = b.randomPoint()
		bot.blocked = false
	}
}

// AgentValid reports false once a bot has died.
func (b *BotSim) AgentValid(id config.AgentID) bool {
	bot, ok := b.bots[id]
	return ok && bot.alive
}

// Kill despawns a bot explicitly, the way the game does when a corpse is
// cleaned up.
func (b *BotSim) Kill(id config.AgentID) {
	if _, ok := b.bots[id]; !ok {
		return
	}
	b.remove(id)
	b.host.DespawnAgent(id)
}

// Decisions returns how many AI updates a bot has received.
func (b *BotSim) Decisions(id config.AgentID) uint64 {
	if bot, ok := b.bots[id]; ok {
		return bot.decisions
	}
	return 0
}

func (b *BotSim) Len() int { return len(b.order) }

// Cover returns the cover map, nil on open ground.
func (b *BotSim) Cover() *CoverMap { return b.cover }

// SetCover swaps in the cover of a newly loaded map. Bots left standing
// inside the new cover are moved to a free spawn point.
func (b *BotSim) SetCover(m *CoverMap) {
	for _, id := range b.order {
		bot := b.bots[id]
		if bot.body != nil {
			b.cover.removeBot(bot.body)
			bot.body = nil
		}
	}
	b.cover = m
	if m == nil {
		return
	}
	for _, id := range b.order {
		bot := b.bots[id]
		if !m.Free(bot.pos) {
			bot.pos = b.spawnPoint()
			bot.target = bot.pos
			b.host.MoveAgent(id, bot.pos)
		}
		bot.body = m.addBot(bot.pos)
		bot.blocked = false
	}
}

func (b *BotSim) spawn() {
	b.nextID++
	category := b.randomCategory()
	bot := &simBot{
		id:       config.AgentID(fmt.Sprintf("%s-%d", category, b.nextID)),
		category: category,
		pos:      b.spawnPoint(),
		alive:    true,
	}
	bot.target = bot.pos
	if b.cover != nil {
		bot.body = b.cover.addBot(bot.pos)
	}
	b.bots[bot.id] = bot
	b.order = append(b.order, bot.id)
	b.host.SpawnAgent(bot.id, bot.category, bot.pos)
}

// prune forgets bots that died on an earlier tick; the registry has dropped
// them by now.
func (b *BotSim) prune() {
	for _, id := range append([]config.AgentID(nil), b.order...) {
		if !b.bots[id].alive {
			b.remove(id)
		}
	}
}

func (b *BotSim) remove(id config.AgentID) {
	if bot := b.bots[id]; bot != nil && bot.body != nil {
		b.cover.removeBot(bot.body)
	}
	delete(b.bots, id)
	for i, other := range b.order {
		if other == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *BotSim) nearestInSight(pos gamemath.Vec3) (gamemath.Vec3, bool) {
	best := b.cfg.SightRange * b.cfg.SightRange
	var target gamemath.Vec3
	found := false
	for _, o := range b.observers {
		if d := pos.DistanceSq(o); d <= best {
			best = d
			target = o
			found = true
		}
	}
	return target, found
}

// spawnPoint uses the map's spawn points when it has any, otherwise a
// random point that is not inside cover. After a few misses it settles for
// the last try.
func (b *BotSim) spawnPoint() gamemath.Vec3 {
	if b.cover != nil {
		if spawns := b.cover.Spawns(); len(spawns) > 0 {
			return spawns[b.rng.Intn(len(spawns))]
		}
	}
	p := b.randomPoint()
	for tries := 0; b.cover != nil && !b.cover.Free(p) && tries < 16; tries++ {
		p = b.randomPoint()
	}
	return p
}

func (b *BotSim) randomPoint() gamemath.Vec3 {
	e := b.cfg.HalfExtent
	return gamemath.Vec3{
		X: (b.rng.Float64()*2 - 1) * e,
		Z: (b.rng.Float64()*2 - 1) * e,
	}
}

func (b *BotSim) randomCategory() config.Category {
	total := 0
	for _, w := range categoryWeights {
		total += w.weight
	}
	n := b.rng.Intn(total)
	for _, w := range categoryWeights {
		if n < w.weight {
			return w.category
		}
		n -= w.weight
	}
	return config.CategoryScav
}

package core

import (
	"testing"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/shared/gamemath"
)

type recordingHost struct {
	spawned []config.AgentID
	despawn []config.AgentID
	moves   map[config.AgentID]gamemath.Vec3
	engaged map[config.AgentID]bool
}

func newRecordingHost() *recordingHost {
	return &recordingHost{
		moves:   make(map[config.AgentID]gamemath.Vec3),
		engaged: make(map[config.AgentID]bool),
	}
}

func (h *recordingHost) SpawnAgent(id config.AgentID, _ config.Category, pos gamemath.Vec3) {
	h.spawned = append(h.spawned, id)
	h.moves[id] = pos
}

func (h *recordingHost) DespawnAgent(id config.AgentID) { h.despawn = append(h.despawn, id) }

func (h *recordingHost) MoveAgent(id config.AgentID, pos gamemath.Vec3) { h.moves[id] = pos }

func (h *recordingHost) EngageAgent(id config.AgentID, engaged bool) { h.engaged[id] = engaged }

func TestPopulateIsDeterministic(t *testing.T) {
	cfg := BotSimConfig{Count: 10, Seed: 7}
	a, b := newRecordingHost(), newRecordingHost()
	NewBotSim(a, cfg).Populate()
	NewBotSim(b, cfg).Populate()

	if len(a.spawned) != 10 {
		t.Fatalf("spawned %d bots, want 10", len(a.spawned))
	}
	for i := range a.spawned {
		if a.spawned[i] != b.spawned[i] || a.moves[a.spawned[i]] != b.moves[b.spawned[i]] {
			t.Fatalf("spawn %d differs between runs with the same seed", i)
		}
	}
}

func TestAIUpdateChasesObserverInSight(t *testing.T) {
	host := newRecordingHost()
	sim := NewBotSim(host, BotSimConfig{Count: 1, SightRange: 1e6, EngageRange: 1})
	sim.Populate()
	id := host.spawned[0]

	observer := gamemath.Vec3{X: 2000, Z: 2000}
	sim.Step(time.Second, []gamemath.Vec3{observer})
	before := host.moves[id]

	sim.InvokeAIUpdate(id)
	sim.Step(time.Second, []gamemath.Vec3{observer})

	after := host.moves[id]
	if after.Distance(observer) >= before.Distance(observer) {
		t.Fatalf("bot did not move toward observer: before %v after %v", before, after)
	}
	if got := sim.Decisions(id); got != 1 {
		t.Fatalf("Decisions = %d, want 1", got)
	}
}

func TestBotWithoutDecisionStaysPut(t *testing.T) {
	host := newRecordingHost()
	sim := NewBotSim(host, BotSimConfig{Count: 1})
	sim.Populate()
	id := host.spawned[0]
	start := host.moves[id]

	sim.Step(time.Second, nil)
	if host.moves[id] != start {
		t.Fatalf("idle bot moved from %v to %v", start, host.moves[id])
	}
}

func TestEngagementFollowsObserverDistance(t *testing.T) {
	host := newRecordingHost()
	sim := NewBotSim(host, BotSimConfig{Count: 1, EngageRange: 20})
	sim.Populate()
	id := host.spawned[0]
	pos := host.moves[id]

	sim.Step(testStep, []gamemath.Vec3{pos.Add(gamemath.Vec3{X: 5})})
	if !host.engaged[id] {
		t.Fatal("bot not engaged with an observer 5 units away")
	}
	sim.Step(testStep, []gamemath.Vec3{pos.Add(gamemath.Vec3{X: 500})})
	if host.engaged[id] {
		t.Fatal("bot still engaged after the observer left")
	}
}

func TestChurnKillsAndReplaces(t *testing.T) {
	host := newRecordingHost()
	sim := NewBotSim(host, BotSimConfig{Count: 3, ChurnPerSec: 1e9})
	sim.Populate()

	sim.Step(testStep, nil)
	if got := len(host.spawned); got != 4 {
		t.Fatalf("spawned = %d, want 4", got)
	}
	dead := 0
	for _, id := range host.spawned {
		if !sim.AgentValid(id) {
			dead++
		}
	}
	if dead != 1 {
		t.Fatalf("dead bots = %d, want 1", dead)
	}
	if len(host.despawn) != 0 {
		t.Fatal("churn despawned explicitly")
	}
}

func TestKillDespawnsExplicitly(t *testing.T) {
	host := newRecordingHost()
	sim := NewBotSim(host, BotSimConfig{Count: 2})
	sim.Populate()
	id := host.spawned[0]

	sim.Kill(id)
	sim.Kill(id)
	if len(host.despawn) != 1 || host.despawn[0] != id {
		t.Fatalf("despawned = %v, want [%s]", host.despawn, id)
	}
	if sim.Len() != 1 || sim.AgentValid(id) {
		t.Fatalf("Len = %d valid = %v after Kill", sim.Len(), sim.AgentValid(id))
	}
}

package archetypes

import (
	"github.com/automoto/dynamicai/components"
	"github.com/automoto/dynamicai/tags"
	"github.com/yohamta/donburi"
)

var (
	Agent = newArchetype(
		tags.Agent,
		components.Agent,
		components.Position,
	)
	Observer = newArchetype(
		tags.Observer,
		components.Observer,
		components.Position,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

// Spawn creates an entity with the archetype's components plus any extras.
func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	all := make([]donburi.IComponentType, 0, len(a.components)+len(cs))
	all = append(all, a.components...)
	all = append(all, cs...)
	return w.Entry(w.Create(all...))
}

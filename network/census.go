package network

import (
	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/shared/netcomponents"
	"github.com/leap-fish/necs/esync"
)

// Census summarises one replicated snapshot of the server's bots.
type Census struct {
	Session    netcomponents.NetSessionData
	HasSession bool
	Agents     int
	Managed    int
	Engaged    int
	ByTier     [config.TierCount]int
	ByCat      [config.CategoryCount]int
	Observers  []string
}

// TakeCensus decodes snapshot. Components that fail to decode are skipped.
func TakeCensus(snapshot esync.WorldSnapshot) Census {
	entities := make([][]any, 0, len(snapshot))
	for _, ent := range snapshot {
		var compData []any
		for _, componentBytes := range ent.State {
			instance, err := esync.Mapper.Deserialize(componentBytes)
			if err != nil {
				continue
			}
			compData = append(compData, instance)
		}
		entities = append(entities, compData)
	}
	return CountEntities(entities)
}

// CountEntities builds a census from already decoded component values, one
// slice per entity.
func CountEntities(entities [][]any) Census {
	var c Census
	for _, comps := range entities {
		for _, data := range comps {
			switch v := data.(type) {
			case netcomponents.NetAgentData:
				c.Agents++
				if v.Managed {
					c.Managed++
				}
				if v.Engaged {
					c.Engaged++
				}
				if t := config.Tier(v.Tier); t >= 0 && t < config.TierCount {
					c.ByTier[t]++
				}
				if cat := config.Category(v.Category); cat.Valid() {
					c.ByCat[cat]++
				}
			case netcomponents.NetObserverData:
				c.Observers = append(c.Observers, v.Name)
			case netcomponents.NetSessionData:
				c.Session = v
				c.HasSession = true
			}
		}
	}
	return c
}

package netcomponents

import "github.com/yohamta/donburi"

// NetAgentData is the replicated scheduling state of one bot.
type NetAgentData struct {
	ID       string
	Category int // config.Category
	Tier     int // config.Tier
	Managed  bool
	Engaged  bool
	Fires    uint64
}

var NetAgent = donburi.NewComponentType[NetAgentData]()

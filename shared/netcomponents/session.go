package netcomponents

import "github.com/yohamta/donburi"

// NetSessionData is the server-wide throttling summary, one entity per server.
type NetSessionData struct {
	Zone      string
	Enabled   bool
	Range     float64
	Rate      string
	Tracked   int
	Managed   int
	TierCount [4]int // Near, Mid, Far, Dormant
	Observers int
}

var NetSession = donburi.NewComponentType[NetSessionData]()

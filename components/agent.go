package components

import (
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/yohamta/donburi"
)

// AgentData is the scheduling state of one tracked bot. Only the registry
// writes to it.
type AgentData struct {
	ID       config.AgentID
	Category config.Category // fixed at spawn

	// Throttling state
	Tier    config.Tier
	Idle    time.Duration // time since the last AI update
	Managed bool          // false when filtered out, zone disabled or engaged
	Engaged bool          // always-active override, e.g. in combat

	// Bookkeeping for diagnostics
	Distance  float64       // to the nearest observer, +Inf when there is none
	Interval  time.Duration // required interval for the current tier
	Fires     uint64        // AI updates invoked since spawn
	Despawned bool          // removal requested mid-tick
}

var Agent = donburi.NewComponentType[AgentData]()

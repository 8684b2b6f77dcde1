package components

import (
	"github.com/yohamta/donburi"
)

// ObserverData marks a player whose proximity makes bots relevant.
type ObserverData struct {
	ClientID string
	Name     string
}

var Observer = donburi.NewComponentType[ObserverData]()

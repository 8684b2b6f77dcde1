package netcomponents

import "github.com/yohamta/donburi"

// NetObserverData marks a connected player whose position drives relevance.
type NetObserverData struct {
	Name string
}

var NetObserver = donburi.NewComponentType[NetObserverData]()

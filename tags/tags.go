package tags

import "github.com/yohamta/donburi"

var (
	Agent    = donburi.NewTag().SetName("Agent")
	Observer = donburi.NewTag().SetName("Observer")
)

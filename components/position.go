package components

import (
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/yohamta/donburi"
)

// PositionData is the world position of an agent or observer, written by the
// host before each tick.
type PositionData struct {
	gamemath.Vec3
}

var Position = donburi.NewComponentType[PositionData]()

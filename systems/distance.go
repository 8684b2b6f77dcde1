package systems

import (
	"math"

	"github.com/automoto/dynamicai/shared/gamemath"
)

// MinDistance returns the distance from pos to the closest observer.
// With no observers (or no finite ones) it returns +Inf; callers must treat
// that as "relevance unknown", never as "far away".
func MinDistance(pos gamemath.Vec3, observers []gamemath.Vec3) float64 {
	if !pos.IsFinite() {
		return math.Inf(1)
	}

	nearestSq := math.Inf(1)
	for _, o := range observers {
		if !o.IsFinite() {
			continue
		}
		if d := pos.DistanceSq(o); d < nearestSq {
			nearestSq = d
		}
	}
	return math.Sqrt(nearestSq)
}

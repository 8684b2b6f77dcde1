package main

import (
	"time"

	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// sweep walks the observer out along X and back again, easing in and out at
// each end, so the bots around it cross every tier boundary both ways.
type sweep struct {
	start    gamemath.Vec3
	out      *gween.Tween
	back     *gween.Tween
	outbound bool
}

func newSweep(start gamemath.Vec3, distance float64, leg time.Duration) *sweep {
	secs := float32(leg.Seconds())
	return &sweep{
		start:    start,
		out:      gween.New(0, float32(distance), secs, ease.InOutQuad),
		back:     gween.New(float32(distance), 0, secs, ease.InOutQuad),
		outbound: true,
	}
}

// step advances the walk by dt and returns the new position.
func (s *sweep) step(dt time.Duration) gamemath.Vec3 {
	tw := s.back
	if s.outbound {
		tw = s.out
	}
	offset, done := tw.Update(float32(dt.Seconds()))
	if done {
		tw.Reset()
		s.outbound = !s.outbound
	}
	return s.start.Add(gamemath.Vec3{X: float64(offset)})
}

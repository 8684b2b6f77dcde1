package core

import (
	"math"
	"math/rand"

	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/zonemap"
	"github.com/solarlune/resolv"
)

const (
	tagCover = "cover"
	tagBot   = "bot"

	coverCellSize = 16
	botSize       = 2.0
	minCoverSide  = 8.0
	maxCoverSide  = 40.0
)

type coverRect struct {
	x, y, w, h float64
}

func (r coverRect) contains(x, y, margin float64) bool {
	return x >= r.x-margin && x <= r.x+r.w+margin &&
		y >= r.y-margin && y <= r.y+r.h+margin
}

// CoverMap is the solid cover the simulated bots walk around. It lives in a
// resolv space laid over the X/Z plane, shifted so the world origin sits at
// the centre of the map.
type CoverMap struct {
	space      *resolv.Space
	offX, offZ float64
	rects      []coverRect
	spawns     []gamemath.Vec3
}

func newCoverMap(width, height int) *CoverMap {
	return &CoverMap{
		space: resolv.NewSpace(width, height, coverCellSize, coverCellSize),
		offX:  float64(width) / 2,
		offZ:  float64(height) / 2,
	}
}

// NewCoverMap scatters blocks of random cover over a square of side
// 2*halfExtent.
func NewCoverMap(halfExtent float64, blocks int, rng *rand.Rand) *CoverMap {
	side := int(math.Ceil(2 * halfExtent))
	m := newCoverMap(side, side)
	for i := 0; i < blocks; i++ {
		w := minCoverSide + rng.Float64()*(maxCoverSide-minCoverSide)
		h := minCoverSide + rng.Float64()*(maxCoverSide-minCoverSide)
		r := coverRect{
			x: rng.Float64() * (float64(side) - w),
			y: rng.Float64() * (float64(side) - h),
			w: w,
			h: h,
		}
		m.addBlock(r)
	}
	return m
}

// NewCoverMapFromLayout builds the cover drawn in a zone map.
func NewCoverMapFromLayout(l *zonemap.Layout) *CoverMap {
	m := newCoverMap(l.Width, l.Height)
	for _, r := range l.Cover {
		m.addBlock(coverRect{x: r.X, y: r.Y, w: r.W, h: r.H})
	}
	for _, p := range l.BotSpawns {
		m.spawns = append(m.spawns, gamemath.Vec3{X: p.X - m.offX, Z: p.Y - m.offZ})
	}
	return m
}

func (m *CoverMap) addBlock(r coverRect) {
	obj := resolv.NewObject(r.x, r.y, r.w, r.h, tagCover)
	obj.SetShape(resolv.NewRectangle(0, 0, r.w, r.h))
	m.space.Add(obj)
	m.rects = append(m.rects, r)
}

// Blocks is the number of cover blocks on the map.
func (m *CoverMap) Blocks() int { return len(m.rects) }

// Spawns are the bot spawn points drawn in the map, in world coordinates.
func (m *CoverMap) Spawns() []gamemath.Vec3 { return m.spawns }

// Free reports whether a bot could stand at pos.
func (m *CoverMap) Free(pos gamemath.Vec3) bool {
	x, y := pos.X+m.offX, pos.Z+m.offZ
	for _, r := range m.rects {
		if r.contains(x, y, botSize) {
			return false
		}
	}
	return true
}

func (m *CoverMap) addBot(pos gamemath.Vec3) *resolv.Object {
	obj := resolv.NewObject(pos.X+m.offX-botSize/2, pos.Z+m.offZ-botSize/2, botSize, botSize, tagBot)
	obj.SetShape(resolv.NewRectangle(0, 0, botSize, botSize))
	m.space.Add(obj)
	return obj
}

func (m *CoverMap) removeBot(obj *resolv.Object) {
	m.space.Remove(obj)
}

// move tries to walk obj from pos to next, one axis at a time, stopping at
// the first cover it touches. It returns where the bot ended up and whether
// cover got in the way.
func (m *CoverMap) move(obj *resolv.Object, pos, next gamemath.Vec3) (gamemath.Vec3, bool) {
	dx, blockedX := m.resolve(obj, next.X-pos.X, 0)
	obj.X += dx
	dz, blockedZ := m.resolve(obj, 0, next.Z-pos.Z)
	obj.Y += dz
	obj.Update()

	return gamemath.Vec3{
		X: obj.X + botSize/2 - m.offX,
		Y: next.Y,
		Z: obj.Y + botSize/2 - m.offZ,
	}, blockedX || blockedZ
}

// resolve shortens a single-axis step so obj ends up touching the cover it
// would run into. Cells are coarser than the blocks, so only cover the bot
// would actually overlap counts.
func (m *CoverMap) resolve(obj *resolv.Object, dx, dy float64) (float64, bool) {
	if dx == 0 && dy == 0 {
		return 0, false
	}
	check := obj.Check(dx, dy, tagCover)
	if check == nil {
		return dx + dy, false
	}
	step, blocked := dx+dy, false
	for _, solid := range check.ObjectsByTags(tagCover) {
		if !overlaps(obj.X+dx, obj.Y+dy, obj.W, obj.H, solid) {
			continue
		}
		contact := check.ContactWithObject(solid)
		d := contact.Y()
		if dx != 0 {
			d = contact.X()
		}
		if !blocked || math.Abs(d) < math.Abs(step) {
			step, blocked = d, true
		}
	}
	return step, blocked
}

func overlaps(x, y, w, h float64, o *resolv.Object) bool {
	return x < o.X+o.W && x+w > o.X && y < o.Y+o.H && y+h > o.Y
}

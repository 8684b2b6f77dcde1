// Package zonemap loads zone layouts drawn in Tiled: the cover bots have to
// walk around and where they spawn. Pure data; the server turns a Layout
// into a collision space.
package zonemap

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/automoto/dynamicai/config"
	"github.com/lafriks/go-tiled"
)

// Object group names read from a TMX file.
const (
	CoverGroup    = "cover"
	BotSpawnGroup = "BotSpawn"
)

// Layout is the collision-relevant content of one zone map, in map units
// with the origin at the top-left corner.
type Layout struct {
	Width, Height int
	Cover         []Rect
	BotSpawns     []Point
}

type Rect struct {
	X, Y, W, H float64
}

type Point struct {
	X, Y float64
}

// Load parses one TMX file. Cover comes from rectangles in the "cover"
// object group, spawns from points in "BotSpawn".
func Load(fsys fs.FS, tmxPath string) (*Layout, error) {
	m, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	l := &Layout{
		Width:  m.Width * m.TileWidth,
		Height: m.Height * m.TileHeight,
	}
	for _, og := range m.ObjectGroups {
		switch og.Name {
		case CoverGroup:
			for _, o := range og.Objects {
				if o.Width <= 0 || o.Height <= 0 {
					continue
				}
				l.Cover = append(l.Cover, Rect{X: o.X, Y: o.Y, W: o.Width, H: o.Height})
			}
		case BotSpawnGroup:
			for _, o := range og.Objects {
				l.BotSpawns = append(l.BotSpawns, Point{X: o.X, Y: o.Y})
			}
		}
	}

	// Stable order regardless of how the map was edited.
	sort.Slice(l.BotSpawns, func(i, j int) bool {
		if l.BotSpawns[i].X != l.BotSpawns[j].X {
			return l.BotSpawns[i].X < l.BotSpawns[j].X
		}
		return l.BotSpawns[i].Y < l.BotSpawns[j].Y
	})
	return l, nil
}

// LoadDir loads every .tmx file in dir. Files are keyed by the zone their
// stem names, so "bigmap.tmx" and "customs.tmx" both land on customs.
func LoadDir(fsys fs.FS, dir string) (map[config.ZoneID]*Layout, []config.ZoneID, error) {
	pattern := path.Join(dir, "*.tmx")
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", dir)
	}

	layouts := make(map[config.ZoneID]*Layout, len(matches))
	zones := make([]config.ZoneID, 0, len(matches))
	for _, p := range matches {
		l, err := Load(fsys, p)
		if err != nil {
			return nil, nil, err
		}
		zone, _ := config.CanonicalZone(strings.TrimSuffix(path.Base(p), ".tmx"))
		if _, dup := layouts[zone]; dup {
			return nil, nil, fmt.Errorf("%s: zone %s already has a map", p, zone)
		}
		layouts[zone] = l
		zones = append(zones, zone)
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i] < zones[j] })
	return layouts, zones, nil
}

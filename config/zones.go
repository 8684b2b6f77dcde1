package config

import "strings"

// ZoneID identifies a map. Canonical IDs are lower case.
type ZoneID string

// ZoneSet is a set of zones.
type ZoneSet map[ZoneID]struct{}

func NewZoneSet(zones ...ZoneID) ZoneSet {
	s := make(ZoneSet, len(zones))
	for _, z := range zones {
		s[z] = struct{}{}
	}
	return s
}

func (s ZoneSet) Has(z ZoneID) bool {
	_, ok := s[z]
	return ok
}

func (s ZoneSet) Clone() ZoneSet {
	out := make(ZoneSet, len(s))
	for z := range s {
		out[z] = struct{}{}
	}
	return out
}

// ZoneInfo describes a known map and its stock range.
type ZoneInfo struct {
	ID           ZoneID
	Name         string
	DefaultRange float64
	Aliases      []string // host-side level identifiers
}

const (
	ZoneFactory     ZoneID = "factory"
	ZoneCustoms     ZoneID = "customs"
	ZoneWoods       ZoneID = "woods"
	ZoneShoreline   ZoneID = "shoreline"
	ZoneInterchange ZoneID = "interchange"
	ZoneReserve     ZoneID = "reserve"
	ZoneLighthouse  ZoneID = "lighthouse"
	ZoneStreets     ZoneID = "streets"
	ZoneGroundZero  ZoneID = "groundzero"
	ZoneLabs        ZoneID = "labs"
)

// Zones is the static table of known maps.
var Zones []ZoneInfo

var zoneLookup map[string]int

func init() {
	Zones = []ZoneInfo{
		{ID: ZoneFactory, Name: "Factory", DefaultRange: 80, Aliases: []string{"factory4_day", "factory4_night"}},
		{ID: ZoneLabs, Name: "Labs", DefaultRange: 120, Aliases: []string{"laboratory"}},
		{ID: ZoneStreets, Name: "Streets", DefaultRange: 150, Aliases: []string{"tarkovstreets"}},
		{ID: ZoneGroundZero, Name: "Ground Zero", DefaultRange: 150, Aliases: []string{"sandbox", "sandbox_high"}},
		{ID: ZoneCustoms, Name: "Customs", DefaultRange: 180, Aliases: []string{"bigmap"}},
		{ID: ZoneInterchange, Name: "Interchange", DefaultRange: 200},
		{ID: ZoneReserve, Name: "Reserve", DefaultRange: 250, Aliases: []string{"rezervbase"}},
		{ID: ZoneShoreline, Name: "Shoreline", DefaultRange: 280},
		{ID: ZoneWoods, Name: "Woods", DefaultRange: 350},
		{ID: ZoneLighthouse, Name: "Lighthouse", DefaultRange: 400},
	}

	zoneLookup = make(map[string]int)
	for i, z := range Zones {
		zoneLookup[string(z.ID)] = i
		zoneLookup[normalizeZoneKey(z.Name)] = i
		for _, a := range z.Aliases {
			zoneLookup[normalizeZoneKey(a)] = i
		}
	}
}

// LookupZone finds a known zone by canonical ID, display name or alias.
func LookupZone(id string) (ZoneInfo, bool) {
	i, ok := zoneLookup[normalizeZoneKey(id)]
	if !ok {
		return ZoneInfo{}, false
	}
	return Zones[i], true
}

// CanonicalZone maps any known spelling of a zone onto its canonical ID.
// Unknown identifiers come back lower-cased and report false.
func CanonicalZone(id string) (ZoneID, bool) {
	if z, ok := LookupZone(id); ok {
		return z.ID, true
	}
	return ZoneID(normalizeZoneKey(id)), false
}

func normalizeZoneKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}

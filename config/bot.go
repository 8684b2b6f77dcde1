package config

import "strings"

// AgentID is the host's opaque handle for a live bot.
type AgentID string

// Category is the role a bot spawns with. It never changes afterwards.
type Category int

const (
	CategoryScav Category = iota
	CategoryPMC
	CategoryRogue
	CategoryRaider
	CategoryCultist
	CategoryBoss
	CategorySniper
	CategoryFollower
	CategoryCount
)

var categoryNames = [CategoryCount]string{
	CategoryScav:     "Scav",
	CategoryPMC:      "PMC",
	CategoryRogue:    "Rogue",
	CategoryRaider:   "Raider",
	CategoryCultist:  "Cultist",
	CategoryBoss:     "Boss",
	CategorySniper:   "Sniper",
	CategoryFollower: "Follower",
}

func (c Category) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= 0 && c < CategoryCount
}

// ParseCategory accepts the singular or plural name ("PMC", "pmcs"), case-insensitive.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c := Category(0); c < CategoryCount; c++ {
		name := strings.ToLower(categoryNames[c])
		if s == name || s == name+"s" {
			return c, true
		}
	}
	return 0, false
}

// CategorySet is a bitmask of categories.
type CategorySet uint16

// AllCategories contains every known category.
const AllCategories CategorySet = 1<<CategoryCount - 1

func NewCategorySet(cs ...Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

func (s CategorySet) Has(c Category) bool {
	return c.Valid() && s&(1<<c) != 0
}

func (s CategorySet) With(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

func (s CategorySet) Without(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s &^ (1 << c)
}

// Categories lists the members in declaration order.
func (s CategorySet) Categories() []Category {
	var out []Category
	for c := Category(0); c < CategoryCount; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Tier is the throttling bucket an agent is scheduled in.
// Lower values are more active.
type Tier int

const (
	TierNear Tier = iota
	TierMid
	TierFar
	TierDormant
	TierCount
)

var tierNames = [TierCount]string{"Near", "Mid", "Far", "Dormant"}

func (t Tier) String() string {
	if t < 0 || t >= TierCount {
		return "Unknown"
	}
	return tierNames[t]
}

// MoreActiveThan reports whether t updates more often than o.
func (t Tier) MoreActiveThan(o Tier) bool {
	return t < o
}

// RateSetting is the user-facing "how often" knob.
type RateSetting int

const (
	RateLow RateSetting = iota
	RateMedium
	RateHigh
	RateCount
)

var rateNames = [RateCount]string{"Low", "Medium", "High"}

func (r RateSetting) String() string {
	if r < 0 || r >= RateCount {
		return "Unknown"
	}
	return rateNames[r]
}

func ParseRateSetting(s string) (RateSetting, bool) {
	s = strings.TrimSpace(s)
	for r := RateSetting(0); r < RateCount; r++ {
		if strings.EqualFold(s, rateNames[r]) {
			return r, true
		}
	}
	return RateMedium, false
}

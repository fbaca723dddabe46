// Package rules holds the fixed unit and terrain tables of the game.
package rules

import (
	"math"

	"github.com/hexfront/engine/pkg/core"
)

// MaxRange is the longest combat range any unit can reach.
const MaxRange = 4

var inf = math.Inf(1)

// movementCost is indexed [unit][terrain] in enum order.
var movementCost = [6][6]float64{
	core.Infantry:  {1, 3, 2, 2, inf, 2},
	core.Artillery: {1.5, inf, 3, 3, inf, 2},
	core.Cavalry:   {0.8, inf, 1.5, 2, inf, 1.5},
	core.Supply:    {1, inf, 2, 3, inf, 2},
	core.Spy:       {0.7, 1, 1, 1, inf, 1},
	core.General:   {1, 3, 2, 2, inf, 2},
}

// capabilityPerHour is the number of cost units a unit covers per game hour.
var capabilityPerHour = [6]float64{
	core.Infantry:  3,
	core.Artillery: 2,
	core.Cavalry:   5,
	core.Supply:    2,
	core.Spy:       6,
	core.General:   4,
}

// reach is a range with optional terrain boosts; zero means no boost.
type reach struct {
	base, hill, mountain int
}

func (r reach) on(t core.Terrain) int {
	switch {
	case t == core.Hill && r.hill > 0:
		return r.hill
	case t == core.Mountain && r.mountain > 0:
		return r.mountain
	}
	return r.base
}

// Profile is the combat profile of a unit type.
type Profile struct {
	Attack    float64
	Defense   float64
	MaxHealth float64
	weapon    reach
	vision    reach
}

var profiles = [6]Profile{
	core.Infantry:  {Attack: 7, Defense: 7, MaxHealth: 12, weapon: reach{2, 3, MaxRange}, vision: reach{3, 5, 7}},
	core.Artillery: {Attack: 12, Defense: 12, MaxHealth: 10, weapon: reach{3, MaxRange, 0}, vision: reach{3, 5, 0}},
	core.Cavalry:   {Attack: 15, Defense: 15, MaxHealth: 15, weapon: reach{1, 0, 0}, vision: reach{3, 5, 0}},
	core.Supply:    {Attack: 1, Defense: 2, MaxHealth: 5, weapon: reach{1, 0, 0}, vision: reach{2, 0, 0}},
	core.Spy:       {Attack: 1, Defense: 1, MaxHealth: 5, weapon: reach{1, 0, 0}, vision: reach{5, 7, 9}},
	core.General:   {Attack: 1, Defense: 5, MaxHealth: 10, weapon: reach{2, 0, 0}, vision: reach{5, 9, 13}},
}

// ProfileOf returns the combat profile of t, or a zero profile for unknown types.
func ProfileOf(t core.UnitType) Profile {
	if !t.Valid() {
		return Profile{}
	}
	return profiles[t]
}

// Cost returns the movement cost multiplier, +Inf when impassable.
func Cost(t core.UnitType, terrain core.Terrain) float64 {
	if !t.Valid() || !terrain.Valid() {
		return inf
	}
	return movementCost[t][terrain]
}

// Passable reports whether a unit of type t may enter terrain.
func Passable(t core.UnitType, terrain core.Terrain) bool {
	return !math.IsInf(Cost(t, terrain), 1)
}

// StepMinutes is the game minutes needed to enter a hex of the given terrain.
// Impassable terrain or zero capability yields +Inf.
func StepMinutes(t core.UnitType, terrain core.Terrain) float64 {
	cost := Cost(t, terrain)
	if math.IsInf(cost, 1) || cost <= 0 {
		return inf
	}
	capability := capabilityPerHour[t]
	if capability <= 0 {
		return inf
	}
	return 60 * cost / capability
}

// Range is the combat range of a unit standing on terrain.
func Range(t core.UnitType, terrain core.Terrain) int {
	return ProfileOf(t).weapon.on(terrain)
}

// VisionRange is the sight range of a unit standing on terrain.
func VisionRange(t core.UnitType, terrain core.Terrain) int {
	return ProfileOf(t).vision.on(terrain)
}

// MaxHealth returns the starting and maximum health of t.
func MaxHealth(t core.UnitType) float64 {
	return ProfileOf(t).MaxHealth
}

// Attack returns the attack value of t.
func Attack(t core.UnitType) float64 {
	return ProfileOf(t).Attack
}

// Defense returns the defense value of t.
func Defense(t core.UnitType) float64 {
	return ProfileOf(t).Defense
}

// Package terrain models map cells: terrain types, the per-tile flag bitmask and
// the rules deriving passability and movement cost from the terrain stack.
package terrain

import "fmt"

// Flag is a bit in a tile's terrain/passability mask.
type Flag uint64

const (
	FlagLand Flag = 1 << iota
	FlagCoast
	FlagWater
	FlagSpace
	FlagUnderground
	FlagNoBuilding
	FlagUnpassable
	FlagWall
	FlagRock
	FlagTree
	FlagAirUnpassable
	FlagDesert
	FlagDirt
	FlagIce
	FlagGrass
	FlagGravel
	FlagMud
	FlagRailroad
	FlagRoad
	FlagNoRail
	FlagSnow
	FlagStoneFloor
	FlagStumps

	// Occupancy flags, set while units stand on the tile.
	FlagLandUnit
	FlagAirUnit
	FlagSeaUnit
	FlagBuilding
	FlagItem
	FlagBridge
)

// OccupancyFlags are derived from the units on a tile and are rebuilt on load.
const OccupancyFlags = FlagLandUnit | FlagAirUnit | FlagSeaUnit | FlagBuilding | FlagItem | FlagBridge

var flagTags = []struct {
	flag Flag
	tag  string
}{
	{FlagLand, "land"},
	{FlagCoast, "coast"},
	{FlagWater, "water"},
	{FlagSpace, "space"},
	{FlagUnderground, "underground"},
	{FlagNoBuilding, "no-building"},
	{FlagUnpassable, "block"},
	{FlagWall, "wall"},
	{FlagRock, "rock"},
	{FlagTree, "wood"},
	{FlagAirUnpassable, "air-unpassable"},
	{FlagDesert, "desert"},
	{FlagDirt, "dirt"},
	{FlagIce, "ice"},
	{FlagGrass, "grass"},
	{FlagGravel, "gravel"},
	{FlagMud, "mud"},
	{FlagRailroad, "railroad"},
	{FlagRoad, "road"},
	{FlagNoRail, "no-rail"},
	{FlagSnow, "snow"},
	{FlagStoneFloor, "stone_floor"},
	{FlagStumps, "stumps"},
	{FlagLandUnit, "ground"},
	{FlagAirUnit, "air"},
	{FlagSeaUnit, "sea"},
	{FlagBuilding, "building"},
	{FlagItem, "item"},
	{FlagBridge, "bridge"},
}

// Has reports whether any bit of mask is set.
func (f Flag) Has(mask Flag) bool {
	return f&mask != 0
}

// Tags returns the save-file words for the set bits, in canonical order.
func (f Flag) Tags() []string {
	var tags []string
	for _, ft := range flagTags {
		if f&ft.flag != 0 {
			tags = append(tags, ft.tag)
		}
	}
	return tags
}

// ParseFlag returns the flag named by a save-file word.
func ParseFlag(tag string) (Flag, error) {
	for _, ft := range flagTags {
		if ft.tag == tag {
			return ft.flag, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, tag)
}

// ParseFlags combines several words into one mask.
func ParseFlags(tags []string) (Flag, error) {
	var f Flag
	for _, tag := range tags {
		bit, err := ParseFlag(tag)
		if err != nil {
			return 0, err
		}
		f |= bit
	}
	return f, nil
}

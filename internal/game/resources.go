package game

// Cost slots. Slot 0 is the time cost, the rest are stockpiled resources.
const (
	CostTime = iota
	CostGold
	CostWood
	CostStone
	CostOil
	MaxCosts
)

var costNames = [MaxCosts]string{"time", "gold", "wood", "stone", "oil"}

// CostName returns the save-file name of a cost slot.
func CostName(i int) string {
	if i < 0 || i >= MaxCosts {
		return ""
	}
	return costNames[i]
}

// CostIndex returns the slot named name, or -1.
func CostIndex(name string) int {
	for i, n := range costNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Costs holds one amount per cost slot.
type Costs [MaxCosts]int

// Scaled returns the resource part of c multiplied by factor percent. Time is
// not a stockpiled resource and is left at zero.
func (c Costs) Scaled(factor int) Costs {
	var out Costs
	for i := 1; i < MaxCosts; i++ {
		out[i] = c[i] * factor / 100
	}
	return out
}

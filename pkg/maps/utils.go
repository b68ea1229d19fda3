package maps

import "strconv"

// LandmassIDToString converts a landmass ID to a string: "l3" for land
// region 3, "w2" for water region -2.
func LandmassIDToString(id int) string {
	if id < 0 {
		return "w" + strconv.Itoa(-id)
	}
	return "l" + strconv.Itoa(id)
}

// StringToLandmassID converts a string back to a landmass ID.
func StringToLandmassID(s string) int {
	if len(s) < 2 {
		return 0
	}
	id, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0
	}
	switch s[0] {
	case 'l':
		return id
	case 'w':
		return -id
	}
	return 0
}

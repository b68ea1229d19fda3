package maps

import (
	"fmt"
	"strings"

	"ironhold/internal/game"
)

// Debug returns a string visualization of layer z of a built world: the
// settlement of every tile, then the landmasses.
func Debug(w *game.World, z int, regions []*Landmass) string {
	var sb strings.Builder
	if z < 0 || z >= len(w.Map.Layers) {
		return ""
	}
	l := w.Map.Layers[z]

	sb.WriteString(fmt.Sprintf("Layer %d: %dx%d\n", z, l.Width, l.Height))
	sb.WriteString(fmt.Sprintf("Settlements: %d\n", len(w.Settlements)))
	sb.WriteString(fmt.Sprintf("Landmasses: %d\n\n", len(regions)))

	// Water prints as '~', land as the settlement number
	sb.WriteString("Territory Grid:\n")
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			tile := w.Map.Field(game.Pos{X: x, Y: y}, z)
			switch {
			case tile.Landmass < 0:
				sb.WriteString(" ~")
			case tile.Settlement == 0:
				sb.WriteString(" .")
			default:
				sb.WriteString(fmt.Sprintf("%2d", tile.Settlement))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nSettlements:\n")
	for _, s := range w.Settlements {
		if s.Z != z {
			continue
		}
		owner := "nobody"
		if s.Owner != nil {
			owner = s.Owner.Name
		}
		sb.WriteString(fmt.Sprintf("  %d. %s (%s)\n", s.ID, s.Name, s.Ident))
		sb.WriteString(fmt.Sprintf("     Owner: %s\n", owner))
		sb.WriteString(fmt.Sprintf("     Territory: %v-%v\n", s.TerritoryRect.Min, s.TerritoryRect.Max))
		sb.WriteString(fmt.Sprintf("     Border tiles: %d\n", len(s.BorderTiles)))
	}

	sb.WriteString("\nLandmasses:\n")
	for _, lm := range regions {
		adjacent := make([]string, len(lm.Adjacent))
		for i, id := range lm.Adjacent {
			adjacent[i] = LandmassIDToString(id)
		}
		sb.WriteString(fmt.Sprintf("  %s: %d cells, touches %v\n", LandmassIDToString(lm.ID), len(lm.Cells), adjacent))
	}

	return sb.String()
}

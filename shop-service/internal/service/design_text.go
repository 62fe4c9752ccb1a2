package service

import (
	"fmt"
	"strings"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

const unknownBeadValue = "Unknown"

var beadShapeNames = map[string]string{
	"circle":   "Circle",
	"square":   "Square",
	"triangle": "Triangle",
	"star":     "Star",
	"heart":    "Heart",
	"hexagon":  "Hexagon",
	"diamond":  "Diamond",
}

// keyed by lower-case hex
var beadColorNames = map[string]string{
	"#ff0000": "Red",
	"#0000ff": "Blue",
	"#00ff00": "Green",
	"#ffff00": "Yellow",
	"#ff00ff": "Magenta",
	"#00ffff": "Cyan",
	"#ffffff": "White",
	"#000000": "Black",
	"#ffa500": "Orange",
	"#964b00": "Brown",
	"#808080": "Gray",
	"#ffc0cb": "Pink",
	"#8b00ff": "Violet",
	"#ffd700": "Gold",
	"#228b22": "Forest Green",
	"#b22222": "Firebrick",
}

var beadSizeNames = map[string]string{
	"small":  "Small",
	"medium": "Medium",
	"large":  "Large",
}

// ShapeName translates a bead shape code. Unknown codes are returned unchanged.
func ShapeName(code string) string {
	return lookupBead(beadShapeNames, code, code)
}

// ColorName translates a hex colour, ignoring case. Unknown codes are returned unchanged.
func ColorName(code string) string {
	return lookupBead(beadColorNames, strings.ToLower(code), code)
}

func SizeName(code string) string {
	return lookupBead(beadSizeNames, code, code)
}

func lookupBead(table map[string]string, key, raw string) string {
	if raw == "" {
		return unknownBeadValue
	}
	if name, ok := table[key]; ok {
		return name
	}
	return raw
}

// RenderDesignText describes each bead on its own one-indexed line,
// e.g. "1. Red Small Circle 'A'".
func RenderDesignText(design *domain.CustomBraceletDesign) []string {
	lines := make([]string, 0, len(design.Beads))
	for i, b := range design.Beads {
		line := fmt.Sprintf("%d. %s %s %s", i+1, ColorName(b.Color), SizeName(b.Size), ShapeName(b.Shape))
		if b.Letter != "" {
			line += fmt.Sprintf(" '%s'", b.Letter)
		}
		lines = append(lines, line)
	}
	return lines
}

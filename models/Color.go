package models

import (
	"fmt"
	"strings"
)

// Color is stored as its integer value.
type Color int

const (
	ColorWhite Color = iota
	ColorBlack
	ColorDarkRed
	ColorRed
	ColorCoral
	ColorTan
	ColorNougat
	ColorDarkOrange
	ColorOrange
	ColorYellow
	ColorGreen
)

var colorNames = [...]string{
	ColorWhite:      "White",
	ColorBlack:      "Black",
	ColorDarkRed:    "DarkRed",
	ColorRed:        "Red",
	ColorCoral:      "Coral",
	ColorTan:        "Tan",
	ColorNougat:     "Nougat",
	ColorDarkOrange: "DarkOrange",
	ColorOrange:     "Orange",
	ColorYellow:     "Yellow",
	ColorGreen:      "Green",
}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// Valid reports whether c is one of the declared colors.
func (c Color) Valid() bool {
	return c >= 0 && int(c) < len(colorNames)
}

// ParseColor resolves a color name case-insensitively.
func ParseColor(name string) (Color, error) {
	name = strings.TrimSpace(name)
	for idx, candidate := range colorNames {
		if strings.EqualFold(candidate, name) {
			return Color(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown color: %q", name)
}

// ColorOf returns a pointer to c, for the optional color column.
func ColorOf(c Color) *Color {
	return &c
}

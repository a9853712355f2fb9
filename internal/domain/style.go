package domain

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

type Color string

const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorPink   Color = "pink"
	ColorTeal   Color = "teal"
	ColorGray   Color = "gray"
)

// StyleVariant is the presentation style a category color renders with.
type StyleVariant struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Border     string `json:"border"`
}

// palette holds the base tone per color token. Variants blend it toward
// white or black in Lab space.
var palette = map[Color]string{
	ColorBlue:   "#2563eb",
	ColorGreen:  "#16a34a",
	ColorPurple: "#9333ea",
	ColorRed:    "#dc2626",
	ColorOrange: "#ea580c",
	ColorPink:   "#db2777",
	ColorTeal:   "#0d9488",
	ColorGray:   "#6b7280",
}

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{R: 0, G: 0, B: 0}
)

var (
	styleVariants  = buildVariants()
	neutralVariant = styleVariants[ColorGray]
)

func buildVariants() map[Color]StyleVariant {
	out := make(map[Color]StyleVariant, len(palette))
	for c, hex := range palette {
		name := string(c)
		if c == ColorGray {
			name = "neutral"
		}
		v, err := deriveVariant(name, hex)
		if err != nil {
			panic(err)
		}
		out[c] = v
	}
	return out
}

func deriveVariant(name, baseHex string) (StyleVariant, error) {
	base, err := colorful.Hex(baseHex)
	if err != nil {
		return StyleVariant{}, fmt.Errorf("color %s: %w", name, err)
	}
	return StyleVariant{
		Name:       name,
		Background: base.BlendLab(white, 0.85).Clamped().Hex(),
		Foreground: base.BlendLab(black, 0.2).Clamped().Hex(),
		Border:     base.BlendLab(white, 0.55).Clamped().Hex(),
	}, nil
}

func (c Color) Valid() bool {
	_, ok := styleVariants[c]
	return ok
}

// Style returns the variant for c, or the neutral variant for unknown tokens.
func (c Color) Style() StyleVariant {
	if v, ok := styleVariants[c]; ok {
		return v
	}
	return neutralVariant
}

func Colors() []Color {
	return []Color{ColorBlue, ColorGreen, ColorPurple, ColorRed, ColorOrange, ColorPink, ColorTeal, ColorGray}
}

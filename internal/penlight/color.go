package penlight

import (
	"image/color"
	"math"
)

// Color is a plain 8-bit RGB triple. No alpha, no gamma.
type Color struct {
	R uint8
	G uint8
	B uint8
}

var Black = Color{}

// Palette holds the seven fixed colors used by the cycle, blink and
// alternating patterns. The order is the cycle order.
var Palette = []Color{
	{255, 0, 0},    // red
	{255, 165, 0},  // orange
	{255, 255, 0},  // yellow
	{0, 255, 0},    // green
	{0, 0, 255},    // blue
	{128, 0, 128},  // purple
	{255, 20, 147}, // deep pink
}

// GradientSteps is the number of entries in the rainbow gradient.
const GradientSteps = 96

// RainbowGradient sweeps the hue over a full revolution at full
// saturation and value, producing steps evenly spaced colors starting
// at pure red.
func RainbowGradient(steps int) []Color {
	colors := make([]Color, 0, steps)
	for i := 0; i < steps; i++ {
		hue := (i * 360) / steps
		colors = append(colors, hsvToRGB(hue, 100, 100))
	}
	return colors
}

func hsvToRGB(h, s, v int) Color {
	sf := float64(s) / 100.0
	vf := float64(v) / 100.0
	c := vf * sf
	x := c * (1 - math.Abs(math.Mod(float64(h)/60.0, 2)-1))
	m := vf - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return Color{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
	}
}

// Scale returns the color with every channel scaled by
// brightness/255. Scale(255) is the identity.
func (c Color) Scale(brightness uint8) Color {
	if brightness == 255 {
		return c
	}
	return Color{
		R: uint8(uint16(c.R) * uint16(brightness) / 255),
		G: uint8(uint16(c.G) * uint16(brightness) / 255),
		B: uint8(uint16(c.B) * uint16(brightness) / 255),
	}
}

// RGBA converts to the buffer element type the strip drivers consume.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

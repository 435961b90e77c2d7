package palette

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1.0}
}

// RGBA creates a color from RGBA components.
func RGBA(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// RGB8 creates an opaque color from 8-bit components.
func RGB8(r, g, b uint8) Color {
	return RGB(float64(r)/255, float64(g)/255, float64(b)/255)
}

// Hex creates a color from a hex string and returns opaque black for
// malformed input.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA".
func Hex(hex string) Color {
	c, err := ParseHex(hex)
	if err != nil {
		return Color{A: 1}
	}
	return c
}

// ParseHex parses a hex color string with an optional leading '#'.
func ParseHex(hex string) (Color, error) {
	s := hex
	if s != "" && s[0] == '#' {
		s = s[1:]
	}

	var r, g, b uint32
	a := uint32(255)
	var ok bool

	switch len(s) {
	case 3: // RGB
		ok = parseHex(s[0:1], &r) && parseHex(s[1:2], &g) && parseHex(s[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4: // RGBA
		ok = parseHex(s[0:1], &r) && parseHex(s[1:2], &g) && parseHex(s[2:3], &b) && parseHex(s[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6: // RRGGBB
		ok = parseHex(s[0:2], &r) && parseHex(s[2:4], &g) && parseHex(s[4:6], &b)
	case 8: // RRGGBBAA
		ok = parseHex(s[0:2], &r) && parseHex(s[2:4], &g) && parseHex(s[4:6], &b) && parseHex(s[6:8], &a)
	}
	if !ok {
		return Color{}, fmt.Errorf("palette: invalid hex color %q", hex)
	}

	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

// Hex returns the color as "#rrggbb", or "#rrggbbaa" when not opaque.
func (c Color) Hex() string {
	r, g, b, a := c.RGBA8()
	if a == 255 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

func (c Color) String() string { return c.Hex() }

// RGBA8 returns the color as 8-bit components.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return to8(c.R), to8(c.G), to8(c.B), to8(c.A)
}

// Lerp performs linear interpolation between two colors in sRGB space.
func (c Color) Lerp(other Color, t float64) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// BlendLab interpolates between two colors in CIE L*a*b* space. Alpha is
// interpolated linearly.
func (c Color) BlendLab(other Color, t float64) Color {
	switch {
	case t <= 0:
		return c
	case t >= 1:
		return other
	}
	a := colorful.Color{R: c.R, G: c.G, B: c.B}
	b := colorful.Color{R: other.R, G: other.G, B: other.B}
	m := a.BlendLab(b, t).Clamped()
	return Color{R: m.R, G: m.G, B: m.B, A: c.A + (other.A-c.A)*t}
}

// DistanceLab returns the CIE76 distance between two colors.
func (c Color) DistanceLab(other Color) float64 {
	a := colorful.Color{R: c.R, G: c.G, B: c.B}
	b := colorful.Color{R: other.R, G: other.G, B: other.B}
	return a.DistanceLab(b)
}

func to8(x float64) uint8 {
	return uint8(math.Round(clamp01(x) * 255))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Gray        = Hex("#808080")
	Transparent = RGBA(0, 0, 0, 0)
)

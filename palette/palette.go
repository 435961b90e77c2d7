// Package palette provides colors, named color palettes and the perceptual
// interpolation ramps use to map values to colors.
package palette

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Palette is an ordered list of colors. Qualitative palettes carry a
// dedicated color for the "others" bucket.
type Palette struct {
	Name   string
	Colors []Color

	// Others is the color of categories outside the palette. It is only
	// meaningful when HasOthers is set.
	Others    Color
	HasOthers bool
}

func hexes(list ...string) []Color {
	out := make([]Color, len(list))
	for i, h := range list {
		out[i] = Hex(h)
	}
	return out
}

func qualitative(name string, list ...string) Palette {
	cs := hexes(list...)
	return Palette{Name: name, Colors: cs[:len(cs)-1], Others: cs[len(cs)-1], HasOthers: true}
}

// CARTOColors palettes.
var (
	Prism = qualitative("prism",
		"#5F4690", "#1D6996", "#38A6A5", "#0F8554", "#73AF48", "#EDAD08",
		"#E17C05", "#CC503E", "#94346E", "#6F4070", "#994E95", "#666666")
	Bold = qualitative("bold",
		"#7F3C8D", "#11A579", "#3969AC", "#F2B701", "#E73F74", "#80BA5A",
		"#E68310", "#008695", "#CF1C90", "#f97b72", "#4b4b8f", "#A5AA99")
	Vivid = qualitative("vivid",
		"#E58606", "#5D69B1", "#52BCA3", "#99C945", "#CC61B0", "#24796C",
		"#DAA51B", "#2F8AC4", "#764E9F", "#ED645A", "#CC3A8E", "#A5AA99")
	Safe = qualitative("safe",
		"#88CCEE", "#CC6677", "#DDCC77", "#117733", "#332288", "#AA4499",
		"#44AA99", "#999933", "#882255", "#661100", "#6699CC", "#888888")
	Pastel = qualitative("pastel",
		"#66C5CC", "#F6CF71", "#F89C74", "#DCB0F2", "#87C55F", "#9EB9F3",
		"#FE88B1", "#C9DB74", "#8BE0A4", "#B497E7", "#D3B484", "#B3B3B3")
	Sunset = Palette{Name: "sunset", Colors: hexes(
		"#f3e79b", "#fac484", "#f8a07e", "#eb7f86", "#ce6693", "#a059a0", "#5c53a5")}
	Emrld = Palette{Name: "emrld", Colors: hexes(
		"#d3f2a3", "#97e196", "#6cc08b", "#4c9b82", "#217a79", "#105965", "#074050")}
)

var named = map[string]Palette{}

func init() {
	for _, p := range []Palette{Prism, Bold, Vivid, Safe, Pastel, Sunset, Emrld} {
		named[p.Name] = p
	}
}

// Named returns the palette registered under name, case-insensitively.
func Named(name string) (Palette, error) {
	p, ok := named[strings.ToLower(name)]
	if !ok {
		return Palette{}, fmt.Errorf("palette: unknown palette %q", name)
	}
	return p, nil
}

// Names returns the names of the registered palettes in sorted order.
func Names() []string {
	out := make([]string, 0, len(named))
	for n := range named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of palette colors, excluding the others color.
func (p Palette) Len() int { return len(p.Colors) }

// Interpolate returns the color at t in [0, 1] along colors, interpolating
// adjacent entries in CIE L*a*b* space. t is clamped.
func Interpolate(colors []Color, t float64) Color {
	switch len(colors) {
	case 0:
		return Transparent
	case 1:
		return colors[0]
	}
	if math.IsNaN(t) {
		t = 0
	}
	pos := clamp01(t) * float64(len(colors)-1)
	i := int(math.Floor(pos))
	if i >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	return colors[i].BlendLab(colors[i+1], pos-float64(i))
}

// Expand returns k colors for k categories. When k does not exceed the
// palette the first k colors are used. Otherwise the palette is sampled at
// k evenly spaced positions so every category gets its own color.
func Expand(colors []Color, k int) []Color {
	if k <= 0 {
		return nil
	}
	if k <= len(colors) {
		return append([]Color(nil), colors[:k]...)
	}
	out := make([]Color, k)
	for i := range out {
		out[i] = Interpolate(colors, float64(i)/float64(k-1))
	}
	return out
}

// InterpolateNumbers returns the value at t in [0, 1] along values,
// linearly interpolating adjacent entries. t is clamped.
func InterpolateNumbers(values []float64, t float64) float64 {
	switch len(values) {
	case 0:
		return 0
	case 1:
		return values[0]
	}
	if math.IsNaN(t) {
		t = 0
	}
	pos := clamp01(t) * float64(len(values)-1)
	i := int(math.Floor(pos))
	if i >= len(values)-1 {
		return values[len(values)-1]
	}
	f := pos - float64(i)
	return values[i] + (values[i+1]-values[i])*f
}

// ExpandNumbers returns k values for k categories, linearly interpolated
// across values when the counts differ.
func ExpandNumbers(values []float64, k int) []float64 {
	if k <= 0 {
		return nil
	}
	if k == len(values) {
		return append([]float64(nil), values...)
	}
	out := make([]float64, k)
	for i := range out {
		t := 0.0
		if k > 1 {
			t = float64(i) / float64(k-1)
		}
		out[i] = InterpolateNumbers(values, t)
	}
	return out
}

// Image is a symbol image addressed by URL.
type Image struct {
	URL string
}

// ImageList is an ordered list of symbol images used as a ramp palette.
type ImageList []Image

// URLs returns the image URLs in order.
func (l ImageList) URLs() []string {
	out := make([]string, len(l))
	for i, img := range l {
		out[i] = img.URL
	}
	return out
}

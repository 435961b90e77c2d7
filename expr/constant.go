package expr

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/shader"
)

// NumberNode is a numeric constant, uploaded as a uniform.
type NumberNode struct {
	base
	value float64
	slot  uniformSlot
}

// Number returns a numeric constant.
func Number(v float64) *NumberNode { return &NumberNode{value: v} }

// Value returns the constant.
func (n *NumberNode) Value() float64 { return n.value }

func (n *NumberNode) Type() Type { return TypeNumber }

func (n *NumberNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *NumberNode) Eval(Feature) (any, error) { return n.value, nil }

func (n *NumberNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return n.slot.declare(a, shader.F32), nil
}

func (n *NumberNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	n.slot.resolve(s, p)
	return nil
}

func (n *NumberNode) PreDraw(s *gpu.Session) error {
	n.slot.write(s, float32(n.value))
	return nil
}

func (n *NumberNode) String() string { return fmt.Sprint(n.value) }

// ColorNode is a color constant, uploaded as a vec4 uniform.
type ColorNode struct {
	base
	color palette.Color
	slot  uniformSlot
}

// ColorConst returns a color constant.
func ColorConst(c palette.Color) *ColorNode { return &ColorNode{color: c} }

// Hex returns the color constant for a hex string such as "#ff8800".
func Hex(s string) (*ColorNode, error) {
	c, err := palette.ParseHex(s)
	if err != nil {
		return nil, &ArgumentError{Op: "hex", Reason: err.Error()}
	}
	return ColorConst(c), nil
}

func (n *ColorNode) Type() Type { return TypeColor }

func (n *ColorNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *ColorNode) Eval(Feature) (any, error) { return n.color, nil }

func (n *ColorNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return n.slot.declare(a, shader.Vec4), nil
}

func (n *ColorNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	n.slot.resolve(s, p)
	return nil
}

func (n *ColorNode) PreDraw(s *gpu.Session) error {
	c := n.color
	n.slot.write(s, float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	return nil
}

func (n *ColorNode) String() string { return n.color.Hex() }

// CategoryNode is a category name constant.
type CategoryNode struct {
	base
	name string
	id   int
}

// Category returns a category constant.
func Category(name string) *CategoryNode { return &CategoryNode{name: name, id: -1} }

func (n *CategoryNode) Type() Type { return TypeCategory }

// Bind registers the name in the dataset category table so the shader can
// compare against its ID.
func (n *CategoryNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	n.md = md
	if md != nil {
		n.id = md.CategorizeString("", n.name)
	}
	return nil
}

func (n *CategoryNode) Eval(Feature) (any, error) { return n.name, nil }

func (n *CategoryNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	if n.md == nil {
		return shader.Source{}, fmt.Errorf("%w: category %q", ErrNotBound, n.name)
	}
	return shader.Source{Inline: shader.Float(float64(n.id))}, nil
}

func (n *CategoryNode) categoryNames() []string { return []string{n.name} }

func (n *CategoryNode) String() string { return fmt.Sprintf("%q", n.name) }

// DateNode is a date constant.
type DateNode struct {
	base
	t time.Time
}

// DateConst returns a date constant.
func DateConst(t time.Time) *DateNode { return &DateNode{t: t} }

func (n *DateNode) Type() Type { return TypeDate }

func (n *DateNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *DateNode) Eval(Feature) (any, error) { return n.t, nil }

// ShaderSource inlines epoch milliseconds. Date properties are compared
// through uniforms in their own internal space instead.
func (n *DateNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	return shader.Source{Inline: shader.Float(float64(n.t.UnixMilli()))}, nil
}

func (n *DateNode) String() string { return n.t.UTC().Format(time.RFC3339) }

// TimeRangeNode is a time range constant. It has no shader form.
type TimeRangeNode struct {
	base
	r codec.TimeRange
}

// TimeRangeConst returns a time range constant.
func TimeRangeConst(r codec.TimeRange) *TimeRangeNode { return &TimeRangeNode{r: r} }

func (n *TimeRangeNode) Type() Type { return TypeTimeRange }

func (n *TimeRangeNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *TimeRangeNode) Eval(Feature) (any, error) { return n.r, nil }

func (n *TimeRangeNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	return shader.Source{}, fmt.Errorf("%w: time range literal", ErrNoShader)
}

func (n *TimeRangeNode) String() string {
	return fmt.Sprintf("timeRange(%s, %s)", n.r.Start.UTC().Format(time.RFC3339), n.r.End.UTC().Format(time.RFC3339))
}

// ImageListNode is a constant list of symbol images, usable as a ramp
// palette.
type ImageListNode struct {
	base
	images palette.ImageList
}

// Images returns an image list constant.
func Images(images ...palette.Image) *ImageListNode {
	return &ImageListNode{images: append(palette.ImageList(nil), images...)}
}

func (n *ImageListNode) Type() Type { return TypeImageList }

func (n *ImageListNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *ImageListNode) Eval(Feature) (any, error) { return n.images, nil }

func (n *ImageListNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	return shader.Source{}, fmt.Errorf("%w: image list", ErrNoShader)
}

func (n *ImageListNode) String() string {
	return "imageList(" + strings.Join(n.images.URLs(), ", ") + ")"
}

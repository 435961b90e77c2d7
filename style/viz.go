// Package style holds the styling expressions of a layer and assembles
// them into the per-feature style program.
package style

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gogpu/viz"
	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

//go:embed shaders/style.wgsl
var styleEntryWGSL string

// Property names a styling expression.
type Property string

const (
	Color           Property = "color"
	Width           Property = "width"
	StrokeColor     Property = "strokeColor"
	StrokeWidth     Property = "strokeWidth"
	Filter          Property = "filter"
	Symbol          Property = "symbol"
	SymbolPlacement Property = "symbolPlacement"
)

// Properties lists every styling property in declaration order.
var Properties = []Property{Color, Width, StrokeColor, StrokeWidth, Filter, Symbol, SymbolPlacement}

var accepted = map[Property][]expr.Type{
	Color:           {expr.TypeColor},
	Width:           {expr.TypeNumber},
	StrokeColor:     {expr.TypeColor},
	StrokeWidth:     {expr.TypeNumber},
	Filter:          {expr.TypeNumber},
	Symbol:          {expr.TypeImage, expr.TypeImageList},
	SymbolPlacement: {expr.TypeNumberArray},
}

// shaderName is the WGSL function suffix of the properties evaluated by
// the style pass.
var shaderName = map[Property]string{
	Color:       "color",
	Width:       "width",
	StrokeColor: "stroke_color",
	StrokeWidth: "stroke_width",
	Filter:      "filter",
}

// programs is shared by every Viz; most layers assemble the same few
// modules.
var programs = shader.NewProgramCache(shader.DefaultCacheCapacity)

// ErrUnknownProperty is returned for property names outside Properties.
var ErrUnknownProperty = errors.New("style: unknown property")

// Viz is the set of styling expressions of one layer. Each property is an
// expression tree, so any of them can be blended to a new value while the
// others keep drawing.
//
// Viz is not safe for concurrent use; it belongs to the draw loop.
type Viz struct {
	trees         map[Property]*expr.Tree
	defaultSymbol expr.Node
	md            *metadata.Metadata

	prog     gpu.ProgramID
	bindings []shader.PropertyBinding
	retired  []*expr.Tree
}

// New creates a Viz. Properties not set by an option keep their default.
func New(opts ...Option) (*Viz, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	v := &Viz{
		trees:         make(map[Property]*expr.Tree, len(Properties)),
		defaultSymbol: expr.Images(),
	}
	for p, val := range o.values {
		if !slices.Contains(Properties, p) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, p)
		}
		n, err := expr.Coerce(val)
		if err != nil {
			return nil, fmt.Errorf("style: %s: %w", p, err)
		}
		v.trees[p] = expr.NewTree(n)
	}
	if _, ok := v.trees[Symbol]; !ok {
		v.trees[Symbol] = expr.NewTree(v.defaultSymbol)
	}
	return v, nil
}

// Tree returns the expression tree of p.
func (v *Viz) Tree(p Property) (*expr.Tree, error) {
	t, ok := v.trees[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, p)
	}
	return t, nil
}

// Expr returns the current expression of p.
func (v *Viz) Expr(p Property) (expr.Node, error) {
	t, err := v.Tree(p)
	if err != nil {
		return nil, err
	}
	return t.Root(), nil
}

// Bind binds every expression to md and checks its type.
func (v *Viz) Bind(md *metadata.Metadata) error {
	for _, p := range Properties {
		t := v.trees[p]
		if err := t.Bind(md); err != nil {
			return fmt.Errorf("style: %s: %w", p, err)
		}
		if err := checkProperty(p, t.Root()); err != nil {
			return err
		}
	}
	v.md = md
	viz.Logger().Debug("style: bound", "viz", v.String())
	return nil
}

func checkProperty(p Property, n expr.Node) error {
	want := accepted[p]
	if slices.Contains(want, n.Type()) {
		return nil
	}
	return &expr.TypeError{
		Op:       "viz",
		ArgName:  string(p),
		ArgIndex: slices.Index(Properties, p),
		Expected: want,
		Actual:   n.Type(),
	}
}

// SymbolIsDefault reports whether points use the default symbol.
func (v *Viz) SymbolIsDefault() bool {
	return v.trees[Symbol].Root() == v.defaultSymbol
}

// SymbolPlacement returns the symbol offset in symbol radii.
func (v *Viz) SymbolPlacement() (x, y float64, err error) {
	out, err := v.trees[SymbolPlacement].Eval(nil)
	if err != nil {
		return 0, 0, fmt.Errorf("style: symbolPlacement: %w", err)
	}
	xy, _ := out.([]any)
	if len(xy) != 2 {
		return 0, 0, &expr.ArgumentError{Op: "viz", ArgIndex: slices.Index(Properties, SymbolPlacement),
			Reason: fmt.Sprintf("symbolPlacement needs 2 components, got %d", len(xy))}
	}
	x, _ = xy[0].(float64)
	y, _ = xy[1].(float64)
	return x, y, nil
}

// EvalNumber evaluates the numeric property p for feature f.
func (v *Viz) EvalNumber(p Property, f expr.Feature) (float64, error) {
	t, err := v.Tree(p)
	if err != nil {
		return 0, err
	}
	out, err := t.Eval(f)
	if err != nil {
		return 0, fmt.Errorf("style: %s: %w", p, err)
	}
	x, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("style: %s: %w: evaluated to %T", p, expr.ErrType, out)
	}
	return x, nil
}

// Legend returns the legend of property p when its expression has one.
func (v *Viz) Legend(p Property, cfg expr.LegendConfig) (expr.Legend, error) {
	n, err := v.Expr(p)
	if err != nil {
		return expr.Legend{}, err
	}
	l, ok := n.(expr.Legender)
	if !ok {
		return expr.Legend{}, fmt.Errorf("style: %s: %s has no legend", p, n)
	}
	return l.LegendData(cfg)
}

// Program assembles the WGSL module of the style pass, allocating binding
// IDs from a.
func (v *Viz) Program(a *shader.Allocator) (string, error) {
	b := shader.NewBuilder()
	for _, p := range Properties {
		root := v.trees[p].Root()
		name, ok := shaderName[p]
		if !ok {
			// Image ramps expose the symbol index to the point pass.
			if p != Symbol || root.Type() != expr.TypeImage {
				continue
			}
			name = "symbol"
		}
		src, err := root.ShaderSource(a)
		if err != nil {
			return "", fmt.Errorf("style: %s: %w", p, err)
		}
		b.Function(name, expr.ShaderType(root.Type()), src)
	}
	v.bindings = a.Properties()
	module := b.Build(styleEntryWGSL)
	viz.Logger().Debug("style: program assembled",
		"uniforms", a.NumUniforms(), "textures", a.NumTextures(), "properties", len(v.bindings))
	return module, nil
}

// Bindings returns the property textures read by the last assembled
// program.
func (v *Viz) Bindings() []shader.PropertyBinding { return slices.Clone(v.bindings) }

// Compile assembles, compiles and links the style program on the session
// device, replacing the previous program.
func (v *Viz) Compile(s *gpu.Session) (gpu.ProgramID, error) {
	module, err := v.Program(shader.NewAllocator())
	if err != nil {
		return gpu.InvalidID, err
	}
	words, err := programs.Compile(module)
	if err != nil {
		return gpu.InvalidID, fmt.Errorf("style: %w", err)
	}
	p, err := s.Device().CreateProgram("viz-style", words)
	if err != nil {
		return gpu.InvalidID, fmt.Errorf("style: %w", err)
	}
	if v.prog != gpu.InvalidID {
		s.Device().DestroyProgram(v.prog)
	}
	if err := v.PostShaderCompile(s, p); err != nil {
		return gpu.InvalidID, err
	}
	return p, nil
}

// ProgramID returns the linked program, or gpu.InvalidID.
func (v *Viz) ProgramID() gpu.ProgramID { return v.prog }

// PostShaderCompile resolves the uniforms and textures of every expression
// in the linked program p.
func (v *Viz) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	v.prog = p
	for _, prop := range Properties {
		if err := v.trees[prop].PostShaderCompile(s, p); err != nil {
			return fmt.Errorf("style: %s: %w", prop, err)
		}
	}
	return nil
}

// NeedsRecompile reports whether an expression changed shape since the
// last compilation.
func (v *Viz) NeedsRecompile() bool {
	if v.prog == gpu.InvalidID {
		return true
	}
	for _, t := range v.trees {
		if t.NeedsRecompile() {
			return true
		}
	}
	return false
}

// PreDraw collapses finished blends and uploads uniforms and lookup
// textures for the next frame.
func (v *Viz) PreDraw(s *gpu.Session) error {
	for _, t := range v.retired {
		t.Free(s)
	}
	v.retired = v.retired[:0]
	for _, p := range Properties {
		if err := v.trees[p].PreDraw(s); err != nil {
			return fmt.Errorf("style: %s: %w", p, err)
		}
	}
	return nil
}

// IsAnimated reports whether any expression changes between frames.
func (v *Viz) IsAnimated() bool {
	for _, t := range v.trees {
		if t.IsAnimated() {
			return true
		}
	}
	return false
}

// BlendTo animates property p to value over d. Numbers and colors are
// blended; other values replace the expression at once.
func (v *Viz) BlendTo(p Property, value any, d time.Duration) error {
	t, err := v.Tree(p)
	if err != nil {
		return err
	}
	n, err := expr.Coerce(value)
	if err != nil {
		return fmt.Errorf("style: %s: %w", p, err)
	}
	if typ := t.Root().Type(); typ == expr.TypeNumber || typ == expr.TypeColor {
		if err := t.BlendTo(t.RootHandle(), n, d); err != nil {
			return fmt.Errorf("style: %s: %w", p, err)
		}
		return nil
	}

	next := expr.NewTree(n)
	if v.md != nil {
		if err := next.Bind(v.md); err != nil {
			return fmt.Errorf("style: %s: %w", p, err)
		}
		if err := checkProperty(p, next.Root()); err != nil {
			return err
		}
	}
	v.retired = append(v.retired, t)
	v.trees[p] = next
	viz.Logger().Debug("style: replaced", "property", string(p), "expr", n.String())
	return nil
}

// Free releases the program and the lookup textures of every expression.
func (v *Viz) Free(s *gpu.Session) {
	for _, t := range v.retired {
		t.Free(s)
	}
	v.retired = nil
	for _, t := range v.trees {
		t.Free(s)
	}
	if v.prog != gpu.InvalidID {
		s.Device().DestroyProgram(v.prog)
		v.prog = gpu.InvalidID
	}
}

func (v *Viz) String() string {
	var sb strings.Builder
	sb.WriteString("viz{")
	for i, p := range Properties {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", p, v.trees[p].Root())
	}
	sb.WriteString("}")
	return sb.String()
}

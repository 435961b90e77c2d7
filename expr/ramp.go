package expr

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/viz"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/shader"
)

// rampVariant is the ramp behavior selected once at bind.
type rampVariant uint8

const (
	rampUnbound rampVariant = iota
	rampInterpolated
	rampImage
)

// lutSize is the number of texels of numeric lookup textures.
const lutSize = 256

// RampNode maps a categorical or numeric input through a palette of colors,
// numbers or images.
//
// Categorical inputs get one palette entry per category; palettes shorter
// than the category list are stretched by interpolation in CIE L*a*b*.
// Numeric inputs are read as unit values along the palette.
type RampNode struct {
	base
	others        string
	paletteOthers *palette.Color

	variant     rampVariant
	typ         Type
	categorical bool
	colors      []palette.Color
	numbers     []float64
	images      palette.ImageList

	categories  []string
	values      []any
	othersValue any

	texID    int
	tex      gpu.TextureID
	texSize  int
	prog     gpu.ProgramID
	compiled bool
}

// Ramp maps input through pal. pal may be a palette.Palette, whose others
// color then colors unknown categories, a palette.ImageList or any array
// literal. others optionally names the others bucket in legends.
func Ramp(input, pal any, others ...string) (*RampNode, error) {
	in, err := coerceArg("ramp", 0, input)
	if err != nil {
		return nil, err
	}
	if len(others) > 1 {
		return nil, &ArgumentError{Op: "ramp", ArgIndex: 3, Reason: "at most one others label"}
	}
	n := &RampNode{tex: gpu.InvalidID}
	if len(others) == 1 {
		n.others = others[0]
	}

	var p Node
	if named, ok := pal.(palette.Palette); ok {
		if p, err = NewArray(toAny(named.Colors)...); err != nil {
			return nil, err
		}
		if named.HasOthers {
			c := named.Others
			n.paletteOthers = &c
		}
	} else if p, err = coerceArg("ramp", 1, pal); err != nil {
		return nil, err
	}
	n.children = []Node{in, p}
	return n, nil
}

func (n *RampNode) input() Node { return n.children[0] }

func (n *RampNode) Type() Type { return n.typ }

// IsImage reports whether the bound ramp selects images.
func (n *RampNode) IsImage() bool { return n.variant == rampImage }

// Categories returns the categories the ramp assigns values to.
func (n *RampNode) Categories() []string { return slices.Clone(n.categories) }

func (n *RampNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	in := n.input()
	if err := checkType("ramp", "input", 0, in, TypeNumber, TypeCategory); err != nil {
		return err
	}
	pal := n.children[1]
	if err := checkType("ramp", "palette", 1, pal, TypeColorArray, TypeNumberArray, TypeImageList); err != nil {
		return err
	}

	// Numeric properties are normalized over the dataset range.
	if p, ok := in.(*PropNode); ok && p.Type() == TypeNumber {
		lin, err := Linear(p)
		if err != nil {
			return err
		}
		if err := lin.Bind(md); err != nil {
			return err
		}
		n.children[0] = lin
	}

	v, err := pal.Eval(nil)
	if err != nil {
		return &ConstantRequiredError{Op: "ramp", ArgIndex: 1, Err: err}
	}
	switch pal.Type() {
	case TypeImageList:
		n.variant, n.typ = rampImage, TypeImage
		n.images = v.(palette.ImageList)
		n.othersValue = palette.Image{}
	case TypeColorArray:
		n.variant, n.typ = rampInterpolated, TypeColor
		if n.colors, err = pal.(*ArrayNode).colors(); err != nil {
			return err
		}
		n.othersValue = palette.Gray
		if n.paletteOthers != nil {
			n.othersValue = *n.paletteOthers
		}
	default:
		n.variant, n.typ = rampInterpolated, TypeNumber
		if n.numbers, err = pal.(*ArrayNode).numbers(); err != nil {
			return err
		}
		n.othersValue = 0.0
	}

	n.md = md
	n.categorical = in.Type() == TypeCategory
	if n.categorical {
		n.refreshCategories()
	}
	viz.Logger().Debug("expr: ramp bound", "expr", n.String(), "image", n.IsImage(),
		"categorical", n.categorical, "categories", len(n.categories))
	return nil
}

func (n *RampNode) refreshCategories() {
	n.categories = nil
	if cl, ok := n.input().(categoryLister); ok {
		n.categories = cl.categoryNames()
	}
	k := len(n.categories)
	n.values = make([]any, k)
	switch n.typ {
	case TypeColor:
		for i, c := range palette.Expand(n.colors, k) {
			n.values[i] = c
		}
	case TypeNumber:
		nums := palette.ExpandNumbers(n.numbers, k)
		if k <= len(n.numbers) {
			nums = n.numbers[:k]
		}
		for i, f := range nums {
			n.values[i] = f
		}
	case TypeImage:
		for i := range n.values {
			n.values[i] = n.othersValue
			if i < len(n.images) {
				n.values[i] = n.images[i]
			}
		}
	}
}

func (n *RampNode) categoryValue(name string) any {
	if i := slices.Index(n.categories, name); i >= 0 {
		return n.values[i]
	}
	return n.othersValue
}

func (n *RampNode) valueAt(t float64) any {
	switch n.typ {
	case TypeColor:
		return palette.Interpolate(n.colors, t)
	case TypeNumber:
		return palette.InterpolateNumbers(n.numbers, t)
	}
	if len(n.images) == 0 {
		return n.othersValue
	}
	if math.IsNaN(t) {
		t = 0
	}
	i := int(math.Round(math.Max(0, math.Min(1, t)) * float64(len(n.images)-1)))
	return n.images[i]
}

func (n *RampNode) Eval(f Feature) (any, error) {
	if n.md == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	v, err := n.input().Eval(f)
	if err != nil {
		return nil, err
	}
	if n.categorical {
		name, _ := v.(string)
		return n.categoryValue(name), nil
	}
	t, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: ramp input evaluated to %T", ErrType, v)
	}
	return n.valueAt(t), nil
}

// ShaderSource reads the lookup texture: by category ID for categorical
// input, by unit position for numeric input.
func (n *RampNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	if n.md == nil {
		return shader.Source{}, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	in, err := n.input().ShaderSource(a)
	if err != nil {
		return shader.Source{}, err
	}
	n.texID = a.TextureID()
	n.compiled = false
	index := in.Inline
	if !n.categorical {
		index = fmt.Sprintf("round(clamp(%s, 0.0, 1.0) * %s)", in.Inline, shader.Float(lutSize-1))
	}
	read := shader.TextureRead(n.texID, index)
	if n.typ != TypeColor {
		read += ".r"
	}
	return shader.Source{Preface: in.Preface + shader.TextureDecl(n.texID), Inline: read}, nil
}

func (n *RampNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	if err := n.base.PostShaderCompile(s, p); err != nil {
		return err
	}
	n.prog, n.compiled = p, true
	if n.tex != gpu.InvalidID {
		s.Device().BindTexture(p, shader.Texture(n.texID), n.tex)
	}
	return nil
}

// PreDraw builds the lookup texture, rebuilding categorical ones when the
// category table grew.
func (n *RampNode) PreDraw(s *gpu.Session) error {
	if err := n.base.PreDraw(s); err != nil {
		return err
	}
	if n.md == nil {
		return fmt.Errorf("%w: %s", ErrNotBound, n)
	}

	var texels []any
	if n.categorical {
		size := max(1, n.md.NumCategories())
		if n.tex != gpu.InvalidID && size == n.texSize {
			return nil
		}
		n.refreshCategories()
		texels = make([]any, size)
		for id := range texels {
			texels[id] = n.othersValue
			if name, ok := n.md.CategoryName(id); ok {
				texels[id] = n.categoryValue(name)
			}
		}
	} else {
		if n.tex != gpu.InvalidID {
			return nil
		}
		texels = make([]any, lutSize)
		for i := range texels {
			texels[i] = n.valueAt(float64(i) / (lutSize - 1))
		}
	}

	n.Free(s)
	tex, err := n.upload(s, texels)
	if err != nil {
		return fmt.Errorf("ramp: %w", err)
	}
	n.tex, n.texSize = tex, len(texels)
	if n.compiled {
		s.Device().BindTexture(n.prog, shader.Texture(n.texID), n.tex)
	}
	return nil
}

func (n *RampNode) upload(s *gpu.Session, texels []any) (gpu.TextureID, error) {
	label := fmt.Sprintf("ramp-lut-%d", n.texID)
	if n.typ == TypeColor {
		data := make([]byte, 0, 4*len(texels))
		for _, v := range texels {
			r, g, b, a := v.(palette.Color).RGBA8()
			data = append(data, r, g, b, a)
		}
		return s.UploadRGBATexture(label, len(texels), 1, data)
	}
	data := make([]float32, len(texels))
	for i, v := range texels {
		switch x := v.(type) {
		case float64:
			data[i] = float32(x)
		case palette.Image:
			data[i] = float32(slices.Index(n.images, x))
		}
	}
	return s.UploadFloatTexture(label, len(texels), 1, data)
}

// Free releases the lookup texture.
func (n *RampNode) Free(s *gpu.Session) {
	if n.tex == gpu.InvalidID {
		return
	}
	s.Device().DestroyTexture(n.tex)
	n.tex, n.texSize = gpu.InvalidID, 0
}

// LegendData lists category values followed by the others entry, or
// samples numeric input across its range.
func (n *RampNode) LegendData(cfg LegendConfig) (Legend, error) {
	if n.md == nil {
		return Legend{}, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	cfg = cfg.normalize()
	if n.categorical {
		leg := Legend{Type: LegendCategory, Name: n.String()}
		for i, c := range n.categories {
			leg.Data = append(leg.Data, LegendEntry{Key: c, Value: n.values[i]})
		}
		leg.Data = append(leg.Data, LegendEntry{Key: n.othersLabel(cfg), Value: n.othersValue})
		return leg, nil
	}

	leg := Legend{Type: LegendNumber, Name: n.String(), Min: 0.0, Max: 1.0}
	lin, isLinear := n.input().(*LinearNode)
	if isLinear {
		lo, hi, err := lin.Limits()
		if err != nil {
			return Legend{}, err
		}
		leg.Min, leg.Max = lo, hi
	}
	for _, t := range cfg.steps() {
		var key any = t
		if isLinear {
			k, err := lin.Converse(t)
			if err != nil {
				return Legend{}, err
			}
			key = k
		}
		leg.Data = append(leg.Data, LegendEntry{Key: key, Value: n.valueAt(t)})
	}
	return leg, nil
}

func (n *RampNode) othersLabel(cfg LegendConfig) string {
	switch {
	case n.others != "":
		return n.others
	case cfg.DefaultOthers != "":
		return cfg.DefaultOthers
	}
	return DefaultOthersLabel
}

func (n *RampNode) String() string {
	return fmt.Sprintf("ramp(%s, %s)", n.input(), n.children[1])
}

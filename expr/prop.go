package expr

import (
	"fmt"
	"time"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// Start and end columns of a time range property.
const (
	RangeStartSuffix = "_start"
	RangeEndSuffix   = "_end"
)

// PropNode reads a feature property. Its type comes from metadata.
type PropNode struct {
	base
	name  string
	typ   Type
	codec codec.Codec
}

// Prop returns an expression reading property name.
func Prop(name string) *PropNode { return &PropNode{name: name} }

// Name returns the property name.
func (n *PropNode) Name() string { return n.name }

// Codec returns the property codec. It is nil until bound.
func (n *PropNode) Codec() codec.Codec { return n.codec }

func (n *PropNode) Type() Type { return n.typ }

func (n *PropNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if md == nil {
		return fmt.Errorf("%w: $%s", ErrNotBound, n.name)
	}
	p, ok := md.Property(n.name)
	if !ok {
		return &ArgumentError{Op: "prop", Reason: fmt.Sprintf("%v: %q", metadata.ErrUnknownProperty, n.name)}
	}
	c, err := md.Codec(n.name)
	if err != nil {
		return err
	}
	n.typ = propertyType(p.Type)
	n.codec = c
	n.md = md
	return nil
}

func propertyType(t metadata.Type) Type {
	switch t {
	case metadata.Category:
		return TypeCategory
	case metadata.Date:
		return TypeDate
	case metadata.TimeRange:
		return TypeTimeRange
	}
	return TypeNumber
}

// Eval returns float64 for numbers (DesignatedNull for missing values), the
// category name, a time.Time or a codec.TimeRange. Floats stored in f are
// taken as internal values.
func (n *PropNode) Eval(f Feature) (any, error) {
	if n.md == nil {
		return nil, fmt.Errorf("%w: $%s", ErrNotBound, n.name)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: $%s", ErrFeatureRequired, n.name)
	}
	switch n.typ {
	case TypeCategory:
		return n.evalCategory(f[n.name])
	case TypeDate:
		return n.evalDate(f[n.name])
	case TypeTimeRange:
		return n.evalTimeRange(f)
	}
	internal, err := n.codec.SourceToInternal(f[n.name])
	if err != nil {
		return nil, fmt.Errorf("$%s: %w", n.name, err)
	}
	return internal[0], nil
}

func (n *PropNode) evalCategory(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case nil:
		return "", nil
	}
	name, err := n.codec.InternalToExternal([]float64{mustFloat(v)})
	if err != nil {
		return nil, fmt.Errorf("$%s: %w", n.name, err)
	}
	return name, nil
}

func (n *PropNode) evalDate(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	f, ok := codec.ToFloat(v)
	if !ok {
		return nil, fmt.Errorf("$%s: %w: %T", n.name, codec.ErrUnsupportedValue, v)
	}
	return n.codec.InternalToExternal([]float64{f})
}

func (n *PropNode) evalTimeRange(f Feature) (any, error) {
	if r, ok := f[n.name].(codec.TimeRange); ok {
		return r, nil
	}
	start, ok1 := codec.ToFloat(f[n.name+RangeStartSuffix])
	end, ok2 := codec.ToFloat(f[n.name+RangeEndSuffix])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("$%s: %w: missing range columns", n.name, codec.ErrUnsupportedValue)
	}
	return n.codec.InternalToExternal([]float64{start, end})
}

func mustFloat(v any) float64 {
	f, ok := codec.ToFloat(v)
	if !ok {
		return codec.DesignatedNull
	}
	return f
}

// ShaderSource reads the property texture. Time ranges read their start.
func (n *PropNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	if n.md == nil {
		return shader.Source{}, fmt.Errorf("%w: $%s", ErrNotBound, n.name)
	}
	if n.typ == TypeTimeRange {
		return n.rangeSource(a, false), nil
	}
	return propertySource(a, n.name), nil
}

func propertySource(a *shader.Allocator, column string) shader.Source {
	id := a.PropertyID(column)
	return shader.Source{Preface: shader.PropertyDecl(id), Inline: shader.PropertyRead(id)}
}

func (n *PropNode) rangeSource(a *shader.Allocator, end bool) shader.Source {
	if end {
		return propertySource(a, n.name+RangeEndSuffix)
	}
	return propertySource(a, n.name+RangeStartSuffix)
}

// categoryNames lists the property categories in stats order.
func (n *PropNode) categoryNames() []string {
	st, err := n.md.Stats(n.name)
	if err != nil {
		return nil
	}
	names := make([]string, len(st.Categories))
	for i, c := range st.Categories {
		names[i] = c.Name
	}
	return names
}

func (n *PropNode) String() string { return "$" + n.name }

// rangeSourcer is implemented by time range inputs that can read either
// interval edge in a shader.
type rangeSourcer interface {
	rangeSource(a *shader.Allocator, end bool) shader.Source
}

// categoryLister is implemented by categorical inputs whose categories are
// known at bind time.
type categoryLister interface {
	categoryNames() []string
}

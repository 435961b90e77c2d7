package expr

import (
	"fmt"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// AggregationNode is the dataset-wide minimum or maximum of a property,
// read from metadata stats. It does not depend on the feature.
type AggregationNode struct {
	base
	max   bool
	value float64
	typ   Type
	prop  *PropNode
}

// GlobalMin returns the dataset minimum of the property input.
func GlobalMin(input any) (*AggregationNode, error) { return newAggregation("globalMin", input, false) }

// GlobalMax returns the dataset maximum of the property input.
func GlobalMax(input any) (*AggregationNode, error) { return newAggregation("globalMax", input, true) }

func newAggregation(op string, input any, max bool) (*AggregationNode, error) {
	n, err := coerceArg(op, 0, input)
	if err != nil {
		return nil, err
	}
	p, ok := n.(*PropNode)
	if !ok {
		return nil, &ArgumentError{Op: op, Reason: "global aggregations need a property"}
	}
	return &AggregationNode{base: base{children: []Node{p}}, max: max, prop: p}, nil
}

func (n *AggregationNode) op() string {
	if n.max {
		return "globalMax"
	}
	return "globalMin"
}

func (n *AggregationNode) Type() Type { return n.typ }

func (n *AggregationNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	if err := checkType(n.op(), "input", 0, n.prop, TypeNumber, TypeDate, TypeTimeRange); err != nil {
		return err
	}
	st, err := md.Stats(n.prop.Name())
	if err != nil {
		return err
	}
	n.value = st.Min
	if n.max {
		n.value = st.Max
	}
	n.typ = n.prop.Type()
	n.md = md
	return nil
}

// Eval returns the stat as an external value of the property type.
func (n *AggregationNode) Eval(Feature) (any, error) {
	if n.md == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	switch n.typ {
	case TypeDate:
		return codec.MillisToTime(n.value), nil
	case TypeTimeRange:
		t := codec.MillisToTime(n.value)
		return codec.TimeRange{Start: t, End: t}, nil
	}
	return n.value, nil
}

// ShaderSource inlines the stat in the internal space of the property.
func (n *AggregationNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	if n.md == nil {
		return shader.Source{}, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	ext, _ := n.Eval(nil)
	internal, err := n.prop.Codec().ExternalToInternal(ext)
	if err != nil {
		return shader.Source{}, fmt.Errorf("%s: %w", n.op(), err)
	}
	return shader.Source{Inline: shader.Float(internal[0])}, nil
}

// aggCodec returns the codec of the aggregated property.
func (n *AggregationNode) aggCodec() codec.Codec { return n.prop.Codec() }

func (n *AggregationNode) String() string {
	return fmt.Sprintf("%s(%s)", n.op(), n.prop)
}

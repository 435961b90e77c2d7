package expr

import (
	"fmt"

	"github.com/gogpu/viz"
	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// RangeMode selects which edges of time range values linear compares.
type RangeMode uint8

const (
	// RangeUnit compares starts with starts.
	RangeUnit RangeMode = iota
	// RangeStart compares the input start against [min start, max end].
	RangeStart
	// RangeEnd compares the input end against [min start, max end].
	RangeEnd
)

func (m RangeMode) String() string {
	switch m {
	case RangeStart:
		return "start"
	case RangeEnd:
		return "end"
	}
	return "unit"
}

// ParseRangeMode parses "unit", "start" or "end".
func ParseRangeMode(s string) (RangeMode, bool) {
	switch s {
	case "unit":
		return RangeUnit, true
	case "start":
		return RangeStart, true
	case "end":
		return RangeEnd, true
	}
	return RangeUnit, false
}

// LinearNode normalizes its input into [0, 1] between min and max.
//
// A degenerate range (max == min) is not special-cased: results are IEEE
// infinities or NaN.
type LinearNode struct {
	base
	mode    RangeMode
	codec   codec.Codec
	minSlot uniformSlot
	maxSlot uniformSlot
	useMin  bool
	useMax  bool
}

// Linear builds linear(input), linear(input, range), linear(input, min, max)
// or linear(input, min, max, range). A single extra argument that is not an
// expression selects the range mode. Without bounds the dataset minimum and
// maximum of input are used.
func Linear(input any, args ...any) (*LinearNode, error) {
	in, err := coerceArg("linear", 0, input)
	if err != nil {
		return nil, err
	}
	mode := RangeUnit
	switch len(args) {
	case 1:
		if _, isNode := args[0].(Node); isNode {
			return nil, &ArgumentError{Op: "linear", ArgIndex: 1, Reason: "max is required when min is given"}
		}
		if mode, err = rangeArg(args[0], 1); err != nil {
			return nil, err
		}
		args = args[:0]
	case 3:
		if mode, err = rangeArg(args[2], 3); err != nil {
			return nil, err
		}
		args = args[:2]
	case 0, 2:
	default:
		return nil, &ArgumentError{Op: "linear", ArgIndex: len(args), Reason: fmt.Sprintf("too many arguments (%d)", len(args)+1)}
	}

	var lo, hi Node
	if len(args) == 0 {
		p, ok := in.(*PropNode)
		if !ok {
			return nil, &ArgumentError{Op: "linear", ArgIndex: 0, Reason: "implicit bounds need a property input"}
		}
		if lo, err = GlobalMin(Prop(p.Name())); err != nil {
			return nil, err
		}
		if hi, err = GlobalMax(Prop(p.Name())); err != nil {
			return nil, err
		}
	} else {
		if lo, err = coerceArg("linear", 1, args[0]); err != nil {
			return nil, err
		}
		if hi, err = coerceArg("linear", 2, args[1]); err != nil {
			return nil, err
		}
	}
	return &LinearNode{base: base{children: []Node{in, lo, hi}}, mode: mode}, nil
}

func rangeArg(v any, idx int) (RangeMode, error) {
	switch m := v.(type) {
	case RangeMode:
		return m, nil
	case string:
		if mode, ok := ParseRangeMode(m); ok {
			return mode, nil
		}
	}
	return RangeUnit, &ArgumentError{Op: "linear", ArgIndex: idx, Reason: fmt.Sprintf("invalid range %v, want unit, start or end", v)}
}

func (n *LinearNode) input() Node { return n.children[0] }
func (n *LinearNode) min() Node   { return n.children[1] }
func (n *LinearNode) max() Node   { return n.children[2] }

// Mode returns the time range edge selection.
func (n *LinearNode) Mode() RangeMode { return n.mode }

func (n *LinearNode) Type() Type { return TypeNumber }

func (n *LinearNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	in := n.input()
	if err := checkType("linear", "input", 0, in, TypeNumber, TypeDate, TypeTimeRange); err != nil {
		return err
	}
	bounds := []Type{in.Type()}
	if in.Type() == TypeTimeRange {
		bounds = []Type{TypeDate, TypeTimeRange}
	}
	if err := checkType("linear", "min", 1, n.min(), bounds...); err != nil {
		return err
	}
	if err := checkType("linear", "max", 2, n.max(), bounds...); err != nil {
		return err
	}
	for i, b := range []Node{n.min(), n.max()} {
		if _, err := b.Eval(nil); err != nil {
			return &ConstantRequiredError{Op: "linear", ArgIndex: i + 1, Err: err}
		}
	}

	switch p, ok := in.(*PropNode); {
	case ok:
		n.codec = p.Codec()
	case in.Type() == TypeDate:
		n.codec = codec.NewDate(0)
	case in.Type() == TypeTimeRange:
		n.codec = codec.NewTimeRange(0)
	default:
		n.codec = codec.Identity{}
	}
	n.md = md

	if lo, hi, err := n.bounds(); err == nil && lo == hi {
		viz.Logger().Warn("expr: linear range is degenerate", "expr", n.String(), "value", lo)
	}
	return nil
}

// internal converts an external value to the input's internal space and
// selects one edge: 0 for start, 1 for end.
func (n *LinearNode) internal(v any, edge int) (float64, error) {
	internal, err := n.codec.ExternalToInternal(v)
	if err != nil {
		return 0, fmt.Errorf("linear: %w", err)
	}
	if edge >= len(internal) {
		edge = len(internal) - 1
	}
	return internal[edge], nil
}

// edges returns the edge used for input, min and max.
func (n *LinearNode) edges() (input, lo, hi int) {
	if n.input().Type() != TypeTimeRange {
		return 0, 0, 0
	}
	switch n.mode {
	case RangeStart:
		return 0, 0, 1
	case RangeEnd:
		return 1, 0, 1
	}
	return 0, 0, 0
}

// bounds evaluates min and max in the input's internal space.
func (n *LinearNode) bounds() (lo, hi float64, err error) {
	if n.md == nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	_, le, he := n.edges()
	vlo, err := n.min().Eval(nil)
	if err != nil {
		return 0, 0, err
	}
	vhi, err := n.max().Eval(nil)
	if err != nil {
		return 0, 0, err
	}
	if lo, err = n.internal(vlo, le); err != nil {
		return 0, 0, err
	}
	if hi, err = n.internal(vhi, he); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// Eval returns (input - min) / (max - min) in the input's internal space.
func (n *LinearNode) Eval(f Feature) (any, error) {
	lo, hi, err := n.bounds()
	if err != nil {
		return nil, err
	}
	v, err := n.input().Eval(f)
	if err != nil {
		return nil, err
	}
	ie, _, _ := n.edges()
	x, err := n.internal(v, ie)
	if err != nil {
		return nil, err
	}
	return (x - lo) / (hi - lo), nil
}

// Converse maps a unit value back to the input domain: a time.Time for
// date and time range inputs, a number otherwise.
func (n *LinearNode) Converse(u float64) (any, error) {
	lo, hi, err := n.bounds()
	if err != nil {
		return nil, err
	}
	x := lo + u*(hi-lo)
	switch n.input().Type() {
	case TypeDate:
		return n.codec.InternalToExternal([]float64{x})
	case TypeTimeRange:
		ext, err := n.codec.InternalToExternal([]float64{x, x})
		if err != nil {
			return nil, err
		}
		return ext.(codec.TimeRange).Start, nil
	}
	return x, nil
}

// Limits returns the external values of min and max.
func (n *LinearNode) Limits() (lo, hi any, err error) {
	if lo, err = n.min().Eval(nil); err != nil {
		return nil, nil, err
	}
	if hi, err = n.max().Eval(nil); err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func (n *LinearNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	if n.md == nil {
		return shader.Source{}, fmt.Errorf("%w: %s", ErrNotBound, n)
	}
	x, err := n.inputSource(a)
	if err != nil {
		return shader.Source{}, err
	}
	lo, useLo, err := n.boundSource(a, n.min(), &n.minSlot)
	if err != nil {
		return shader.Source{}, err
	}
	hi, useHi, err := n.boundSource(a, n.max(), &n.maxSlot)
	if err != nil {
		return shader.Source{}, err
	}
	n.useMin, n.useMax = useLo, useHi
	return shader.Source{
		Preface: shader.Join(x, lo, hi),
		Inline:  fmt.Sprintf("((%s - %s) / (%s - %s))", x.Inline, lo.Inline, hi.Inline, lo.Inline),
	}, nil
}

func (n *LinearNode) inputSource(a *shader.Allocator) (shader.Source, error) {
	in := n.input()
	if in.Type() != TypeTimeRange {
		return in.ShaderSource(a)
	}
	rs, ok := in.(rangeSourcer)
	if !ok {
		return shader.Source{}, fmt.Errorf("%w: time range input %s", ErrNoShader, in)
	}
	ie, _, _ := n.edges()
	return rs.rangeSource(a, ie == 1), nil
}

// boundSource inlines dataset aggregations and uploads any other bound as
// a uniform. It reports whether the uniform is used.
func (n *LinearNode) boundSource(a *shader.Allocator, b Node, slot *uniformSlot) (shader.Source, bool, error) {
	if agg, ok := b.(*AggregationNode); ok && agg.Type() != TypeTimeRange {
		src, err := agg.ShaderSource(a)
		if err != nil {
			return shader.Source{}, false, err
		}
		aggDate, ok1 := agg.aggCodec().(*codec.Date)
		inDate, ok2 := n.codec.(*codec.Date)
		switch {
		case ok1 && ok2:
			src.Inline = aggDate.InlineInternalMatch(src.Inline, inDate)
			return src, false, nil
		case agg.Type() == TypeNumber:
			return src, false, nil
		}
	}
	return slot.declare(a, shader.F32), true, nil
}

func (n *LinearNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	if err := n.base.PostShaderCompile(s, p); err != nil {
		return err
	}
	if n.useMin {
		n.minSlot.resolve(s, p)
	}
	if n.useMax {
		n.maxSlot.resolve(s, p)
	}
	return nil
}

// PreDraw re-evaluates the bounds so animated bounds match Eval.
func (n *LinearNode) PreDraw(s *gpu.Session) error {
	if err := n.base.PreDraw(s); err != nil {
		return err
	}
	if !n.useMin && !n.useMax {
		return nil
	}
	lo, hi, err := n.bounds()
	if err != nil {
		return err
	}
	if n.useMin {
		n.minSlot.write(s, float32(lo))
	}
	if n.useMax {
		n.maxSlot.write(s, float32(hi))
	}
	return nil
}

// LegendData samples the unit output with keys in the input domain.
func (n *LinearNode) LegendData(cfg LegendConfig) (Legend, error) {
	cfg = cfg.normalize()
	lo, hi, err := n.Limits()
	if err != nil {
		return Legend{}, err
	}
	leg := Legend{Type: LegendNumber, Name: n.String(), Min: lo, Max: hi}
	for _, t := range cfg.steps() {
		key, err := n.Converse(t)
		if err != nil {
			return Legend{}, err
		}
		leg.Data = append(leg.Data, LegendEntry{Key: key, Value: t})
	}
	return leg, nil
}

func (n *LinearNode) String() string {
	s := fmt.Sprintf("linear(%s, %s, %s", n.input(), n.min(), n.max())
	if n.mode != RangeUnit {
		s += ", " + n.mode.String()
	}
	return s + ")"
}

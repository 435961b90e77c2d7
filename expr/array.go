package expr

import (
	"fmt"
	"strings"

	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/shader"
)

// ArrayNode is a constant, homogeneous list of expressions. Element order
// is kept; ramps use it as palette order.
type ArrayNode struct {
	base
	typ Type
}

// NewArray builds an array from constant elements of one type among
// number, category, color and date.
func NewArray(elems ...any) (*ArrayNode, error) {
	if len(elems) == 0 {
		return nil, &ArgumentError{Op: "array", Reason: "empty array"}
	}
	children := make([]Node, len(elems))
	for i, e := range elems {
		n, err := coerceArg("array", i, e)
		if err != nil {
			return nil, err
		}
		if _, err := n.Eval(nil); err != nil {
			return nil, &ConstantRequiredError{Op: "array", ArgIndex: i, Err: err}
		}
		children[i] = n
	}
	elem := children[0].Type()
	typ, ok := ArrayOf(elem)
	if !ok {
		return nil, &TypeError{Op: "array", ArgName: "element", ArgIndex: 0,
			Expected: []Type{TypeNumber, TypeCategory, TypeColor, TypeDate}, Actual: elem}
	}
	for i, c := range children[1:] {
		if c.Type() != elem {
			return nil, &TypeError{Op: "array", ArgName: "element", ArgIndex: i + 1,
				Expected: []Type{elem}, Actual: c.Type()}
		}
	}
	return &ArrayNode{base: base{children: children}, typ: typ}, nil
}

func (n *ArrayNode) Type() Type { return n.typ }

func (n *ArrayNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	n.md = md
	return nil
}

// Eval returns the element values in order.
func (n *ArrayNode) Eval(f Feature) (any, error) {
	out := make([]any, len(n.children))
	for i, c := range n.children {
		v, err := c.Eval(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (n *ArrayNode) ShaderSource(*shader.Allocator) (shader.Source, error) {
	return shader.Source{}, fmt.Errorf("%w: %s", ErrNoShader, n.typ)
}

// Len returns the number of elements.
func (n *ArrayNode) Len() int { return len(n.children) }

func (n *ArrayNode) colors() ([]palette.Color, error) {
	vs, err := n.Eval(nil)
	if err != nil {
		return nil, err
	}
	out := make([]palette.Color, 0, n.Len())
	for _, v := range vs.([]any) {
		c, ok := v.(palette.Color)
		if !ok {
			return nil, fmt.Errorf("%w: array element %T is not a color", ErrType, v)
		}
		out = append(out, c)
	}
	return out, nil
}

func (n *ArrayNode) numbers() ([]float64, error) {
	vs, err := n.Eval(nil)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n.Len())
	for _, v := range vs.([]any) {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: array element %T is not a number", ErrType, v)
		}
		out = append(out, f)
	}
	return out, nil
}

func (n *ArrayNode) String() string {
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

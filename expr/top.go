package expr

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// TopNode keeps the n most frequent categories of a categorical property.
// Every other category evaluates to the empty name, the others bucket.
type TopNode struct {
	base
	n   int
	top []string
}

// Top returns the n most frequent categories of input.
func Top(input any, n int) (*TopNode, error) {
	in, err := coerceArg("top", 0, input)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, &ArgumentError{Op: "top", ArgIndex: 1, Reason: fmt.Sprintf("need at least one category, got %d", n)}
	}
	return &TopNode{base: base{children: []Node{in}}, n: n}, nil
}

func (t *TopNode) Type() Type { return TypeCategory }

func (t *TopNode) Bind(md *metadata.Metadata) error {
	if t.bound(md) {
		return nil
	}
	if err := t.bindChildren(md); err != nil {
		return err
	}
	p, ok := t.children[0].(*PropNode)
	if !ok || p.Type() != TypeCategory {
		return &TypeError{Op: "top", ArgName: "input", Expected: []Type{TypeCategory}, Actual: t.children[0].Type()}
	}
	st, err := md.Stats(p.Name())
	if err != nil {
		return err
	}
	cats := slices.Clone(st.Categories)
	slices.SortStableFunc(cats, func(a, b metadata.CategoryStat) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})
	t.top = t.top[:0]
	for _, c := range cats[:min(t.n, len(cats))] {
		t.top = append(t.top, c.Name)
	}
	t.md = md
	return nil
}

func (t *TopNode) Eval(f Feature) (any, error) {
	v, err := t.children[0].Eval(f)
	if err != nil {
		return nil, err
	}
	name, _ := v.(string)
	if slices.Contains(t.top, name) {
		return name, nil
	}
	return "", nil
}

// ShaderSource reads the category ID of the input. Lookup textures built
// from the top list send the rest to the others bucket.
func (t *TopNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return t.children[0].ShaderSource(a)
}

func (t *TopNode) categoryNames() []string {
	return slices.Clone(t.top)
}

func (t *TopNode) String() string { return fmt.Sprintf("top(%s, %d)", t.children[0], t.n) }

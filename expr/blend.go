package expr

import (
	"fmt"
	"time"

	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/shader"
)

// BlendNode mixes two numbers or colors. The mix factor is clamped to
// [0, 1].
type BlendNode struct {
	base
}

// Blend returns mix(a, b, m).
func Blend(a, b, m any) (*BlendNode, error) {
	children := make([]Node, 3)
	for i, v := range []any{a, b, m} {
		n, err := coerceArg("blend", i, v)
		if err != nil {
			return nil, err
		}
		children[i] = n
	}
	return &BlendNode{base: base{children: children}}, nil
}

// From returns the node blended away from.
func (n *BlendNode) From() Node { return n.children[0] }

// To returns the node blended to.
func (n *BlendNode) To() Node { return n.children[1] }

func (n *BlendNode) Type() Type { return n.children[0].Type() }

func (n *BlendNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	a, b := n.children[0], n.children[1]
	if err := checkType("blend", "a", 0, a, TypeNumber, TypeColor); err != nil {
		return err
	}
	if err := checkType("blend", "b", 1, b, a.Type()); err != nil {
		return err
	}
	if err := checkType("blend", "mix", 2, n.children[2], TypeNumber); err != nil {
		return err
	}
	n.md = md
	return nil
}

func (n *BlendNode) mix(f Feature) (float64, error) {
	m, err := evalFloat(n.children[2], f)
	if err != nil {
		return 0, err
	}
	return max(0, min(1, m)), nil
}

// Done reports whether the mix factor reached 1 regardless of the feature.
func (n *BlendNode) Done() bool {
	m, err := n.mix(nil)
	return err == nil && m >= 1
}

func (n *BlendNode) Eval(f Feature) (any, error) {
	m, err := n.mix(f)
	if err != nil {
		return nil, err
	}
	a, err := n.children[0].Eval(f)
	if err != nil {
		return nil, err
	}
	b, err := n.children[1].Eval(f)
	if err != nil {
		return nil, err
	}
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)
		return x + (y-x)*m, nil
	case palette.Color:
		y, _ := b.(palette.Color)
		return x.Lerp(y, m), nil
	}
	return nil, fmt.Errorf("%w: cannot blend %T", ErrType, a)
}

func (n *BlendNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	srcs := make([]shader.Source, 3)
	for i, c := range n.children {
		s, err := c.ShaderSource(a)
		if err != nil {
			return shader.Source{}, err
		}
		srcs[i] = s
	}
	return shader.Source{
		Preface: shader.Join(srcs...),
		Inline:  fmt.Sprintf("mix(%s, %s, clamp(%s, 0.0, 1.0))", srcs[0].Inline, srcs[1].Inline, srcs[2].Inline),
	}, nil
}

func (n *BlendNode) String() string {
	return fmt.Sprintf("blend(%s, %s, %s)", n.children[0], n.children[1], n.children[2])
}

// AnimationNode goes from 0 to 1 over a duration, starting at the first
// frame it is drawn in.
type AnimationNode struct {
	base
	duration time.Duration
	start    time.Time
	started  bool
	progress float64
	slot     uniformSlot
}

// Animation returns a progress value over d. A non-positive d completes
// immediately.
func Animation(d time.Duration) *AnimationNode {
	n := &AnimationNode{duration: d}
	if d <= 0 {
		n.progress = 1
	}
	return n
}

func (n *AnimationNode) Type() Type { return TypeNumber }

func (n *AnimationNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *AnimationNode) Eval(Feature) (any, error) { return n.progress, nil }

func (n *AnimationNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return n.slot.declare(a, shader.F32), nil
}

func (n *AnimationNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	n.slot.resolve(s, p)
	return nil
}

func (n *AnimationNode) PreDraw(s *gpu.Session) error {
	now := s.Now()
	if !n.started {
		n.start, n.started = now, true
	}
	if n.duration > 0 {
		n.progress = min(1, float64(now.Sub(n.start))/float64(n.duration))
	}
	n.slot.write(s, float32(n.progress))
	return nil
}

func (n *AnimationNode) IsAnimated() bool { return n.progress < 1 }

func (n *AnimationNode) String() string { return fmt.Sprintf("animation(%s)", n.duration) }

// NowNode is the session time in seconds.
type NowNode struct {
	base
	value float64
	slot  uniformSlot
}

// Now returns the session time expression.
func Now() *NowNode { return &NowNode{} }

func (n *NowNode) Type() Type { return TypeNumber }

func (n *NowNode) Bind(md *metadata.Metadata) error {
	n.md = md
	return nil
}

func (n *NowNode) Eval(Feature) (any, error) { return n.value, nil }

func (n *NowNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return n.slot.declare(a, shader.F32), nil
}

func (n *NowNode) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	n.slot.resolve(s, p)
	return nil
}

func (n *NowNode) PreDraw(s *gpu.Session) error {
	n.value = s.Elapsed()
	n.slot.write(s, float32(n.value))
	return nil
}

func (n *NowNode) IsAnimated() bool { return true }

func (n *NowNode) String() string { return "now()" }

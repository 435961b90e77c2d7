package expr

import (
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// Feature is the property snapshot of one feature. Values may be internal
// floats, external values (category names, time.Time, codec.TimeRange) or
// nil.
type Feature map[string]any

// Node is a typed styling expression.
//
// A node is constructed unbound, bound once per metadata instance, and only
// then evaluated on the CPU or emitted as shader source. Binding the same
// metadata again is a no-op; binding different metadata re-binds.
type Node interface {
	// Type returns the value type. Property-dependent nodes report
	// TypeUnknown until bound.
	Type() Type

	Children() []Node

	// ReplaceChild swaps the direct child old for n and reports whether old
	// was found.
	ReplaceChild(old, n Node) bool

	Bind(md *metadata.Metadata) error

	// Eval evaluates the node for one feature. Feature-independent nodes
	// accept a nil feature.
	Eval(f Feature) (any, error)

	// ShaderSource emits WGSL declarations and an inline expression,
	// allocating binding IDs from a.
	ShaderSource(a *shader.Allocator) (shader.Source, error)

	// PostShaderCompile resolves uniform locations in the linked program.
	PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error

	// PreDraw uploads uniforms and lookup textures before each frame.
	PreDraw(s *gpu.Session) error

	// IsAnimated reports whether the value still changes between frames.
	IsAnimated() bool

	String() string
}

// Freer is implemented by nodes owning GPU resources.
type Freer interface {
	Free(s *gpu.Session)
}

// base carries the children and binding state shared by every node.
type base struct {
	children []Node
	md       *metadata.Metadata
}

func (b *base) Children() []Node { return b.children }

func (b *base) ReplaceChild(old, n Node) bool {
	for i, c := range b.children {
		if c == old {
			b.children[i] = n
			return true
		}
	}
	return false
}

func (b *base) bound(md *metadata.Metadata) bool {
	return md != nil && b.md == md
}

func (b *base) bindChildren(md *metadata.Metadata) error {
	for _, c := range b.children {
		if err := c.Bind(md); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	for _, c := range b.children {
		if err := c.PostShaderCompile(s, p); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) PreDraw(s *gpu.Session) error {
	for _, c := range b.children {
		if err := c.PreDraw(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) IsAnimated() bool {
	for _, c := range b.children {
		if c.IsAnimated() {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first until fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// ShaderType returns the WGSL value type of an expression type.
func ShaderType(t Type) shader.ValueType {
	if t == TypeColor {
		return shader.Vec4
	}
	return shader.F32
}

// uniformSlot is one uniform owned by a node: allocated at shader emission,
// located after linking, written before each frame.
type uniformSlot struct {
	id       int
	declared bool
	prog     gpu.ProgramID
	loc      int
	ok       bool
}

func (u *uniformSlot) declare(a *shader.Allocator, t shader.ValueType) shader.Source {
	u.id = a.UniformID()
	u.declared, u.ok = true, false
	return shader.Source{Preface: shader.UniformDecl(u.id, t), Inline: shader.Uniform(u.id)}
}

// resolve is a no-op for slots the last program did not declare.
func (u *uniformSlot) resolve(s *gpu.Session, p gpu.ProgramID) {
	if !u.declared {
		return
	}
	u.prog = p
	u.loc, u.ok = s.Device().UniformLocation(p, shader.Uniform(u.id))
}

func (u *uniformSlot) write(s *gpu.Session, values ...float32) {
	if u.ok {
		s.Device().SetUniform(u.prog, u.loc, values...)
	}
}

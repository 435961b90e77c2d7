package expr

import (
	"fmt"
	"time"

	"github.com/gogpu/viz"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

// Handle addresses a node slot of a Tree.
type Handle int

// NoHandle is the parent of the root.
const NoHandle Handle = -1

type slot struct {
	node   Node
	parent Handle
}

// Tree is an arena of expression nodes addressed by handles. Replacing a
// subtree with a blend rewrites one slot; the handle keeps addressing the
// same position while the blend is in flight and after it collapses.
//
// Only one blend may be in flight per subtree: BlendTo fails with
// ErrBlendInFlight when an ancestor or descendant of the target is
// blending.
type Tree struct {
	slots    []slot
	root     Handle
	md       *metadata.Metadata
	inFlight []Handle
	dirty    bool
}

// NewTree indexes the expression rooted at root.
func NewTree(root Node) *Tree {
	t := &Tree{}
	t.root = t.add(root, NoHandle)
	t.dirty = true
	return t
}

func (t *Tree) add(n Node, parent Handle) Handle {
	h := Handle(len(t.slots))
	t.slots = append(t.slots, slot{node: n, parent: parent})
	for _, c := range n.Children() {
		t.add(c, h)
	}
	return h
}

// Root returns the root expression.
func (t *Tree) Root() Node { return t.slots[t.root].node }

// RootHandle returns the handle of the root.
func (t *Tree) RootHandle() Handle { return t.root }

// Len returns the number of live slots.
func (t *Tree) Len() int {
	n := 0
	for _, s := range t.slots {
		if s.node != nil {
			n++
		}
	}
	return n
}

func (t *Tree) valid(h Handle) bool {
	return h >= 0 && int(h) < len(t.slots) && t.slots[h].node != nil
}

// Node returns the node at h.
func (t *Tree) Node(h Handle) (Node, error) {
	if !t.valid(h) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return t.slots[h].node, nil
}

// Parent returns the parent handle of h, NoHandle for the root.
func (t *Tree) Parent(h Handle) (Handle, error) {
	if !t.valid(h) {
		return NoHandle, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return t.slots[h].parent, nil
}

// Find returns the handle of n.
func (t *Tree) Find(n Node) (Handle, bool) {
	for i, s := range t.slots {
		if s.node != nil && s.node == n {
			return Handle(i), true
		}
	}
	return NoHandle, false
}

// Bind binds the whole tree. Binding may restructure nodes, so slots are
// re-indexed afterwards.
func (t *Tree) Bind(md *metadata.Metadata) error {
	if err := t.Root().Bind(md); err != nil {
		return err
	}
	t.md = md
	t.reindex()
	return nil
}

func (t *Tree) reindex() {
	blends := make([]Node, len(t.inFlight))
	for i, h := range t.inFlight {
		blends[i] = t.slots[h].node
	}
	root := t.Root()
	t.slots = t.slots[:0]
	t.root = t.add(root, NoHandle)
	t.inFlight = t.inFlight[:0]
	for _, b := range blends {
		if h, ok := t.Find(b); ok {
			t.inFlight = append(t.inFlight, h)
		}
	}
	t.dirty = true
}

// isAncestor reports whether a is h or one of its ancestors.
func (t *Tree) isAncestor(a, h Handle) bool {
	for ; h != NoHandle; h = t.slots[h].parent {
		if h == a {
			return true
		}
	}
	return false
}

// InFlight reports whether a blend is in flight at h or around it.
func (t *Tree) InFlight(h Handle) bool {
	for _, b := range t.inFlight {
		if t.isAncestor(b, h) || t.isAncestor(h, b) {
			return true
		}
	}
	return false
}

// BlendTo replaces the subtree at h by a blend from its current value to
// final over duration. The blend collapses to final once complete.
func (t *Tree) BlendTo(h Handle, final any, duration time.Duration) error {
	if !t.valid(h) {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if t.InFlight(h) {
		return fmt.Errorf("%w: handle %d", ErrBlendInFlight, h)
	}
	old := t.slots[h].node
	b, err := Blend(old, final, Animation(duration))
	if err != nil {
		return err
	}
	if t.md != nil {
		if err := b.Bind(t.md); err != nil {
			return err
		}
	}

	parent := t.slots[h].parent
	if parent != NoHandle {
		t.slots[parent].node.ReplaceChild(old, b)
	}
	moved := Handle(len(t.slots))
	t.slots = append(t.slots, slot{node: old, parent: h})
	for i := range t.slots[:moved] {
		if t.slots[i].node != nil && t.slots[i].parent == h {
			t.slots[i].parent = moved
		}
	}
	t.slots[h].node = b
	for _, c := range b.Children()[1:] {
		t.add(c, h)
	}
	t.inFlight = append(t.inFlight, h)
	t.dirty = true
	viz.Logger().Debug("expr: blend started", "handle", int(h), "to", b.To().String(), "duration", duration)
	return nil
}

// PreDraw collapses completed blends and runs the pre-draw hooks of the
// whole tree.
func (t *Tree) PreDraw(s *gpu.Session) error {
	t.collapse(s)
	return t.Root().PreDraw(s)
}

func (t *Tree) collapse(s *gpu.Session) {
	collapsed := false
	kept := t.inFlight[:0]
	for _, h := range t.inFlight {
		b, ok := t.slots[h].node.(*BlendNode)
		if !ok || !b.Done() {
			kept = append(kept, h)
			continue
		}
		final := b.To()
		if parent := t.slots[h].parent; parent != NoHandle {
			t.slots[parent].node.ReplaceChild(b, final)
		}
		Walk(b.From(), func(n Node) bool {
			if f, ok := n.(Freer); ok && s != nil {
				f.Free(s)
			}
			return true
		})
		t.slots[h].node = final
		viz.Logger().Debug("expr: blend collapsed", "handle", int(h), "node", final.String())
		t.dirty, collapsed = true, true
	}
	t.inFlight = kept
	if collapsed {
		t.compact()
	}
}

// compact drops slots no longer reachable from the root, and duplicate
// slots of one node, keeping the handles of reachable nodes stable.
func (t *Tree) compact() {
	reach := make(map[Node]bool)
	Walk(t.Root(), func(n Node) bool {
		reach[n] = true
		return true
	})
	seen := make(map[Node]bool)
	for i := range t.slots {
		n := t.slots[i].node
		if n == nil {
			continue
		}
		if !reach[n] || seen[n] {
			t.slots[i].node = nil
			continue
		}
		seen[n] = true
	}
	for i := range t.slots {
		n := t.slots[i].node
		if n == nil {
			continue
		}
		for _, c := range n.Children() {
			if ch, ok := t.Find(c); ok {
				t.slots[ch].parent = Handle(i)
			}
		}
	}
}

// ShaderSource emits the root expression.
func (t *Tree) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	return t.Root().ShaderSource(a)
}

// PostShaderCompile resolves the uniforms of the whole tree.
func (t *Tree) PostShaderCompile(s *gpu.Session, p gpu.ProgramID) error {
	t.dirty = false
	return t.Root().PostShaderCompile(s, p)
}

// NeedsRecompile reports whether the tree changed shape since the last
// program compilation.
func (t *Tree) NeedsRecompile() bool { return t.dirty }

// Eval evaluates the root expression.
func (t *Tree) Eval(f Feature) (any, error) { return t.Root().Eval(f) }

// IsAnimated reports whether the tree changes between frames.
func (t *Tree) IsAnimated() bool { return len(t.inFlight) > 0 || t.Root().IsAnimated() }

// Free releases GPU resources held by any node.
func (t *Tree) Free(s *gpu.Session) {
	Walk(t.Root(), func(n Node) bool {
		if f, ok := n.(Freer); ok {
			f.Free(s)
		}
		return true
	})
}

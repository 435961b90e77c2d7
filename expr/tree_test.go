package expr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/palette"
)

// fakeClock is a settable session clock.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func clockedSession(t *testing.T) (*gpu.Session, *gpu.MemoryDevice, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: t2020}
	s, dev := testSession(t, gpu.WithClock(clk.Now))
	return s, dev, clk
}

func TestTreeBlendLifecycle(t *testing.T) {
	s, dev, clk := clockedSession(t)
	tree := NewTree(Number(1))
	require.NoError(t, tree.Bind(testMetadata()))
	root := tree.RootHandle()

	require.NoError(t, tree.BlendTo(root, 3, time.Second))
	assert.True(t, tree.InFlight(root))
	assert.True(t, tree.NeedsRecompile())
	assert.True(t, tree.IsAnimated())

	_, p := compile(t, s, dev, tree.Root())
	require.NoError(t, tree.PostShaderCompile(s, p))
	assert.False(t, tree.NeedsRecompile())

	require.NoError(t, tree.PreDraw(s))
	clk.Advance(500 * time.Millisecond)
	require.NoError(t, tree.PreDraw(s))
	v, err := tree.Eval(nil)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v.(float64), 1e-9)

	err = tree.BlendTo(root, 5, time.Second)
	assert.ErrorIs(t, err, ErrBlendInFlight)

	// The blend reaches 1 on this frame and collapses on the next.
	clk.Advance(time.Second)
	require.NoError(t, tree.PreDraw(s))
	v, err = tree.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	_, isBlend := tree.Root().(*BlendNode)
	assert.True(t, isBlend)

	require.NoError(t, tree.PreDraw(s))
	n, ok := tree.Root().(*NumberNode)
	require.True(t, ok)
	assert.Equal(t, 3.0, n.Value())
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, root, tree.RootHandle())
	assert.False(t, tree.InFlight(root))
	assert.True(t, tree.NeedsRecompile())
	assert.False(t, tree.IsAnimated())

	require.NoError(t, tree.BlendTo(root, 4, 0))
}

func TestTreeBlendSubtree(t *testing.T) {
	s, _, clk := clockedSession(t)
	sum, err := Add(Prop("price"), 1)
	require.NoError(t, err)
	tree := NewTree(sum)
	require.NoError(t, tree.Bind(testMetadata()))
	assert.Equal(t, 3, tree.Len())

	price, ok := tree.Find(sum.Children()[0])
	require.True(t, ok)
	one, ok := tree.Find(sum.Children()[1])
	require.True(t, ok)
	parent, err := tree.Parent(one)
	require.NoError(t, err)
	assert.Equal(t, tree.RootHandle(), parent)

	require.NoError(t, tree.BlendTo(one, 11, 2*time.Second))
	blend, err := tree.Node(one)
	require.NoError(t, err)
	assert.Same(t, blend, sum.Children()[1], "the parent points at the blend")

	assert.ErrorIs(t, tree.BlendTo(tree.RootHandle(), 0, time.Second), ErrBlendInFlight)
	require.NoError(t, tree.BlendTo(price, 50, time.Second), "siblings blend independently")

	f := Feature{"price": 10.0}
	require.NoError(t, tree.PreDraw(s))
	clk.Advance(time.Second)
	require.NoError(t, tree.PreDraw(s))
	v, err := tree.Eval(f)
	require.NoError(t, err)
	assert.InDelta(t, 50+6, v.(float64), 1e-9)

	clk.Advance(time.Second)
	require.NoError(t, tree.PreDraw(s))
	require.NoError(t, tree.PreDraw(s))
	v, err = tree.Eval(f)
	require.NoError(t, err)
	assert.Equal(t, 61.0, v)
	assert.Equal(t, 3, tree.Len())

	n, err := tree.Node(one)
	require.NoError(t, err)
	assert.Equal(t, "11", n.String())
	parent, err = tree.Parent(one)
	require.NoError(t, err)
	assert.Equal(t, tree.RootHandle(), parent)
}

func TestTreeBlendColors(t *testing.T) {
	s, _, clk := clockedSession(t)
	tree := NewTree(ColorConst(palette.Black))
	require.NoError(t, tree.Bind(testMetadata()))
	require.NoError(t, tree.BlendTo(tree.RootHandle(), palette.White, time.Second))

	require.NoError(t, tree.PreDraw(s))
	clk.Advance(250 * time.Millisecond)
	require.NoError(t, tree.PreDraw(s))
	v, err := tree.Eval(nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v.(palette.Color).R, 1e-9)
}

func TestTreeBlendTypeMismatch(t *testing.T) {
	tree := NewTree(Number(1))
	require.NoError(t, tree.Bind(testMetadata()))
	assert.ErrorIs(t, tree.BlendTo(tree.RootHandle(), palette.White, time.Second), ErrType)
	assert.False(t, tree.InFlight(tree.RootHandle()))

	assert.ErrorIs(t, tree.BlendTo(42, 1, time.Second), ErrUnknownHandle)
	_, err := tree.Node(-3)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestTreeFreesBlendedAwayRamp(t *testing.T) {
	s, dev, clk := clockedSession(t)
	r, err := Ramp(Prop("kind"), palette.Bold)
	require.NoError(t, err)
	tree := NewTree(r)
	require.NoError(t, tree.Bind(testMetadata()))

	_, p := compile(t, s, dev, tree.Root())
	require.NoError(t, tree.PreDraw(s))
	tex, ok := dev.BoundTexture(p, "t0")
	require.True(t, ok)

	require.NoError(t, tree.BlendTo(tree.RootHandle(), palette.White, time.Second))
	require.NoError(t, tree.PreDraw(s))
	clk.Advance(time.Second)
	require.NoError(t, tree.PreDraw(s))
	require.NoError(t, tree.PreDraw(s))

	assert.Equal(t, 1, dev.Releases(uint64(tex)))
	assert.Equal(t, 0, dev.Stats().Textures)
}

func TestLegendConfigNormalize(t *testing.T) {
	assert.Equal(t, DefaultLegendSamples, LegendConfig{}.normalize().Samples)
	assert.Equal(t, MaxLegendSamples, LegendConfig{Samples: 500}.normalize().Samples)
	assert.Equal(t, []float64{0}, LegendConfig{Samples: 1}.steps())
	assert.Equal(t, []float64{0, 0.5, 1}, LegendConfig{Samples: 3}.steps())
}

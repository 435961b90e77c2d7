package expr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/shader"
)

var (
	t2020 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2021 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
)

func ms(t time.Time) float64 { return float64(t.UnixMilli()) }

func testMetadata() *metadata.Metadata {
	return metadata.New(
		metadata.Property{Name: "price", Type: metadata.Number, Stats: metadata.Stats{Min: 0, Max: 100}},
		metadata.Property{Name: "kind", Type: metadata.Category, Stats: metadata.Stats{Categories: []metadata.CategoryStat{
			{Name: "a", Frequency: 5}, {Name: "b", Frequency: 10}, {Name: "c", Frequency: 1},
		}}},
		metadata.Property{Name: "day", Type: metadata.Date, Stats: metadata.Stats{Min: ms(t2020), Max: ms(t2021)}},
		metadata.Property{Name: "early", Type: metadata.Date, Stats: metadata.Stats{Min: ms(t2020) - 3000, Max: ms(t2021)}},
		metadata.Property{Name: "period", Type: metadata.TimeRange, Stats: metadata.Stats{Min: ms(t2020), Max: ms(t2021)}},
	)
}

func testSession(t *testing.T, opts ...gpu.SessionOption) (*gpu.Session, *gpu.MemoryDevice) {
	t.Helper()
	dev := gpu.NewMemoryDevice()
	s, err := gpu.NewSession(dev, opts...)
	require.NoError(t, err)
	return s, dev
}

// compile emits n and links a program for it on dev.
func compile(t *testing.T, s *gpu.Session, dev *gpu.MemoryDevice, n Node) (shader.Source, gpu.ProgramID) {
	t.Helper()
	src, err := n.ShaderSource(shader.NewAllocator())
	require.NoError(t, err)
	p, err := dev.CreateProgram("test", []uint32{0x07230203})
	require.NoError(t, err)
	require.NoError(t, n.PostShaderCompile(s, p))
	return src, p
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   any
		typ  Type
	}{
		{"float", 1.5, TypeNumber},
		{"int", 3, TypeNumber},
		{"uint8", uint8(3), TypeNumber},
		{"string", "a", TypeCategory},
		{"time", t2020, TypeDate},
		{"color", palette.RGB(1, 0, 0), TypeColor},
		{"range", codec.TimeRange{Start: t2020, End: t2021}, TypeTimeRange},
		{"images", palette.ImageList{{URL: "a.svg"}}, TypeImageList},
		{"floats", []float64{1, 2}, TypeNumberArray},
		{"strings", []string{"x", "y"}, TypeCategoryArray},
		{"colors", []palette.Color{palette.Black}, TypeColorArray},
		{"palette", palette.Sunset, TypeColorArray},
		{"dates", []time.Time{t2020, t2021}, TypeDateArray},
		{"node", Number(2), TypeNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Coerce(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, n.Type())
		})
	}

	for _, bad := range []any{nil, struct{}{}, map[string]int{}, []bool{true}} {
		_, err := Coerce(bad)
		assert.ErrorIs(t, err, ErrArgument, "%T", bad)
	}
}

func TestCoerceArgAttribution(t *testing.T) {
	_, err := Linear(Prop("price"), struct{}{}, 10)
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "linear", ae.Op)
	assert.Equal(t, 1, ae.ArgIndex)
}

func TestArrayOrder(t *testing.T) {
	arr, err := NewArray(3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, TypeNumberArray, arr.Type())

	v, err := arr.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, 1.0, 2.0}, v)

	cats, err := NewArray("z", "a")
	require.NoError(t, err)
	v, err = cats.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"z", "a"}, v)
}

func TestArrayErrors(t *testing.T) {
	_, err := NewArray()
	assert.ErrorIs(t, err, ErrArgument)

	_, err = NewArray(Number(1), ColorConst(palette.White))
	assert.ErrorIs(t, err, ErrType)
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "array", te.Op)
	assert.Equal(t, 1, te.ArgIndex)
	assert.Equal(t, TypeColor, te.Actual)

	_, err = NewArray(Prop("price"), 1)
	assert.ErrorIs(t, err, ErrConstantRequired)

	_, err = NewArray(1, Prop("price"))
	var ce *ConstantRequiredError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.ArgIndex)

	_, err = NewArray(TimeRangeConst(codec.TimeRange{}))
	assert.ErrorIs(t, err, ErrType)

	_, err = NewArray(1, struct{}{})
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "array", ae.Op)
	assert.Equal(t, 1, ae.ArgIndex)
}

func TestPropEval(t *testing.T) {
	md := testMetadata()

	price := Prop("price")
	_, err := price.Eval(Feature{"price": 1})
	assert.ErrorIs(t, err, ErrNotBound)
	require.NoError(t, price.Bind(md))
	assert.Equal(t, TypeNumber, price.Type())

	v, err := price.Eval(Feature{"price": 12})
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)
	v, err = price.Eval(Feature{})
	require.NoError(t, err)
	assert.Equal(t, float64(codec.DesignatedNull), v)
	_, err = price.Eval(nil)
	assert.ErrorIs(t, err, ErrFeatureRequired)

	kind := Prop("kind")
	require.NoError(t, kind.Bind(md))
	v, err = kind.Eval(Feature{"kind": 1.0})
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	v, err = kind.Eval(Feature{"kind": "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	_, err = kind.Eval(Feature{"kind": 999.0})
	assert.ErrorIs(t, err, codec.ErrUnknownCategoryID)

	day := Prop("day")
	require.NoError(t, day.Bind(md))
	v, err = day.Eval(Feature{"day": 1000.0})
	require.NoError(t, err)
	assert.Equal(t, t2020.Add(time.Second), v)

	period := Prop("period")
	require.NoError(t, period.Bind(md))
	v, err = period.Eval(Feature{"period_start": 0.0, "period_end": 2000.0})
	require.NoError(t, err)
	assert.Equal(t, codec.TimeRange{Start: t2020, End: t2020.Add(2 * time.Second)}, v)

	err = Prop("missing").Bind(md)
	assert.ErrorIs(t, err, ErrArgument)
}

func TestPropShaderSharesTexture(t *testing.T) {
	md := testMetadata()
	a := NewTree(mustNode(Add(Prop("price"), Prop("price"))))
	require.NoError(t, a.Bind(md))

	alloc := shader.NewAllocator()
	src, err := a.ShaderSource(alloc)
	require.NoError(t, err)
	assert.Equal(t, "(textureLoad(p0, fc, 0).r + textureLoad(p0, fc, 0).r)", src.Inline)
	assert.Len(t, alloc.Properties(), 1)
}

func newAlloc() *shader.Allocator { return shader.NewAllocator() }

func mustNode(n Node, err error) Node {
	if err != nil {
		panic(err)
	}
	return n
}

func TestBinaryFolding(t *testing.T) {
	n, err := Add(1, 2)
	require.NoError(t, err)
	c, ok := n.(*NumberNode)
	require.True(t, ok)
	assert.Equal(t, 3.0, c.Value())

	n, err = Pow(2, 10)
	require.NoError(t, err)
	assert.Equal(t, 1024.0, n.(*NumberNode).Value())

	md := testMetadata()
	n, err = Mul(Prop("price"), 2)
	require.NoError(t, err)
	require.NoError(t, n.Bind(md))
	v, err := n.Eval(Feature{"price": 25.0})
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)

	src, err := n.ShaderSource(shader.NewAllocator())
	require.NoError(t, err)
	assert.Equal(t, "(textureLoad(p0, fc, 0).r * u0)", src.Inline)

	n, err = Pow(Prop("price"), 2)
	require.NoError(t, err)
	require.NoError(t, n.Bind(md))
	src, err = n.ShaderSource(shader.NewAllocator())
	require.NoError(t, err)
	assert.Equal(t, "pow(textureLoad(p0, fc, 0).r, u0)", src.Inline)

	n, err = Sub(Prop("kind"), 1)
	require.NoError(t, err)
	err = n.Bind(md)
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "sub", te.Op)
	assert.Equal(t, 0, te.ArgIndex)
}

func TestGlobalAggregations(t *testing.T) {
	md := testMetadata()

	lo, err := GlobalMin(Prop("price"))
	require.NoError(t, err)
	hi, err := GlobalMax(Prop("day"))
	require.NoError(t, err)
	require.NoError(t, lo.Bind(md))
	require.NoError(t, hi.Bind(md))

	v, err := lo.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	v, err = hi.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, t2021, v)

	src, err := hi.ShaderSource(shader.NewAllocator())
	require.NoError(t, err)
	assert.Equal(t, shader.Float(ms(t2021)-ms(t2020)), src.Inline)

	_, err = GlobalMin(3)
	assert.ErrorIs(t, err, ErrArgument)

	kind, err := GlobalMax(Prop("kind"))
	require.NoError(t, err)
	assert.ErrorIs(t, kind.Bind(md), ErrType)
}

func TestConstantUniforms(t *testing.T) {
	s, dev := testSession(t)
	c := ColorConst(palette.RGBA(1, 0.5, 0, 1))
	require.NoError(t, c.Bind(nil))

	src, p := compile(t, s, dev, c)
	assert.Equal(t, "u0", src.Inline)
	assert.Contains(t, src.Preface, "var<uniform> u0: vec4<f32>;")

	require.NoError(t, c.PreDraw(s))
	v, ok := dev.Uniform(p, "u0")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0.5, 0, 1}, v)
}

func TestTypeErrorMessage(t *testing.T) {
	err := &TypeError{Op: "ramp", ArgName: "input", ArgIndex: 0,
		Expected: []Type{TypeNumber, TypeCategory}, Actual: TypeDate}
	assert.Contains(t, err.Error(), "ramp()")
	assert.Contains(t, err.Error(), "argument 0 (input)")
	assert.Contains(t, err.Error(), "number | category")
	assert.Contains(t, err.Error(), "got date")
	assert.True(t, errors.Is(err, ErrType))
	assert.False(t, errors.Is(err, ErrArgument))
}

func TestTypeHelpers(t *testing.T) {
	assert.True(t, TypeColorArray.IsArray())
	assert.False(t, TypeImageList.IsArray())
	assert.Equal(t, TypeDate, TypeDateArray.Elem())
	_, ok := ArrayOf(TypeTimeRange)
	assert.False(t, ok)
	assert.Equal(t, "time-range", TypeTimeRange.String())
	assert.Equal(t, shader.Vec4, ShaderType(TypeColor))
	assert.Equal(t, shader.F32, ShaderType(TypeImage))
}

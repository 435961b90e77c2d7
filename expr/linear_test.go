package expr

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/viz/codec"
)

func boundLinear(t *testing.T, input any, args ...any) *LinearNode {
	t.Helper()
	l, err := Linear(input, args...)
	require.NoError(t, err)
	require.NoError(t, l.Bind(testMetadata()))
	return l
}

func evalUnit(t *testing.T, n Node, f Feature) float64 {
	t.Helper()
	v, err := n.Eval(f)
	require.NoError(t, err)
	return v.(float64)
}

func TestLinearImplicitBounds(t *testing.T) {
	l := boundLinear(t, Prop("price"))
	assert.InDelta(t, 0.25, evalUnit(t, l, Feature{"price": 25.0}), 1e-12)
	assert.InDelta(t, 1.0, evalUnit(t, l, Feature{"price": 100.0}), 1e-12)

	lo, hi, err := l.Limits()
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 100.0, hi)
}

func TestLinearExplicitBounds(t *testing.T) {
	l := boundLinear(t, Prop("price"), 10, 20)
	assert.InDelta(t, 0.5, evalUnit(t, l, Feature{"price": 15.0}), 1e-12)
	assert.InDelta(t, -1.0, evalUnit(t, l, Feature{"price": 0.0}), 1e-12)
}

func TestLinearInverseLaw(t *testing.T) {
	tests := []struct {
		name  string
		input any
		args  []any
		feat  func(v any) Feature
	}{
		{"number", Prop("price"), []any{-5, 95}, func(v any) Feature { return Feature{"price": v} }},
		{"date", Prop("day"), nil, func(v any) Feature { return Feature{"day": v} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := boundLinear(t, tt.input, tt.args...)
			for _, u := range []float64{0, 0.1, 0.25, 0.5, 0.9, 1} {
				back, err := l.Converse(u)
				require.NoError(t, err)
				assert.InDelta(t, u, evalUnit(t, l, tt.feat(back)), 1e-6, "u=%v", u)
			}
		})
	}
}

func TestLinearDateConverse(t *testing.T) {
	l := boundLinear(t, Prop("day"))
	v, err := l.Converse(0)
	require.NoError(t, err)
	assert.Equal(t, t2020, v)

	mid := t2020.Add(t2021.Sub(t2020) / 2)
	assert.InDelta(t, 0.5, evalUnit(t, l, Feature{"day": mid}), 1e-9)
}

func TestLinearTimeRangeModes(t *testing.T) {
	in := codec.TimeRange{Start: t2020.Add(10 * time.Second), End: t2020.Add(30 * time.Second)}
	lo := codec.TimeRange{Start: t2020, End: t2020.Add(20 * time.Second)}
	hi := codec.TimeRange{Start: t2020.Add(40 * time.Second), End: t2020.Add(80 * time.Second)}
	f := Feature{"period": in}

	tests := []struct {
		mode string
		want float64
	}{
		{"unit", 10.0 / 40.0},
		{"start", 10.0 / 80.0},
		{"end", 30.0 / 80.0},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			l := boundLinear(t, Prop("period"), TimeRangeConst(lo), TimeRangeConst(hi), tt.mode)
			assert.Equal(t, tt.mode, l.Mode().String())
			assert.InDelta(t, tt.want, evalUnit(t, l, f), 1e-9)
		})
	}

	l := boundLinear(t, Prop("period"), "end")
	assert.Equal(t, RangeEnd, l.Mode())
	v, err := l.Converse(0)
	require.NoError(t, err)
	assert.Equal(t, t2020, v)
}

func TestLinearDegenerateRange(t *testing.T) {
	l := boundLinear(t, Prop("price"), 5, 5)
	assert.True(t, math.IsNaN(evalUnit(t, l, Feature{"price": 5.0})))
	assert.True(t, math.IsInf(evalUnit(t, l, Feature{"price": 6.0}), 1))
	assert.True(t, math.IsInf(evalUnit(t, l, Feature{"price": 4.0}), -1))
}

func TestLinearArguments(t *testing.T) {
	_, err := Linear(Prop("price"), "bogus")
	assert.ErrorIs(t, err, ErrArgument)

	_, err = Linear(Prop("price"), 3)
	assert.ErrorIs(t, err, ErrArgument, "a lone number is not a range mode")

	_, err = Linear(Prop("price"), Number(3))
	assert.ErrorIs(t, err, ErrArgument)

	_, err = Linear(Number(3))
	assert.ErrorIs(t, err, ErrArgument)

	_, err = Linear(Prop("price"), 1, 2, "unit", "extra")
	assert.ErrorIs(t, err, ErrArgument)

	l, err := Linear(Prop("price"), RangeStart)
	require.NoError(t, err)
	assert.Equal(t, RangeStart, l.Mode())
}

func TestLinearBindErrors(t *testing.T) {
	md := testMetadata()

	l, err := Linear(Prop("kind"), 0, 1)
	require.NoError(t, err)
	var te *TypeError
	require.True(t, errors.As(l.Bind(md), &te))
	assert.Equal(t, "linear", te.Op)
	assert.Equal(t, 0, te.ArgIndex)

	l, err = Linear(Prop("day"), 0, 1)
	require.NoError(t, err)
	require.True(t, errors.As(l.Bind(md), &te))
	assert.Equal(t, 1, te.ArgIndex)

	l, err = Linear(Prop("price"), Prop("price"), 10)
	require.NoError(t, err)
	var ce *ConstantRequiredError
	require.True(t, errors.As(l.Bind(md), &ce))
	assert.Equal(t, 1, ce.ArgIndex)
}

func TestLinearShaderUniformBounds(t *testing.T) {
	s, dev := testSession(t)
	l := boundLinear(t, Prop("price"), 10, 20)

	src, p := compile(t, s, dev, l)
	assert.Equal(t, "((textureLoad(p0, fc, 0).r - u0) / (u1 - u0))", src.Inline)

	require.NoError(t, l.PreDraw(s))
	lo, ok := dev.Uniform(p, "u0")
	require.True(t, ok)
	hi, ok := dev.Uniform(p, "u1")
	require.True(t, ok)
	assert.Equal(t, []float32{10}, lo)
	assert.Equal(t, []float32{20}, hi)
}

func TestLinearShaderInlinesAggregations(t *testing.T) {
	l := boundLinear(t, Prop("price"))
	src, err := l.ShaderSource(newAlloc())
	require.NoError(t, err)
	assert.Equal(t, "((textureLoad(p0, fc, 0).r - 0.0) / (100.0 - 0.0))", src.Inline)

	// Bounds from another date property are shifted into the input's space.
	lo, err := GlobalMin(Prop("early"))
	require.NoError(t, err)
	hi, err := GlobalMax(Prop("early"))
	require.NoError(t, err)
	l = boundLinear(t, Prop("day"), lo, hi)
	src, err = l.ShaderSource(newAlloc())
	require.NoError(t, err)
	assert.Contains(t, src.Inline, "(0.0 - 3000.0)")
}

func TestLinearTimeRangeShader(t *testing.T) {
	l := boundLinear(t, Prop("period"), "end")
	src, err := l.ShaderSource(newAlloc())
	require.NoError(t, err)
	assert.Contains(t, src.Inline, "textureLoad(p0, fc, 0).r")
	assert.Contains(t, src.Preface, "var p0: texture_2d<f32>;")
	assert.Contains(t, src.Inline, "u0")
	assert.Contains(t, src.Inline, "u1")
}

func TestLinearLegend(t *testing.T) {
	l := boundLinear(t, Prop("price"))
	leg, err := l.LegendData(LegendConfig{Samples: 5})
	require.NoError(t, err)
	assert.Equal(t, LegendNumber, leg.Type)
	require.Len(t, leg.Data, 5)
	assert.Equal(t, 0.0, leg.Data[0].Key)
	assert.Equal(t, 50.0, leg.Data[2].Key)
	assert.Equal(t, 0.5, leg.Data[2].Value)
	assert.Equal(t, 100.0, leg.Data[4].Key)

	leg, err = l.LegendData(LegendConfig{Samples: 1000})
	require.NoError(t, err)
	assert.Len(t, leg.Data, MaxLegendSamples)

	leg, err = l.LegendData(LegendConfig{})
	require.NoError(t, err)
	assert.Len(t, leg.Data, DefaultLegendSamples)
}

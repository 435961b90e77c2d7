// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dataframe

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
	"github.com/gogpu/viz/style"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testMetadata() *metadata.Metadata {
	return metadata.New(
		metadata.Property{Name: "price", Type: metadata.Number, Stats: metadata.Stats{Min: 0, Max: 100}},
		metadata.Property{Name: "visible", Type: metadata.Number, Stats: metadata.Stats{Min: 0, Max: 1}},
		metadata.Property{Name: "kind", Type: metadata.Category, Stats: metadata.Stats{Categories: []metadata.CategoryStat{
			{Name: "a", Frequency: 5}, {Name: "b", Frequency: 10},
		}}},
		metadata.Property{Name: "period", Type: metadata.TimeRange, Stats: metadata.Stats{
			Min: float64(epoch.UnixMilli()), Max: float64(epoch.Add(time.Hour).UnixMilli()),
		}},
	)
}

// testSession has a two pixel high canvas, so one pixel is one local unit
// at scale 1 and zoom 1.
func testSession(t *testing.T) (*gpu.Session, *gpu.MemoryDevice) {
	t.Helper()
	dev := gpu.NewMemoryDevice()
	s, err := gpu.NewSession(dev, gpu.WithRTTWidth(4), gpu.WithViewport(2, 2))
	require.NoError(t, err)
	return s, dev
}

func testViz(t *testing.T, md *metadata.Metadata, opts ...style.Option) *style.Viz {
	t.Helper()
	v, err := style.New(opts...)
	require.NoError(t, err)
	require.NoError(t, v.Bind(md))
	return v
}

func bound(t *testing.T, cfg Config, opts ...Option) (*Dataframe, *gpu.MemoryDevice) {
	t.Helper()
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	d, err := New(cfg, opts...)
	require.NoError(t, err)
	s, dev := testSession(t)
	require.NoError(t, d.Bind(s))
	return d, dev
}

type stubStyler struct {
	width, strokeWidth, filter float64
	symbol                     bool
	placement                  [2]float64
}

func (s stubStyler) EvalNumber(p style.Property, _ expr.Feature) (float64, error) {
	switch p {
	case style.Width:
		return s.width, nil
	case style.StrokeWidth:
		return s.strokeWidth, nil
	}
	return s.filter, nil
}

func (s stubStyler) SymbolIsDefault() bool { return !s.symbol }

func (s stubStyler) SymbolPlacement() (float64, float64, error) {
	return s.placement[0], s.placement[1], nil
}

func TestNew(t *testing.T) {
	_, err := New(Config{Type: geometry.Point, Scale: 0})
	assert.ErrorIs(t, err, ErrInvalidScale)

	_, err = New(Config{Type: geometry.Point, Scale: 1, Geometries: []orb.Geometry{orb.LineString{}}})
	assert.ErrorIs(t, err, geometry.ErrGeometryType)

	_, err = New(Config{
		Type: geometry.Point, Scale: 1,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"price": {1, 2}},
	})
	assert.ErrorIs(t, err, ErrPropertyLength)

	d, err := New(Config{
		Type: geometry.Line, Scale: 1,
		Geometries: []orb.Geometry{orb.LineString{{0, 0}, {1, 0}, {2, 0}}, orb.LineString{{0, 1}, {1, 1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.NumFeatures())
	assert.Equal(t, 18, d.NumVertex())

	other, err := New(Config{Type: geometry.Point, Scale: 1})
	require.NoError(t, err)
	assert.NotEqual(t, d.ID(), other.ID())
}

func TestFeatureIDs(t *testing.T) {
	t.Run("points", func(t *testing.T) {
		ids := featureIDs(3, nil, 2, 2)
		assert.Equal(t, []float32{0, 0, 1, 0, 0, 1}, ids)
	})
	t.Run("breakpoints", func(t *testing.T) {
		ids := featureIDs(12, []int{12, 24}, 4, 1)
		for v := range 6 {
			assert.Equal(t, float32(0), ids[2*v])
			assert.Equal(t, float32(0.5), ids[2*v+1], "single row")
		}
		for v := 6; v < 12; v++ {
			assert.InDelta(t, 1.0/3, ids[2*v], 1e-6)
		}
	})
	t.Run("empty feature", func(t *testing.T) {
		ids := featureIDs(6, []int{0, 12}, 4, 1)
		assert.InDelta(t, 1.0/3, ids[0], 1e-6, "the first feature has no vertices")
	})
	t.Run("single column", func(t *testing.T) {
		ids := featureIDs(3, nil, 1, 3)
		assert.Equal(t, []float32{0, 0, 0, 0.5, 0, 1}, ids)
	})
}

func TestBind(t *testing.T) {
	d, dev := bound(t, Config{
		Type:       geometry.Line,
		Geometries: []orb.Geometry{orb.LineString{{0, 0}, {10, 0}}},
		Properties: map[string][]float32{"price": {42}},
	})

	vertices, ids, normals := d.Buffers()
	raw, ok := dev.BufferData(vertices)
	require.True(t, ok)
	assert.Len(t, gpu.BytesFloat32(raw), 12)
	raw, ok = dev.BufferData(ids)
	require.True(t, ok)
	assert.Len(t, gpu.BytesFloat32(raw), 12)
	assert.NotEqual(t, gpu.BufferID(gpu.InvalidID), normals)

	w, h := d.GridSize()
	assert.Equal(t, 4, w)
	assert.Equal(t, 1, h)
	for target := range numStyleTargets {
		_, desc, ok := dev.TextureData(d.StyleTexture(target))
		require.True(t, ok, target.String())
		assert.Equal(t, uint32(4), desc.Width)
	}
	tex, ok := d.PropertyTexture("price")
	require.True(t, ok)
	data, _, _ := dev.TextureData(tex)
	assert.Equal(t, []float32{42, 0, 0, 0}, gpu.BytesFloat32(data))

	s, _ := testSession(t)
	assert.ErrorIs(t, d.Bind(s), ErrAlreadyBound)

	points, _ := bound(t, Config{Type: geometry.Point, Geometries: []orb.Geometry{orb.Point{0, 0}}})
	_, _, normals = points.Buffers()
	assert.Equal(t, gpu.BufferID(gpu.InvalidID), normals, "points have no normals")
}

func TestPointHit(t *testing.T) {
	md := testMetadata()
	d, _ := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"cartodb_id": {7}, "price": {3}},
		Metadata:   md,
	})
	v := testViz(t, md, style.WithWidth(10), style.WithStrokeWidth(0))

	tests := []struct {
		pos  orb.Point
		want bool
	}{
		{orb.Point{0, 0}, true},
		{orb.Point{4, 0}, true},
		{orb.Point{5, 0}, true},
		{orb.Point{0, -4.9}, true},
		{orb.Point{6, 0}, false},
	}
	for _, tt := range tests {
		got, err := d.FeaturesAtPosition(tt.pos, v)
		require.NoError(t, err)
		if !tt.want {
			assert.Empty(t, got, "%v", tt.pos)
			continue
		}
		require.Len(t, got, 1, "%v", tt.pos)
		assert.Equal(t, 7.0, got[0].ID)
		assert.Equal(t, map[string]any{"price": 3.0}, got[0].Properties)
	}
}

func TestPointHitCaps(t *testing.T) {
	d, _ := bound(t, Config{Type: geometry.Point, Geometries: []orb.Geometry{orb.Point{0, 0}}})

	got, err := d.FeaturesAtPosition(orb.Point{62, 0}, stubStyler{width: 1000, filter: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = d.FeaturesAtPosition(orb.Point{64, 0}, stubStyler{width: 1000, filter: 1})
	require.NoError(t, err)
	assert.Empty(t, got, "diameter is capped at 126 pixels")

	got, err = d.FeaturesAtPosition(orb.Point{0, 6}, stubStyler{width: 4, strokeWidth: 8, filter: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1, "stroke widens the hit disk")
}

func TestPointSymbolOffset(t *testing.T) {
	d, _ := bound(t, Config{Type: geometry.Point, Geometries: []orb.Geometry{orb.Point{0, 0}}})
	s := stubStyler{width: 10, filter: 1, symbol: true, placement: [2]float64{0, 1}}

	got, err := d.FeaturesAtPosition(orb.Point{0, 9}, s)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = d.FeaturesAtPosition(orb.Point{0, -4}, s)
	require.NoError(t, err)
	assert.Empty(t, got)

	s.symbol = false
	got, err = d.FeaturesAtPosition(orb.Point{0, -4}, s)
	require.NoError(t, err)
	assert.Len(t, got, 1, "the default symbol is not offset")
}

func TestTriangleHit(t *testing.T) {
	md := testMetadata()
	d, _ := bound(t, Config{
		Type: geometry.Line,
		Geometries: []orb.Geometry{
			orb.LineString{{0, 0}, {10, 0}},
			orb.LineString{{0, 5}, {10, 5}},
		},
		Properties: map[string][]float32{"cartodb_id": {1, 2}},
		Metadata:   md,
	})
	v := testViz(t, md, style.WithWidth(2))

	// (5, 0) lies on the diagonal shared by the two triangles of the
	// first segment.
	got, err := d.FeaturesAtPosition(orb.Point{5, 0}, v)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].ID)

	got, err = d.FeaturesAtPosition(orb.Point{5, 0.9}, v)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = d.FeaturesAtPosition(orb.Point{5, 1.5}, v)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = d.FeaturesAtPosition(orb.Point{5, 5}, v)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].ID)
}

func TestTriangleHitWorldTransform(t *testing.T) {
	d, err := New(Config{
		Center:     orb.Point{100, 50},
		Scale:      2,
		Type:       geometry.Line,
		Geometries: []orb.Geometry{orb.LineString{{0, 0}, {10, 0}}},
	})
	require.NoError(t, err)
	s, _ := testSession(t)
	require.NoError(t, d.Bind(s))

	// One pixel is half a local unit at scale 2: a 4 pixel line reaches one
	// local unit, two world units, to each side.
	st := stubStyler{width: 4, filter: 1}
	got, err := d.FeaturesAtPosition(orb.Point{110, 51.9}, st)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = d.FeaturesAtPosition(orb.Point{110, 52.1}, st)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPolygonHit(t *testing.T) {
	d, _ := bound(t, Config{
		Type: geometry.Polygon,
		Geometries: []orb.Geometry{
			orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}},
			orb.Polygon{{{10, 0}, {14, 0}, {14, 4}, {10, 4}, {10, 0}}},
		},
	})
	st := stubStyler{strokeWidth: 2, filter: 1}

	got, err := d.FeaturesAtPosition(orb.Point{2, 2}, st)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = d.FeaturesAtPosition(orb.Point{-0.5, 2}, st)
	require.NoError(t, err)
	assert.Len(t, got, 1, "inside the stroke")

	got, err = d.FeaturesAtPosition(orb.Point{12, 2}, st)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = d.FeaturesAtPosition(orb.Point{7, 2}, st)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilter(t *testing.T) {
	md := testMetadata()
	tests := []struct {
		name string
		cfg  Config
		pos  orb.Point
	}{
		{"point", Config{Type: geometry.Point, Geometries: []orb.Geometry{orb.Point{0, 0}, orb.Point{1, 0}}}, orb.Point{0.5, 0}},
		{"line", Config{Type: geometry.Line, Geometries: []orb.Geometry{
			orb.LineString{{0, 0}, {10, 0}}, orb.LineString{{0, 0}, {10, 0}},
		}}, orb.Point{5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Metadata = md
			tt.cfg.Properties = map[string][]float32{"cartodb_id": {1, 2}, "visible": {0, 1}}
			d, _ := bound(t, tt.cfg)
			v := testViz(t, md, style.WithWidth(10), style.WithFilter(expr.Prop("visible")))

			got, err := d.FeaturesAtPosition(tt.pos, v)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, 2.0, got[0].ID, "the feature with filter 0 is skipped")
		})
	}
}

func TestCategoryNames(t *testing.T) {
	md := testMetadata()
	d, _ := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"kind": {1}},
		Metadata:   md,
	})
	got, err := d.FeaturesAtPosition(orb.Point{0, 0}, testViz(t, md))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Properties["kind"])
	assert.Zero(t, got[0].ID)
}

func TestHotUpdate(t *testing.T) {
	md := testMetadata()
	d, dev := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"price": {1}},
		Metadata:   md,
	})
	vertices, _, _ := d.Buffers()
	before := dev.Stats()

	require.NoError(t, d.AddProperties(map[string][]float32{"visible": {0}}))
	assert.Equal(t, 2, d.NumProperties())
	assert.Equal(t, []string{"price", "visible"}, d.PropertyNames())
	_, ok := d.PropertyTexture("visible")
	require.True(t, ok)
	assert.Equal(t, before.Textures+1, dev.Stats().Textures)
	assert.Equal(t, before.Buffers, dev.Stats().Buffers, "geometry is not re-uploaded")
	after, _, _ := d.Buffers()
	assert.Equal(t, vertices, after)

	got, err := d.FeaturesAtPosition(orb.Point{0, 0}, testViz(t, md, style.WithFilter(expr.Prop("visible"))))
	require.NoError(t, err)
	assert.Empty(t, got, "the new property is visible to queries")

	old, _ := d.PropertyTexture("price")
	require.NoError(t, d.AddProperties(map[string][]float32{"price": {9}}))
	assert.Equal(t, 1, dev.Releases(uint64(old)), "the replaced texture is released")
	assert.Equal(t, 2, d.NumProperties())
	price, _ := d.Property("price")
	assert.Equal(t, []float32{9}, price)

	err = d.AddProperties(map[string][]float32{"price": {1, 2}})
	assert.ErrorIs(t, err, ErrPropertyLength)
}

func TestAddPropertiesBeforeBind(t *testing.T) {
	d, err := New(Config{Type: geometry.Point, Scale: 1, Geometries: []orb.Geometry{orb.Point{0, 0}}})
	require.NoError(t, err)
	require.NoError(t, d.AddProperties(map[string][]float32{"price": {5}}))
	_, ok := d.PropertyTexture("price")
	assert.False(t, ok, "uploaded on bind")

	s, _ := testSession(t)
	require.NoError(t, d.Bind(s))
	_, ok = d.PropertyTexture("price")
	assert.True(t, ok)
}

func TestBindProgram(t *testing.T) {
	d, dev := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"price": {1}},
	})
	p, err := dev.CreateProgram("style", []uint32{1})
	require.NoError(t, err)

	require.NoError(t, d.BindProgram(p, []shader.PropertyBinding{{Name: "price", ID: 0}}))
	price, _ := d.PropertyTexture("price")
	got, ok := dev.BoundTexture(p, shader.Property(0))
	require.True(t, ok)
	assert.Equal(t, price, got)
	got, ok = dev.BoundTexture(p, "style_filter")
	require.True(t, ok)
	assert.Equal(t, d.StyleTexture(StyleFilter), got)

	err = d.BindProgram(p, []shader.PropertyBinding{{Name: "kind", ID: 1}})
	assert.ErrorIs(t, err, ErrMissingProperty)
}

func TestHotUpdateRebindsPrograms(t *testing.T) {
	d, dev := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}},
		Properties: map[string][]float32{"price": {1}},
	})
	p, err := dev.CreateProgram("style", []uint32{1})
	require.NoError(t, err)
	q, err := dev.CreateProgram("other", []uint32{2})
	require.NoError(t, err)
	require.NoError(t, d.BindProgram(p, []shader.PropertyBinding{{Name: "price", ID: 2}}))
	require.NoError(t, d.BindProgram(q, []shader.PropertyBinding{{Name: "price", ID: 0}}))

	old, _ := d.PropertyTexture("price")
	require.NoError(t, d.AddProperties(map[string][]float32{"price": {7}}))
	price, _ := d.PropertyTexture("price")
	require.NotEqual(t, old, price)

	got, ok := dev.BoundTexture(p, shader.Property(2))
	require.True(t, ok)
	assert.Equal(t, price, got, "the program samples the new texture")
	got, ok = dev.BoundTexture(q, shader.Property(0))
	require.True(t, ok)
	assert.Equal(t, price, got)

	d.ReleaseProgram(q)
	require.NoError(t, d.AddProperties(map[string][]float32{"price": {8}}))
	latest, _ := d.PropertyTexture("price")
	got, _ = dev.BoundTexture(p, shader.Property(2))
	assert.Equal(t, latest, got)
	got, _ = dev.BoundTexture(q, shader.Property(0))
	assert.Equal(t, price, got, "released programs are left alone")
}

func TestFree(t *testing.T) {
	calls := 0
	d, dev := bound(t, Config{
		Type:       geometry.Line,
		Geometries: []orb.Geometry{orb.LineString{{0, 0}, {10, 0}}},
		Properties: map[string][]float32{"price": {1}},
	}, WithFreeObserver(func(*Dataframe) { calls++ }))
	require.NoError(t, d.AddProperties(map[string][]float32{"price": {2}}))

	vertices, ids, normals := d.Buffers()
	price, _ := d.PropertyTexture("price")
	color := d.StyleTexture(StyleColor)

	d.Free()
	d.Free()

	assert.True(t, d.Freed())
	assert.Equal(t, 1, calls)
	for _, id := range []uint64{uint64(vertices), uint64(ids), uint64(normals), uint64(price), uint64(color)} {
		assert.Equal(t, 1, dev.Releases(id), "resource %d", id)
	}
	st := dev.Stats()
	assert.Zero(t, st.Buffers)
	assert.Zero(t, st.Textures)
	assert.Zero(t, st.DoubleFrees)

	s, _ := testSession(t)
	assert.ErrorIs(t, d.Bind(s), ErrFreed)
	assert.ErrorIs(t, d.AddProperties(map[string][]float32{"price": {3}}), ErrFreed)
	_, err := d.FeaturesAtPosition(orb.Point{}, stubStyler{filter: 1})
	assert.ErrorIs(t, err, ErrFreed)
	_, err = d.InViewport(0, 1, orb.Point{}, 1)
	assert.ErrorIs(t, err, ErrFreed)
}

func TestUnbound(t *testing.T) {
	d, err := New(Config{Type: geometry.Point, Scale: 1, Geometries: []orb.Geometry{orb.Point{0, 0}}})
	require.NoError(t, err)
	_, err = d.FeaturesAtPosition(orb.Point{}, stubStyler{filter: 1})
	assert.ErrorIs(t, err, ErrNotBound)
	assert.ErrorIs(t, d.BindProgram(1, nil), ErrNotBound)

	d.Free()
	assert.True(t, d.Freed(), "an unbound Dataframe can be freed")
}

func TestInViewport(t *testing.T) {
	points, err := New(Config{
		Type: geometry.Point, Scale: 1,
		Geometries: []orb.Geometry{orb.Point{0, 0}, orb.Point{5, 0}, orb.Point{1, 0}},
	})
	require.NoError(t, err)

	in, err := points.InViewport(0, 1, orb.Point{0, 0}, 1)
	require.NoError(t, err)
	assert.True(t, in)
	in, err = points.InViewport(1, 1, orb.Point{0, 0}, 1)
	require.NoError(t, err)
	assert.False(t, in)
	in, err = points.InViewport(2, 1, orb.Point{0, 0}, 1)
	require.NoError(t, err)
	assert.False(t, in, "the viewport edge is outside")
	in, err = points.InViewport(1, 1, orb.Point{0, 0}, 6)
	require.NoError(t, err)
	assert.True(t, in, "aspect widens the viewport")

	_, err = points.InViewport(3, 1, orb.Point{}, 1)
	assert.Error(t, err)

	visible, err := points.VisibleFeatures(0.5, orb.Point{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, visible.ToArray())

	lines, err := New(Config{
		Center: orb.Point{10, 0}, Scale: 2, Type: geometry.Line,
		Geometries: []orb.Geometry{
			orb.LineString{{0, 0}, {5, 0}},
			orb.LineString{{20, 20}, {30, 20}},
		},
	})
	require.NoError(t, err)
	visible, err = lines.VisibleFeatures(0.1, orb.Point{10, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, visible.ToArray())

	b := lines.Viewport(0.1, orb.Point{10, 0}, 1)
	assert.Equal(t, orb.Bound{Min: orb.Point{-5, -5}, Max: orb.Point{5, 5}}, b)
}

// fixedDecoder returns precomputed geometry without outlines.
type fixedDecoder struct {
	decoded *geometry.Decoded
}

func (f fixedDecoder) Decode(geometry.Type, []orb.Geometry) (*geometry.Decoded, error) {
	d := *f.decoded
	d.Outlines = nil
	return &d, nil
}

func TestInViewportWithoutDecoderOutlines(t *testing.T) {
	geoms := []orb.Geometry{
		orb.LineString{{0, 0}, {5, 0}},
		orb.LineString{{20, 20}, {30, 20}},
	}
	decoded, err := geometry.OrbDecoder{}.Decode(geometry.Line, geoms)
	require.NoError(t, err)
	dec := WithDecoder(fixedDecoder{decoded: decoded})

	t.Run("from geometries", func(t *testing.T) {
		lines, err := New(Config{Center: orb.Point{10, 0}, Scale: 2, Type: geometry.Line, Geometries: geoms}, dec)
		require.NoError(t, err)
		visible, err := lines.VisibleFeatures(0.1, orb.Point{10, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0}, visible.ToArray())
	})
	t.Run("from vertex runs", func(t *testing.T) {
		lines, err := New(Config{Center: orb.Point{10, 0}, Scale: 2, Type: geometry.Line}, dec)
		require.NoError(t, err)
		in, err := lines.InViewport(0, 0.1, orb.Point{10, 0}, 1)
		require.NoError(t, err)
		assert.True(t, in)
		in, err = lines.InViewport(1, 0.1, orb.Point{10, 0}, 1)
		require.NoError(t, err)
		assert.False(t, in)
	})
}

func TestAddRecord(t *testing.T) {
	md := testMetadata()
	d, _ := bound(t, Config{
		Type:       geometry.Point,
		Geometries: []orb.Geometry{orb.Point{0, 0}, orb.Point{10, 0}},
		Metadata:   md,
	})

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "cartodb_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "price", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "kind", Type: arrow.BinaryTypes.String},
		{Name: "period_start", Type: arrow.FixedWidthTypes.Timestamp_ms},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{10, 11}, nil)
	b.Field(1).(*array.Float64Builder).AppendValues([]float64{1.5, 0}, []bool{true, false})
	b.Field(2).(*array.StringBuilder).AppendValues([]string{"b", "c"}, nil)
	start, err := arrow.TimestampFromTime(epoch.Add(time.Second), arrow.Millisecond)
	require.NoError(t, err)
	b.Field(3).(*array.TimestampBuilder).AppendValues([]arrow.Timestamp{start, start}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	require.NoError(t, d.AddRecord(rec))
	assert.Equal(t, 4, d.NumProperties())

	price, _ := d.Property("price")
	assert.Equal(t, []float32{1.5, float32(codec.DesignatedNull)}, price)
	kind, _ := d.Property("kind")
	assert.Equal(t, []float32{1, 2}, kind, "c is categorized on first sight")
	cats, err := md.Stats("kind")
	require.NoError(t, err)
	assert.Len(t, cats.Categories, 3)
	period, _ := d.Property("period_start")
	assert.Equal(t, []float32{1000, 1000}, period)

	got, err := d.FeaturesAtPosition(orb.Point{10, 0}, stubStyler{width: 2, filter: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11.0, got[0].ID)
	assert.Equal(t, "c", got[0].Properties["kind"])
}

func TestAddRecordErrors(t *testing.T) {
	md := testMetadata()
	d, err := New(Config{Type: geometry.Point, Scale: 1, Geometries: []orb.Geometry{orb.Point{0, 0}}, Metadata: md})
	require.NoError(t, err)

	mem := memory.NewGoAllocator()
	build := func(field arrow.Field, fill func(array.Builder)) arrow.Record {
		b := array.NewRecordBuilder(mem, arrow.NewSchema([]arrow.Field{field}, nil))
		defer b.Release()
		fill(b.Field(0))
		return b.NewRecord()
	}

	unknown := build(arrow.Field{Name: "height", Type: arrow.PrimitiveTypes.Float64}, func(b array.Builder) {
		b.(*array.Float64Builder).Append(1)
	})
	defer unknown.Release()
	assert.ErrorIs(t, d.AddRecord(unknown), metadata.ErrUnknownProperty)

	rows := build(arrow.Field{Name: "price", Type: arrow.PrimitiveTypes.Float64}, func(b array.Builder) {
		b.(*array.Float64Builder).AppendValues([]float64{1, 2}, nil)
	})
	defer rows.Release()
	assert.ErrorIs(t, d.AddRecord(rows), ErrPropertyLength)

	binary := build(arrow.Field{Name: "price", Type: arrow.BinaryTypes.Binary}, func(b array.Builder) {
		b.(*array.BinaryBuilder).Append([]byte{1})
	})
	defer binary.Release()
	assert.ErrorIs(t, d.AddRecord(binary), ErrUnsupportedColumn)
}

func TestGeometriesFromRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{{Name: "geom", Type: arrow.BinaryTypes.Binary}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for _, p := range []orb.Point{{1, 2}, {3, 4}} {
		raw, err := wkb.Marshal(p)
		require.NoError(t, err)
		b.Field(0).(*array.BinaryBuilder).Append(raw)
	}
	rec := b.NewRecord()
	defer rec.Release()

	geoms, err := GeometriesFromRecord(rec, "geom")
	require.NoError(t, err)
	assert.Equal(t, []orb.Geometry{orb.Point{1, 2}, orb.Point{3, 4}}, geoms)

	d, err := New(Config{Type: geometry.Point, Scale: 1, Geometries: geoms})
	require.NoError(t, err)
	assert.Equal(t, 2, d.NumFeatures())

	_, err = GeometriesFromRecord(rec, "wkb")
	assert.Error(t, err)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dataframe

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"

	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/style"
)

const (
	// maxPointDiameter caps the on-screen point size, in pixels.
	maxPointDiameter = 126
	// maxStrokeWidth caps the on-screen line and stroke width, in pixels.
	maxStrokeWidth = 336
	// filterThreshold is the lowest filter value that keeps a feature.
	filterThreshold = 0.5
)

// Styler evaluates the styling expressions of a layer for one feature.
// *style.Viz implements it.
type Styler interface {
	EvalNumber(p style.Property, f expr.Feature) (float64, error)
	SymbolIsDefault() bool
	SymbolPlacement() (x, y float64, err error)
}

var _ Styler = (*style.Viz)(nil)

// Feature is one pick result.
type Feature struct {
	// ID is the value of the ID property, or 0 when the Dataframe has none.
	ID float64
	// Properties maps the other property names to their values. Category
	// properties hold the category name, the rest their internal value.
	Properties map[string]any
}

// FeaturesAtPosition returns the features under a world position, in
// feature order. Points are hit within their styled radius; lines and
// polygons within their extruded stroke triangles.
func (d *Dataframe) FeaturesAtPosition(pos orb.Point, s Styler) ([]Feature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return nil, ErrFreed
	}
	if d.session == nil {
		return nil, ErrNotBound
	}

	p := d.toLocal(pos)
	switch d.typ {
	case geometry.Point:
		return d.pointsAt(p, s)
	case geometry.Line:
		return d.trianglesAt(p, s, style.Width)
	case geometry.Polygon:
		return d.trianglesAt(p, s, style.StrokeWidth)
	}
	return nil, nil
}

// toLocal maps a world position into the Dataframe's local space.
func (d *Dataframe) toLocal(p orb.Point) orb.Point {
	return orb.Point{(p[0] - d.center[0]) / d.scale, (p[1] - d.center[1]) / d.scale}
}

// widthScale is the local length of one pixel. The viewport spans [-1, 1]
// vertically.
func (d *Dataframe) widthScale() float64 {
	_, h := d.session.Canvas()
	return (2 / float64(h)) / d.scale * d.session.Zoom()
}

func (d *Dataframe) pointsAt(p orb.Point, s Styler) ([]Feature, error) {
	widthScale := d.widthScale()
	var offX, offY float64
	offset := !s.SymbolIsDefault()
	if offset {
		var err error
		if offX, offY, err = s.SymbolPlacement(); err != nil {
			return nil, err
		}
	}

	var out []Feature
	vertices := d.decoded.Vertices
	for i := range d.numFeatures {
		f := d.feature(i)
		keep, err := d.kept(s, f)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		w, err := s.EvalNumber(style.Width, f)
		if err != nil {
			return nil, err
		}
		sw, err := s.EvalNumber(style.StrokeWidth, f)
		if err != nil {
			return nil, err
		}
		// width and strokeWidth are diameters.
		r := min(w+sw, maxPointDiameter) / 2 * widthScale
		c := orb.Point{float64(vertices[2*i]), float64(vertices[2*i+1])}
		if offset {
			c[0] += offX * r
			c[1] += offY * r
		}
		if geometry.PointInCircle(p, c, r) {
			out = append(out, d.userFeature(i))
		}
	}
	return out, nil
}

// trianglesAt scans the stroke triangles, six floats each. The half
// thickness is recomputed only when the scan crosses a breakpoint.
func (d *Dataframe) trianglesAt(p orb.Point, s Styler, width style.Property) ([]Feature, error) {
	widthScale := d.widthScale()
	v, n, bp := d.decoded.Vertices, d.decoded.Normals, d.decoded.Breakpoints

	var out []Feature
	feature := -1
	var half float64
	for i := 0; i+6 <= len(v); i += 6 {
		if feature < 0 || i >= bp[feature] {
			feature++
			for feature < len(bp) && i >= bp[feature] {
				feature++
			}
			if feature >= len(bp) {
				break
			}
			f := d.feature(feature)
			keep, err := d.kept(s, f)
			if err != nil {
				return nil, err
			}
			if !keep {
				i = bp[feature] - 6
				continue
			}
			w, err := s.EvalNumber(width, f)
			if err != nil {
				return nil, err
			}
			half = min(w, maxStrokeWidth) / 2 * widthScale
		}

		var tri [3]orb.Point
		for k := range tri {
			j := i + 2*k
			tri[k] = orb.Point{
				float64(v[j]) + float64(n[j])*half,
				float64(v[j+1]) + float64(n[j+1])*half,
			}
		}
		if geometry.PointInTriangle(p, tri[0], tri[1], tri[2]) {
			out = append(out, d.userFeature(feature))
			i = bp[feature] - 6
		}
	}
	return out, nil
}

func (d *Dataframe) kept(s Styler, f expr.Feature) (bool, error) {
	v, err := s.EvalNumber(style.Filter, f)
	if err != nil {
		return false, fmt.Errorf("dataframe: filter: %w", err)
	}
	return v >= filterThreshold, nil
}

// feature returns the internal property values of feature i.
func (d *Dataframe) feature(i int) expr.Feature {
	f := make(expr.Feature, len(d.properties))
	for name, values := range d.properties {
		f[name] = float64(values[i])
	}
	return f
}

func (d *Dataframe) userFeature(i int) Feature {
	out := Feature{Properties: make(map[string]any, len(d.properties))}
	for name, values := range d.properties {
		v := float64(values[i])
		if name == d.idProperty {
			out.ID = v
			continue
		}
		out.Properties[name] = d.external(name, v)
	}
	return out
}

func (d *Dataframe) external(name string, v float64) any {
	if d.md == nil {
		return v
	}
	if p, ok := d.md.Property(name); ok && p.Type == metadata.Category {
		if c, ok := d.md.CategoryName(int(v)); ok {
			return c
		}
	}
	return v
}

// Viewport returns the local-space rectangle seen by a camera at world
// center with the given scale and aspect. It uses the transform of
// FeaturesAtPosition.
func (d *Dataframe) Viewport(scale float64, center orb.Point, aspect float64) orb.Bound {
	halfW := aspect / scale
	halfH := 1 / scale
	lo := d.toLocal(orb.Point{center[0] - halfW, center[1] - halfH})
	hi := d.toLocal(orb.Point{center[0] + halfW, center[1] + halfH})
	return orb.Bound{Min: lo, Max: hi}
}

// InViewport reports whether feature idx is visible. Points are tested
// against the open viewport rectangle; lines and polygons collide their
// outline with it.
func (d *Dataframe) InViewport(idx int, scale float64, center orb.Point, aspect float64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return false, ErrFreed
	}
	if idx < 0 || idx >= d.numFeatures {
		return false, fmt.Errorf("dataframe: feature %d out of range [0, %d)", idx, d.numFeatures)
	}
	return d.inViewport(idx, d.Viewport(scale, center, aspect), nil), nil
}

// VisibleFeatures returns the indices of the features in the viewport.
func (d *Dataframe) VisibleFeatures(scale float64, center orb.Point, aspect float64) (*roaring.Bitmap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return nil, ErrFreed
	}
	b := d.Viewport(scale, center, aspect)
	ring := b.ToRing()
	visible := roaring.New()
	for i := range d.numFeatures {
		if d.inViewport(i, b, ring) {
			visible.Add(uint32(i))
		}
	}
	return visible, nil
}

func (d *Dataframe) inViewport(i int, b orb.Bound, ring orb.Ring) bool {
	if d.typ == geometry.Point {
		x, y := float64(d.decoded.Vertices[2*i]), float64(d.decoded.Vertices[2*i+1])
		return x > b.Min[0] && x < b.Max[0] && y > b.Min[1] && y < b.Max[1]
	}
	if i >= len(d.outlines) || len(d.outlines[i]) == 0 {
		return false
	}
	if ring == nil {
		ring = b.ToRing()
	}
	return geometry.Collides(d.outlines[i], ring)
}

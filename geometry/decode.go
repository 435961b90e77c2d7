// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// OrbDecoder is the default Decoder.
//
//   - Point features are orb.Point, one vertex each.
//   - Line features are orb.LineString or orb.MultiLineString; every
//     segment becomes two triangles extruded along its normal.
//   - Polygon features are orb.Polygon or orb.MultiPolygon; exterior rings
//     are ear-clipped into fill triangles with zero normals, followed by
//     the stroke triangles of every ring.
type OrbDecoder struct{}

var _ Decoder = OrbDecoder{}

func (OrbDecoder) Decode(t Type, geoms []orb.Geometry) (*Decoded, error) {
	d := &Decoded{}
	if t == Point {
		d.Vertices = make([]float32, 0, 2*len(geoms))
		for i, g := range geoms {
			p, ok := g.(orb.Point)
			if !ok {
				return nil, typeError(t, i, g)
			}
			d.Vertices = append(d.Vertices, float32(p[0]), float32(p[1]))
		}
		return d, nil
	}

	d.Breakpoints = make([]int, 0, len(geoms))
	d.Outlines = make([]orb.Ring, 0, len(geoms))
	for i, g := range geoms {
		var err error
		switch t {
		case Line:
			err = d.addLine(i, g)
		case Polygon:
			err = d.addPolygon(i, g)
		default:
			err = typeError(t, i, g)
		}
		if err != nil {
			return nil, err
		}
		d.Breakpoints = append(d.Breakpoints, len(d.Vertices))
	}
	return d, nil
}

func typeError(t Type, i int, g orb.Geometry) error {
	name := "nil"
	if g != nil {
		name = g.GeoJSONType()
	}
	return &GeometryTypeError{Type: t, Index: i, Geometry: name}
}

func (d *Decoded) addLine(i int, g orb.Geometry) error {
	var lines orb.MultiLineString
	switch x := g.(type) {
	case orb.LineString:
		lines = orb.MultiLineString{x}
	case orb.MultiLineString:
		lines = x
	default:
		return typeError(Line, i, g)
	}
	for _, ls := range lines {
		d.addStroke(ls)
	}
	d.Outlines = append(d.Outlines, Outline(lines))
	return nil
}

func (d *Decoded) addPolygon(i int, g orb.Geometry) error {
	var polys orb.MultiPolygon
	switch x := g.(type) {
	case orb.Polygon:
		polys = orb.MultiPolygon{x}
	case orb.MultiPolygon:
		polys = x
	default:
		return typeError(Polygon, i, g)
	}
	for _, poly := range polys {
		if len(poly) == 0 {
			continue
		}
		for _, tri := range Triangulate(poly[0]) {
			for _, p := range tri {
				d.Vertices = append(d.Vertices, float32(p[0]), float32(p[1]))
				d.Normals = append(d.Normals, 0, 0)
			}
		}
	}
	for _, poly := range polys {
		for _, ring := range poly {
			d.addStroke(orb.LineString(ring))
		}
	}
	d.Outlines = append(d.Outlines, Outline(polys))
	return nil
}

// addStroke appends two triangles per segment of ls. Zero-length segments
// are skipped.
func (d *Decoded) addStroke(ls orb.LineString) {
	for k := 1; k < len(ls); k++ {
		a, b := ls[k-1], ls[k]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := float32(-dy/l), float32(dx/l)
		ax, ay := float32(a[0]), float32(a[1])
		bx, by := float32(b[0]), float32(b[1])
		d.Vertices = append(d.Vertices,
			ax, ay, ax, ay, bx, by,
			bx, by, ax, ay, bx, by,
		)
		d.Normals = append(d.Normals,
			nx, ny, -nx, -ny, nx, ny,
			nx, ny, -nx, -ny, -nx, -ny,
		)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import "github.com/paulmach/orb"

// Outline returns the culling outline of a line or polygon geometry: the
// joined vertices of its lines, the exterior ring of a single polygon, or
// the bounding ring of anything else. It returns nil for nil.
func Outline(g orb.Geometry) orb.Ring {
	switch x := g.(type) {
	case nil:
		return nil
	case orb.LineString:
		return orb.Ring(x)
	case orb.MultiLineString:
		var r orb.Ring
		for _, ls := range x {
			r = append(r, ls...)
		}
		return r
	case orb.Polygon:
		if len(x) > 0 {
			return x[0]
		}
	case orb.MultiPolygon:
		if len(x) == 1 && len(x[0]) > 0 {
			return x[0][0]
		}
	}
	return g.Bound().ToRing()
}

// RunOutlines returns the bounding ring of each feature's vertex run, for
// decoded geometry whose raw features are unknown. Empty runs get a nil
// outline.
func RunOutlines(d *Decoded) []orb.Ring {
	out := make([]orb.Ring, len(d.Breakpoints))
	start := 0
	for f, end := range d.Breakpoints {
		end = min(end, len(d.Vertices))
		if end-start >= 2 {
			p := orb.Point{float64(d.Vertices[start]), float64(d.Vertices[start+1])}
			b := orb.Bound{Min: p, Max: p}
			for j := start + 2; j+1 < end; j += 2 {
				b = b.Extend(orb.Point{float64(d.Vertices[j]), float64(d.Vertices[j+1])})
			}
			out[f] = b.ToRing()
		}
		start = max(start, end)
	}
	return out
}

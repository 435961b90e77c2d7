// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointInTriangle reports whether p lies inside triangle abc or on one of
// its edges. Either winding is accepted. Zero-area triangles, with two
// coincident or three collinear vertices, never contain anything.
func PointInTriangle(p, a, b, c orb.Point) bool {
	if a == b || b == c || c == a || halfPlane(c, a, b) == 0 {
		return false
	}
	d1, d2, d3 := halfPlane(p, a, b), halfPlane(p, b, c), halfPlane(p, c, a)
	// A zero sign agrees with either side.
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// halfPlane is negative, zero or positive as p lies on one side of line
// ab, on it, or on the other side.
func halfPlane(p, a, b orb.Point) float64 {
	return (p[0]-b[0])*(a[1]-b[1]) - (a[0]-b[0])*(p[1]-b[1])
}

// PointInCircle reports whether p lies in the closed disk of radius r
// around c.
func PointInCircle(p, c orb.Point, r float64) bool {
	dx, dy := p[0]-c[0], p[1]-c[1]
	return dx*dx+dy*dy <= r*r
}

// Collides reports whether two rings overlap: one contains a vertex of the
// other, or their edges cross. Rings need not be closed or convex.
func Collides(a, b orb.Ring) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	if contains(a, b[0]) || contains(b, a[0]) {
		return true
	}
	for i := range a {
		a0, a1 := a[i], a[(i+1)%len(a)]
		for j := range b {
			if segmentsIntersect(a0, a1, b[j], b[(j+1)%len(b)]) {
				return true
			}
		}
	}
	return false
}

func contains(r orb.Ring, p orb.Point) bool {
	if len(r) < 3 {
		return false
	}
	if r[0] != r[len(r)-1] {
		r = append(r[:len(r):len(r)], r[0])
	}
	return planar.RingContains(r, p)
}

// segmentsIntersect reports whether segments pq and rs share a point.
func segmentsIntersect(p, q, r, s orb.Point) bool {
	d1 := halfPlane(r, p, q)
	d2 := halfPlane(s, p, q)
	d3 := halfPlane(p, r, s)
	d4 := halfPlane(q, r, s)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(r, p, q)) || (d2 == 0 && onSegment(s, p, q)) ||
		(d3 == 0 && onSegment(p, r, s)) || (d4 == 0 && onSegment(q, r, s))
}

// onSegment reports whether p, known to be collinear with ab, lies within
// its bounding box.
func onSegment(p, a, b orb.Point) bool {
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import (
	"slices"

	"github.com/paulmach/orb"
)

// Triangulate ear-clips a simple ring into counter-clockwise triangles.
// Rings with fewer than three distinct vertices yield nothing.
func Triangulate(r orb.Ring) [][3]orb.Point {
	pts := openRing(r)
	if len(pts) < 3 {
		return nil
	}
	closed := append(orb.Ring(slices.Clone(pts)), pts[0])
	if closed.Orientation() == orb.CW {
		slices.Reverse(pts)
	}

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	out := make([][3]orb.Point, 0, len(pts)-2)
	for len(idx) > 3 {
		ear := findEar(pts, idx)
		if ear < 0 {
			// Self-intersecting or degenerate remainder: fan it.
			for k := 1; k+1 < len(idx); k++ {
				out = append(out, [3]orb.Point{pts[idx[0]], pts[idx[k]], pts[idx[k+1]]})
			}
			return out
		}
		n := len(idx)
		out = append(out, [3]orb.Point{pts[idx[(ear+n-1)%n]], pts[idx[ear]], pts[idx[(ear+1)%n]]})
		idx = slices.Delete(idx, ear, ear+1)
	}
	return append(out, [3]orb.Point{pts[idx[0]], pts[idx[1]], pts[idx[2]]})
}

// findEar returns the position in idx of a convex vertex whose triangle
// holds no other remaining vertex, or -1.
func findEar(pts []orb.Point, idx []int) int {
	n := len(idx)
	for i := range idx {
		a, b, c := pts[idx[(i+n-1)%n]], pts[idx[i]], pts[idx[(i+1)%n]]
		if cross(a, b, c) <= 0 {
			continue
		}
		ear := true
		for k, j := range idx {
			if k == i || k == (i+n-1)%n || k == (i+1)%n {
				continue
			}
			if PointInTriangle(pts[j], a, b, c) {
				ear = false
				break
			}
		}
		if ear {
			return i
		}
	}
	return -1
}

// openRing drops the closing point and consecutive duplicates.
func openRing(r orb.Ring) []orb.Point {
	out := make([]orb.Point, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// cross is the z component of (b - a) x (c - b).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}

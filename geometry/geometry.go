// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geometry turns feature geometries into the flat, GPU-ready
// vertex runs a dataframe draws and hit-tests.
//
// Vertex runs are in dataframe-local space. Lines and polygon outlines
// are pre-triangulated as static triangles whose vertices carry an
// extrusion normal: the drawn vertex is position + normal * halfWidth.
package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Type is the geometry type shared by every feature of a dataframe.
type Type uint8

const (
	Point Type = iota
	Line
	Polygon
)

func (t Type) String() string {
	switch t {
	case Point:
		return "point"
	case Line:
		return "line"
	case Polygon:
		return "polygon"
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType parses the names produced by Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "point":
		return Point, nil
	case "line":
		return Line, nil
	case "polygon":
		return Polygon, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrGeometryType, s)
}

// ErrGeometryType matches every *GeometryTypeError.
var ErrGeometryType = errors.New("geometry: unsupported geometry type")

// GeometryTypeError reports a feature geometry the decoder cannot turn into
// vertices of the dataframe type.
type GeometryTypeError struct {
	Type     Type
	Index    int
	Geometry string
}

func (e *GeometryTypeError) Error() string {
	return fmt.Sprintf("geometry: feature %d: cannot decode %s as %s", e.Index, e.Geometry, e.Type)
}

func (e *GeometryTypeError) Is(target error) bool { return target == ErrGeometryType }

// Decoded is the vertex form of a batch of features.
type Decoded struct {
	// Vertices holds x, y pairs.
	Vertices []float32

	// Normals holds one extrusion direction per vertex. It is nil for
	// points.
	Normals []float32

	// Breakpoints holds, per feature, the index into Vertices where the
	// feature's run ends. It is nil for points, which have one vertex per
	// feature.
	Breakpoints []int

	// Outlines approximates each line or polygon feature for viewport
	// culling. It is nil for points, and decoders may leave it nil.
	Outlines []orb.Ring
}

// NumVertex returns the number of vertices.
func (d *Decoded) NumVertex() int { return len(d.Vertices) / 2 }

// NumFeatures returns the number of features.
func (d *Decoded) NumFeatures() int {
	if d.Breakpoints == nil {
		return d.NumVertex()
	}
	return len(d.Breakpoints)
}

// Decoder converts raw feature geometries to vertex form.
type Decoder interface {
	Decode(t Type, geoms []orb.Geometry) (*Decoded, error)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package dataframe holds one batch of decoded features: its GPU buffers and
// per-feature textures, hot property updates, and the pick and viewport
// queries that evaluate the active style on the CPU.
package dataframe

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/gogpu/viz"
	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

var (
	// ErrFreed is returned by every operation on a freed Dataframe.
	ErrFreed = errors.New("dataframe: freed")

	// ErrAlreadyBound is returned by a second Bind.
	ErrAlreadyBound = errors.New("dataframe: already bound")

	// ErrNotBound is returned by operations that need a render session.
	ErrNotBound = errors.New("dataframe: not bound")

	// ErrInvalidScale is returned by New for a non-positive scale.
	ErrInvalidScale = errors.New("dataframe: scale must be positive")

	// ErrPropertyLength is returned for property arrays whose length is
	// not the feature count.
	ErrPropertyLength = errors.New("dataframe: property length mismatch")

	// ErrMissingProperty is returned when a program reads a property the
	// Dataframe does not hold.
	ErrMissingProperty = errors.New("dataframe: missing property")
)

// StyleTarget is one of the per-feature textures written by the style pass.
type StyleTarget int

const (
	StyleColor StyleTarget = iota
	StyleWidth
	StyleStrokeColor
	StyleStrokeWidth
	StyleFilter

	numStyleTargets
)

// String returns the WGSL binding name of the target.
func (t StyleTarget) String() string {
	switch t {
	case StyleColor:
		return "style_color"
	case StyleWidth:
		return "style_width"
	case StyleStrokeColor:
		return "style_stroke_color"
	case StyleStrokeWidth:
		return "style_stroke_width"
	case StyleFilter:
		return "style_filter"
	}
	return fmt.Sprintf("StyleTarget(%d)", int(t))
}

// Dataframe is one batch of features sharing a geometry type.
//
// A Dataframe is created unbound, attached to a render session once with
// Bind and released with Free. Property updates and queries may come from
// different goroutines; a single mutex serializes them.
type Dataframe struct {
	mu sync.Mutex

	id         uuid.UUID
	center     orb.Point
	scale      float64
	typ        geometry.Type
	decoded    *geometry.Decoded
	outlines   []orb.Ring
	properties map[string][]float32
	md         *metadata.Metadata
	idProperty string
	observer   func(*Dataframe)

	numFeatures int
	numVertex   int

	session         *gpu.Session
	gridW, gridH    int
	vertexBuffer    gpu.BufferID
	featureIDBuffer gpu.BufferID
	normalBuffer    gpu.BufferID
	styleTex        [numStyleTargets]gpu.TextureID
	propertyTex     map[string]gpu.TextureID
	programs        map[gpu.ProgramID][]shader.PropertyBinding

	freed bool
}

// New decodes cfg.Geometries and returns an unbound Dataframe.
func New(cfg Config, opts ...Option) (*Dataframe, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !(cfg.Scale > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, cfg.Scale)
	}
	decoded, err := o.decoder.Decode(cfg.Type, cfg.Geometries)
	if err != nil {
		return nil, fmt.Errorf("dataframe: decode: %w", err)
	}

	d := &Dataframe{
		id:          uuid.New(),
		center:      cfg.Center,
		scale:       cfg.Scale,
		typ:         cfg.Type,
		decoded:     decoded,
		properties:  make(map[string][]float32, len(cfg.Properties)),
		md:          cfg.Metadata,
		idProperty:  o.idProperty,
		observer:    o.freeObserver,
		numVertex:   decoded.NumVertex(),
		propertyTex: make(map[string]gpu.TextureID),
		programs:    make(map[gpu.ProgramID][]shader.PropertyBinding),
	}
	// Point batches have an implicit breakpoint per vertex.
	switch {
	case cfg.Type == geometry.Point:
		d.numFeatures = d.numVertex
	case len(decoded.Breakpoints) > 0:
		d.numFeatures = len(decoded.Breakpoints)
	default:
		d.numFeatures = d.numVertex
	}

	if cfg.Type != geometry.Point {
		d.outlines = outlines(decoded, cfg.Geometries, d.numFeatures)
	}

	for name, values := range cfg.Properties {
		if err := d.checkLength(name, values); err != nil {
			return nil, err
		}
		d.properties[name] = slices.Clone(values)
	}
	return d, nil
}

// outlines prefers the decoder's outlines, then the raw geometries, then
// the bounds of each vertex run.
func outlines(decoded *geometry.Decoded, geoms []orb.Geometry, n int) []orb.Ring {
	switch {
	case len(decoded.Outlines) == n:
		return decoded.Outlines
	case len(geoms) == n:
		out := make([]orb.Ring, n)
		for i, g := range geoms {
			out[i] = geometry.Outline(g)
		}
		return out
	}
	return geometry.RunOutlines(decoded)
}

// ID returns the identity of the Dataframe, used in logs.
func (d *Dataframe) ID() uuid.UUID { return d.id }

// Type returns the geometry type.
func (d *Dataframe) Type() geometry.Type { return d.typ }

// Center returns the world position of the local origin.
func (d *Dataframe) Center() orb.Point { return d.center }

// Scale returns the local-to-world scale.
func (d *Dataframe) Scale() float64 { return d.scale }

// NumFeatures returns the feature count.
func (d *Dataframe) NumFeatures() int { return d.numFeatures }

// NumVertex returns the vertex count.
func (d *Dataframe) NumVertex() int { return d.numVertex }

// Freed reports whether Free has run.
func (d *Dataframe) Freed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freed
}

// NumProperties returns the number of properties held.
func (d *Dataframe) NumProperties() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.properties)
}

// PropertyNames returns the property names in sorted order.
func (d *Dataframe) PropertyNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.properties))
}

// Property returns a copy of the internal values of a property.
func (d *Dataframe) Property(name string) ([]float32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.properties[name]
	return slices.Clone(v), ok
}

func (d *Dataframe) checkLength(name string, values []float32) error {
	if len(values) != d.numFeatures {
		return fmt.Errorf("%w: %q has %d values for %d features",
			ErrPropertyLength, name, len(values), d.numFeatures)
	}
	return nil
}

// Bind attaches the Dataframe to a render session. It uploads the vertex,
// feature ID and normal buffers, allocates the style textures and uploads
// every property texture, all on the session's lookup grid.
func (d *Dataframe) Bind(s *gpu.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return ErrFreed
	}
	if d.session != nil {
		return ErrAlreadyBound
	}
	if s == nil {
		return ErrNotBound
	}
	d.session = s
	d.gridW, d.gridH = s.GridSize(d.numFeatures)

	if err := d.bindLocked(); err != nil {
		d.releaseLocked()
		d.session = nil
		return err
	}
	viz.Logger().Debug("dataframe: bound",
		"id", d.id, "type", d.typ.String(), "features", d.numFeatures,
		"vertices", d.numVertex, "grid", fmt.Sprintf("%dx%d", d.gridW, d.gridH))
	return nil
}

func (d *Dataframe) bindLocked() error {
	var err error
	label := "dataframe-" + d.id.String()

	d.vertexBuffer, err = d.session.UploadVertexBuffer(label+"-vertices", d.decoded.Vertices)
	if err != nil {
		return fmt.Errorf("dataframe: %w", err)
	}
	ids := featureIDs(d.numVertex, d.decoded.Breakpoints, d.gridW, d.gridH)
	d.featureIDBuffer, err = d.session.UploadVertexBuffer(label+"-ids", ids)
	if err != nil {
		return fmt.Errorf("dataframe: %w", err)
	}
	if d.decoded.Normals != nil {
		d.normalBuffer, err = d.session.UploadVertexBuffer(label+"-normals", d.decoded.Normals)
		if err != nil {
			return fmt.Errorf("dataframe: %w", err)
		}
	}
	for t := range numStyleTargets {
		d.styleTex[t], err = d.session.UploadRGBATexture(label+"-"+t.String(), d.gridW, d.gridH, nil)
		if err != nil {
			return fmt.Errorf("dataframe: %w", err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(d.properties)) {
		if err := d.uploadPropertyLocked(name); err != nil {
			return err
		}
	}
	return nil
}

// featureIDs returns the two-component feature ID of every vertex: the
// column and row of the feature in the lookup grid, each normalized to
// [0, 1]. A single-row grid uses row 0.5.
func featureIDs(numVertex int, breakpoints []int, width, height int) []float32 {
	ids := make([]float32, 2*numVertex)
	index := 0
	for i := 0; i < len(ids); i += 2 {
		if len(breakpoints) == 0 {
			if i > 0 {
				index++
			}
		} else {
			for index < len(breakpoints) && i == breakpoints[index] {
				index++
			}
		}
		if width > 1 {
			ids[i] = float32(float64(index%width) / float64(width-1))
		}
		if height > 1 {
			ids[i+1] = float32(float64(index/width) / float64(height-1))
		} else {
			ids[i+1] = 0.5
		}
	}
	return ids
}

func (d *Dataframe) uploadPropertyLocked(name string) error {
	tex, err := d.session.UploadFloatTexture("dataframe-"+d.id.String()+"-"+name, d.gridW, d.gridH, d.properties[name])
	if err != nil {
		return fmt.Errorf("dataframe: property %q: %w", name, err)
	}
	dev := d.session.Device()
	old, replaced := d.propertyTex[name]
	d.propertyTex[name] = tex
	for p, bindings := range d.programs {
		for _, b := range bindings {
			if b.Name == name {
				dev.BindTexture(p, shader.Property(b.ID), tex)
			}
		}
	}
	if replaced {
		dev.DestroyTexture(old)
	}
	return nil
}

// AddProperties adds or replaces whole property arrays. On a bound
// Dataframe every given property is re-uploaded at once and rebound into
// the programs registered with BindProgram; geometry buffers are untouched.
func (d *Dataframe) AddProperties(props map[string][]float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addPropertiesLocked(props)
}

func (d *Dataframe) addPropertiesLocked(props map[string][]float32) error {
	if d.freed {
		return ErrFreed
	}
	names := slices.Sorted(maps.Keys(props))
	for _, name := range names {
		if err := d.checkLength(name, props[name]); err != nil {
			return err
		}
	}
	for _, name := range names {
		d.properties[name] = slices.Clone(props[name])
		if d.session == nil {
			continue
		}
		if err := d.uploadPropertyLocked(name); err != nil {
			return err
		}
	}
	if d.session != nil {
		viz.Logger().Debug("dataframe: hot update", "id", d.id, "properties", names)
	}
	return nil
}

// GridSize returns the lookup grid of the bound Dataframe.
func (d *Dataframe) GridSize() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gridW, d.gridH
}

// Buffers returns the vertex, feature ID and normal buffers. The normal
// buffer is gpu.InvalidID for points.
func (d *Dataframe) Buffers() (vertices, ids, normals gpu.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vertexBuffer, d.featureIDBuffer, d.normalBuffer
}

// StyleTexture returns the texture of a style target, or gpu.InvalidID
// when unbound.
func (d *Dataframe) StyleTexture(t StyleTarget) gpu.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t < 0 || t >= numStyleTargets {
		return gpu.InvalidID
	}
	return d.styleTex[t]
}

// PropertyTexture returns the texture holding a property.
func (d *Dataframe) PropertyTexture(name string) (gpu.TextureID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.propertyTex[name]
	return t, ok
}

// BindProgram attaches the style targets and the property textures read
// by a style program. bindings maps property names to the texture IDs the
// program was assembled with. The program stays registered, so later hot
// updates rebind its properties, until ReleaseProgram or Free.
func (d *Dataframe) BindProgram(p gpu.ProgramID, bindings []shader.PropertyBinding) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return ErrFreed
	}
	if d.session == nil {
		return ErrNotBound
	}
	dev := d.session.Device()
	for _, b := range bindings {
		tex, ok := d.propertyTex[b.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingProperty, b.Name)
		}
		dev.BindTexture(p, shader.Property(b.ID), tex)
	}
	for t := range numStyleTargets {
		dev.BindTexture(p, t.String(), d.styleTex[t])
	}
	d.programs[p] = slices.Clone(bindings)
	return nil
}

// ReleaseProgram stops rebinding hot updates into p.
func (d *Dataframe) ReleaseProgram(p gpu.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, p)
}

// Free releases every GPU resource exactly once and runs the free
// observer. Later calls do nothing.
func (d *Dataframe) Free() {
	d.mu.Lock()
	if d.freed {
		d.mu.Unlock()
		return
	}
	d.releaseLocked()
	d.freed = true
	d.session = nil
	d.decoded = nil
	d.outlines = nil
	d.properties = nil
	observer := d.observer
	d.observer = nil
	d.mu.Unlock()

	viz.Logger().Debug("dataframe: freed", "id", d.id)
	if observer != nil {
		observer(d)
	}
}

func (d *Dataframe) releaseLocked() {
	if d.session == nil {
		return
	}
	dev := d.session.Device()
	for _, id := range []*gpu.BufferID{&d.vertexBuffer, &d.featureIDBuffer, &d.normalBuffer} {
		if *id != gpu.InvalidID {
			dev.DestroyBuffer(*id)
			*id = gpu.InvalidID
		}
	}
	for t := range d.styleTex {
		if d.styleTex[t] != gpu.InvalidID {
			dev.DestroyTexture(d.styleTex[t])
			d.styleTex[t] = gpu.InvalidID
		}
	}
	for name, tex := range d.propertyTex {
		dev.DestroyTexture(tex)
		delete(d.propertyTex, name)
	}
	clear(d.programs)
}

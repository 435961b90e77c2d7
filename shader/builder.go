// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"
)

// FramePreface declares the frame uniforms shared by every program.
const FramePreface = `struct Frame {
    grid: vec2<f32>,
    center: vec2<f32>,
    scale: vec2<f32>,
    resolution: vec2<f32>,
    time: f32,
    zoom: f32,
};
@group(0) @binding(0) var<uniform> frame: Frame;
`

type function struct {
	name string
	typ  ValueType
	src  Source
}

// Builder assembles a WGSL module. Each expression becomes a function
// fn viz_<name>(fc: vec2<i32>) -> T; Build appends the entry points.
type Builder struct {
	funcs []function
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Function adds the expression src as viz_<name>.
func (b *Builder) Function(name string, typ ValueType, src Source) *Builder {
	b.funcs = append(b.funcs, function{name: name, typ: typ, src: src})
	return b
}

// Build returns the module: frame uniforms, deduplicated expression
// declarations, expression functions and then entry.
func (b *Builder) Build(entry string) string {
	var pre strings.Builder
	for _, f := range b.funcs {
		pre.WriteString(f.src.Preface)
	}

	var sb strings.Builder
	sb.WriteString(FramePreface)
	sb.WriteString(dedupLines(pre.String()))
	for _, f := range b.funcs {
		fmt.Fprintf(&sb, "\nfn viz_%s(fc: vec2<i32>) -> %s {\n    return %s;\n}\n", f.name, f.typ.WGSL(), f.src.Inline)
	}
	if entry != "" {
		sb.WriteString("\n")
		sb.WriteString(entry)
	}
	return sb.String()
}

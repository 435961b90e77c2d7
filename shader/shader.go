// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader assembles WGSL programs from the source fragments emitted
// by style expressions and compiles them with naga.
//
// Bind groups used by generated programs:
//
//	@group(0)  frame uniforms shared by every program
//	@group(1)  expression uniforms (u<N>)
//	@group(2)  per-feature property textures (p<N>)
//	@group(3)  expression lookup textures (t<N>)
//
// Inline expressions may read the feature coordinate fc, a vec2<i32>
// addressing the property texture texel of the current feature.
package shader

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Source is the WGSL emitted by one expression node: module-scope
// declarations and an inline expression.
type Source struct {
	Preface string
	Inline  string
}

// Join concatenates the prefaces of several sources, in order.
func Join(srcs ...Source) string {
	var sb strings.Builder
	for _, s := range srcs {
		sb.WriteString(s.Preface)
	}
	return sb.String()
}

// ValueType is the WGSL type of an inline expression.
type ValueType uint8

const (
	// F32 is a scalar float.
	F32 ValueType = iota
	// Vec4 is an RGBA color.
	Vec4
)

// WGSL returns the WGSL spelling of t.
func (t ValueType) WGSL() string {
	if t == Vec4 {
		return "vec4<f32>"
	}
	return "f32"
}

// PropertyBinding maps a property name to its texture binding.
type PropertyBinding struct {
	Name string
	ID   int
}

// Allocator hands out binding IDs for one compiled program. IDs never
// collide within an allocator. Property textures are shared by name.
type Allocator struct {
	nextUniform int
	nextTexture int
	properties  map[string]int
	order       []string
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{properties: make(map[string]int)}
}

// UniformID allocates a new uniform binding.
func (a *Allocator) UniformID() int {
	id := a.nextUniform
	a.nextUniform++
	return id
}

// TextureID allocates a new lookup texture binding.
func (a *Allocator) TextureID() int {
	id := a.nextTexture
	a.nextTexture++
	return id
}

// PropertyID returns the texture binding of the named property, allocating
// it on first use.
func (a *Allocator) PropertyID(name string) int {
	if id, ok := a.properties[name]; ok {
		return id
	}
	id := len(a.order)
	a.properties[name] = id
	a.order = append(a.order, name)
	return id
}

// Properties returns the property bindings in allocation order.
func (a *Allocator) Properties() []PropertyBinding {
	out := make([]PropertyBinding, len(a.order))
	for i, n := range a.order {
		out[i] = PropertyBinding{Name: n, ID: a.properties[n]}
	}
	return out
}

// NumUniforms returns the number of allocated uniforms.
func (a *Allocator) NumUniforms() int { return a.nextUniform }

// NumTextures returns the number of allocated lookup textures.
func (a *Allocator) NumTextures() int { return a.nextTexture }

// Uniform returns the identifier of uniform id.
func Uniform(id int) string { return "u" + strconv.Itoa(id) }

// Texture returns the identifier of lookup texture id.
func Texture(id int) string { return "t" + strconv.Itoa(id) }

// Property returns the identifier of property texture id.
func Property(id int) string { return "p" + strconv.Itoa(id) }

// UniformDecl declares uniform id of type t.
func UniformDecl(id int, t ValueType) string {
	return fmt.Sprintf("@group(1) @binding(%d) var<uniform> u%d: %s;\n", id, id, t.WGSL())
}

// PropertyDecl declares the texture of property id.
func PropertyDecl(id int) string {
	return fmt.Sprintf("@group(2) @binding(%d) var p%d: texture_2d<f32>;\n", id, id)
}

// PropertyRead reads the current feature's value of property id.
func PropertyRead(id int) string {
	return fmt.Sprintf("textureLoad(p%d, fc, 0).r", id)
}

// TextureDecl declares lookup texture id.
func TextureDecl(id int) string {
	return fmt.Sprintf("@group(3) @binding(%d) var t%d: texture_2d<f32>;\n", id, id)
}

// TextureRead reads texel index (a f32 expression) of the one-row lookup
// texture id.
func TextureRead(id int, index string) string {
	return fmt.Sprintf("textureLoad(t%d, vec2<i32>(i32(%s), 0), 0)", id, index)
}

// maxF32 stands in for infinities, which WGSL literals cannot express.
const maxF32 = 3.4028234663852886e38

// Float formats f as a WGSL float literal. Negative values are
// parenthesized so literals can follow a binary minus.
func Float(f float64) string {
	switch {
	case math.IsNaN(f):
		f = 0
	case math.IsInf(f, 1):
		f = maxF32
	case math.IsInf(f, -1):
		f = -maxF32
	}
	s := strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	if math.Signbit(f) {
		return "(" + s + ")"
	}
	return s
}

// Vec4Literal formats four components as a WGSL vec4<f32> constructor.
func Vec4Literal(r, g, b, a float64) string {
	return fmt.Sprintf("vec4<f32>(%s, %s, %s, %s)", Float(r), Float(g), Float(b), Float(a))
}

// dedupLines drops repeated declaration lines, keeping first occurrences.
func dedupLines(preface string) string {
	var out []string
	for _, line := range strings.Split(preface, "\n") {
		if strings.TrimSpace(line) == "" || slices.Contains(out, line) {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

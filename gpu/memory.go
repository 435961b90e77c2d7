// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/viz"
)

// ErrEmptyProgram is returned when linking a program without code.
var ErrEmptyProgram = errors.New("gpu: empty program")

// MemoryStats summarizes live resources of a MemoryDevice.
type MemoryStats struct {
	// Buffers is the number of live buffers.
	Buffers int

	// Textures is the number of live textures.
	Textures int

	// Programs is the number of live programs.
	Programs int

	// Bytes is the total size of live buffers and textures.
	Bytes uint64

	// DoubleFrees counts destroy calls on released or unknown IDs.
	DoubleFrees int
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%d buffers, %d textures, %d programs, %d bytes, %d double frees]",
		s.Buffers, s.Textures, s.Programs, s.Bytes, s.DoubleFrees)
}

type memBuffer struct {
	desc BufferDescriptor
	data []byte
}

type memTexture struct {
	desc TextureDescriptor
	data []byte
}

type memProgram struct {
	label     string
	words     int
	locations map[string]int
	uniforms  map[int][]float32
	textures  map[string]TextureID
}

// MemoryDevice is a Device keeping every resource in memory. It records
// contents and releases so callers can inspect what was uploaded.
//
// MemoryDevice is safe for concurrent use.
type MemoryDevice struct {
	mu          sync.Mutex
	nextID      uint64
	buffers     map[BufferID]*memBuffer
	textures    map[TextureID]*memTexture
	programs    map[ProgramID]*memProgram
	released    map[uint64]int
	doubleFrees int
}

// NewMemoryDevice returns an empty in-memory device.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{
		buffers:  make(map[BufferID]*memBuffer),
		textures: make(map[TextureID]*memTexture),
		programs: make(map[ProgramID]*memProgram),
		released: make(map[uint64]int),
	}
}

var _ Device = (*MemoryDevice)(nil)

func (d *MemoryDevice) allocID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *MemoryDevice) release(id uint64) {
	d.released[id]++
}

func (d *MemoryDevice) doubleFree(kind string, id uint64) {
	d.doubleFrees++
	viz.Logger().Warn("gpu: destroy of released resource", "kind", kind, "id", id)
}

// CreateBuffer implements Device.
func (d *MemoryDevice) CreateBuffer(desc *BufferDescriptor) (BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := BufferID(d.allocID())
	d.buffers[id] = &memBuffer{desc: *desc, data: make([]byte, desc.Size)}
	return id, nil
}

// WriteBuffer implements Device.
func (d *MemoryDevice) WriteBuffer(id BufferID, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok || offset+uint64(len(data)) > uint64(len(b.data)) {
		return
	}
	copy(b.data[offset:], data)
}

// DestroyBuffer implements Device.
func (d *MemoryDevice) DestroyBuffer(id BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[id]; !ok {
		d.doubleFree("buffer", uint64(id))
		return
	}
	delete(d.buffers, id)
	d.release(uint64(id))
}

// CreateTexture implements Device.
func (d *MemoryDevice) CreateTexture(desc *TextureDescriptor) (TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return InvalidID, fmt.Errorf("gpu: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := TextureID(d.allocID())
	size := int(desc.Width) * int(desc.Height) * BytesPerTexel(desc.Format)
	d.textures[id] = &memTexture{desc: *desc, data: make([]byte, size)}
	return id, nil
}

// WriteTexture implements Device.
func (d *MemoryDevice) WriteTexture(id TextureID, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	t.data = append(t.data[:0], data...)
}

// DestroyTexture implements Device.
func (d *MemoryDevice) DestroyTexture(id TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; !ok {
		d.doubleFree("texture", uint64(id))
		return
	}
	delete(d.textures, id)
	d.release(uint64(id))
}

// CreateProgram implements Device.
func (d *MemoryDevice) CreateProgram(label string, spirv []uint32) (ProgramID, error) {
	if len(spirv) == 0 {
		return InvalidID, fmt.Errorf("%w: %q", ErrEmptyProgram, label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := ProgramID(d.allocID())
	d.programs[id] = &memProgram{
		label:     label,
		words:     len(spirv),
		locations: make(map[string]int),
		uniforms:  make(map[int][]float32),
		textures:  make(map[string]TextureID),
	}
	return id, nil
}

// DestroyProgram implements Device.
func (d *MemoryDevice) DestroyProgram(id ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[id]; !ok {
		d.doubleFree("program", uint64(id))
		return
	}
	delete(d.programs, id)
	d.release(uint64(id))
}

// UniformLocation implements Device. Locations are assigned on first lookup.
func (d *MemoryDevice) UniformLocation(p ProgramID, name string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return -1, false
	}
	loc, ok := prog.locations[name]
	if !ok {
		loc = len(prog.locations)
		prog.locations[name] = loc
	}
	return loc, true
}

// SetUniform implements Device.
func (d *MemoryDevice) SetUniform(p ProgramID, location int, values ...float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prog, ok := d.programs[p]; ok {
		prog.uniforms[location] = append([]float32(nil), values...)
	}
}

// BindTexture implements Device.
func (d *MemoryDevice) BindTexture(p ProgramID, name string, t TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prog, ok := d.programs[p]; ok {
		prog.textures[name] = t
	}
}

// Uniform returns the last value written to the named uniform of p.
func (d *MemoryDevice) Uniform(p ProgramID, name string) ([]float32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return nil, false
	}
	loc, ok := prog.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := prog.uniforms[loc]
	return v, ok
}

// BoundTexture returns the texture bound to name on p.
func (d *MemoryDevice) BoundTexture(p ProgramID, name string) (TextureID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return InvalidID, false
	}
	t, ok := prog.textures[name]
	return t, ok
}

// TextureData returns a copy of the contents and descriptor of a live
// texture.
func (d *MemoryDevice) TextureData(id TextureID) ([]byte, TextureDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return nil, TextureDescriptor{}, false
	}
	return append([]byte(nil), t.data...), t.desc, true
}

// BufferData returns a copy of the contents of a live buffer.
func (d *MemoryDevice) BufferData(id BufferID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// Releases returns how many times the resource id was released.
func (d *MemoryDevice) Releases(id uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released[id]
}

// Stats returns a snapshot of live resources.
func (d *MemoryDevice) Stats() MemoryStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := MemoryStats{
		Buffers:     len(d.buffers),
		Textures:    len(d.textures),
		Programs:    len(d.programs),
		DoubleFrees: d.doubleFrees,
	}
	for _, b := range d.buffers {
		s.Bytes += uint64(len(b.data))
	}
	for _, t := range d.textures {
		s.Bytes += uint64(len(t.data))
	}
	return s
}

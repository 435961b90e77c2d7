// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Device implementation
// maintains a mapping between IDs and actual backend resources.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// ProgramID is an opaque handle to a linked style program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferDescriptor describes parameters for creating a buffer.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes parameters for creating a 2D texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in texels.
	Width uint32

	// Height is the texture height in texels.
	Height uint32

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// BytesPerTexel returns the texel size of the formats this package
// creates, or 0 for others.
func BytesPerTexel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatRGBA8Unorm:
		return 4
	}
	return 0
}

// DataTextureDescriptor returns the descriptor of a sampled texture that is
// written from the CPU.
func DataTextureDescriptor(label string, width, height int, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Label:  label,
		Width:  uint32(width),
		Height: uint32(height),
		Format: format,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// Device is the GPU surface the styling core drives. The host renderer
// implements it over its own device; MemoryDevice is an in-memory
// implementation.
type Device interface {
	// CreateBuffer creates a GPU buffer.
	CreateBuffer(desc *BufferDescriptor) (BufferID, error)

	// WriteBuffer writes data to a buffer at a byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// CreateTexture creates a 2D texture.
	CreateTexture(desc *TextureDescriptor) (TextureID, error)

	// WriteTexture replaces the texture contents. The data must match
	// the texture format and dimensions.
	WriteTexture(id TextureID, data []byte)

	// DestroyTexture releases a GPU texture.
	DestroyTexture(id TextureID)

	// CreateProgram links a program from SPIR-V words.
	CreateProgram(label string, spirv []uint32) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// UniformLocation resolves a uniform by name after linking.
	UniformLocation(p ProgramID, name string) (int, bool)

	// SetUniform writes the value of a uniform location.
	SetUniform(p ProgramID, location int, values ...float32)

	// BindTexture attaches a texture to a program texture binding.
	BindTexture(p ProgramID, name string, t TextureID)
}

// DeviceHandle provides GPU device access from the host application.
//
// The host passes its device provider to NewSession; the styling core
// never creates a device.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used when the styling core runs without a host GPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports a software adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "null", Type: gpucontext.AdapterTypeSoftware}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/viz"
)

// DefaultRTTWidth is the default width of the feature lookup grid.
const DefaultRTTWidth = 1024

// ErrNoDevice is returned by NewSession without a device.
var ErrNoDevice = errors.New("gpu: device is required")

// SessionOption configures a Session during creation.
//
// Example:
//
//	s, err := gpu.NewSession(dev,
//	    gpu.WithViewport(1920, 1080),
//	    gpu.WithZoom(2),
//	)
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	rttWidth int
	width    int
	height   int
	zoom     float64
	aspect   float64
	clock    func() time.Time
	host     DeviceHandle
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		rttWidth: DefaultRTTWidth,
		width:    800,
		height:   600,
		zoom:     1,
		aspect:   1,
		clock:    time.Now,
	}
}

// WithRTTWidth sets the width of the feature lookup grid.
func WithRTTWidth(w int) SessionOption {
	return func(o *sessionOptions) {
		if w > 0 {
			o.rttWidth = w
		}
	}
}

// WithViewport sets the canvas size in pixels.
func WithViewport(width, height int) SessionOption {
	return func(o *sessionOptions) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithZoom sets the initial zoom.
func WithZoom(z float64) SessionOption {
	return func(o *sessionOptions) {
		o.zoom = z
	}
}

// WithAspect sets the initial aspect ratio.
func WithAspect(a float64) SessionOption {
	return func(o *sessionOptions) {
		o.aspect = a
	}
}

// WithClock replaces the wall clock driving animations.
func WithClock(now func() time.Time) SessionOption {
	return func(o *sessionOptions) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithHost records the host device provider the session renders for.
func WithHost(h DeviceHandle) SessionOption {
	return func(o *sessionOptions) {
		o.host = h
	}
}

// Session is the render context handed to every bind, pre-draw and free
// call. Its lifetime is one render session.
//
// Session is not safe for concurrent use; it belongs to the draw loop.
type Session struct {
	dev      Device
	host     DeviceHandle
	rttWidth int
	width    int
	height   int
	zoom     float64
	aspect   float64
	clock    func() time.Time
	start    time.Time
}

// NewSession creates a render session over dev.
func NewSession(dev Device, opts ...SessionOption) (*Session, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Session{
		dev:      dev,
		host:     o.host,
		rttWidth: o.rttWidth,
		width:    o.width,
		height:   o.height,
		zoom:     o.zoom,
		aspect:   o.aspect,
		clock:    o.clock,
	}
	s.start = s.clock()

	if s.host != nil {
		info := s.host.AdapterInfo()
		viz.Logger().Info("gpu: session created",
			"adapter", info.Name, "type", info.Type.String(),
			"rttWidth", s.rttWidth, "width", s.width, "height", s.height)
	} else {
		viz.Logger().Info("gpu: session created",
			"rttWidth", s.rttWidth, "width", s.width, "height", s.height)
	}
	return s, nil
}

// Device returns the session device.
func (s *Session) Device() Device { return s.dev }

// Host returns the host device provider, or nil.
func (s *Session) Host() DeviceHandle { return s.host }

// RTTWidth returns the width of the feature lookup grid.
func (s *Session) RTTWidth() int { return s.rttWidth }

// Canvas returns the canvas size in pixels.
func (s *Session) Canvas() (width, height int) { return s.width, s.height }

// Zoom returns the current zoom.
func (s *Session) Zoom() float64 { return s.zoom }

// Aspect returns the current aspect ratio.
func (s *Session) Aspect() float64 { return s.aspect }

// SetViewport updates the canvas size.
func (s *Session) SetViewport(width, height int) {
	s.width, s.height = width, height
}

// SetZoom updates the zoom.
func (s *Session) SetZoom(z float64) { s.zoom = z }

// SetAspect updates the aspect ratio.
func (s *Session) SetAspect(a float64) { s.aspect = a }

// Now returns the session clock time.
func (s *Session) Now() time.Time { return s.clock() }

// Elapsed returns the seconds since the session started.
func (s *Session) Elapsed() float64 { return s.clock().Sub(s.start).Seconds() }

// GridSize returns the feature lookup grid for n features: width is the
// RTT width, height is ceil(n / width) and at least 1.
func (s *Session) GridSize(n int) (width, height int) {
	width = s.rttWidth
	height = (n + width - 1) / width
	if height < 1 {
		height = 1
	}
	return width, height
}

// UploadVertexBuffer creates a vertex buffer holding data.
func (s *Session) UploadVertexBuffer(label string, data []float32) (BufferID, error) {
	raw := Float32Bytes(data)
	id, err := s.dev.CreateBuffer(&BufferDescriptor{
		Label: label,
		Size:  uint64(len(raw)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create buffer %q: %w", label, err)
	}
	s.dev.WriteBuffer(id, 0, raw)
	return id, nil
}

// UploadFloatTexture creates a one-channel float texture of width x height
// texels holding data, zero-padded to the full grid.
func (s *Session) UploadFloatTexture(label string, width, height int, data []float32) (TextureID, error) {
	desc := DataTextureDescriptor(label, width, height, gputypes.TextureFormatR32Float)
	id, err := s.dev.CreateTexture(&desc)
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	texels := make([]float32, width*height)
	copy(texels, data)
	s.dev.WriteTexture(id, Float32Bytes(texels))
	return id, nil
}

// UploadRGBATexture creates an RGBA8 texture of width x height texels
// holding data, zero-padded to the full grid.
func (s *Session) UploadRGBATexture(label string, width, height int, data []byte) (TextureID, error) {
	desc := DataTextureDescriptor(label, width, height, gputypes.TextureFormatRGBA8Unorm)
	id, err := s.dev.CreateTexture(&desc)
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	texels := make([]byte, width*height*4)
	copy(texels, data)
	s.dev.WriteTexture(id, texels)
	return id, nil
}

// Float32Bytes encodes data as little-endian bytes.
func Float32Bytes(data []float32) []byte {
	out := make([]byte, 4*len(data))
	for i, f := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// BytesFloat32 decodes little-endian bytes written by Float32Bytes.
func BytesFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu is the boundary between the styling core and the host
// renderer.
//
// The host owns the real GPU device. It implements [Device] over that device
// and hands it to [NewSession] together with its [DeviceHandle]. The core
// never creates devices, it only creates, writes and destroys resources
// through the session.
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [TextureID],
// [ProgramID]). Implementations are responsible for tracking the mapping
// between IDs and actual GPU resources. Every resource created through a
// session is destroyed exactly once by its owner.
//
// # Session
//
// A [Session] carries what bind, pre-draw and free calls need from the
// renderer: the device, the lookup grid width (RTT width), the canvas size,
// zoom, aspect and the animation clock.
//
//	dev := gpu.NewMemoryDevice()
//	s, err := gpu.NewSession(dev, gpu.WithViewport(1920, 1080))
//	if err != nil {
//	    return err
//	}
//
// [MemoryDevice] keeps resources in memory and is used by tests and tools.
package gpu

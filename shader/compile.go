// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrInvalid is returned when naga rejects a generated module.
var ErrInvalid = errors.New("shader: invalid module")

// Compile compiles a WGSL module to SPIR-V words.
func Compile(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// Validate parses, lowers and validates a WGSL module without generating
// code.
func Validate(wgslSource string) error {
	ast, err := naga.Parse(wgslSource)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	module, err := naga.LowerWithSource(ast, wgslSource)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, verrs[0])
	}
	return nil
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// FromWKB decodes one WKB geometry per feature, as stored in geoarrow.wkb
// columns.
func FromWKB(raw [][]byte) ([]orb.Geometry, error) {
	out := make([]orb.Geometry, len(raw))
	for i, b := range raw {
		g, err := wkb.Unmarshal(b)
		if err != nil {
			return nil, fmt.Errorf("geometry: feature %d: %w", i, err)
		}
		out[i] = g
	}
	return out, nil
}

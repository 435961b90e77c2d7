// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dataframe

import (
	"github.com/paulmach/orb"

	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/metadata"
)

// DefaultIDProperty is the property reported as the feature ID by
// FeaturesAtPosition.
const DefaultIDProperty = "cartodb_id"

// Config describes one batch of features.
type Config struct {
	// Center and Scale place the batch in world space:
	// world = local*Scale + Center.
	Center orb.Point
	Scale  float64

	// Type is the geometry type shared by every feature.
	Type geometry.Type

	// Geometries holds one raw geometry per feature in local coordinates.
	Geometries []orb.Geometry

	// Properties holds one dense internal-value array per property name,
	// indexed by feature.
	Properties map[string][]float32

	// Metadata is the dataset schema. Category properties are reported by
	// name when it is set.
	Metadata *metadata.Metadata
}

// Option configures a Dataframe.
type Option func(*options)

type options struct {
	decoder      geometry.Decoder
	idProperty   string
	freeObserver func(*Dataframe)
}

func defaultOptions() options {
	return options{
		decoder:    geometry.OrbDecoder{},
		idProperty: DefaultIDProperty,
	}
}

// WithDecoder sets the geometry decoder. The default is geometry.OrbDecoder.
func WithDecoder(d geometry.Decoder) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithIDProperty sets the property reported as the feature ID.
func WithIDProperty(name string) Option {
	return func(o *options) {
		o.idProperty = name
	}
}

// WithFreeObserver registers a callback run once, after Free has released
// every GPU resource.
func WithFreeObserver(fn func(*Dataframe)) Option {
	return func(o *options) {
		o.freeObserver = fn
	}
}

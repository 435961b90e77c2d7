// Package viz renders large vector datasets by compiling styling expressions
// into WGSL and evaluating the same expressions on the CPU.
//
// # Overview
//
// viz is the styling and interaction core of a vector map renderer. It owns
// two tightly coupled pieces:
//
//   - The expression engine (package expr): a typed tree of styling
//     expressions that binds to dataset metadata, emits shader fragments,
//     evaluates per feature on the CPU and extracts legends.
//   - The feature geometry and query engine (package dataframe): one batch of
//     decoded geometry with its GPU buffers and property textures, answering
//     pick and viewport culling queries by evaluating the active style.
//
// # Quick Start
//
//	md := metadata.New(metadata.Property{Name: "cat", Type: metadata.Category,
//	    Stats: metadata.Stats{Categories: []metadata.CategoryStat{{Name: "a"}, {Name: "b"}}}})
//
//	v, err := style.New(
//	    style.WithColor(expr.Ramp(expr.Prop("cat"), palette.Prism)),
//	    style.WithWidth(10),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := v.Bind(md); err != nil {
//	    return err
//	}
//
//	session, err := gpu.NewSession(gpu.NewMemoryDevice())
//	if err != nil {
//	    return err
//	}
//	df, err := dataframe.New(dataframe.Config{
//	    Scale:      1,
//	    Type:       geometry.Point,
//	    Geometries: []orb.Geometry{orb.Point{0, 0}, orb.Point{4, 1}},
//	    Properties: map[string][]float32{"cat": {0, 1}},
//	    Metadata:   md,
//	})
//	if err != nil {
//	    return err
//	}
//	defer df.Free()
//	if err := df.Bind(session); err != nil {
//	    return err
//	}
//	features, err := df.FeaturesAtPosition(orb.Point{0, 0}, v)
//
// # Architecture
//
//   - codec, metadata: per-property value representations and dataset schema
//   - palette: colors, named palettes, Lab interpolation
//   - shader, gpu: WGSL assembly (naga) and the renderer-facing device contract
//   - expr, style: expressions and the per-layer set of styling expressions
//   - geometry, dataframe: decoded geometry, GPU bindings, spatial queries
//
// # Concurrency
//
// The core is single-threaded and synchronous. Metadata guards its category
// table and a Dataframe guards property updates and queries with one mutex,
// so a frame's hit test never races a hot property update.
package viz

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)

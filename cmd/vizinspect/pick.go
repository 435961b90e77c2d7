package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/dataframe"
	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/gpu"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/style"
)

func newPickCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "List the GeoJSON features under a position",
		Long: `pick loads a GeoJSON feature collection into a dataframe, binds it to an
in-memory device and reports the features whose styled geometry covers
the position. With the default 2 pixel viewport one pixel is one unit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, err := loadMetadata(cfg)
			if err != nil {
				return err
			}
			path := cfg.GetString("features")
			if path == "" {
				return errors.New("--features is required")
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			fc, err := geojson.UnmarshalFeatureCollection(raw)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}

			df, err := newDataframe(fc, md, cfg.GetString("id-property"))
			if err != nil {
				return err
			}
			defer df.Free()

			s, err := gpu.NewSession(gpu.NewMemoryDevice(),
				gpu.WithViewport(2, cfg.GetInt("viewport-height")),
				gpu.WithZoom(cfg.GetFloat64("zoom")))
			if err != nil {
				return err
			}
			if err := df.Bind(s); err != nil {
				return err
			}

			v, err := style.New(
				style.WithWidth(cfg.GetFloat64("width")),
				style.WithStrokeWidth(cfg.GetFloat64("stroke-width")),
			)
			if err != nil {
				return err
			}
			if err := v.Bind(md); err != nil {
				return err
			}

			pos := orb.Point{cfg.GetFloat64("x"), cfg.GetFloat64("y")}
			features, err := df.FeaturesAtPosition(pos, v)
			if err != nil {
				return err
			}
			printFeatures(cmd.OutOrStdout(), pos, features)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("features", "", "GeoJSON feature collection")
	f.String("id-property", dataframe.DefaultIDProperty, "feature property reported as the ID")
	f.Float64("x", 0, "query x")
	f.Float64("y", 0, "query y")
	f.Float64("width", style.DefaultWidth, "point diameter or line width, in pixels")
	f.Float64("stroke-width", style.DefaultStrokeWidth, "stroke width, in pixels")
	f.Int("viewport-height", 2, "viewport height, in pixels")
	f.Float64("zoom", 1, "renderer zoom")
	return cmd
}

// newDataframe builds a dataframe holding the features and every metadata
// property, converted to internal values.
func newDataframe(fc *geojson.FeatureCollection, md *metadata.Metadata, idProperty string) (*dataframe.Dataframe, error) {
	if len(fc.Features) == 0 {
		return nil, errors.New("empty feature collection")
	}
	geoms := make([]orb.Geometry, len(fc.Features))
	for i, f := range fc.Features {
		geoms[i] = f.Geometry
	}
	typ, err := geometryType(geoms[0])
	if err != nil {
		return nil, err
	}

	props := make(map[string][]float32)
	ids := make([]float32, len(fc.Features))
	hasID := false
	for i, f := range fc.Features {
		if id, ok := codec.ToFloat(f.Properties[idProperty]); ok {
			ids[i] = float32(id)
			hasID = true
		}
	}
	if hasID {
		props[idProperty] = ids
	}

	for _, name := range md.Names() {
		p, _ := md.Property(name)
		if p.Type == metadata.TimeRange {
			edge := codec.NewDate(p.Stats.Min)
			for _, col := range []string{name + expr.RangeStartSuffix, name + expr.RangeEndSuffix} {
				if props[col], err = column(fc, col, edge); err != nil {
					return nil, err
				}
			}
			continue
		}
		c, err := md.Codec(name)
		if err != nil {
			return nil, err
		}
		if props[name], err = column(fc, name, c); err != nil {
			return nil, err
		}
	}

	return dataframe.New(dataframe.Config{
		Scale:      1,
		Type:       typ,
		Geometries: geoms,
		Properties: props,
		Metadata:   md,
	}, dataframe.WithIDProperty(idProperty))
}

func column(fc *geojson.FeatureCollection, name string, c codec.Codec) ([]float32, error) {
	out := make([]float32, len(fc.Features))
	for i, f := range fc.Features {
		v := f.Properties[name]
		if _, isDate := c.(*codec.Date); isDate && v == nil {
			out[i] = float32(codec.DesignatedNull)
			continue
		}
		// GeoJSON carries dates as strings.
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				v = t
			}
		}
		internal, err := c.SourceToInternal(v)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %s: %w", i, name, err)
		}
		out[i] = float32(internal[0])
	}
	return out, nil
}

func geometryType(g orb.Geometry) (geometry.Type, error) {
	switch g.(type) {
	case orb.Point:
		return geometry.Point, nil
	case orb.LineString, orb.MultiLineString:
		return geometry.Line, nil
	case orb.Polygon, orb.MultiPolygon:
		return geometry.Polygon, nil
	}
	if g == nil {
		return 0, fmt.Errorf("%w: nil geometry", geometry.ErrGeometryType)
	}
	return 0, fmt.Errorf("%w: %s", geometry.ErrGeometryType, g.GeoJSONType())
}

func printFeatures(w io.Writer, pos orb.Point, features []dataframe.Feature) {
	if len(features) == 0 {
		fmt.Fprintf(w, "no features at %v\n", pos)
		return
	}
	id := color.New(color.FgCyan, color.Bold)
	for _, f := range features {
		id.Fprintf(w, "id %s", formatValue(f.ID))
		for _, name := range slices.Sorted(maps.Keys(f.Properties)) {
			fmt.Fprintf(w, "  %s=%s", name, formatValue(f.Properties[name]))
		}
		fmt.Fprintln(w)
	}
}

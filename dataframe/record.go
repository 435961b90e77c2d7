// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dataframe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/geometry"
	"github.com/gogpu/viz/metadata"
)

// ErrUnsupportedColumn is returned for Arrow columns of a type AddRecord
// cannot convert.
var ErrUnsupportedColumn = errors.New("dataframe: unsupported column")

// AddRecord converts the columns of rec through the metadata codecs and
// adds them like AddProperties. Each column is one property; time range
// properties arrive as their <name>_start and <name>_end columns. The ID
// property is taken as a plain number.
func (d *Dataframe) AddRecord(rec arrow.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freed {
		return ErrFreed
	}
	if int(rec.NumRows()) != d.numFeatures {
		return fmt.Errorf("%w: record has %d rows for %d features",
			ErrPropertyLength, rec.NumRows(), d.numFeatures)
	}

	props := make(map[string][]float32, rec.NumCols())
	for i := range int(rec.NumCols()) {
		name := rec.ColumnName(i)
		c, err := d.columnCodec(name)
		if err != nil {
			return err
		}
		values, err := convertColumn(rec.Column(i), c)
		if err != nil {
			return fmt.Errorf("dataframe: column %q: %w", name, err)
		}
		props[name] = values
	}
	return d.addPropertiesLocked(props)
}

func (d *Dataframe) columnCodec(name string) (codec.Codec, error) {
	if name == d.idProperty {
		return codec.Identity{}, nil
	}
	if d.md == nil {
		return nil, fmt.Errorf("%w: %q", metadata.ErrUnknownProperty, name)
	}
	if _, ok := d.md.Property(name); ok {
		return d.md.Codec(name)
	}
	for _, suffix := range []string{expr.RangeStartSuffix, expr.RangeEndSuffix} {
		base, ok := strings.CutSuffix(name, suffix)
		if !ok {
			continue
		}
		if p, ok := d.md.Property(base); ok && p.Type == metadata.TimeRange {
			return codec.NewDate(p.Stats.Min), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", metadata.ErrUnknownProperty, name)
}

func convertColumn(col arrow.Array, c codec.Codec) ([]float32, error) {
	out := make([]float32, col.Len())
	for row := range out {
		v, err := arrowValue(col, row)
		if err != nil {
			return nil, err
		}
		internal, err := c.SourceToInternal(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out[row] = float32(internal[0])
	}
	return out, nil
}

// arrowValue returns the source value of one cell: nil, float64, string or
// time.Time.
func arrowValue(col arrow.Array, i int) (any, error) {
	if col.IsNull(i) {
		return nil, nil
	}
	switch c := col.(type) {
	case *array.Float64:
		return c.Value(i), nil
	case *array.Float32:
		return float64(c.Value(i)), nil
	case *array.Int64:
		return float64(c.Value(i)), nil
	case *array.Int32:
		return float64(c.Value(i)), nil
	case *array.Int16:
		return float64(c.Value(i)), nil
	case *array.Int8:
		return float64(c.Value(i)), nil
	case *array.Uint64:
		return float64(c.Value(i)), nil
	case *array.Uint32:
		return float64(c.Value(i)), nil
	case *array.Uint16:
		return float64(c.Value(i)), nil
	case *array.Uint8:
		return float64(c.Value(i)), nil
	case *array.Boolean:
		if c.Value(i) {
			return 1.0, nil
		}
		return 0.0, nil
	case *array.String:
		return c.Value(i), nil
	case *array.LargeString:
		return c.Value(i), nil
	case *array.Dictionary:
		return arrowValue(c.Dictionary(), c.GetValueIndex(i))
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit), nil
	case *array.Date32:
		return c.Value(i).ToTime(), nil
	case *array.Date64:
		return c.Value(i).ToTime(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedColumn, col.DataType())
}

// GeometriesFromRecord decodes a WKB geometry column, as written by
// geoarrow.wkb producers, into one orb geometry per row.
func GeometriesFromRecord(rec arrow.Record, column string) ([]orb.Geometry, error) {
	idx := rec.Schema().FieldIndices(column)
	if len(idx) == 0 {
		return nil, fmt.Errorf("dataframe: no geometry column %q", column)
	}
	col := rec.Column(idx[0])
	if ext, ok := col.(array.ExtensionArray); ok {
		col = ext.Storage()
	}
	raw := make([][]byte, col.Len())
	for i := range raw {
		if col.IsNull(i) {
			return nil, fmt.Errorf("dataframe: geometry %d is null", i)
		}
		switch c := col.(type) {
		case *array.Binary:
			raw[i] = c.Value(i)
		case *array.LargeBinary:
			raw[i] = c.Value(i)
		default:
			return nil, fmt.Errorf("%w: geometry column %s", ErrUnsupportedColumn, col.DataType())
		}
	}
	return geometry.FromWKB(raw)
}

// Package codec converts property values between their source, internal and
// external representations.
//
// Source values are what the decoder ingests (numbers, strings, epoch
// milliseconds). Internal values are the float vectors uploaded to property
// textures. External values are what users see: category names, time.Time,
// TimeRange, or nil for missing numbers.
package codec

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DesignatedNull is the float32-representable sentinel every missing or NaN
// number collapses to in the internal representation.
const DesignatedNull = -2147483648

var (
	// ErrUnknownCategoryID is returned when an internal category ID was never
	// registered with the metadata category table.
	ErrUnknownCategoryID = errors.New("codec: unknown category ID")

	// ErrUnsupportedValue is returned for values a codec cannot represent.
	ErrUnsupportedValue = errors.New("codec: unsupported value")
)

// Codec converts one property's values between representations.
//
// Internal values are always vectors: single-component for numbers,
// categories and dates, two components for time ranges.
type Codec interface {
	// Components returns the length of internal vectors.
	Components() int

	SourceToInternal(v any) ([]float64, error)
	InternalToSource(internal []float64) any
	SourceToExternal(v any) (any, error)
	ExternalToSource(v any) (any, error)
	ExternalToInternal(v any) ([]float64, error)
	InternalToExternal(internal []float64) (any, error)
}

// Categorizer is the part of the dataset metadata category codecs need.
type Categorizer interface {
	CategorizeString(property, value string) int
	CategoryName(id int) (string, bool)
}

// TimeRange is an interval of time, the external value of time-range
// properties.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// StartMillis returns the start of the range in epoch milliseconds.
func (r TimeRange) StartMillis() float64 { return float64(r.Start.UnixMilli()) }

// EndMillis returns the end of the range in epoch milliseconds.
func (r TimeRange) EndMillis() float64 { return float64(r.End.UnixMilli()) }

// Millis converts a date-like value (time.Time, TimeRange start, or a
// number of epoch milliseconds) to epoch milliseconds.
func Millis(v any) (float64, error) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.UnixMilli()), nil
	case *time.Time:
		if t == nil {
			return 0, fmt.Errorf("%w: nil date", ErrUnsupportedValue)
		}
		return float64(t.UnixMilli()), nil
	case TimeRange:
		return t.StartMillis(), nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("%w: %T is not a date", ErrUnsupportedValue, v)
		}
		return f, nil
	}
}

// MillisToTime converts epoch milliseconds to a UTC time.Time.
func MillisToTime(ms float64) time.Time {
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// toFloat converts any Go numeric kind to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// ToFloat reports v as a float64 when it is any Go numeric kind.
func ToFloat(v any) (float64, bool) { return toFloat(v) }

func first(internal []float64) float64 {
	if len(internal) == 0 {
		return DesignatedNull
	}
	return internal[0]
}

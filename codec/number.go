package codec

import (
	"fmt"
	"math"
)

// Identity is the degenerate numeric codec: every representation is the
// same float. It has no null handling.
type Identity struct{}

var _ Codec = Identity{}

func (Identity) Components() int { return 1 }

func (Identity) SourceToInternal(v any) ([]float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a number", ErrUnsupportedValue, v)
	}
	return []float64{f}, nil
}

func (Identity) InternalToSource(internal []float64) any { return first(internal) }

func (Identity) SourceToExternal(v any) (any, error) { return v, nil }

func (Identity) ExternalToSource(v any) (any, error) { return v, nil }

func (c Identity) ExternalToInternal(v any) ([]float64, error) { return c.SourceToInternal(v) }

func (Identity) InternalToExternal(internal []float64) (any, error) { return first(internal), nil }

// Number encodes numeric properties. Missing and NaN values collapse to
// DesignatedNull; the collapse is lossy and intentionally kept.
type Number struct{}

var _ Codec = Number{}

func (Number) Components() int { return 1 }

func (Number) SourceToInternal(v any) ([]float64, error) {
	if v == nil {
		return []float64{DesignatedNull}, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a number", ErrUnsupportedValue, v)
	}
	if math.IsNaN(f) {
		f = DesignatedNull
	}
	return []float64{f}, nil
}

func (Number) InternalToSource(internal []float64) any { return first(internal) }

func (Number) SourceToExternal(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a number", ErrUnsupportedValue, v)
	}
	if math.IsNaN(f) || f == DesignatedNull {
		return nil, nil
	}
	return f, nil
}

func (Number) ExternalToSource(v any) (any, error) { return v, nil }

func (c Number) ExternalToInternal(v any) ([]float64, error) { return c.SourceToInternal(v) }

// InternalToExternal returns nil for DesignatedNull, the float otherwise.
func (Number) InternalToExternal(internal []float64) (any, error) {
	v := first(internal)
	if v == DesignatedNull {
		return nil, nil
	}
	return v, nil
}

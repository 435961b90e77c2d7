package expr

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/viz/codec"
	"github.com/gogpu/viz/palette"
)

// Coerce wraps a literal into a constant expression. Accepted shapes are
// expressions, Go numbers, strings (categories), time.Time, palette.Color,
// codec.TimeRange, palettes, image lists and homogeneous slices of those.
// Any other value fails with an *ArgumentError.
func Coerce(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return nil, &ArgumentError{Op: "coerce", Reason: "nil is not an expression"}
	case Node:
		return x, nil
	case string:
		return Category(x), nil
	case time.Time:
		return DateConst(x), nil
	case palette.Color:
		return ColorConst(x), nil
	case codec.TimeRange:
		return TimeRangeConst(x), nil
	case palette.ImageList:
		return Images(x...), nil
	case palette.Palette:
		return NewArray(toAny(x.Colors)...)
	case []any:
		return NewArray(x...)
	case []float64:
		return NewArray(toAny(x)...)
	case []int:
		return NewArray(toAny(x)...)
	case []string:
		return NewArray(toAny(x)...)
	case []time.Time:
		return NewArray(toAny(x)...)
	case []palette.Color:
		return NewArray(toAny(x)...)
	}
	if f, ok := codec.ToFloat(v); ok {
		return Number(f), nil
	}
	return nil, &ArgumentError{Op: "coerce", Reason: fmt.Sprintf("unsupported literal of type %T", v)}
}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// coerceArg coerces argument idx of op, attributing literal errors to it.
func coerceArg(op string, idx int, v any) (Node, error) {
	n, err := Coerce(v)
	if err != nil {
		var ae *ArgumentError
		if errors.As(err, &ae) && ae.Op == "coerce" {
			return nil, &ArgumentError{Op: op, ArgIndex: idx, Reason: ae.Reason}
		}
		return nil, err
	}
	return n, nil
}

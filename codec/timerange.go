package codec

import (
	"fmt"
	"time"
)

// TimeRangeCodec encodes intervals as [start, end] milliseconds relative to
// the property's minimum start.
type TimeRangeCodec struct {
	minMs float64
}

var _ Codec = (*TimeRangeCodec)(nil)

// NewTimeRange returns a time-range codec whose internal zero is minMs.
func NewTimeRange(minMs float64) *TimeRangeCodec {
	return &TimeRangeCodec{minMs: minMs}
}

func (c *TimeRangeCodec) Components() int { return 2 }

// SourceToInternal accepts TimeRange, a single time.Time (degenerate range)
// or a two-element slice of epoch milliseconds.
func (c *TimeRangeCodec) SourceToInternal(v any) ([]float64, error) {
	switch r := v.(type) {
	case TimeRange:
		return []float64{r.StartMillis() - c.minMs, r.EndMillis() - c.minMs}, nil
	case time.Time:
		ms := float64(r.UnixMilli())
		return []float64{ms - c.minMs, ms - c.minMs}, nil
	case []float64:
		if len(r) != 2 {
			return nil, fmt.Errorf("%w: time range needs 2 components, got %d", ErrUnsupportedValue, len(r))
		}
		return []float64{r[0] - c.minMs, r[1] - c.minMs}, nil
	}
	return nil, fmt.Errorf("%w: %T is not a time range", ErrUnsupportedValue, v)
}

func (c *TimeRangeCodec) InternalToSource(internal []float64) any {
	if len(internal) < 2 {
		return nil
	}
	return []float64{internal[0] + c.minMs, internal[1] + c.minMs}
}

func (c *TimeRangeCodec) SourceToExternal(v any) (any, error) {
	internal, err := c.SourceToInternal(v)
	if err != nil {
		return nil, err
	}
	return c.InternalToExternal(internal)
}

func (c *TimeRangeCodec) ExternalToSource(v any) (any, error) {
	r, ok := v.(TimeRange)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a TimeRange", ErrUnsupportedValue, v)
	}
	return []float64{r.StartMillis(), r.EndMillis()}, nil
}

func (c *TimeRangeCodec) ExternalToInternal(v any) ([]float64, error) { return c.SourceToInternal(v) }

func (c *TimeRangeCodec) InternalToExternal(internal []float64) (any, error) {
	if len(internal) < 2 {
		return nil, fmt.Errorf("%w: time range needs 2 components, got %d", ErrUnsupportedValue, len(internal))
	}
	return TimeRange{
		Start: MillisToTime(internal[0] + c.minMs),
		End:   MillisToTime(internal[1] + c.minMs),
	}, nil
}

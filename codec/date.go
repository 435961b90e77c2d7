package codec

import (
	"fmt"
	"time"

	"github.com/gogpu/viz/shader"
)

// Date encodes dates as milliseconds since the property's minimum. Keeping
// values relative to the minimum keeps them exact in float32 for any
// realistic dataset extent.
type Date struct {
	min   time.Time
	minMs float64
}

var _ Codec = (*Date)(nil)

// NewDate returns a date codec whose internal zero is minMs (epoch millis).
func NewDate(minMs float64) *Date {
	return &Date{min: MillisToTime(minMs), minMs: minMs}
}

// Min returns the date mapped to internal zero.
func (c *Date) Min() time.Time { return c.min }

func (c *Date) Components() int { return 1 }

// SourceToInternal accepts time.Time or epoch milliseconds.
func (c *Date) SourceToInternal(v any) ([]float64, error) {
	ms, err := Millis(v)
	if err != nil {
		return nil, err
	}
	return []float64{ms - c.minMs}, nil
}

func (c *Date) InternalToSource(internal []float64) any {
	return first(internal) + c.minMs
}

func (c *Date) SourceToExternal(v any) (any, error) {
	ms, err := Millis(v)
	if err != nil {
		return nil, err
	}
	return MillisToTime(ms), nil
}

func (c *Date) ExternalToSource(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a time.Time", ErrUnsupportedValue, v)
	}
	return float64(t.UnixMilli()), nil
}

func (c *Date) ExternalToInternal(v any) ([]float64, error) { return c.SourceToInternal(v) }

func (c *Date) InternalToExternal(internal []float64) (any, error) {
	return MillisToTime(first(internal) + c.minMs), nil
}

// InlineInternalMatch rewrites thisValue, an internal value of c, into the
// internal space of other. The offset between both minimums is folded into
// a literal.
func (c *Date) InlineInternalMatch(thisValue string, other *Date) string {
	offset := other.minMs - c.minMs
	return fmt.Sprintf("(%s - %s)", thisValue, shader.Float(offset))
}

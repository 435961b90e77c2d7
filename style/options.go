package style

import "github.com/gogpu/viz/palette"

// Option configures a Viz during creation. Values are expressions or
// literals accepted by expr.Coerce.
//
// Example:
//
//	ramp, err := expr.Ramp(expr.Prop("kind"), palette.Prism)
//	if err != nil {
//	    return err
//	}
//	v, err := style.New(style.WithColor(ramp), style.WithWidth(8))
type Option func(*options)

type options struct {
	values map[Property]any
}

// Default style values.
var (
	DefaultColor       = palette.Hex("#808080")
	DefaultStrokeColor = palette.Hex("#222222")
)

const (
	DefaultWidth       = 5.0
	DefaultStrokeWidth = 0.0
	DefaultFilter      = 1.0
)

func defaultOptions() options {
	return options{values: map[Property]any{
		Color:           DefaultColor,
		Width:           DefaultWidth,
		StrokeColor:     DefaultStrokeColor,
		StrokeWidth:     DefaultStrokeWidth,
		Filter:          DefaultFilter,
		SymbolPlacement: []float64{0, 1},
	}}
}

// WithExpression sets the expression of property p.
func WithExpression(p Property, v any) Option {
	return func(o *options) {
		o.values[p] = v
	}
}

// WithColor sets the fill color.
func WithColor(v any) Option { return WithExpression(Color, v) }

// WithWidth sets the point diameter or line width in pixels.
func WithWidth(v any) Option { return WithExpression(Width, v) }

// WithStrokeColor sets the stroke color.
func WithStrokeColor(v any) Option { return WithExpression(StrokeColor, v) }

// WithStrokeWidth sets the stroke width in pixels.
func WithStrokeWidth(v any) Option { return WithExpression(StrokeWidth, v) }

// WithFilter sets the filter. Features evaluating below 0.5 are hidden.
func WithFilter(v any) Option { return WithExpression(Filter, v) }

// WithSymbol replaces the default point symbol with images.
func WithSymbol(v any) Option { return WithExpression(Symbol, v) }

// WithSymbolPlacement sets the symbol offset, in symbol radii.
func WithSymbolPlacement(v any) Option { return WithExpression(SymbolPlacement, v) }

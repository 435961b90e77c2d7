package expr

// Legend sampling limits.
const (
	DefaultLegendSamples = 10
	MaxLegendSamples     = 100
	DefaultOthersLabel   = "Others"
)

// LegendType tells whether legend keys are categories or sampled numbers.
type LegendType uint8

const (
	LegendCategory LegendType = iota
	LegendNumber
)

func (t LegendType) String() string {
	if t == LegendNumber {
		return "number"
	}
	return "category"
}

// LegendEntry maps one input key to the expression output.
type LegendEntry struct {
	Key   any
	Value any
}

// Legend is a sampled summary of an expression's input to output mapping.
type Legend struct {
	Type LegendType
	Name string
	Min  any
	Max  any
	Data []LegendEntry
}

// LegendConfig controls legend sampling. Zero values select the defaults.
type LegendConfig struct {
	Samples       int
	DefaultOthers string
}

func (c LegendConfig) normalize() LegendConfig {
	if c.Samples <= 0 {
		c.Samples = DefaultLegendSamples
	}
	c.Samples = min(c.Samples, MaxLegendSamples)
	return c
}

// steps returns Samples evenly spaced unit values, both ends included.
func (c LegendConfig) steps() []float64 {
	out := make([]float64, c.Samples)
	if c.Samples == 1 {
		return out
	}
	for i := range out {
		out[i] = float64(i) / float64(c.Samples-1)
	}
	return out
}

// Legender is implemented by expressions that can describe themselves in a
// legend.
type Legender interface {
	LegendData(cfg LegendConfig) (Legend, error)
}

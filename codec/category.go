package codec

import "fmt"

// Category encodes string categories as stable integer IDs assigned by the
// dataset metadata.
type Category struct {
	property string
	table    Categorizer
}

var _ Codec = (*Category)(nil)

// NewCategory returns the codec for the named categorical property.
func NewCategory(table Categorizer, property string) *Category {
	return &Category{property: property, table: table}
}

func (c *Category) Components() int { return 1 }

// SourceToInternal registers the category on first sight and returns its ID.
// A numeric source is taken to be an ID already.
func (c *Category) SourceToInternal(v any) ([]float64, error) {
	switch s := v.(type) {
	case string:
		return []float64{float64(c.table.CategorizeString(c.property, s))}, nil
	case nil:
		return []float64{float64(c.table.CategorizeString(c.property, ""))}, nil
	}
	if f, ok := toFloat(v); ok {
		return []float64{f}, nil
	}
	return nil, fmt.Errorf("%w: %T is not a category", ErrUnsupportedValue, v)
}

func (c *Category) InternalToSource(internal []float64) any {
	name, ok := c.table.CategoryName(int(first(internal)))
	if !ok {
		return nil
	}
	return name
}

func (c *Category) SourceToExternal(v any) (any, error) { return v, nil }

func (c *Category) ExternalToSource(v any) (any, error) { return v, nil }

func (c *Category) ExternalToInternal(v any) ([]float64, error) { return c.SourceToInternal(v) }

// InternalToExternal looks the ID up in the category table.
func (c *Category) InternalToExternal(internal []float64) (any, error) {
	id := int(first(internal))
	name, ok := c.table.CategoryName(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d (property %q)", ErrUnknownCategoryID, id, c.property)
	}
	return name, nil
}

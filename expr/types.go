package expr

import "fmt"

// Type is the value type of an expression, fixed once the expression is
// bound to metadata.
type Type uint8

const (
	// TypeUnknown is the type of property expressions before binding.
	TypeUnknown Type = iota
	TypeNumber
	TypeCategory
	TypeColor
	TypeDate
	TypeTimeRange
	TypeImage
	TypeImageList
	TypeNumberArray
	TypeCategoryArray
	TypeColorArray
	TypeDateArray
)

var typeNames = [...]string{
	TypeUnknown:       "unknown",
	TypeNumber:        "number",
	TypeCategory:      "category",
	TypeColor:         "color",
	TypeDate:          "date",
	TypeTimeRange:     "time-range",
	TypeImage:         "image",
	TypeImageList:     "image-list",
	TypeNumberArray:   "number-array",
	TypeCategoryArray: "category-array",
	TypeColorArray:    "color-array",
	TypeDateArray:     "date-array",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return t >= TypeNumberArray && t <= TypeDateArray
}

// ArrayOf returns the array type with elements of type t.
func ArrayOf(t Type) (Type, bool) {
	switch t {
	case TypeNumber:
		return TypeNumberArray, true
	case TypeCategory:
		return TypeCategoryArray, true
	case TypeColor:
		return TypeColorArray, true
	case TypeDate:
		return TypeDateArray, true
	}
	return TypeUnknown, false
}

// Elem returns the element type of an array type.
func (t Type) Elem() Type {
	switch t {
	case TypeNumberArray:
		return TypeNumber
	case TypeCategoryArray:
		return TypeCategory
	case TypeColorArray:
		return TypeColor
	case TypeDateArray:
		return TypeDate
	}
	return TypeUnknown
}

func oneOf(t Type, set []Type) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metadata holds the per-dataset property schema: property types,
// statistics and the global category table shared by every codec.
package metadata

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/viz/codec"
)

// Type is the value type of a dataset property.
type Type uint8

const (
	// Number is a plain numeric property.
	Number Type = iota
	// Category is a string property encoded with the category table.
	Category
	// Date is a timestamp property, epoch milliseconds in stats.
	Date
	// TimeRange is an interval property stored as two columns.
	TimeRange
)

func (t Type) String() string {
	switch t {
	case Number:
		return "number"
	case Category:
		return "category"
	case Date:
		return "date"
	case TimeRange:
		return "timerange"
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType parses the lower-case names produced by Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "number":
		return Number, nil
	case "category":
		return Category, nil
	case "date":
		return Date, nil
	case "timerange", "time-range":
		return TimeRange, nil
	}
	return 0, fmt.Errorf("metadata: unknown property type %q", s)
}

// ErrUnknownProperty is returned for property names missing from the schema.
var ErrUnknownProperty = errors.New("metadata: unknown property")

// CategoryStat is one category of a categorical property with its frequency.
type CategoryStat struct {
	Name      string `msgpack:"name"`
	Frequency int    `msgpack:"frequency"`
}

// Stats are the dataset-wide statistics of a property. For date and
// time-range properties Min and Max are epoch milliseconds.
type Stats struct {
	Min        float64        `msgpack:"min"`
	Max        float64        `msgpack:"max"`
	Sum        float64        `msgpack:"sum"`
	Count      int            `msgpack:"count"`
	Categories []CategoryStat `msgpack:"categories,omitempty"`
}

// Property describes one dataset property.
type Property struct {
	Name  string `msgpack:"name"`
	Type  Type   `msgpack:"type"`
	Stats Stats  `msgpack:"stats"`
}

// Metadata is the schema of one dataset. It is built once and then read by
// codecs, expressions and dataframes; only the category table grows.
//
// Metadata is safe for concurrent use.
type Metadata struct {
	mu           sync.RWMutex
	properties   map[string]*Property
	categoryToID map[string]int
	idToCategory []string
}

// New creates metadata describing the given properties. Category names
// listed in category stats are registered in order.
func New(props ...Property) *Metadata {
	m := &Metadata{
		properties:   make(map[string]*Property, len(props)),
		categoryToID: make(map[string]int),
	}
	for _, p := range props {
		m.Define(p)
	}
	return m
}

// Define adds or replaces a property.
func (m *Metadata) Define(p Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	cp.Stats.Categories = slices.Clone(p.Stats.Categories)
	m.properties[p.Name] = &cp
	for _, c := range cp.Stats.Categories {
		m.categorizeLocked(c.Name)
	}
}

// Property returns a copy of the named property.
func (m *Metadata) Property(name string) (Property, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[name]
	if !ok {
		return Property{}, false
	}
	cp := *p
	cp.Stats.Categories = slices.Clone(p.Stats.Categories)
	return cp, true
}

// Stats returns the statistics of the named property.
func (m *Metadata) Stats(name string) (Stats, error) {
	p, ok := m.Property(name)
	if !ok {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return p.Stats, nil
}

// Names returns the property names in sorted order.
func (m *Metadata) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.properties))
	for n := range m.properties {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Codec returns the codec of the named property.
func (m *Metadata) Codec(name string) (codec.Codec, error) {
	p, ok := m.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	switch p.Type {
	case Category:
		return codec.NewCategory(m, name), nil
	case Date:
		return codec.NewDate(p.Stats.Min), nil
	case TimeRange:
		return codec.NewTimeRange(p.Stats.Min), nil
	default:
		return codec.Number{}, nil
	}
}

// CategorizeString returns the ID of value, assigning the next free ID on
// first sight. IDs are global to the dataset, never reused or reordered.
// A value new to property is appended to its category stats.
func (m *Metadata) CategorizeString(property, value string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.categorizeLocked(value)
	if p, ok := m.properties[property]; ok {
		if !slices.ContainsFunc(p.Stats.Categories, func(c CategoryStat) bool { return c.Name == value }) {
			p.Stats.Categories = append(p.Stats.Categories, CategoryStat{Name: value})
		}
	}
	return id
}

func (m *Metadata) categorizeLocked(value string) int {
	if id, ok := m.categoryToID[value]; ok {
		return id
	}
	id := len(m.idToCategory)
	m.categoryToID[value] = id
	m.idToCategory = append(m.idToCategory, value)
	return id
}

// CategoryName returns the category registered under id.
func (m *Metadata) CategoryName(id int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || id >= len(m.idToCategory) {
		return "", false
	}
	return m.idToCategory[id], true
}

// CategoryID returns the ID of an already registered category.
func (m *Metadata) CategoryID(value string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.categoryToID[value]
	return id, ok
}

// NumCategories returns the size of the category table.
func (m *Metadata) NumCategories() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.idToCategory)
}

var _ codec.Categorizer = (*Metadata)(nil)

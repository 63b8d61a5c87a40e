package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttributeSeparator joins values when a detail page lists the same
// attribute name more than once.
const AttributeSeparator = "; "

// columnSeparator separates name and value in a spreadsheet column.
const columnSeparator = ": "

// Attribute is a single name/value pair harvested from a detail page.
type Attribute struct {
	// Name is the attribute label (first table cell).
	Name string `json:"name"`

	// Value is the attribute value (second table cell).
	Value string `json:"value"`
}

// Attributes is an insertion-ordered mapping of attribute name to value.
// Names are unique; adding an existing name concatenates the new value with
// AttributeSeparator instead of overwriting.
//
// The zero value is an empty, ready to use mapping.
type Attributes struct {
	// order holds attribute names in first-seen order.
	order []string

	// values maps attribute names to their (possibly merged) values.
	values map[string]string
}

// NewAttributes creates Attributes pre-populated with the given pairs.
// Pairs are added with Add, so duplicate names are merged.
func NewAttributes(pairs ...Attribute) Attributes {
	var a Attributes
	for _, p := range pairs {
		a.Add(p.Name, p.Value)
	}
	return a
}

// Add records value under name. If name is already present the stored value
// becomes "old; value" and the original position is kept.
func (a *Attributes) Add(name, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if old, ok := a.values[name]; ok {
		a.values[name] = old + AttributeSeparator + value
		return
	}
	a.order = append(a.order, name)
	a.values[name] = value
}

// Get returns the value stored under name.
func (a Attributes) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Len returns the number of distinct attribute names.
func (a Attributes) Len() int {
	return len(a.order)
}

// Names returns the attribute names in insertion order.
func (a Attributes) Names() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Pairs returns the attributes as an ordered slice.
func (a Attributes) Pairs() []Attribute {
	pairs := make([]Attribute, 0, len(a.order))
	for _, name := range a.order {
		pairs = append(pairs, Attribute{Name: name, Value: a.values[name]})
	}
	return pairs
}

// Columns renders the attributes as "Name: Value" strings in insertion order.
// This is the layout of the trailing spreadsheet columns.
func (a Attributes) Columns() []string {
	cols := make([]string, 0, len(a.order))
	for _, name := range a.order {
		cols = append(cols, name+columnSeparator+a.values[name])
	}
	return cols
}

// ParseColumn splits a "Name: Value" spreadsheet column at the first ": ".
// A column without the separator is returned as a name with an empty value.
func ParseColumn(col string) Attribute {
	name, value, found := strings.Cut(col, columnSeparator)
	if !found {
		return Attribute{Name: col}
	}
	return Attribute{Name: name, Value: value}
}

// AttributesFromColumns rebuilds Attributes from spreadsheet columns.
// Empty columns are ignored.
func AttributesFromColumns(cols []string) Attributes {
	var a Attributes
	for _, col := range cols {
		if col == "" {
			continue
		}
		p := ParseColumn(col)
		a.Add(p.Name, p.Value)
	}
	return a
}

// MarshalJSON encodes the attributes as an ordered array of name/value objects.
// A JSON object would lose the page order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Pairs())
}

// UnmarshalJSON decodes the array form written by MarshalJSON.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var pairs []Attribute
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to decode attributes: %w", err)
	}
	*a = NewAttributes(pairs...)
	return nil
}

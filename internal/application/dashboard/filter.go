package dashboard

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownField is returned for selectors a page does not have.
	ErrUnknownField = errors.New("unknown filter field")
	// ErrFieldDisabled is returned when a field is set before its parent.
	ErrFieldDisabled = errors.New("filter field is disabled")
)

// Field is one selector of a page. A field is enabled only once its parent
// holds a value; an empty Parent means always enabled.
type Field struct {
	Name   string
	Label  string
	Parent string
}

// FilterState is a snapshot of the selected values. Absent or empty means
// unset. Pages only ever receive copies.
type FilterState map[string]string

// Get returns the value of a field, or "".
func (s FilterState) Get(name string) string {
	return s[name]
}

// Has reports whether a field is set.
func (s FilterState) Has(name string) bool {
	return s[name] != ""
}

// Int returns the numeric value of a field, or 0.
func (s FilterState) Int(name string) int {
	n, err := strconv.Atoi(s[name])
	if err != nil {
		return 0
	}
	return n
}

// Clone returns an independent copy.
func (s FilterState) Clone() FilterState {
	out := make(FilterState, len(s))
	for k, v := range s {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Cascade is the mutable selection state of a page. Setting a field clears
// every field that depends on it, directly or transitively.
type Cascade struct {
	fields []Field
	index  map[string]int
	values map[string]string
}

// NewCascade creates an empty selection over fields.
func NewCascade(fields ...Field) *Cascade {
	c := &Cascade{
		fields: fields,
		index:  make(map[string]int, len(fields)),
		values: make(map[string]string),
	}
	for i, f := range fields {
		c.index[f.Name] = i
	}
	return c
}

// Fields returns the selectors in cascade order.
func (c *Cascade) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Get returns the selected value of a field.
func (c *Cascade) Get(name string) string {
	return c.values[name]
}

// Enabled reports whether the parent of a field is set.
func (c *Cascade) Enabled(name string) bool {
	i, ok := c.index[name]
	if !ok {
		return false
	}
	parent := c.fields[i].Parent
	return parent == "" || c.values[parent] != ""
}

// Set selects value for a field; "" clears it. Descendants are cleared
// whenever the value changes.
func (c *Cascade) Set(name, value string) error {
	if _, ok := c.index[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if value != "" && !c.Enabled(name) {
		i := c.index[name]
		return fmt.Errorf("%w: %s requires %s", ErrFieldDisabled, name, c.fields[i].Parent)
	}
	if c.values[name] == value {
		return nil
	}
	if value == "" {
		delete(c.values, name)
	} else {
		c.values[name] = value
	}
	for _, d := range c.descendants(name) {
		delete(c.values, d)
	}
	return nil
}

// Clear resets every field.
func (c *Cascade) Clear() {
	c.values = make(map[string]string)
}

// State returns a copy of the selection.
func (c *Cascade) State() FilterState {
	return FilterState(c.values).Clone()
}

// EnabledMap reports the enabled flag of every field.
func (c *Cascade) EnabledMap() map[string]bool {
	out := make(map[string]bool, len(c.fields))
	for _, f := range c.fields {
		out[f.Name] = c.Enabled(f.Name)
	}
	return out
}

// descendants returns the fields depending on name, in cascade order.
func (c *Cascade) descendants(name string) []string {
	var out []string
	for _, f := range c.fields {
		for p := f.Parent; p != ""; {
			if p == name {
				out = append(out, f.Name)
				break
			}
			i, ok := c.index[p]
			if !ok {
				break
			}
			p = c.fields[i].Parent
		}
	}
	return out
}

// Apply builds a cascade from a flat selection, setting fields in cascade
// order so that parents are checked before children.
func Apply(fields []Field, selection map[string]string) (*Cascade, error) {
	c := NewCascade(fields...)
	for name := range selection {
		if _, ok := c.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	for _, f := range fields {
		if v := selection[f.Name]; v != "" {
			if err := c.Set(f.Name, v); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

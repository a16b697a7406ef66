// Package catalog holds the static registry of webhook event types.
//
// Each event type maps to exactly one Definition: name, description,
// category, priority, and a sample payload used by diagnostics test mode.
// The set is sealed at construction; lookups never touch external state.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned when an event type is not in the catalog.
var ErrUnknownType = errors.New("catalog: unknown event type")

// Catalog is an immutable lookup table of event type definitions.
type Catalog struct {
	defs  map[string]Definition
	names []string
}

// New builds a catalog from the built-in definitions plus any extra
// definitions the host application registers. An extra definition with a
// built-in name replaces the built-in entry.
func New(extra ...Definition) *Catalog {
	defs := make(map[string]Definition)
	for _, d := range Builtin() {
		defs[d.Name] = d
	}
	for _, d := range extra {
		defs[d.Name] = d
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Catalog{defs: defs, names: names}
}

// Describe returns the definition for an event type.
func (c *Catalog) Describe(name string) (Definition, error) {
	def, ok := c.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return def, nil
}

// Contains reports whether an event type is registered.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// List returns all definitions ordered by name.
func (c *Catalog) List() []Definition {
	result := make([]Definition, 0, len(c.names))
	for _, name := range c.names {
		result = append(result, c.defs[name])
	}
	return result
}

// Names returns all registered event type names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

package indicator

import (
	"fmt"
	"sort"

	"SignalBatch/internal/domain/models"
)

// Registry is an explicit name-to-capability map built at startup. Lookup
// of an unknown name is a defined error, never a reflection failure.
type Registry struct {
	caps  map[string]Capability
	order []string
}

// NewRegistry builds a registry over the given capabilities. Duplicate
// names are rejected at construction so wiring mistakes surface at boot.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{caps: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		if _, dup := r.caps[c.Name()]; dup {
			return nil, fmt.Errorf("indicator %q registered twice", c.Name())
		}
		r.caps[c.Name()] = c
		r.order = append(r.order, c.Name())
	}
	sort.Strings(r.order)
	return r, nil
}

// DefaultRegistry wires the built-in capability set.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		NewRSI(0),
		NewMACDTrend(0, 0, 0, 0),
		NewBollinger(0, 0),
		NewATRRegime(0, 0),
		NewOBVFlow(0),
	)
	if err != nil {
		// Built-in names are distinct; reaching this is a programming error.
		panic(err)
	}
	return r
}

// Get returns the named capability or models.ErrUnknownIndicator.
func (r *Registry) Get(name string) (Capability, error) {
	c, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownIndicator, name)
	}
	return c, nil
}

// Select resolves a subset of names, or the full registered set when
// names is empty.
func (r *Registry) Select(names []string) ([]Capability, error) {
	if len(names) == 0 {
		names = r.order
	}
	out := make([]Capability, 0, len(names))
	for _, n := range names {
		c, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Names lists registered indicator names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

package adapters

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAdapter is returned by Get for slugs nobody registered
	ErrUnknownAdapter = errors.New("unknown adapter")
	// ErrDuplicateAdapter is returned when a slug is registered twice
	ErrDuplicateAdapter = errors.New("duplicate adapter")
)

// Factory builds an adapter reading from a resources folder
type Factory func(dir string) Adapter

// factories lists the adapters this build knows how to construct
var factories = map[string]Factory{
	CabinetSlug: func(dir string) Adapter { return NewCabinetAdapter(dir) },
	FoisaSlug:   func(dir string) Adapter { return NewFoisaAdapter(dir) },
}

// Registry maps jurisdiction slugs to adapters in registration order
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its slug
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("cannot register nil adapter")
	}
	slug := a.Meta().Slug
	if slug == "" {
		return fmt.Errorf("adapter has no slug")
	}
	if _, exists := r.adapters[slug]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAdapter, slug)
	}
	r.adapters[slug] = a
	r.order = append(r.order, slug)
	return nil
}

// Get returns the adapter registered under slug
func (r *Registry) Get(slug string) (Adapter, error) {
	a, ok := r.adapters[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, slug)
	}
	return a, nil
}

// Adapters returns every registered adapter in registration order
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.adapters[slug])
	}
	return out
}

// New builds the adapter for slug reading from dir
func New(slug, dir string) (Adapter, error) {
	factory, ok := factories[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, slug)
	}
	return factory(dir), nil
}

// Locator resolves the resources folder of a jurisdiction
type Locator interface {
	Dir(slug string) string
}

// NewDefaultRegistry registers the configured slugs in order
func NewDefaultRegistry(loc Locator, slugs []string) (*Registry, error) {
	reg := NewRegistry()
	for _, slug := range slugs {
		a, err := New(slug, loc.Dir(slug))
		if err != nil {
			return nil, err
		}
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

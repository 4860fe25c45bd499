package resolver

import (
	"errors"
	"fmt"

	"fluid/internal/descriptor"
	"fluid/internal/outcome"
)

// Catalog is an in-memory set of descriptors keyed by qualified name.
type Catalog struct {
	types map[string]*descriptor.Type
}

// NewCatalog creates a catalog holding types.
func NewCatalog(types ...*descriptor.Type) *Catalog {
	c := &Catalog{types: make(map[string]*descriptor.Type)}
	for _, t := range types {
		c.Add(t)
	}
	return c
}

// Add publishes t under its qualified name, replacing any earlier entry.
func (c *Catalog) Add(t *descriptor.Type) {
	c.types[t.QualifiedName()] = t
}

func (c *Catalog) Load(qualified string) (*descriptor.Type, error) {
	if t, ok := c.types[qualified]; ok {
		return t, nil
	}
	return nil, NotFound(qualified)
}

// Close is a no-op; a catalog holds no per-attempt resources.
func (c *Catalog) Close() error { return nil }

// Open returns the catalog itself as an attempt loader.
func (c *Catalog) Open() (Loader, error) { return c, nil }

// Chain tries several loaders in order as one attempt.
type Chain []Loader

func (c Chain) Load(qualified string) (*descriptor.Type, error) {
	for _, l := range c {
		t, err := l.Load(qualified)
		if err == nil {
			return t, nil
		}
		if k := outcome.KindOf(err); k != outcome.KindNotFound && k != outcome.KindUnknown {
			return nil, err
		}
	}
	return nil, NotFound(qualified)
}

// Close closes every loader in the chain.
func (c Chain) Close() error {
	var errs []error
	for _, l := range c {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Guard wraps a loader so types from denied packages load with every member
// restricted. Calls to them then fail as mechanical access failures.
func Guard(l Loader, denied []string) Loader {
	if len(denied) == 0 {
		return l
	}
	set := make(map[string]bool, len(denied))
	for _, d := range denied {
		set[d] = true
	}
	return &guard{Loader: l, denied: set}
}

type guard struct {
	Loader
	denied map[string]bool
}

func (g *guard) Load(qualified string) (*descriptor.Type, error) {
	t, err := g.Loader.Load(qualified)
	if err != nil {
		return nil, err
	}
	if g.denied[t.PkgPath] {
		return descriptor.Restricted(t, fmt.Sprintf("package %s is denied", t.PkgPath)), nil
	}
	return t, nil
}

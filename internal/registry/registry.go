// Package registry holds the named symbols of an engine session: aliases
// bound to type descriptors, variables bound to live values and the
// append-only sequence of accepted results.
//
// A Registry is not synchronized. Callers that share one across goroutines
// must serialize access themselves.
package registry

import (
	"sort"

	"fluid/internal/descriptor"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// Registry maps aliases to types and names to values.
type Registry struct {
	types   map[string]*descriptor.Type
	vars    map[string]any
	kinds   map[string]*descriptor.Type
	results []any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types: make(map[string]*descriptor.Type),
		vars:  make(map[string]any),
		kinds: make(map[string]*descriptor.Type),
	}
}

// RegisterType binds alias to t. An empty alias defaults to the type's short
// name, or to its qualified name when the type is unnamed. A replaced
// descriptor is returned in the previous slot.
func (r *Registry) RegisterType(t *descriptor.Type, alias string) *outcome.Outcome {
	o := outcome.New().WithType(t)
	if alias == "" {
		alias = t.Name
		if alias == "" {
			alias = t.QualifiedName()
			o.Contextf("type has no short name; registered as %s", alias)
		}
	}

	if prev, ok := r.types[alias]; ok {
		o.Previous(prev).Contextf("alias %s rebound from %s to %s", alias, prev.QualifiedName(), t.QualifiedName())
	} else {
		o.Contextf("registered %s as %s", t.QualifiedName(), alias)
	}
	r.types[alias] = t
	logging.RegistryDebug("alias %s -> %s", alias, t.QualifiedName())
	return o.Target(alias).Succeed()
}

// ResolveType returns the descriptor bound to alias.
func (r *Registry) ResolveType(alias string) (*descriptor.Type, bool) {
	t, ok := r.types[alias]
	return t, ok
}

// UnregisterType removes alias and returns the descriptor it was bound to.
func (r *Registry) UnregisterType(alias string) (*descriptor.Type, bool) {
	t, ok := r.types[alias]
	if ok {
		delete(r.types, alias)
		logging.RegistryDebug("alias %s dropped", alias)
	}
	return t, ok
}

// BindVariable binds name to v. A replaced value is returned in the
// previous slot.
func (r *Registry) BindVariable(name string, v any) *outcome.Outcome {
	o := outcome.New().Target(v)
	if prev, ok := r.vars[name]; ok {
		o.Previous(prev).Contextf("variable %s overwritten", name)
	} else {
		o.Contextf("variable %s bound", name)
	}
	r.vars[name] = v
	delete(r.kinds, name)
	logging.RegistryDebug("variable %s bound (%T)", name, v)
	return o.Succeed()
}

// BindTyped binds name to v and remembers t as the descriptor calls on the
// variable go through.
func (r *Registry) BindTyped(name string, v any, t *descriptor.Type) *outcome.Outcome {
	o := r.BindVariable(name, v).WithType(t)
	if t != nil {
		r.kinds[name] = t
	}
	return o
}

// VariableType returns the descriptor recorded for the variable name.
func (r *Registry) VariableType(name string) (*descriptor.Type, bool) {
	t, ok := r.kinds[name]
	return t, ok
}

// ResolveVariable returns the value bound to name.
func (r *Registry) ResolveVariable(name string) (any, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// UnbindVariable removes name and returns the value it was bound to.
func (r *Registry) UnbindVariable(name string) (any, bool) {
	v, ok := r.vars[name]
	if ok {
		delete(r.vars, name)
		delete(r.kinds, name)
		logging.RegistryDebug("variable %s unbound", name)
	}
	return v, ok
}

// AppendResult records an accepted invocation result.
func (r *Registry) AppendResult(v any) {
	r.results = append(r.results, v)
}

// TypeEntry is one alias binding.
type TypeEntry struct {
	Alias string
	Type  *descriptor.Type
}

// VariableEntry is one variable binding.
type VariableEntry struct {
	Name  string
	Value any
}

// Types returns the alias bindings sorted by alias.
func (r *Registry) Types() []TypeEntry {
	out := make([]TypeEntry, 0, len(r.types))
	for alias, t := range r.types {
		out = append(out, TypeEntry{Alias: alias, Type: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Variables returns the variable bindings sorted by name.
func (r *Registry) Variables() []VariableEntry {
	out := make([]VariableEntry, 0, len(r.vars))
	for name, v := range r.vars {
		out = append(out, VariableEntry{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Results returns a copy of the result sequence in insertion order.
func (r *Registry) Results() []any {
	out := make([]any, len(r.results))
	copy(out, r.results)
	return out
}

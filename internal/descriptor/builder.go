package descriptor

import (
	"errors"
	"fmt"
	"reflect"
)

// MemberOption adjusts a member while it is registered.
type MemberOption func(*Member)

// Deprecated marks a member as deprecated with the given note.
func Deprecated(note string) MemberOption {
	return func(m *Member) {
		if note == "" {
			note = "deprecated"
		}
		m.Deprecated = note
	}
}

// Builder assembles a Type member by member. Errors are collected and
// reported by Type.
type Builder struct {
	t    *Type
	errs []error
}

// Build starts a descriptor for goType, published as pkgPath.name.
func Build(pkgPath, name string, goType reflect.Type) *Builder {
	return &Builder{t: &Type{Name: name, PkgPath: pkgPath, Go: goType}}
}

// For starts a descriptor for T, published under pkgPath with T's own name.
func For[T any](pkgPath string) *Builder {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	return Build(pkgPath, rt.Name(), rt)
}

// Constructor registers fn as a constructor. fn's parameters are the
// constructor's signature.
func (b *Builder) Constructor(name string, fn any, opts ...MemberOption) *Builder {
	m, err := newMember(name, reflect.ValueOf(fn), true)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.t.Constructors = append(b.t.Constructors, apply(m, opts))
	return b
}

// Static registers fn as a receiver-less method of the type.
func (b *Builder) Static(name string, fn any, opts ...MemberOption) *Builder {
	m, err := newMember(name, reflect.ValueOf(fn), true)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.t.Methods = append(b.t.Methods, apply(m, opts))
	return b
}

// Method registers fn as an instance method. fn's first parameter is the
// receiver.
func (b *Builder) Method(name string, fn any, opts ...MemberOption) *Builder {
	m, err := newMember(name, reflect.ValueOf(fn), false)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.t.Methods = append(b.t.Methods, apply(m, opts))
	return b
}

// Reflected appends the exported method set of the Go type, in reflect's
// lexicographic order. Struct types contribute the method set of their
// pointer.
func (b *Builder) Reflected() *Builder {
	if b.t.Go == nil {
		b.errs = append(b.errs, fmt.Errorf("type %s: no Go type to reflect", b.t.QualifiedName()))
		return b
	}
	owner := b.t.Go
	if owner.Kind() == reflect.Struct {
		owner = reflect.PointerTo(owner)
	}
	b.t.Methods = append(b.t.Methods, methodSet(owner)...)
	return b
}

// Type finishes the descriptor.
func (b *Builder) Type() (*Type, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("descriptor %s: %w", b.t.QualifiedName(), errors.Join(b.errs...))
	}
	return b.t, nil
}

// MustType finishes the descriptor and panics on error.
// Use this for static registration at init time.
func (b *Builder) MustType() *Type {
	t, err := b.Type()
	if err != nil {
		panic(err)
	}
	return t
}

func apply(m *Member, opts []MemberOption) *Member {
	for _, opt := range opts {
		opt(m)
	}
	return m
}

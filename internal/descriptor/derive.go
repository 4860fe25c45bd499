package descriptor

import (
	"reflect"
	"sort"
	"strings"
)

// FromType derives a descriptor from a live value's dynamic type. Only the
// exported method set is available; there are no constructors.
func FromType(rt reflect.Type) *Type {
	base := rt
	if rt.Kind() == reflect.Pointer && rt.Name() == "" {
		base = rt.Elem()
	}
	return &Type{
		Name:    base.Name(),
		PkgPath: base.PkgPath(),
		Go:      base,
		Methods: methodSet(rt),
	}
}

// FromExports derives a descriptor for the named type rt of package pkgPath
// from that package's exported symbols (a yaegi-style export table).
//
// Package functions named New… whose first result is rt or *rt become
// constructors, other functions returning rt or *rt become static methods,
// and a zero-value constructor "new" is appended for concrete types.
// Instance methods come from the method set of *rt for structs and rt
// otherwise. Symbols are taken in lexicographic order. deprecated maps
// function names to deprecation notes.
func FromExports(pkgPath, name string, rt reflect.Type, symbols map[string]reflect.Value, deprecated map[string]string) *Type {
	t := &Type{Name: name, PkgPath: pkgPath, Go: rt}

	names := make([]string, 0, len(symbols))
	for n := range symbols {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		v := symbols[n]
		if strings.HasPrefix(n, "_") || !v.IsValid() || v.Kind() != reflect.Func {
			continue
		}
		ft := v.Type()
		if ft.NumOut() == 0 || !produces(ft.Out(0), rt) {
			continue
		}
		m, err := newMember(n, v, true)
		if err != nil {
			continue
		}
		m.Deprecated = deprecated[n]
		if strings.HasPrefix(n, "New") {
			t.Constructors = append(t.Constructors, m)
		} else {
			t.Methods = append(t.Methods, m)
		}
	}

	if rt.Kind() != reflect.Interface {
		t.Constructors = append(t.Constructors, zeroConstructor(rt))
	}

	owner := rt
	if rt.Kind() == reflect.Struct {
		owner = reflect.PointerTo(rt)
	}
	t.Methods = append(t.Methods, methodSet(owner)...)
	return t
}

func produces(out, rt reflect.Type) bool {
	return out == rt || out == reflect.PointerTo(rt)
}

// zeroConstructor returns a member "new" producing a pointer to a fresh zero
// value of rt.
func zeroConstructor(rt reflect.Type) *Member {
	ptr := reflect.PointerTo(rt)
	fn := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{ptr}, false), func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.New(rt)}
	})
	return &Member{Name: "new", Result: ptr, Static: true, fn: fn}
}

func methodSet(rt reflect.Type) []*Member {
	var out []*Member
	for i := 0; i < rt.NumMethod(); i++ {
		rm := rt.Method(i)
		if !rm.IsExported() {
			continue
		}
		if rt.Kind() == reflect.Interface {
			m, err := interfaceMember(rt, rm)
			if err == nil {
				out = append(out, m)
			}
			continue
		}
		m, err := newMember(rm.Name, rm.Func, false)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// interfaceMember describes a method of an interface type. It has no func
// value; Invoke dispatches through the receiver's method table instead.
func interfaceMember(rt reflect.Type, rm reflect.Method) (*Member, error) {
	result, fails, err := shape(rm.Type)
	if err != nil {
		return nil, err
	}
	m := &Member{Name: rm.Name, Result: result, Fails: fails, Receiver: rt}
	for i := 0; i < rm.Type.NumIn(); i++ {
		m.Params = append(m.Params, rm.Type.In(i))
	}
	return m, nil
}

// MethodValue builds an instance method from a function value whose first
// parameter is the receiver.
func MethodValue(name string, fn reflect.Value) (*Member, error) {
	return newMember(name, fn, false)
}

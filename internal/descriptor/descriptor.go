// Package descriptor models the types the engine can construct and call.
//
// A Type is an immutable table of constructors and methods. Each Member
// records its name, its ordered parameter types, its result (nil for void),
// optional deprecation metadata and the function that performs the call.
// Member order is registration order and is the order the adaptive converter
// scans in.
package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	stringType = reflect.TypeOf("")
)

// Member is a constructor, static function or instance method of a Type.
type Member struct {
	Name   string
	Params []reflect.Type
	// Result is nil when the member returns nothing but (optionally) an error.
	Result reflect.Type
	// Fails is true when the function's last result is an error.
	Fails  bool
	Static bool
	// Receiver is the receiver type of an instance method.
	Receiver reflect.Type
	// Deprecated holds the deprecation note; empty means not deprecated.
	Deprecated string
	// Restricted holds the reason calls to this member are refused.
	Restricted string

	fn reflect.Value
}

// IsDeprecated reports whether the member carries deprecation metadata.
func (m *Member) IsDeprecated() bool { return m.Deprecated != "" }

// Matches reports whether the member has exactly this name and parameter
// list. No assignability or conversion is considered.
func (m *Member) Matches(name string, sig []reflect.Type) bool {
	return m.Name == name && SameSignature(m.Params, sig)
}

// AcceptsString reports whether the member takes exactly one parameter to
// which a string value can be assigned.
func (m *Member) AcceptsString() bool {
	return len(m.Params) == 1 && stringType.AssignableTo(m.Params[0])
}

// Invoke performs the raw call. recv is ignored for static members. Panics
// raised by the called function propagate to the caller.
func (m *Member) Invoke(recv reflect.Value, args []reflect.Value) []reflect.Value {
	fn := m.fn
	switch {
	case m.Static:
	case fn.IsValid():
		args = append([]reflect.Value{recv}, args...)
	default:
		// interface method sets carry no func values
		fn = recv.MethodByName(m.Name)
	}
	if fn.Type().IsVariadic() {
		return fn.CallSlice(args)
	}
	return fn.Call(args)
}

func (m *Member) String() string { return m.Format(nil) }

// Format renders the member like String, naming owner's Go type (and a
// pointer to it) by owner's qualified name. Interpreted types have no
// name of their own at run time.
func (m *Member) Format(owner *Type) string {
	name := func(rt reflect.Type) string {
		if owner != nil && owner.Go != nil {
			switch rt {
			case owner.Go:
				return owner.QualifiedName()
			case reflect.PointerTo(owner.Go):
				return "*" + owner.QualifiedName()
			}
		}
		return rt.String()
	}

	var b strings.Builder
	if m.Static {
		b.WriteString("static ")
	} else if m.Receiver != nil {
		fmt.Fprintf(&b, "(%s) ", name(m.Receiver))
	}
	b.WriteString(m.Name)
	b.WriteString("(")
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = name(p)
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	switch {
	case m.Result != nil && m.Fails:
		fmt.Fprintf(&b, " (%s, error)", name(m.Result))
	case m.Result != nil:
		fmt.Fprintf(&b, " %s", name(m.Result))
	case m.Fails:
		b.WriteString(" error")
	}
	if m.IsDeprecated() {
		b.WriteString(" [deprecated]")
	}
	return b.String()
}

// Type describes a constructible, callable type.
type Type struct {
	Name    string
	PkgPath string
	Go      reflect.Type

	Constructors []*Member
	Methods      []*Member
}

// QualifiedName is PkgPath.Name, or the Go type string for unnamed types.
func (t *Type) QualifiedName() string {
	switch {
	case t.Name == "" && t.Go != nil:
		return t.Go.String()
	case t.PkgPath == "":
		return t.Name
	default:
		return t.PkgPath + "." + t.Name
	}
}

func (t *Type) String() string { return t.QualifiedName() }

// Constructor returns the constructor whose parameter list is exactly sig.
func (t *Type) Constructor(sig []reflect.Type) (*Member, bool) {
	for _, c := range t.Constructors {
		if SameSignature(c.Params, sig) {
			return c, true
		}
	}
	return nil, false
}

// Method returns the method or static member with this exact name and
// parameter list.
func (t *Type) Method(name string, sig []reflect.Type) (*Member, bool) {
	for _, m := range t.Methods {
		if m.Matches(name, sig) {
			return m, true
		}
	}
	return nil, false
}

// MethodsNamed returns every overload registered under name.
func (t *Type) MethodsNamed(name string) []*Member {
	var out []*Member
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Accepts reports whether a value of dynamic type rt is an instance of t.
func (t *Type) Accepts(rt reflect.Type) bool {
	if t.Go == nil || rt == nil {
		return false
	}
	return rt == t.Go || (t.Go.Kind() != reflect.Pointer && rt == reflect.PointerTo(t.Go))
}

// Restricted returns a copy of t whose members all refuse to be called for
// the given reason.
func Restricted(t *Type, reason string) *Type {
	cp := *t
	cp.Constructors = restrict(t.Constructors, reason)
	cp.Methods = restrict(t.Methods, reason)
	return &cp
}

func restrict(ms []*Member, reason string) []*Member {
	out := make([]*Member, len(ms))
	for i, m := range ms {
		cp := *m
		cp.Restricted = reason
		out[i] = &cp
	}
	return out
}

// SameSignature reports whether two parameter lists are identical.
func SameSignature(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatSignature renders a parameter list as "int, string".
func FormatSignature(sig []reflect.Type) string {
	parts := make([]string, len(sig))
	for i, p := range sig {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ErrUnsupportedShape is returned for functions whose results are not one
// of (), (T), (error) or (T, error).
var ErrUnsupportedShape = errors.New("unsupported function shape")

// ErrNotFunc is returned when a member is registered with a non-function.
var ErrNotFunc = errors.New("member is not a function")

func shape(ft reflect.Type) (result reflect.Type, fails bool, err error) {
	switch ft.NumOut() {
	case 0:
		return nil, false, nil
	case 1:
		if ft.Out(0) == errorType {
			return nil, true, nil
		}
		return ft.Out(0), false, nil
	case 2:
		if ft.Out(1) != errorType {
			return nil, false, fmt.Errorf("%w: second result of %s is not error", ErrUnsupportedShape, ft)
		}
		return ft.Out(0), true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedShape, ft)
	}
}

// newMember builds a member from a function value. For instance methods the
// function's first parameter is the receiver.
func newMember(name string, fn reflect.Value, static bool) (*Member, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotFunc, name)
	}
	ft := fn.Type()
	result, fails, err := shape(ft)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", name, err)
	}
	m := &Member{Name: name, Result: result, Fails: fails, Static: static, fn: fn}
	first := 0
	if !static {
		if ft.NumIn() == 0 {
			return nil, fmt.Errorf("member %s: method needs a receiver parameter", name)
		}
		m.Receiver = ft.In(0)
		first = 1
	}
	for i := first; i < ft.NumIn(); i++ {
		m.Params = append(m.Params, ft.In(i))
	}
	return m, nil
}

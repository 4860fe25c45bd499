// Package engine constructs and invokes registered types by exact signature.
//
// The Engine owns a session's symbol registry and namespace resolver. Every
// operation reports through an *outcome.Outcome; none of them terminates the
// process or leaks a panic from invoked code.
package engine

import (
	"reflect"

	"fluid/internal/descriptor"
	"fluid/internal/logging"
	"fluid/internal/outcome"
	"fluid/internal/registry"
	"fluid/internal/resolver"
)

// Accept decides whether an invocation result joins the result sequence.
// A nil Accept accepts everything.
type Accept func(*outcome.Outcome) bool

// AcceptAll accepts every result.
func AcceptAll(*outcome.Outcome) bool { return true }

// Engine performs construction and invocation for one session.
type Engine struct {
	symbols  *registry.Registry
	resolver *resolver.Resolver
}

// New creates an engine over symbols and res.
func New(symbols *registry.Registry, res *resolver.Resolver) *Engine {
	return &Engine{symbols: symbols, resolver: res}
}

// Registry returns the session's symbol registry.
func (e *Engine) Registry() *registry.Registry { return e.symbols }

// Resolver returns the session's namespace resolver.
func (e *Engine) Resolver() *resolver.Resolver { return e.resolver }

// Instantiate constructs t with the constructor whose parameter list is
// exactly sig. A non-empty bindName binds the instance as a variable; a
// value it replaces lands in the previous slot.
func (e *Engine) Instantiate(t *descriptor.Type, sig []reflect.Type, args []any, bindName string) *outcome.Outcome {
	ctor, ok := t.Constructor(sig)
	if !ok {
		return outcome.New().WithType(t).
			Contextf("%s has no constructor (%s)", t.QualifiedName(), descriptor.FormatSignature(sig)).
			WithError(outcome.Errorf(outcome.KindSignatureMismatch, t.QualifiedName(), "no constructor (%s)", descriptor.FormatSignature(sig))).
			Fail()
	}
	return e.Construct(t, ctor, args, bindName)
}

// Construct runs the constructor ctor of t. The bound variable keeps t as
// its descriptor.
func (e *Engine) Construct(t *descriptor.Type, ctor *descriptor.Member, args []any, bindName string) *outcome.Outcome {
	o := outcome.New().WithType(t)
	if ctor.IsDeprecated() {
		o.Contextf("constructor %s is deprecated: %s", ctor.Name, ctor.Deprecated)
	}

	res, err := e.Call(ctor, nil, args)
	if err != nil {
		return o.Contextf("construction of %s failed", t.QualifiedName()).WithError(err).Fail()
	}
	o.Contextf("constructed %s", t.QualifiedName())
	logging.Invoke("constructed %s via %s", t.QualifiedName(), ctor.Name)

	if bindName != "" {
		e.symbols.BindTyped(bindName, res.Value, t).OnPrevious(func(_ *outcome.Outcome, prev any) {
			o.Previous(prev).Contextf("variable %s overwritten", bindName)
		})
		o.Contextf("bound to %s", bindName)
	}
	return o.Target(res.Value).Succeed()
}

// Invoke calls the method of t named method whose parameter list is exactly
// sig. recv is ignored for static members. A non-nil result becomes the
// target and joins the result sequence if accept approves it.
func (e *Engine) Invoke(recv any, t *descriptor.Type, method string, sig []reflect.Type, args []any, accept Accept) *outcome.Outcome {
	m, ok := t.Method(method, sig)
	if !ok {
		return outcome.New().WithType(t).
			Contextf("%s has no method %s(%s)", t.QualifiedName(), method, descriptor.FormatSignature(sig)).
			WithError(outcome.Errorf(outcome.KindSignatureMismatch, t.QualifiedName()+"."+method, "no method (%s)", descriptor.FormatSignature(sig))).
			Fail()
	}
	return e.InvokeMember(recv, t, m, args, accept)
}

// InvokeMember calls m, a member of t, and classifies its result the way
// Invoke does.
func (e *Engine) InvokeMember(recv any, t *descriptor.Type, m *descriptor.Member, args []any, accept Accept) *outcome.Outcome {
	o := outcome.New().WithType(t)
	qualified := t.QualifiedName() + "." + m.Name
	if m.IsDeprecated() {
		o.Contextf("method %s is deprecated: %s", m.Name, m.Deprecated)
	}

	res, err := e.Call(m, recv, args)
	if err != nil {
		return o.Contextf("call of %s failed", qualified).WithError(err).Fail()
	}

	switch {
	case res.Void:
		o.Context("execution concluded")
	case res.Value == nil:
		o.Context("returned null")
	default:
		o.Context("returned result").Target(res.Value)
		if accept == nil || accept(o) {
			e.symbols.AppendResult(res.Value)
			logging.InvokeDebug("%s result recorded", qualified)
		}
	}
	logging.Invoke("invoked %s", qualified)
	return o.Succeed()
}

// Lookup returns the type registered under alias, or resolves it as a type
// name when no alias matches. Resolution does not register the type.
func (e *Engine) Lookup(name string) (*descriptor.Type, error) {
	if t, ok := e.symbols.ResolveType(name); ok {
		return t, nil
	}
	return e.resolver.Resolve(name)
}

// Import resolves name and registers it under alias (its short name when
// alias is empty).
func (e *Engine) Import(name, alias string) *outcome.Outcome {
	t, err := e.resolver.Resolve(name)
	if err != nil {
		return outcome.Failed("cannot import %s", name).WithError(err)
	}
	return e.symbols.RegisterType(t, alias)
}

// New constructs the type named typeName and binds the instance as bindName.
func (e *Engine) New(typeName, bindName string, sig []reflect.Type, args []any) *outcome.Outcome {
	t, err := e.Lookup(typeName)
	if err != nil {
		return outcome.Failed("unknown type %s", typeName).WithError(err)
	}
	return e.Instantiate(t, sig, args, bindName)
}

// CallVariable invokes method on the value bound to name, through the
// descriptor recorded at binding time when there is one.
func (e *Engine) CallVariable(name, method string, sig []reflect.Type, args []any, accept Accept) *outcome.Outcome {
	v, ok := e.symbols.ResolveVariable(name)
	if !ok {
		return outcome.Failed("unknown variable %s", name).
			WithError(outcome.Errorf(outcome.KindNotFound, name, "no such variable"))
	}
	if v == nil {
		return outcome.Failed("variable %s is nil", name).
			WithError(outcome.Errorf(outcome.KindMechanicalAccess, name, "nil receiver"))
	}
	t, ok := e.symbols.VariableType(name)
	if !ok || !t.Accepts(reflect.TypeOf(v)) {
		t = e.TypeOf(v)
	}
	return e.Invoke(v, t, method, sig, args, accept)
}

// CallStatic invokes a receiver-less method of the type named typeName.
func (e *Engine) CallStatic(typeName, method string, sig []reflect.Type, args []any, accept Accept) *outcome.Outcome {
	t, err := e.Lookup(typeName)
	if err != nil {
		return outcome.Failed("unknown type %s", typeName).WithError(err)
	}
	return e.Invoke(nil, t, method, sig, args, accept)
}

// Unbind removes a variable; the value it held lands in the previous slot.
func (e *Engine) Unbind(name string) *outcome.Outcome {
	v, ok := e.symbols.UnbindVariable(name)
	if !ok {
		return outcome.Failed("unknown variable %s", name).
			WithError(outcome.Errorf(outcome.KindNotFound, name, "no such variable"))
	}
	return outcome.Succeeded("variable %s unbound", name).Previous(v)
}

// Drop removes an alias; the descriptor it held lands in the previous slot.
func (e *Engine) Drop(alias string) *outcome.Outcome {
	t, ok := e.symbols.UnregisterType(alias)
	if !ok {
		return outcome.Failed("unknown alias %s", alias).
			WithError(outcome.Errorf(outcome.KindNotFound, alias, "no such alias"))
	}
	return outcome.Succeeded("alias %s dropped", alias).Previous(t).WithType(t)
}

// TypeOf returns the descriptor for a live value: the first registered type
// accepting its dynamic type, or one derived from its method set.
func (e *Engine) TypeOf(v any) *descriptor.Type {
	rt := reflect.TypeOf(v)
	for _, entry := range e.symbols.Types() {
		if entry.Type.Accepts(rt) {
			return entry.Type
		}
	}
	return descriptor.FromType(rt)
}

// Signature builds a parameter list from the dynamic types of args. A nil
// argument has no type and yields a nil entry.
func Signature(args ...any) []reflect.Type {
	sig := make([]reflect.Type, len(args))
	for i, a := range args {
		sig[i] = reflect.TypeOf(a)
	}
	return sig
}

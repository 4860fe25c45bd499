package engine

import (
	"fmt"
	"reflect"

	"fluid/internal/descriptor"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// Result is the classified return of a call.
type Result struct {
	// Value is nil when the member returned a nil value or nothing at all.
	Value any
	// Void is true when the member declares no result value.
	Void bool
}

// Call performs one raw call of m. recv is ignored for static members.
// Failures of the invoked code (a returned error or a panic) are reported as
// InvocationFailure; arguments or receivers reflect cannot use, and
// restricted members, are reported as MechanicalAccessFailure.
func (e *Engine) Call(m *descriptor.Member, recv any, args []any) (res Result, err error) {
	name := m.Name
	if m.Receiver != nil {
		name = fmt.Sprintf("%s.%s", m.Receiver, m.Name)
	}

	if m.Restricted != "" {
		return Result{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "%s", m.Restricted)
	}

	vals, err := arguments(name, m.Params, args)
	if err != nil {
		return Result{}, err
	}

	var rv reflect.Value
	if !m.Static {
		rv, err = receiver(name, m, recv)
		if err != nil {
			return Result{}, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryInvoke).Warn("%s panicked: %v", name, r)
			err = outcome.NewError(outcome.KindInvocationFailure, name, fmt.Errorf("panic: %v", r))
		}
	}()

	logging.InvokeDebug("calling %s", m)
	out := m.Invoke(rv, vals)

	if m.Fails {
		if ev := out[len(out)-1]; !ev.IsNil() {
			return Result{}, outcome.NewError(outcome.KindInvocationFailure, name, ev.Interface().(error))
		}
	}
	if m.Result == nil {
		return Result{Void: true}, nil
	}

	v := out[0]
	if nilable(v.Kind()) && v.IsNil() {
		return Result{}, nil
	}
	if !v.CanInterface() {
		return Result{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "result of type %s is not accessible", v.Type())
	}
	return Result{Value: v.Interface()}, nil
}

func arguments(name string, params []reflect.Type, args []any) ([]reflect.Value, error) {
	if len(args) != len(params) {
		return nil, outcome.Errorf(outcome.KindMechanicalAccess, name, "takes %d arguments, got %d", len(params), len(args))
	}
	vals := make([]reflect.Value, len(args))
	for i, a := range args {
		p := params[i]
		if a == nil {
			if !nilable(p.Kind()) {
				return nil, outcome.Errorf(outcome.KindMechanicalAccess, name, "argument %d: nil for %s", i, p)
			}
			vals[i] = reflect.Zero(p)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(p) {
			return nil, outcome.Errorf(outcome.KindMechanicalAccess, name, "argument %d: %s is not assignable to %s", i, v.Type(), p)
		}
		vals[i] = v
	}
	return vals, nil
}

// receiver adapts recv to the method's receiver type, taking the address of
// a copy or dereferencing a pointer where the method set requires it.
func receiver(name string, m *descriptor.Member, recv any) (reflect.Value, error) {
	if recv == nil {
		return reflect.Value{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "nil receiver")
	}
	rv := reflect.ValueOf(recv)
	want := m.Receiver
	switch {
	case want == nil:
	case want.Kind() == reflect.Interface:
		if !rv.Type().Implements(want) {
			return reflect.Value{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "%s does not implement %s", rv.Type(), want)
		}
	case rv.Type().AssignableTo(want):
	case want == reflect.PointerTo(rv.Type()):
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(want):
		rv = rv.Elem()
	default:
		return reflect.Value{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "receiver %s is not a %s", rv.Type(), want)
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return reflect.Value{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "nil receiver")
	}
	if want != nil && want.Kind() == reflect.Interface && !rv.MethodByName(m.Name).IsValid() {
		return reflect.Value{}, outcome.Errorf(outcome.KindMechanicalAccess, name, "method not accessible on %s", rv.Type())
	}
	return rv, nil
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

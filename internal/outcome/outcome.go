// Package outcome implements the multi-slot result carrier returned by every
// engine operation.
//
// An Outcome has independent optional slots: a message log, a tri-state
// success flag, a type reference, an error, a target value and a previous
// value. It is an ordinary return value; Raise converts it into an error
// when a caller wants to unwind through intermediate frames instead of
// reporting in place.
package outcome

import (
	"errors"
	"fmt"
	"strings"

	"fluid/internal/descriptor"
)

// Slot names one slot of an Outcome for the predicate combinators.
type Slot int

const (
	SlotMessage Slot = iota
	SlotSuccess
	SlotFailure
	SlotType
	SlotError
	SlotTarget
	SlotPrevious
)

func (s Slot) String() string {
	switch s {
	case SlotMessage:
		return "message"
	case SlotSuccess:
		return "success"
	case SlotFailure:
		return "failure"
	case SlotType:
		return "type"
	case SlotError:
		return "error"
	case SlotTarget:
		return "target"
	case SlotPrevious:
		return "previous"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Outcome carries the status, log and values produced by one operation.
// The zero value is an empty Outcome with every slot unset.
type Outcome struct {
	messages []string
	success  *bool
	typ      *descriptor.Type
	err      error
	target   any
	previous any
}

// New returns an empty Outcome.
func New() *Outcome {
	return &Outcome{}
}

// Succeeded returns an Outcome with success set, logging the message if
// format is non-empty.
func Succeeded(format string, args ...any) *Outcome {
	o := New().Succeed()
	if format != "" {
		o.Contextf(format, args...)
	}
	return o
}

// Failed returns an Outcome with success set to false, logging the message
// if format is non-empty.
func Failed(format string, args ...any) *Outcome {
	o := New().Fail()
	if format != "" {
		o.Contextf(format, args...)
	}
	return o
}

// Context appends a line to the message log.
func (o *Outcome) Context(msg string) *Outcome {
	o.messages = append(o.messages, msg)
	return o
}

// Contextf appends a formatted line to the message log.
func (o *Outcome) Contextf(format string, args ...any) *Outcome {
	return o.Context(fmt.Sprintf(format, args...))
}

// SetSuccess sets the tri-state success slot.
func (o *Outcome) SetSuccess(ok bool) *Outcome {
	o.success = &ok
	return o
}

// Succeed sets success to true.
func (o *Outcome) Succeed() *Outcome { return o.SetSuccess(true) }

// Fail sets success to false.
func (o *Outcome) Fail() *Outcome { return o.SetSuccess(false) }

// WithType sets the type slot.
func (o *Outcome) WithType(t *descriptor.Type) *Outcome {
	o.typ = t
	return o
}

// WithError sets the error slot.
func (o *Outcome) WithError(err error) *Outcome {
	o.err = err
	return o
}

// Fault sets the error slot to a classified error.
func (o *Outcome) Fault(kind Kind, name string, cause error) *Outcome {
	return o.WithError(NewError(kind, name, cause))
}

// Target sets the primary value slot. A nil value leaves the slot empty.
func (o *Outcome) Target(v any) *Outcome {
	o.target = v
	return o
}

// Previous sets the previous value slot. A nil value leaves the slot empty.
func (o *Outcome) Previous(v any) *Outcome {
	o.previous = v
	return o
}

// Message returns the log joined by newlines.
func (o *Outcome) Message() string { return strings.Join(o.messages, "\n") }

// Messages returns a copy of the log lines.
func (o *Outcome) Messages() []string {
	out := make([]string, len(o.messages))
	copy(out, o.messages)
	return out
}

func (o *Outcome) Type() *descriptor.Type { return o.typ }
func (o *Outcome) Err() error             { return o.err }
func (o *Outcome) TargetValue() any       { return o.target }
func (o *Outcome) PreviousValue() any     { return o.previous }

// Kind returns the kind of the carried error, KindUnknown if none.
func (o *Outcome) Kind() Kind { return KindOf(o.err) }

func (o *Outcome) HasMessage() bool  { return len(o.messages) > 0 }
func (o *Outcome) HasSuccess() bool  { return o.success != nil }
func (o *Outcome) HasType() bool     { return o.typ != nil }
func (o *Outcome) HasError() bool    { return o.err != nil }
func (o *Outcome) HasTarget() bool   { return o.target != nil }
func (o *Outcome) HasPrevious() bool { return o.previous != nil }

// IsSuccess is true iff success is set and true.
func (o *Outcome) IsSuccess() bool { return o.success != nil && *o.success }

// IsFailure is true iff success is set and false.
func (o *Outcome) IsFailure() bool { return o.success != nil && !*o.success }

// Has reports whether the slot is populated.
func (o *Outcome) Has(s Slot) bool {
	switch s {
	case SlotMessage:
		return o.HasMessage()
	case SlotSuccess:
		return o.IsSuccess()
	case SlotFailure:
		return o.IsFailure()
	case SlotType:
		return o.HasType()
	case SlotError:
		return o.HasError()
	case SlotTarget:
		return o.HasTarget()
	case SlotPrevious:
		return o.HasPrevious()
	default:
		return false
	}
}

// OnAny runs fn at most once, iff at least one of the slots is populated.
func (o *Outcome) OnAny(fn func(*Outcome), slots ...Slot) *Outcome {
	for _, s := range slots {
		if o.Has(s) {
			fn(o)
			break
		}
	}
	return o
}

// OnAll runs fn at most once, iff every slot is populated.
func (o *Outcome) OnAll(fn func(*Outcome), slots ...Slot) *Outcome {
	for _, s := range slots {
		if !o.Has(s) {
			return o
		}
	}
	fn(o)
	return o
}

func (o *Outcome) OnMessage(fn func(*Outcome, string)) *Outcome {
	return o.OnAny(func(o *Outcome) { fn(o, o.Message()) }, SlotMessage)
}

func (o *Outcome) OnSuccess(fn func(*Outcome)) *Outcome {
	return o.OnAny(fn, SlotSuccess)
}

func (o *Outcome) OnFailure(fn func(*Outcome)) *Outcome {
	return o.OnAny(fn, SlotFailure)
}

func (o *Outcome) OnError(fn func(*Outcome, error)) *Outcome {
	return o.OnAny(func(o *Outcome) { fn(o, o.err) }, SlotError)
}

func (o *Outcome) OnTarget(fn func(*Outcome, any)) *Outcome {
	return o.OnAny(func(o *Outcome) { fn(o, o.target) }, SlotTarget)
}

func (o *Outcome) OnPrevious(fn func(*Outcome, any)) *Outcome {
	return o.OnAny(func(o *Outcome) { fn(o, o.previous) }, SlotPrevious)
}

func (o *Outcome) OnType(fn func(*Outcome, *descriptor.Type)) *Outcome {
	return o.OnAny(func(o *Outcome) { fn(o, o.typ) }, SlotType)
}

// Raise converts the Outcome into an error. Every populated slot travels
// with it; FromError recovers the Outcome on the other side.
func (o *Outcome) Raise() error {
	return &Raised{Outcome: o}
}

// Check returns Raise() if the Outcome is a failure or carries an error,
// and nil otherwise.
func (o *Outcome) Check() error {
	if o.IsFailure() || o.HasError() {
		return o.Raise()
	}
	return nil
}

func none(s string) string {
	if s == "" {
		return "None."
	}
	return s
}

func (o *Outcome) String() string {
	var b strings.Builder
	b.WriteString("Message:\n")
	b.WriteString(none(o.Message()))
	b.WriteString("\nType:\n")
	if o.typ != nil {
		b.WriteString(o.typ.QualifiedName())
	} else {
		b.WriteString("None.")
	}
	b.WriteString("\nError:\n")
	if o.err != nil {
		b.WriteString(o.err.Error())
	} else {
		b.WriteString("None.")
	}
	b.WriteString("\nSuccess:\n")
	if o.success != nil {
		fmt.Fprintf(&b, "%t", *o.success)
	} else {
		b.WriteString("None.")
	}
	b.WriteString("\nTarget:\n")
	if o.target != nil {
		fmt.Fprintf(&b, "%v", o.target)
	} else {
		b.WriteString("None.")
	}
	return b.String()
}

// Raised is an Outcome travelling as an error.
type Raised struct {
	Outcome *Outcome
}

// Headline is the raised Outcome's log, or its error's text if the log is
// empty.
func (r *Raised) Headline() string {
	if r.Outcome.HasMessage() {
		return r.Outcome.Message()
	}
	if r.Outcome.err != nil {
		return r.Outcome.err.Error()
	}
	return "outcome raised"
}

func (r *Raised) Error() string {
	if r.Outcome.HasMessage() && r.Outcome.err != nil {
		return strings.ReplaceAll(r.Outcome.Message(), "\n", "; ") + ": " + r.Outcome.err.Error()
	}
	return strings.ReplaceAll(r.Headline(), "\n", "; ")
}

func (r *Raised) Unwrap() error { return r.Outcome.err }

// FromError returns the Outcome carried by a raised error anywhere in err's
// chain.
func FromError(err error) (*Outcome, bool) {
	var r *Raised
	if errors.As(err, &r) {
		return r.Outcome, true
	}
	return nil, false
}

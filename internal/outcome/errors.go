package outcome

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy sentinels. Match them with errors.Is.
var (
	// ErrNotFound is returned when a named type, variable or package is absent.
	ErrNotFound = errors.New("not found")

	// ErrSignatureMismatch is returned when no constructor or method has the
	// exact requested parameter-type list.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvocationFailure is returned when the invoked code itself failed.
	// The original error is kept as the cause.
	ErrInvocationFailure = errors.New("invocation failure")

	// ErrMechanicalAccess is returned when a call could not be performed at
	// all: unusable arguments or receiver, or an access restriction.
	ErrMechanicalAccess = errors.New("mechanical access failure")

	// ErrAdaptationExhausted is returned when neither a constructor nor a
	// parse member was discovered and accepted.
	ErrAdaptationExhausted = errors.New("adaptation exhausted")
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindSignatureMismatch
	KindInvocationFailure
	KindMechanicalAccess
	KindAdaptationExhausted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindSignatureMismatch:
		return "SignatureMismatch"
	case KindInvocationFailure:
		return "InvocationFailure"
	case KindMechanicalAccess:
		return "MechanicalAccessFailure"
	case KindAdaptationExhausted:
		return "AdaptationExhausted"
	default:
		return "Unknown"
	}
}

// Sentinel returns the sentinel error errors.Is matches for the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindSignatureMismatch:
		return ErrSignatureMismatch
	case KindInvocationFailure:
		return ErrInvocationFailure
	case KindMechanicalAccess:
		return ErrMechanicalAccess
	case KindAdaptationExhausted:
		return ErrAdaptationExhausted
	default:
		return nil
	}
}

// Error is a classified engine failure. Name holds the qualifying names
// involved (a type, member or variable) and Cause the underlying error.
type Error struct {
	Kind   Kind
	Name   string
	Detail string
	Cause  error
}

// NewError builds a classified error.
func NewError(kind Kind, name string, cause error) *Error {
	return &Error{Kind: kind, Name: name, Cause: cause}
}

// Errorf builds a classified error with a formatted detail and no cause.
func Errorf(kind Kind, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Name: name, Detail: fmt.Sprintf(format, args...)}
}

// Headline is the error text without the cause chain.
func (e *Error) Headline() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Headline()
	}
	return e.Headline() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

type headliner interface {
	Headline() string
}

// Chain renders err as chained diagnostic lines: the error itself first,
// then every nested cause down to the root. A wrapper's line omits the text
// of the cause printed below it, and joined errors contribute each branch.
func Chain(err error) []string {
	var lines []string
	var walk func(error)
	walk = func(e error) {
		for e != nil {
			causes := unwrapAll(e)
			if line := headline(e, causes); line != "" {
				lines = append(lines, line)
			}
			if len(causes) != 1 {
				for _, c := range causes {
					walk(c)
				}
				return
			}
			e = causes[0]
		}
	}
	walk(err)
	return lines
}

func unwrapAll(e error) []error {
	switch u := e.(type) {
	case interface{ Unwrap() []error }:
		return u.Unwrap()
	case interface{ Unwrap() error }:
		if c := u.Unwrap(); c != nil {
			return []error{c}
		}
	}
	return nil
}

func headline(e error, causes []error) string {
	if h, ok := e.(headliner); ok {
		return h.Headline()
	}
	text := e.Error()
	switch len(causes) {
	case 0:
		return text
	case 1:
		inner := causes[0].Error()
		if text == inner {
			return ""
		}
		return strings.TrimSuffix(text, ": "+inner)
	default:
		texts := make([]string, len(causes))
		for i, c := range causes {
			texts[i] = c.Error()
		}
		if text == strings.Join(texts, "\n") {
			return ""
		}
		return text
	}
}

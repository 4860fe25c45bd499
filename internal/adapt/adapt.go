// Package adapt converts raw strings into instances of a target type by
// discovering a conversion member on the type and asking the caller to
// approve it.
//
// Candidates are scanned in two categories: constructors first, then static
// members whose name begins with "parse". Only the first member in each
// category taking a single string-accepting parameter is offered. A
// deprecated candidate needs an extra approval. Any refusal abandons the
// whole category.
package adapt

import (
	"strings"

	"fluid/internal/descriptor"
	"fluid/internal/engine"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// ParsePrefix starts the name of every parse candidate, compared without
// regard to case.
const ParsePrefix = "parse"

// Approver decides whether a candidate may be used. The Outcome it receives
// describes the candidate: a message, the target type and, as target, the
// *descriptor.Member. It may block, for example on a user prompt.
type Approver func(*outcome.Outcome) bool

// Always approves every candidate.
func Always(*outcome.Outcome) bool { return true }

// Never refuses every candidate.
func Never(*outcome.Outcome) bool { return false }

type category int

const (
	constructors category = iota
	parsers
)

func (c category) String() string {
	if c == constructors {
		return "constructor"
	}
	return "parse member"
}

// Adapter runs adaptations through an engine.
type Adapter struct {
	engine *engine.Engine
}

// New creates an adapter executing candidates through e.
func New(e *engine.Engine) *Adapter {
	return &Adapter{engine: e}
}

// AdaptName adapts raw into the type registered as typeName, resolving the
// name if no alias matches.
func (a *Adapter) AdaptName(raw, typeName string, approve Approver) (any, error) {
	t, err := a.engine.Lookup(typeName)
	if err != nil {
		return nil, outcome.Failed("cannot adapt to unknown type %s", typeName).WithError(err).Raise()
	}
	return a.Adapt(raw, t, approve)
}

// Adapt converts raw into an instance of t. The first approved candidate
// runs; its failure is reported as InvocationFailure. With no approved
// candidate in either category the error is AdaptationExhausted.
func (a *Adapter) Adapt(raw string, t *descriptor.Type, approve Approver) (any, error) {
	if approve == nil {
		approve = Always
	}

	for _, cat := range []category{constructors, parsers} {
		m := candidate(t, cat)
		if m == nil {
			continue
		}
		if !a.approved(t, m, cat, approve) {
			logging.AdaptDebug("%s %s refused for %s", cat, m.Name, t.QualifiedName())
			continue
		}
		logging.Adapt("adapting %q to %s via %s", raw, t.QualifiedName(), m.Name)
		return a.run(raw, t, m, cat)
	}

	return nil, outcome.Failed("%s not adaptable from %q", t.QualifiedName(), raw).
		WithType(t).
		WithError(outcome.Errorf(outcome.KindAdaptationExhausted, t.QualifiedName(), "no accepted candidate for %q", raw)).
		Raise()
}

// candidate returns the first member of the category taking one
// string-accepting parameter.
func candidate(t *descriptor.Type, cat category) *descriptor.Member {
	if cat == constructors {
		for _, c := range t.Constructors {
			if c.AcceptsString() {
				return c
			}
		}
		return nil
	}
	for _, m := range t.Methods {
		if m.Static && m.AcceptsString() && strings.HasPrefix(strings.ToLower(m.Name), ParsePrefix) {
			return m
		}
	}
	return nil
}

// approved runs the deprecation approval, if any, then the generic one.
func (a *Adapter) approved(t *descriptor.Type, m *descriptor.Member, cat category, approve Approver) bool {
	if m.IsDeprecated() {
		ask := outcome.New().
			Contextf("Deprecated: %s", m.Deprecated).
			Contextf("%s %s accepting a string for %s is marked for deprecation", cat, m.Format(t), t.QualifiedName()).
			WithType(t).
			Target(m)
		if !approve(ask) {
			return false
		}
	}
	ask := outcome.New().
		Contextf("found %s %s accepting a string for %s", cat, m.Format(t), t.QualifiedName()).
		WithType(t).
		Target(m)
	return approve(ask)
}

// run executes exactly the approved member m.
func (a *Adapter) run(raw string, t *descriptor.Type, m *descriptor.Member, cat category) (any, error) {
	args := []any{raw}

	var o *outcome.Outcome
	if cat == constructors {
		o = a.engine.Construct(t, m, args, "")
	} else {
		o = a.engine.InvokeMember(nil, t, m, args, func(*outcome.Outcome) bool { return false })
	}

	if o.Check() != nil {
		return nil, failure(raw, t, m, o.Err())
	}
	return o.TargetValue(), nil
}

func failure(raw string, t *descriptor.Type, m *descriptor.Member, err error) error {
	if outcome.KindOf(err) != outcome.KindInvocationFailure {
		err = outcome.NewError(outcome.KindInvocationFailure, t.QualifiedName()+"."+m.Name, err)
	}
	return outcome.Failed("adaptation of %q to %s via %s failed", raw, t.QualifiedName(), m.Name).
		WithType(t).
		WithError(err).
		Raise()
}

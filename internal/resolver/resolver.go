// Package resolver finds type descriptors by name, searching an ordered list
// of namespace prefixes for unqualified names.
package resolver

import (
	"errors"
	"strings"

	"fluid/internal/descriptor"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// Separator joins a namespace prefix and a type name.
const Separator = "."

// DefaultPrefixes are searched before any caller-supplied prefix.
var DefaultPrefixes = []string{
	"lang",
	"strings",
	"strconv",
	"time",
	"math/big",
	"net/url",
	"net/netip",
	"bytes",
}

// Loader loads descriptors by qualified name. A loader lives for a single
// resolution attempt and is closed before the next one starts.
type Loader interface {
	Load(qualified string) (*descriptor.Type, error)
	Close() error
}

// Opener creates the loader for one resolution attempt.
type Opener func() (Loader, error)

// Resolver resolves type names against an ordered prefix list.
type Resolver struct {
	open     Opener
	prefixes []string
}

// New creates a resolver searching DefaultPrefixes followed by prefixes.
// Duplicates are dropped; the first occurrence keeps its position.
func New(open Opener, prefixes ...string) *Resolver {
	r := &Resolver{open: open}
	for _, p := range DefaultPrefixes {
		r.AddPrefix(p)
	}
	for _, p := range prefixes {
		r.AddPrefix(p)
	}
	return r
}

// Prefixes returns a copy of the search order.
func (r *Resolver) Prefixes() []string {
	out := make([]string, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}

// AddPrefix appends p to the search order unless it is already present.
// It reports whether p was added.
func (r *Resolver) AddPrefix(p string) bool {
	if p == "" {
		return false
	}
	for _, existing := range r.prefixes {
		if existing == p {
			return false
		}
	}
	r.prefixes = append(r.prefixes, p)
	return true
}

// Resolve returns the descriptor for name. A qualified name is loaded
// directly. An unqualified name is tried under each prefix in order and the
// first prefix that loads wins; earlier failures are discarded.
func (r *Resolver) Resolve(name string) (*descriptor.Type, error) {
	if name == "" {
		return nil, outcome.Errorf(outcome.KindNotFound, "", "empty type name")
	}
	if strings.Contains(name, Separator) {
		logging.ResolverDebug("direct load of %s", name)
		return r.attempt(name)
	}

	for _, p := range r.prefixes {
		t, err := r.attempt(p + Separator + name)
		if err == nil {
			logging.Resolver("resolved %s under %s", name, p)
			return t, nil
		}
		logging.ResolverDebug("%s not under %s: %v", name, p, err)
	}
	return nil, outcome.Errorf(outcome.KindNotFound, name, "no namespace among %d prefixes defines it", len(r.prefixes))
}

// attempt runs one load with a freshly opened loader and always closes it.
func (r *Resolver) attempt(qualified string) (t *descriptor.Type, err error) {
	l, err := r.open()
	if err != nil {
		return nil, outcome.NewError(outcome.KindNotFound, qualified, err)
	}
	defer func() {
		if cerr := l.Close(); cerr != nil {
			logging.Get(logging.CategoryResolver).Warn("closing loader for %s: %v", qualified, cerr)
		}
	}()

	t, err = l.Load(qualified)
	if err != nil {
		if outcome.KindOf(err) == outcome.KindUnknown {
			err = outcome.NewError(outcome.KindNotFound, qualified, err)
		}
		return nil, err
	}
	return t, nil
}

// SplitQualified splits "math/big.Int" into "math/big" and "Int" at the last
// separator.
func SplitQualified(qualified string) (pkgPath, name string, ok bool) {
	i := strings.LastIndex(qualified, Separator)
	if i <= 0 || i == len(qualified)-1 {
		return "", "", false
	}
	return qualified[:i], qualified[i+1:], true
}

// ErrNoSuchType is the cause loaders report for an absent name.
var ErrNoSuchType = errors.New("no such type")

// NotFound builds the error a loader returns for an absent name.
func NotFound(qualified string) error {
	return outcome.NewError(outcome.KindNotFound, qualified, ErrNoSuchType)
}

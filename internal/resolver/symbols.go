package resolver

import (
	"path"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"

	"fluid/internal/descriptor"
)

// SymbolTable derives descriptors from a yaegi export table such as
// github.com/traefik/yaegi/stdlib.Symbols. Tables are keyed
// "importpath/pkgname"; a type is exported as a nil pointer to it.
type SymbolTable struct {
	exports    interp.Exports
	deprecated map[string]string
}

// NewSymbolTable creates a loader over exports.
func NewSymbolTable(exports interp.Exports) *SymbolTable {
	return &SymbolTable{exports: exports, deprecated: make(map[string]string)}
}

// Deprecate attaches a deprecation note to the exported function
// pkgPath.name.
func (s *SymbolTable) Deprecate(pkgPath, name, note string) *SymbolTable {
	s.deprecated[pkgPath+Separator+name] = note
	return s
}

func (s *SymbolTable) Load(qualified string) (*descriptor.Type, error) {
	pkgPath, name, ok := SplitQualified(qualified)
	if !ok {
		return nil, NotFound(qualified)
	}
	syms, ok := s.lookup(pkgPath)
	if !ok {
		return nil, NotFound(qualified)
	}
	sym, ok := syms[name]
	if !ok || !sym.IsValid() || sym.Kind() != reflect.Pointer || !sym.IsNil() {
		return nil, NotFound(qualified)
	}

	notes := make(map[string]string)
	prefix := pkgPath + Separator
	for k, v := range s.deprecated {
		if strings.HasPrefix(k, prefix) {
			notes[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return descriptor.FromExports(pkgPath, name, sym.Type().Elem(), syms, notes), nil
}

// Close is a no-op; export tables are static.
func (s *SymbolTable) Close() error { return nil }

// Open returns the table itself as an attempt loader.
func (s *SymbolTable) Open() (Loader, error) { return s, nil }

func (s *SymbolTable) lookup(pkgPath string) (map[string]reflect.Value, bool) {
	if syms, ok := s.exports[pkgPath+"/"+path.Base(pkgPath)]; ok {
		return syms, true
	}
	// package name differs from the last path element
	for key, syms := range s.exports {
		if path.Dir(key) == pkgPath {
			return syms, true
		}
	}
	return nil, false
}

package main

import (
	"errors"
	"fmt"

	"github.com/traefik/yaegi/stdlib"

	"fluid/internal/compiler"
	"fluid/internal/config"
	"fluid/internal/engine"
	"fluid/internal/history"
	"fluid/internal/lang"
	"fluid/internal/logging"
	"fluid/internal/registry"
	"fluid/internal/resolver"
)

// app is the wired engine and its collaborators for one process.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	compiler *compiler.Compiler
	history  *history.Store
}

// newApp builds the engine described by cfg. Types are looked up in the
// predeclared catalog, then the interpreter's standard library table, then
// compiled sources; denied packages resolve but refuse every call.
func newApp(cfg *config.Config, prefixes []string) (*app, error) {
	a := &app{cfg: cfg}
	denied := cfg.Engine.DeniedPackages

	if cfg.Compiler.Enabled {
		a.compiler = compiler.New(cfg.Compiler.OutputDir, denied, compiler.WithTimeout(cfg.GetCompileTimeout()))
	}

	catalog := resolver.NewCatalog(lang.Types()...)
	symbols := resolver.NewSymbolTable(stdlib.Symbols)
	open := func() (resolver.Loader, error) {
		chain := resolver.Chain{catalog, resolver.Guard(symbols, denied)}
		if a.compiler != nil {
			l, err := a.compiler.Open()
			if err != nil {
				return nil, fmt.Errorf("open compiled sources: %w", err)
			}
			chain = append(chain, resolver.Guard(l, denied))
		}
		return chain, nil
	}

	all := append(append([]string{}, cfg.Engine.Prefixes...), prefixes...)
	if a.compiler != nil {
		all = append(all, a.compiler.Packages()...)
	}
	res := resolver.New(open, all...)
	for _, p := range res.Prefixes() {
		if cfg.Engine.IsDenied(p) {
			logging.Get(logging.CategoryBoot).Warn("prefix %s is denied; its types resolve but refuse calls", p)
		}
	}
	a.engine = engine.New(registry.New(), res)

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
	}

	logging.Boot("engine wired with prefixes %v", res.Prefixes())
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}

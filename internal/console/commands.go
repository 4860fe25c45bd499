package console

import (
	"context"
	"fmt"
	"reflect"

	"fluid/internal/engine"
	"fluid/internal/outcome"
)

// historyLimit is how many entries the history command shows.
const historyLimit = 20

type command struct {
	usage string
	// min and max bound the argument count; max -1 means unbounded.
	min, max int
	exit     bool
	run      func(ctx context.Context, c *Console, args []string) *outcome.Outcome
}

func commandTable() map[string]*command {
	types := &command{usage: "types", max: 0, run: listTypes}
	return map[string]*command{
		"import":  {usage: "import <type> [alias]", min: 1, max: 2, run: importType},
		"new":     {usage: "new <type> <var> [value:type...]", min: 2, max: -1, run: newInstance},
		"call":    {usage: "call <type|var> <method> [value:type...]", min: 2, max: -1, run: call},
		"adapt":   {usage: "adapt <type> <raw> [var]", min: 2, max: 3, run: adaptRaw},
		"compile": {usage: "compile <file.go...>", min: 1, max: -1, run: compileFiles},
		"heap":    {usage: "heap", max: 0, run: listHeap},
		"types":   types,
		"classes": types,
		"results": {usage: "results", max: 0, run: listResults},
		"unbind":  {usage: "unbind <var>", min: 1, max: 1, run: unbind},
		"drop":    {usage: "drop <alias>", min: 1, max: 1, run: drop},
		"history": {usage: "history", max: 0, run: showHistory},
		"help":    {usage: "help", max: 0, run: help},
		"exit":    {usage: "exit", exit: true},
		"quit":    {usage: "quit", exit: true},
	}
}

func importType(_ context.Context, c *Console, args []string) *outcome.Outcome {
	alias := ""
	if len(args) == 2 {
		alias = args[1]
	}
	return c.engine.Import(args[0], alias)
}

func newInstance(_ context.Context, c *Console, args []string) *outcome.Outcome {
	sig, vals, err := c.arguments(args[2:])
	if err != nil {
		return outcome.Failed("cannot parse arguments").WithError(err)
	}
	return c.engine.New(args[0], args[1], sig, vals)
}

// call prefers a registered alias, then a variable, then a resolvable type.
func call(_ context.Context, c *Console, args []string) *outcome.Outcome {
	sig, vals, err := c.arguments(args[2:])
	if err != nil {
		return outcome.Failed("cannot parse arguments").WithError(err)
	}
	reg := c.engine.Registry()
	if _, ok := reg.ResolveType(args[0]); ok {
		return c.engine.CallStatic(args[0], args[1], sig, vals, engine.AcceptAll)
	}
	if _, ok := reg.ResolveVariable(args[0]); ok {
		return c.engine.CallVariable(args[0], args[1], sig, vals, engine.AcceptAll)
	}
	return c.engine.CallStatic(args[0], args[1], sig, vals, engine.AcceptAll)
}

func adaptRaw(_ context.Context, c *Console, args []string) *outcome.Outcome {
	t, err := c.engine.Lookup(args[0])
	if err != nil {
		return outcome.Failed("cannot adapt to unknown type %s", args[0]).WithError(err)
	}
	v, err := c.adapter.Adapt(args[1], t, c.approve)
	if err != nil {
		if o, ok := outcome.FromError(err); ok {
			return o
		}
		return outcome.Failed("cannot adapt %q to %s", args[1], args[0]).WithError(err)
	}
	o := outcome.Succeeded("adapted %q to %s", args[1], args[0]).Target(v)
	if len(args) == 3 {
		o.Contextf("bound to %s", args[2])
		c.engine.Registry().BindTyped(args[2], v, t).
			OnPrevious(func(_ *outcome.Outcome, prev any) { o.Previous(prev) })
	}
	return o
}

// compileFiles compiles sources and puts every compiled package on the
// resolver's prefix list.
func compileFiles(ctx context.Context, c *Console, args []string) *outcome.Outcome {
	if c.compiler == nil {
		return outcome.Failed("compilation is disabled")
	}
	o := c.compiler.Compile(ctx, args...)
	if o.IsSuccess() {
		for _, pkg := range c.compiler.Packages() {
			if c.engine.Resolver().AddPrefix(pkg) {
				o.Contextf("package %s added to the search path", pkg)
			}
		}
	}
	return o
}

func listHeap(_ context.Context, c *Console, _ []string) *outcome.Outcome {
	vars := c.engine.Registry().Variables()
	o := outcome.Succeeded("%d variables", len(vars))
	for _, v := range vars {
		o.Contextf("  %s = %v (%s)", v.Name, v.Value, typeName(v.Value))
	}
	return o
}

func listTypes(_ context.Context, c *Console, _ []string) *outcome.Outcome {
	types := c.engine.Registry().Types()
	o := outcome.Succeeded("%d types", len(types))
	for _, t := range types {
		o.Contextf("  %s -> %s", t.Alias, t.Type.QualifiedName())
	}
	return o
}

func listResults(_ context.Context, c *Console, _ []string) *outcome.Outcome {
	results := c.engine.Registry().Results()
	o := outcome.Succeeded("%d results", len(results))
	for i, r := range results {
		o.Contextf("  [%d] %v (%s)", i, r, typeName(r))
	}
	return o
}

func unbind(_ context.Context, c *Console, args []string) *outcome.Outcome {
	return c.engine.Unbind(args[0])
}

func drop(_ context.Context, c *Console, args []string) *outcome.Outcome {
	return c.engine.Drop(args[0])
}

func showHistory(ctx context.Context, c *Console, _ []string) *outcome.Outcome {
	if c.history == nil {
		return outcome.Failed("history is disabled")
	}
	entries, err := c.history.Recent(ctx, historyLimit)
	if err != nil {
		return outcome.Failed("cannot read history").WithError(err)
	}
	o := outcome.Succeeded("%d commands", len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		mark := " "
		if !e.OK {
			mark = "!"
		}
		o.Contextf("  %s %s %s", e.At.Format("15:04:05"), mark, e.Command)
	}
	return o
}

func help(_ context.Context, c *Console, _ []string) *outcome.Outcome {
	fmt.Fprint(c.out, c.renderHelp())
	return outcome.New().Succeed()
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

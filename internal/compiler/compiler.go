// Package compiler stages Go source files into an output tree and checks
// them with the yaegi interpreter, so that the types they declare can be
// loaded by the engine.
//
// Layout: every file lands in <output>/src/<package>/, where <package> is
// the file's package clause, and the package is imported under that name.
package compiler

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"golang.org/x/sync/errgroup"

	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// Exit statuses carried in the target slot of a compile outcome.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// Compiler stages and checks source packages.
type Compiler struct {
	outputDir string
	denied    map[string]bool
	timeout   time.Duration
	stdout    io.Writer
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithTimeout bounds the check of each package.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) { c.timeout = d }
}

// WithOutput sends what checked packages print at init time to w.
func WithOutput(w io.Writer) Option {
	return func(c *Compiler) { c.stdout = w }
}

// New creates a compiler writing under outputDir and refusing sources that
// import a denied package.
func New(outputDir string, denied []string, opts ...Option) *Compiler {
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	c := &Compiler{
		outputDir: outputDir,
		denied:    make(map[string]bool, len(denied)),
		timeout:   10 * time.Second,
		stdout:    io.Discard,
	}
	for _, d := range denied {
		c.denied[d] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputDir returns the root of the output tree.
func (c *Compiler) OutputDir() string { return c.outputDir }

// Packages lists the packages present in the output tree, sorted.
func (c *Compiler) Packages() []string {
	entries, err := os.ReadDir(filepath.Join(c.outputDir, "src"))
	if err != nil {
		return nil
	}
	var pkgs []string
	for _, e := range entries {
		if e.IsDir() {
			pkgs = append(pkgs, e.Name())
		}
	}
	return pkgs
}

// Compile stages files and checks every package they belong to, each with a
// fresh interpreter and in parallel. The exit status lands in the target
// slot and decides the success slot.
func (c *Compiler) Compile(ctx context.Context, files ...string) *outcome.Outcome {
	o := outcome.New()
	if len(files) == 0 {
		return exit(o.Context("nothing to compile"), ExitFailed)
	}

	pkgs, err := c.stage(files)
	if err != nil {
		return exit(o.Context("staging failed").WithError(err), ExitFailed)
	}

	names := make([]string, 0, len(pkgs))
	for name := range pkgs {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				errs[i] = gctx.Err()
			default:
				errs[i] = c.check(gctx, name)
			}
			return nil
		})
	}
	_ = g.Wait()

	status := ExitOK
	for i, name := range names {
		if errs[i] != nil {
			status = ExitFailed
			o.Contextf("%s: %v", name, errs[i])
			if !o.HasError() {
				o.WithError(fmt.Errorf("check package %s: %w", name, errs[i]))
			}
			logging.Get(logging.CategoryCompile).Warn("package %s failed: %v", name, errs[i])
			continue
		}
		o.Contextf("%s: ok (%d files)", name, len(pkgs[name]))
		logging.Compile("package %s compiled into %s", name, c.outputDir)
	}
	return exit(o, status)
}

// exit stores the status in the target slot and derives success from it.
func exit(o *outcome.Outcome, status int) *outcome.Outcome {
	return o.Target(status).OnTarget(func(o *outcome.Outcome, v any) {
		o.SetSuccess(v == ExitOK)
	})
}

// stage parses every file, enforces the import policy and copies the files
// into the output tree, grouped by package.
func (c *Compiler) stage(files []string) (map[string][]string, error) {
	fset := token.NewFileSet()
	pkgs := make(map[string][]string)

	for _, path := range files {
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, imp := range f.Imports {
			ip, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: bad import %s: %w", path, imp.Path.Value, err)
			}
			if c.denied[ip] {
				return nil, fmt.Errorf("%w: %s imports %s", ErrDeniedImport, path, ip)
			}
		}
		name := f.Name.Name
		if name == "main" {
			return nil, fmt.Errorf("%w: %s", ErrMainPackage, path)
		}
		pkgs[name] = append(pkgs[name], path)
	}

	for name, srcs := range pkgs {
		dir := filepath.Join(c.outputDir, "src", name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create package dir: %w", err)
		}
		for _, path := range srcs {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			if err := os.WriteFile(filepath.Join(dir, filepath.Base(path)), data, 0644); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
		}
		logging.CompileDebug("staged %d files for %s", len(srcs), name)
	}
	return pkgs, nil
}

// check imports the staged package into a fresh interpreter.
func (c *Compiler) check(ctx context.Context, pkg string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	i, err := c.interpreter()
	if err != nil {
		return err
	}
	if _, err := i.EvalWithContext(ctx, fmt.Sprintf("import %q", pkg)); err != nil {
		return err
	}
	return nil
}

func (c *Compiler) interpreter() (*interp.Interpreter, error) {
	i := interp.New(interp.Options{
		GoPath: c.outputDir,
		Stdout: c.stdout,
		Stderr: c.stdout,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	return i, nil
}

package compiler

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"

	"fluid/internal/descriptor"
	"fluid/internal/logging"
	"fluid/internal/outcome"
	"fluid/internal/resolver"
)

// Open returns a loader over the packages compiled so far. The loader keeps
// one interpreter per package it touches and drops them on Close.
func (c *Compiler) Open() (resolver.Loader, error) {
	return &SourceLoader{
		compiler: c,
		interps:  make(map[string]*interp.Interpreter),
		imported: make(map[string]map[string]bool),
	}, nil
}

// SourceLoader loads descriptors for types declared in compiled packages.
type SourceLoader struct {
	compiler *Compiler
	interps  map[string]*interp.Interpreter
	// imported holds, per package interpreter, the import names already
	// declared for method wrappers.
	imported map[string]map[string]bool
}

func (l *SourceLoader) Load(qualified string) (*descriptor.Type, error) {
	pkg, name, ok := resolver.SplitQualified(qualified)
	if !ok {
		return nil, resolver.NotFound(qualified)
	}
	decls, err := scan(filepath.Join(l.compiler.outputDir, "src", pkg))
	if err != nil {
		return nil, resolver.NotFound(qualified)
	}
	methods, ok := decls.types[name]
	if !ok {
		return nil, resolver.NotFound(qualified)
	}

	i, err := l.interpreter(pkg)
	if err != nil {
		return nil, outcome.NewError(outcome.KindNotFound, qualified, err)
	}
	syms := i.Symbols(pkg)[pkg]
	sym, ok := syms[name]
	if !ok || !sym.IsValid() || sym.Kind() != reflect.Pointer {
		return nil, resolver.NotFound(qualified)
	}

	t := descriptor.FromExports(pkg, name, sym.Type().Elem(), syms, decls.deprecated)
	for _, md := range methods {
		fn, err := l.methodValue(i, pkg, name, md)
		if err != nil {
			logging.CompileDebug("method %s.%s not reachable through the interpreter: %v", name, md.name, err)
			continue
		}
		m, err := descriptor.MethodValue(md.name, fn)
		if err != nil {
			continue
		}
		m.Deprecated = md.deprecated
		t.Methods = append(t.Methods, m)
	}
	logging.CompileDebug("loaded %s from compiled sources", qualified)
	return t, nil
}

// Close drops the loader's interpreters.
func (l *SourceLoader) Close() error {
	l.interps = nil
	l.imported = nil
	return nil
}

func (l *SourceLoader) interpreter(pkg string) (*interp.Interpreter, error) {
	if i, ok := l.interps[pkg]; ok {
		return i, nil
	}
	i, err := l.compiler.interpreter()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.compiler.timeout)
	defer cancel()
	if _, err := i.EvalWithContext(ctx, fmt.Sprintf("import %q", pkg)); err != nil {
		return nil, fmt.Errorf("import %s: %w", pkg, err)
	}
	l.interps[pkg] = i
	return i, nil
}

// methodValue evaluates a function literal that calls md on its first
// parameter, so the interpreter hands back a function whose first parameter
// is the receiver.
func (l *SourceLoader) methodValue(i *interp.Interpreter, pkg, typeName string, md methodDecl) (fn reflect.Value, err error) {
	if md.unsupported != "" {
		return reflect.Value{}, fmt.Errorf("signature uses %s", md.unsupported)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	done := l.imported[pkg]
	if done == nil {
		done = make(map[string]bool)
		l.imported[pkg] = done
	}
	for name, path := range md.imports {
		if done[name] {
			continue
		}
		if _, err := i.Eval(fmt.Sprintf("import %s %q", name, path)); err != nil {
			return reflect.Value{}, fmt.Errorf("import %s: %w", path, err)
		}
		done[name] = true
	}

	v, err := i.Eval(md.wrapper(pkg, typeName))
	if err != nil {
		return reflect.Value{}, err
	}
	if !v.IsValid() || v.Kind() != reflect.Func || v.Type().NumIn() == 0 {
		return reflect.Value{}, fmt.Errorf("wrapper for %s evaluated to %v", md.name, v.Kind())
	}
	return v, nil
}

type methodDecl struct {
	name       string
	pointer    bool
	deprecated string

	// params and results are the method's type expressions rendered for use
	// outside the declaring package.
	params   []string
	variadic bool
	results  []string
	// imports maps the import names the rendered types use to their paths.
	imports map[string]string
	// unsupported names the first type expression that cannot be rendered.
	unsupported string
}

// wrapper renders a function literal taking the receiver first and
// forwarding to the method.
func (md methodDecl) wrapper(pkg, typeName string) string {
	recv := pkg + "." + typeName
	if md.pointer {
		recv = "*" + recv
	}
	params := []string{"recv " + recv}
	args := make([]string, len(md.params))
	for n, p := range md.params {
		params = append(params, fmt.Sprintf("a%d %s", n, p))
		args[n] = fmt.Sprintf("a%d", n)
	}
	call := fmt.Sprintf("recv.%s(%s)", md.name, strings.Join(args, ", "))
	if md.variadic {
		call = fmt.Sprintf("recv.%s(%s...)", md.name, strings.Join(args, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "func(%s)", strings.Join(params, ", "))
	if len(md.results) > 0 {
		fmt.Fprintf(&b, " (%s) { return %s }", strings.Join(md.results, ", "), call)
	} else {
		fmt.Fprintf(&b, " { %s }", call)
	}
	return b.String()
}

type recvMethod struct {
	recv    string
	decl    *ast.FuncDecl
	imports map[string]string
}

// pkgDecls is what the loader learns from a package's source: its exported
// types with their exported methods, and the deprecation notes of its
// exported functions.
type pkgDecls struct {
	types      map[string][]methodDecl
	deprecated map[string]string
}

func scan(dir string) (*pkgDecls, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	d := &pkgDecls{types: make(map[string][]methodDecl), deprecated: make(map[string]string)}
	fset := token.NewFileSet()
	local := make(map[string]bool)
	var methods []recvMethod

	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, n), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		imports := importNames(f)
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					ts := spec.(*ast.TypeSpec)
					local[ts.Name.Name] = true
					if ts.Name.IsExported() {
						if _, ok := d.types[ts.Name.Name]; !ok {
							d.types[ts.Name.Name] = nil
						}
					}
				}
			case *ast.FuncDecl:
				if !decl.Name.IsExported() {
					continue
				}
				if decl.Recv == nil {
					if note := deprecation(decl.Doc); note != "" {
						d.deprecated[decl.Name.Name] = note
					}
					continue
				}
				recv, _ := receiverName(decl.Recv)
				methods = append(methods, recvMethod{recv: recv, decl: decl, imports: imports})
			}
		}
	}

	pkg := filepath.Base(dir)
	for _, m := range methods {
		if _, ok := d.types[m.recv]; !ok {
			continue
		}
		r := &typeRenderer{pkg: pkg, local: local, imports: m.imports, need: make(map[string]string)}
		d.types[m.recv] = append(d.types[m.recv], r.method(m.decl))
	}
	return d, nil
}

// importNames maps the names a file refers to its imports by to their paths.
func importNames(f *ast.File) map[string]string {
	out := make(map[string]string)
	for _, spec := range f.Imports {
		path := strings.Trim(spec.Path.Value, `"`)
		name := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		out[name] = path
	}
	return out
}

// typeRenderer rewrites type expressions of a package so they can be used
// from outside it: package-level types gain the package qualifier and every
// import they mention is recorded in need.
type typeRenderer struct {
	pkg     string
	local   map[string]bool
	imports map[string]string
	need    map[string]string
	bad     string
}

func (r *typeRenderer) method(fd *ast.FuncDecl) methodDecl {
	_, pointer := receiverName(fd.Recv)
	md := methodDecl{name: fd.Name.Name, pointer: pointer, deprecated: deprecation(fd.Doc)}
	for _, field := range fieldList(fd.Type.Params) {
		t := field.Type
		if el, ok := t.(*ast.Ellipsis); ok {
			md.variadic = true
			t = el.Elt
			rendered := "..." + r.expr(t)
			md.params = append(md.params, repeat(rendered, len(field.Names))...)
			continue
		}
		md.params = append(md.params, repeat(r.expr(t), len(field.Names))...)
	}
	for _, field := range fieldList(fd.Type.Results) {
		md.results = append(md.results, repeat(r.expr(field.Type), len(field.Names))...)
	}
	md.imports = r.need
	md.unsupported = r.bad
	return md
}

func (r *typeRenderer) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		if !r.local[e.Name] {
			return e.Name
		}
		if !e.IsExported() {
			return r.unsupported("unexported type " + e.Name)
		}
		return r.pkg + "." + e.Name
	case *ast.StarExpr:
		return "*" + r.expr(e.X)
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok || x.Name == r.pkg {
			return r.unsupported("selector " + e.Sel.Name)
		}
		path, ok := r.imports[x.Name]
		if !ok {
			return r.unsupported("unknown package " + x.Name)
		}
		r.need[x.Name] = path
		return x.Name + "." + e.Sel.Name
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + r.expr(e.Elt)
		}
		lit, ok := e.Len.(*ast.BasicLit)
		if !ok {
			return r.unsupported("array length")
		}
		return "[" + lit.Value + "]" + r.expr(e.Elt)
	case *ast.MapType:
		return "map[" + r.expr(e.Key) + "]" + r.expr(e.Value)
	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "interface{}"
		}
		return r.unsupported("interface literal")
	case *ast.ParenExpr:
		return r.expr(e.X)
	}
	return r.unsupported(fmt.Sprintf("%T", e))
}

func (r *typeRenderer) unsupported(what string) string {
	if r.bad == "" {
		r.bad = what
	}
	return "_"
}

func fieldList(fl *ast.FieldList) []*ast.Field {
	if fl == nil {
		return nil
	}
	return fl.List
}

// repeat returns s once per name, or once for an unnamed field.
func repeat(s string, names int) []string {
	if names == 0 {
		names = 1
	}
	out := make([]string, names)
	for i := range out {
		out[i] = s
	}
	return out
}

func receiverName(fl *ast.FieldList) (string, bool) {
	if fl == nil || len(fl.List) == 0 {
		return "", false
	}
	expr := fl.List[0].Type
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
		pointer = true
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name, pointer
	}
	return "", pointer
}

// deprecation returns the text following "Deprecated:" in a doc comment.
func deprecation(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	for _, line := range strings.Split(doc.Text(), "\n") {
		if rest, ok := strings.CutPrefix(line, "Deprecated:"); ok {
			if note := strings.TrimSpace(rest); note != "" {
				return note
			}
			return "deprecated"
		}
	}
	return ""
}

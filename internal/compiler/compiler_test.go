package compiler

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"fluid/internal/adapt"
	"fluid/internal/engine"
	"fluid/internal/outcome"
	"fluid/internal/registry"
	"fluid/internal/resolver"
)

const numSource = `package num

import (
	"strconv"
	"time"
)

// Num wraps an integer.
type Num struct {
	Value int
}

// NewNum builds a Num from text.
//
// Deprecated: use ParseNum.
func NewNum(s string) (*Num, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &Num{Value: n}, nil
}

// ParseNum parses a Num.
func ParseNum(s string) (*Num, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &Num{Value: n}, nil
}

// Double returns twice the value.
func (n *Num) Double() int { return n.Value * 2 }

// Span scales unit by the value.
func (n *Num) Span(unit time.Duration) time.Duration { return time.Duration(n.Value) * unit }

// Format renders the value in base.
func (n Num) Format(base int) string { return strconv.FormatInt(int64(n.Value), base) }

// Sum adds the values of others.
func (n *Num) Sum(others ...*Num) *Num {
	total := n.Value
	for _, o := range others {
		total += o.Value
	}
	return &Num{Value: total}
}
`

const unitsSource = `package units

// Meter is a length.
type Meter float64

func ParseMeter(s string) (Meter, error) { return 0, nil }
`

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestCompile_Success(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	out := t.TempDir()
	c := New(out, nil)

	o := c.Compile(context.Background(),
		writeSource(t, "num.go", numSource),
		writeSource(t, "units.go", unitsSource),
	)
	require.True(t, o.IsSuccess(), o.String())
	assert.Equal(t, ExitOK, o.TargetValue())
	assert.Contains(t, o.Message(), "num: ok (1 files)")
	assert.Contains(t, o.Message(), "units: ok (1 files)")

	assert.FileExists(t, filepath.Join(out, "src", "num", "num.go"))
	assert.FileExists(t, filepath.Join(out, "src", "units", "units.go"))
	assert.Equal(t, []string{"num", "units"}, c.Packages())
}

func TestCompile_Failures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"denied import", "package bad\n\nimport \"os/exec\"\n\nvar _ = exec.Command\n", "staging failed"},
		{"syntax error", "package bad\n\nfunc {\n", "bad:"},
		{"main package", "package main\n\nfunc main() {}\n", "staging failed"},
		{"type error", "package bad\n\nfunc F() int { return undefinedName }\n", "bad:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(t.TempDir(), []string{"os/exec"})
			o := c.Compile(context.Background(), writeSource(t, "bad.go", tt.src))

			assert.True(t, o.IsFailure(), o.String())
			assert.Equal(t, ExitFailed, o.TargetValue())
			assert.True(t, o.HasError())
			assert.Contains(t, o.Message(), tt.wantMsg)
		})
	}

	o := New(t.TempDir(), nil).Compile(context.Background())
	assert.True(t, o.IsFailure())
}

func TestCompile_DeniedImportError(t *testing.T) {
	c := New(t.TempDir(), []string{"os/exec"})
	o := c.Compile(context.Background(), writeSource(t, "bad.go", "package bad\n\nimport \"os/exec\"\n\nvar _ = exec.Command\n"))
	assert.ErrorIs(t, o.Err(), ErrDeniedImport)
}

func TestSourceLoader(t *testing.T) {
	c := New(t.TempDir(), nil)
	require.True(t, c.Compile(context.Background(), writeSource(t, "num.go", numSource)).IsSuccess())

	l, err := c.Open()
	require.NoError(t, err)
	defer l.Close()

	typ, err := l.Load("num.Num")
	require.NoError(t, err)
	assert.Equal(t, "num.Num", typ.QualifiedName())

	require.NotEmpty(t, typ.Constructors)
	assert.Equal(t, "NewNum", typ.Constructors[0].Name)
	assert.Equal(t, "use ParseNum.", typ.Constructors[0].Deprecated)
	assert.NotEmpty(t, typ.MethodsNamed("ParseNum"))

	_, err = l.Load("num.Missing")
	assert.ErrorIs(t, err, outcome.ErrNotFound)
	_, err = l.Load("absent.Num")
	assert.ErrorIs(t, err, outcome.ErrNotFound)
}

func TestSourceLoader_AdaptCompiledType(t *testing.T) {
	c := New(t.TempDir(), nil)
	require.True(t, c.Compile(context.Background(), writeSource(t, "num.go", numSource)).IsSuccess())

	e := engine.New(registry.New(), resolver.New(c.Open, "num"))
	a := adapt.New(e)

	v, err := a.AdaptName("42", "Num", adapt.Always)
	require.NoError(t, err)
	rv := reflect.Indirect(reflect.ValueOf(v))
	assert.Equal(t, int64(42), rv.FieldByName("Value").Int())

	_, err = a.AdaptName("abc", "Num", adapt.Always)
	assert.ErrorIs(t, err, outcome.ErrInvocationFailure)
}

func TestDeprecation(t *testing.T) {
	decls, err := scan(filepath.Dir(writeSource(t, "num.go", numSource)))
	require.NoError(t, err)

	assert.Equal(t, "use ParseNum.", decls.deprecated["NewNum"])
	assert.NotContains(t, decls.deprecated, "ParseNum")
	require.Len(t, decls.types["Num"], 4)
	double := decls.types["Num"][0]
	assert.Equal(t, "Double", double.name)
	assert.True(t, double.pointer)
	assert.Empty(t, double.deprecated)
}

func TestMethodWrapper(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "num")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "num.go"), []byte(numSource), 0644))

	decls, err := scan(dir)
	require.NoError(t, err)
	byName := make(map[string]methodDecl)
	for _, md := range decls.types["Num"] {
		byName[md.name] = md
	}

	tests := []struct {
		method string
		want   string
	}{
		{"Double", "func(recv *num.Num) (int) { return recv.Double() }"},
		{"Span", "func(recv *num.Num, a0 time.Duration) (time.Duration) { return recv.Span(a0) }"},
		{"Format", "func(recv num.Num, a0 int) (string) { return recv.Format(a0) }"},
		{"Sum", "func(recv *num.Num, a0 ...*num.Num) (*num.Num) { return recv.Sum(a0...) }"},
	}
	for _, tt := range tests {
		md, ok := byName[tt.method]
		require.True(t, ok, tt.method)
		assert.Empty(t, md.unsupported, tt.method)
		assert.Equal(t, tt.want, md.wrapper("num", "Num"), tt.method)
	}
	assert.Equal(t, map[string]string{"time": "time"}, byName["Span"].imports)
}

func TestSourceLoader_CallsCompiledMethods(t *testing.T) {
	c := New(t.TempDir(), nil)
	require.True(t, c.Compile(context.Background(), writeSource(t, "num.go", numSource)).IsSuccess())

	e := engine.New(registry.New(), resolver.New(c.Open, "num"))
	typ, err := e.Lookup("Num")
	require.NoError(t, err)
	require.Len(t, typ.MethodsNamed("Double"), 1)

	v, err := adapt.New(e).Adapt("21", typ, adapt.Always)
	require.NoError(t, err)
	o := e.Invoke(v, typ, "Double", nil, nil, engine.AcceptAll)
	require.True(t, o.IsSuccess(), o.String())
	assert.Equal(t, 42, o.TargetValue())

	o = e.New("Num", "n", engine.Signature(""), []any{"5"})
	require.True(t, o.IsSuccess(), o.String())

	o = e.CallVariable("n", "Span", engine.Signature(time.Second), []any{time.Second}, engine.AcceptAll)
	require.True(t, o.IsSuccess(), o.String())
	assert.Equal(t, 5*time.Second, o.TargetValue())

	o = e.CallVariable("n", "Format", engine.Signature(2), []any{2}, engine.AcceptAll)
	require.True(t, o.IsSuccess(), o.String())
	assert.Equal(t, "101", o.TargetValue())

	o = e.CallVariable("n", "Double", engine.Signature(1), []any{1}, engine.AcceptAll)
	assert.ErrorIs(t, o.Err(), outcome.ErrSignatureMismatch)
}

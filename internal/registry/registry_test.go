package registry

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluid/internal/descriptor"
)

func TestRegisterType_OverwriteSurfacesPrevious(t *testing.T) {
	r := New()
	t1 := &descriptor.Type{Name: "Point", PkgPath: "geo/v1"}
	t2 := &descriptor.Type{Name: "Point", PkgPath: "geo/v2"}

	first := r.RegisterType(t1, "A")
	assert.True(t, first.IsSuccess())
	assert.False(t, first.HasPrevious())

	second := r.RegisterType(t2, "A")
	require.True(t, second.HasPrevious())
	assert.Same(t, t1, second.PreviousValue())
	assert.Contains(t, second.Message(), "rebound")

	got, ok := r.ResolveType("A")
	require.True(t, ok)
	assert.Same(t, t2, got)
}

func TestRegisterType_DefaultAlias(t *testing.T) {
	r := New()

	o := r.RegisterType(&descriptor.Type{Name: "Builder", PkgPath: "strings"}, "")
	assert.Equal(t, "Builder", o.TargetValue())
	_, ok := r.ResolveType("Builder")
	assert.True(t, ok)

	unnamed := &descriptor.Type{Go: reflect.TypeOf(map[string]int{})}
	o = r.RegisterType(unnamed, "")
	assert.Equal(t, "map[string]int", o.TargetValue())
	assert.Contains(t, o.Message(), "no short name")
}

func TestUnregisterType(t *testing.T) {
	r := New()
	typ := &descriptor.Type{Name: "Int", PkgPath: "math/big"}
	r.RegisterType(typ, "big")

	prev, ok := r.UnregisterType("big")
	require.True(t, ok)
	assert.Same(t, typ, prev)

	_, ok = r.UnregisterType("big")
	assert.False(t, ok)
	_, ok = r.ResolveType("big")
	assert.False(t, ok)
}

func TestVariables(t *testing.T) {
	r := New()

	o := r.BindVariable("x", 1)
	assert.False(t, o.HasPrevious())
	assert.Equal(t, 1, o.TargetValue())

	o = r.BindVariable("x", 2)
	assert.Equal(t, 1, o.PreviousValue())

	v, ok := r.ResolveVariable("x")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = r.UnbindVariable("x")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = r.ResolveVariable("x")
	assert.False(t, ok)
}

func TestBindTyped(t *testing.T) {
	r := New()
	num := &descriptor.Type{Name: "int", PkgPath: "lang"}

	o := r.BindTyped("x", 5, num)
	assert.Same(t, num, o.Type())
	got, ok := r.VariableType("x")
	require.True(t, ok)
	assert.Same(t, num, got)

	// an untyped rebind forgets the descriptor
	r.BindVariable("x", 6)
	_, ok = r.VariableType("x")
	assert.False(t, ok)

	r.BindTyped("y", 1, num)
	r.UnbindVariable("y")
	_, ok = r.VariableType("y")
	assert.False(t, ok)
}

func TestListingsAreSorted(t *testing.T) {
	r := New()
	r.BindVariable("zeta", "z")
	r.BindVariable("alpha", "a")
	r.RegisterType(&descriptor.Type{Name: "Y"}, "y")
	r.RegisterType(&descriptor.Type{Name: "B"}, "b")

	vars := r.Variables()
	assert.Equal(t, "alpha", vars[0].Name)
	assert.Equal(t, "zeta", vars[1].Name)

	types := r.Types()
	assert.Equal(t, "b", types[0].Alias)
	assert.Equal(t, "y", types[1].Alias)
}

func TestResultsOnlyGrow(t *testing.T) {
	r := New()
	r.AppendResult(1)
	r.AppendResult("two")

	snap := r.Results()
	snap[0] = "mutated"

	if diff := cmp.Diff([]any{1, "two"}, r.Results()); diff != "" {
		t.Errorf("Results() mismatch (-want +got):\n%s", diff)
	}
}

// Package lang publishes descriptors for Go's predeclared value types under
// the "lang" namespace, so that "int" or "string" resolve like any other
// type name.
package lang

import (
	"math"
	"strconv"
	"strings"

	"fluid/internal/descriptor"
)

// Namespace is the prefix the descriptors are published under.
const Namespace = "lang"

// Types returns fresh descriptors for int, int64, float64, bool and string.
func Types() []*descriptor.Type {
	return []*descriptor.Type{Int(), Int64(), Float64(), Bool(), String()}
}

// Int describes int.
func Int() *descriptor.Type {
	return descriptor.For[int](Namespace).
		Constructor("fromString", strconv.Atoi).
		Constructor("fromInt64", func(v int64) int { return int(v) }).
		Static("parseInt", strconv.Atoi).
		Method("string", strconv.Itoa).
		Method("abs", func(v int) int {
			if v < 0 {
				return -v
			}
			return v
		}).
		Method("add", func(a, b int) int { return a + b }).
		MustType()
}

// Int64 describes int64.
func Int64() *descriptor.Type {
	parse := func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
	return descriptor.For[int64](Namespace).
		Constructor("fromString", parse).
		Constructor("fromInt", func(v int) int64 { return int64(v) }).
		Static("parseInt64", parse).
		Method("string", func(v int64) string { return strconv.FormatInt(v, 10) }).
		Method("add", func(a, b int64) int64 { return a + b }).
		MustType()
}

// Float64 describes float64.
func Float64() *descriptor.Type {
	parse := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	return descriptor.For[float64](Namespace).
		Constructor("fromString", parse).
		Constructor("fromInt", func(v int) float64 { return float64(v) }).
		Static("parseFloat", parse).
		Method("string", func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }).
		Method("sqrt", math.Sqrt).
		Method("round", math.Round).
		MustType()
}

// Bool describes bool.
func Bool() *descriptor.Type {
	return descriptor.For[bool](Namespace).
		Constructor("fromString", strconv.ParseBool).
		Static("parseBool", strconv.ParseBool).
		Method("string", strconv.FormatBool).
		Method("not", func(v bool) bool { return !v }).
		MustType()
}

// String describes string.
func String() *descriptor.Type {
	return descriptor.For[string](Namespace).
		Constructor("fromString", func(s string) string { return s }).
		Method("length", func(s string) int { return len(s) }).
		Method("upper", strings.ToUpper).
		Method("lower", strings.ToLower).
		Method("trim", strings.TrimSpace).
		Method("contains", strings.Contains).
		Method("repeat", strings.Repeat).
		MustType()
}

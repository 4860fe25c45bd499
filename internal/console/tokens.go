package console

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"fluid/internal/adapt"
	"fluid/internal/engine"
	"fluid/internal/lang"
	"fluid/internal/outcome"
)

var (
	// ErrUnterminatedQuote is returned for a line whose quotes do not pair up.
	ErrUnterminatedQuote = errors.New("unterminated quote")
	// ErrBadArgument is returned for an argument token that is not value:type.
	ErrBadArgument = errors.New("malformed argument")
)

// typeAliases maps argument type spellings onto lang type names.
var typeAliases = map[string]string{
	"integer": "int",
	"double":  "float64",
}

// split breaks a command line into tokens at whitespace. Double quotes group
// text containing spaces; inside them \" and \\ escape.
func split(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\'):
			i++
			cur.WriteRune(runes[i])
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && unicode.IsSpace(r):
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w in %q", ErrUnterminatedQuote, line)
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// arguments turns value:type tokens into a signature and argument list.
func (c *Console) arguments(tokens []string) ([]reflect.Type, []any, error) {
	args := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		v, err := c.argument(tok)
		if err != nil {
			return nil, nil, fmt.Errorf("argument %q: %w", tok, err)
		}
		args = append(args, v)
	}
	return engine.Signature(args...), args, nil
}

// argument converts one value:type token. The type is split off at the last
// colon so values may contain colons themselves. "var" names a bound
// variable; any other type is resolved and the value adapted to it.
// Predeclared types adapt without asking.
func (c *Console) argument(tok string) (any, error) {
	i := strings.LastIndex(tok, ":")
	if i < 0 || i == len(tok)-1 {
		return nil, ErrBadArgument
	}
	value, typ := tok[:i], tok[i+1:]

	if typ == "var" {
		v, ok := c.engine.Registry().ResolveVariable(value)
		if !ok {
			return nil, outcome.Errorf(outcome.KindNotFound, value, "no such variable")
		}
		return v, nil
	}
	if alias, ok := typeAliases[strings.ToLower(typ)]; ok {
		typ = alias
	}

	t, err := c.engine.Lookup(typ)
	if err != nil {
		return nil, err
	}
	approve := c.approve
	if t.PkgPath == lang.Namespace {
		approve = adapt.Always
	}
	return c.adapter.Adapt(value, t, approve)
}

package expr

import (
	"fmt"
	"strconv"
	"strings"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
)

// Builtins returns the names predeclared for every program.
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"math":     starlarkmath.Module,
		"num":      starlark.NewBuiltin("num", num),
		"lower":    stringFunc("lower", strings.ToLower),
		"upper":    stringFunc("upper", strings.ToUpper),
		"strip":    stringFunc("strip", strings.TrimSpace),
		"join":     starlark.NewBuiltin("join", join),
		"split":    starlark.NewBuiltin("split", split),
		"contains": starlark.NewBuiltin("contains", contains),
	}
}

// num parses a field as an int, or failing that as a float.
func num(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case starlark.Int, starlark.Float:
		return x, nil
	case starlark.String:
		s := strings.TrimSpace(string(x))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return starlark.MakeInt64(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return starlark.Float(f), nil
		}
		return nil, fmt.Errorf("%s: %q is not a number", b.Name(), s)
	default:
		return nil, fmt.Errorf("%s: got %s, want string", b.Name(), v.Type())
	}
}

func stringFunc(name string, fn func(string) string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var s string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
			return nil, err
		}
		return starlark.String(fn(s)), nil
	})
}

// join(sep, values) renders every value as a field and joins them.
func join(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var sep string
	var values starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &sep, &values); err != nil {
		return nil, err
	}
	var parts []string
	iter := values.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		parts = append(parts, Field(v))
	}
	return starlark.String(strings.Join(parts, sep)), nil
}

// split(s, sep) splits s on sep; an empty sep splits on whitespace.
func split(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s, sep string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s, &sep); err != nil {
		return nil, err
	}
	var parts []string
	if sep == "" {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, sep)
	}
	out := make([]starlark.Value, len(parts))
	for i, p := range parts {
		out[i] = starlark.String(p)
	}
	return starlark.NewList(out), nil
}

func contains(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s, sub string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &sub); err != nil {
		return nil, err
	}
	return starlark.Bool(strings.Contains(s, sub)), nil
}

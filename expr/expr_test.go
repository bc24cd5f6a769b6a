package expr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

func compile(t *testing.T, arity Arity, exprs ...string) *Program {
	t.Helper()
	p, err := Compile(exprs, arity, Options{Operator: "tf"})
	require.NoError(t, err)
	return p
}

func TestPassThroughWithoutGenerators(t *testing.T) {
	ctx := context.Background()
	p := compile(t, Unary)
	out, ok, err := p.Eval(ctx, stream.Row{"a", "b"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stream.Row{"a", "b"}, out)

	p = compile(t, Binary, "?IN1[0] == IN2[0]")
	out, ok, err = p.Eval2(ctx, stream.Row{"k", "1"}, stream.Row{"k", "2"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stream.Row{"k", "1", "k", "2"}, out)
}

func TestFiltersAndGenerators(t *testing.T) {
	p := compile(t, Unary, "?IN[2]", "IN[1]", "num(IN[3]) * num(IN[4])")
	ctx := context.Background()

	out, ok, err := p.Eval(ctx, stream.Row{"x", "name", "yes", "3", "2.5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stream.Row{"name", "7.5"}, out)

	_, ok, err = p.Eval(ctx, stream.Row{"x", "name", "", "3", "2.5"})
	require.NoError(t, err)
	assert.False(t, ok, "an empty string is false")
}

func TestFilterShortCircuits(t *testing.T) {
	// The generator would fail on a non-number; the filter runs first.
	p := compile(t, Unary, "?IN[0] != 'skip'", "num(IN[0]) + 1")
	out, ok, err := p.Eval(context.Background(), stream.Row{"skip"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestGeneratorListExpands(t *testing.T) {
	p := compile(t, Unary, "[IN[1], IN[0]]", "(1, None, True)", "split(IN[2], ';')")
	out, ok, err := p.Eval(context.Background(), stream.Row{"a", "b", "x;y"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stream.Row{"b", "a", "1", "", "True", "x", "y"}, out)
}

func TestHelpers(t *testing.T) {
	p := compile(t, Unary,
		"upper(IN[0])", "lower(IN[1])", "strip(IN[2])",
		"join('-', IN)", "contains(IN[0], 'b')", "math.sqrt(num(IN[3]) * 16)", "num('2') / 4",
	)
	out, _, err := p.Eval(context.Background(), stream.Row{"abc", "DEF", "  g ", "0.25"})
	require.NoError(t, err)
	assert.Equal(t, stream.Row{"ABC", "def", "g", "abc-DEF-  g -0.25", "True", "2.0", "0.5"}, out)
}

func TestCompileErrorIsConfiguration(t *testing.T) {
	for _, bad := range []string{"IN[", "?", "undefined_name"} {
		_, err := Compile([]string{bad}, Unary, Options{Operator: "tf"})
		require.Error(t, err, bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), bad)
	}
}

func TestRuntimeErrorIsInvalidData(t *testing.T) {
	p := compile(t, Unary, "num(IN[0])")
	_, _, err := p.Eval(context.Background(), stream.Row{"abc"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
}

func TestNoHostAccess(t *testing.T) {
	for _, bad := range []string{"load('os', 'x')", "open('/etc/passwd')", "__import__('os')"} {
		_, err := Compile([]string{bad}, Unary, Options{Operator: "tf"})
		assert.Error(t, err, bad)
	}
}

func TestStepLimit(t *testing.T) {
	p, err := Compile([]string{"[x for x in range(1000000)]"}, Unary, Options{Operator: "tf", MaxSteps: 1000})
	require.NoError(t, err)
	_, _, err = p.Eval(context.Background(), stream.Row{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceExhausted))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := compile(t, Unary).Eval(ctx, stream.Row{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExprAndExecFiles(t *testing.T) {
	dir := t.TempDir()
	exprPath := filepath.Join(dir, "exprs.txt")
	require.NoError(t, os.WriteFile(exprPath, []byte("# keep big ones\n?big(IN[0])\n\ndouble(IN[0])\n"), 0o644))
	execPath := filepath.Join(dir, "helpers.star")
	require.NoError(t, os.WriteFile(execPath, []byte("def big(x):\n    return num(x) > 10\n\ndef double(x):\n    return num(x) * 2\n"), 0o644))

	exprs, err := LoadExprFile(exprPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"?big(IN[0])", "double(IN[0])"}, exprs)

	globals, err := LoadExecFile(execPath, "tf", 0)
	require.NoError(t, err)
	p, err := Compile(exprs, Unary, Options{Operator: "tf", Globals: globals})
	require.NoError(t, err)

	out, ok, err := p.Eval(context.Background(), stream.Row{"21"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stream.Row{"42"}, out)

	_, ok, err = p.Eval(context.Background(), stream.Row{"3"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = LoadExprFile(filepath.Join(dir, "missing"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))
}

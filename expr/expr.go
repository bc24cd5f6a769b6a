package expr

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/kbukum/tabletool/accumulator"
	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

// DefaultMaxSteps bounds one evaluation of one expression.
const DefaultMaxSteps uint64 = 1_000_000

// Arity is the number of rows a program sees.
type Arity int

const (
	Unary  Arity = 1
	Binary Arity = 2
)

func (a Arity) params() string {
	if a == Binary {
		return "IN1, IN2"
	}
	return "IN"
}

func (a Arity) passThrough() string {
	if a == Binary {
		return "IN1 + IN2"
	}
	return "IN"
}

// Options configures compilation.
type Options struct {
	// Operator labels errors raised by the program.
	Operator string
	// MaxSteps bounds each expression evaluation; 0 means DefaultMaxSteps.
	MaxSteps uint64
	// Globals are predeclared on top of Builtins, typically from LoadExecFile.
	Globals starlark.StringDict
}

type compiled struct {
	text   string
	filter bool
	fn     starlark.Value
}

// Program is a compiled list of filters and generators.
type Program struct {
	arity    Arity
	operator string
	maxSteps uint64
	exprs    []compiled
}

var fileOptions = &syntax.FileOptions{}

// Compile compiles exprs for rows of the given arity. Syntax errors are
// configuration errors.
func Compile(exprs []string, arity Arity, opts Options) (*Program, error) {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	env := Builtins()
	for name, v := range opts.Globals {
		env[name] = v
	}

	p := &Program{arity: arity, operator: opts.Operator, maxSteps: opts.MaxSteps}
	generators := 0
	for _, text := range exprs {
		c, err := p.compile(text, env)
		if err != nil {
			return nil, err
		}
		if !c.filter {
			generators++
		}
		p.exprs = append(p.exprs, c)
	}
	if generators == 0 {
		c, err := p.compile(arity.passThrough(), env)
		if err != nil {
			return nil, err
		}
		p.exprs = append(p.exprs, c)
	}
	return p, nil
}

func (p *Program) compile(text string, env starlark.StringDict) (compiled, error) {
	c := compiled{text: text}
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "?") {
		c.filter = true
		body = strings.TrimSpace(body[1:])
	}
	if body == "" {
		return c, errors.Configuration(p.operator, fmt.Sprintf("empty expression %q", text))
	}

	thread := p.thread("compile")
	src := "lambda " + p.arity.params() + ": (" + body + ")"
	fn, err := starlark.EvalOptions(fileOptions, thread, "<expr>", src, env)
	if err != nil {
		return c, errors.Configuration(p.operator, fmt.Sprintf("expression %q: %v", text, err)).WithCause(err)
	}
	c.fn = fn
	return c, nil
}

func (p *Program) thread(name string) *starlark.Thread {
	t := &starlark.Thread{Name: name}
	t.SetMaxExecutionSteps(p.maxSteps)
	return t
}

// Arity returns the number of rows each evaluation takes.
func (p *Program) Arity() Arity { return p.arity }

// Eval runs the program over one row.
func (p *Program) Eval(ctx context.Context, row stream.Row) (stream.Row, bool, error) {
	return p.eval(ctx, starlark.Tuple{tuple(row)})
}

// Eval2 runs a binary program over a row pair. It has the shape of a join
// combiner.
func (p *Program) Eval2(ctx context.Context, left, right stream.Row) (stream.Row, bool, error) {
	return p.eval(ctx, starlark.Tuple{tuple(left), tuple(right)})
}

func (p *Program) eval(ctx context.Context, args starlark.Tuple) (stream.Row, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if len(args) != int(p.arity) {
		return nil, false, errors.Internal(fmt.Errorf("program takes %d rows, got %d", p.arity, len(args)))
	}

	var out stream.Row
	for _, c := range p.exprs {
		thread := p.thread(p.operator)
		v, err := starlark.Call(thread, c.fn, args, nil)
		if err != nil {
			if thread.ExecutionSteps() >= p.maxSteps {
				return nil, false, errors.ResourceExhausted("expression steps", int(p.maxSteps)).
					WithDetail("expression", c.text).
					WithCause(err)
			}
			return nil, false, errors.InvalidData(p.operator, fmt.Sprintf("expression %q: %v", c.text, err)).
				WithDetail("expression", c.text).
				WithCause(err)
		}
		if c.filter {
			if !v.Truth() {
				return nil, false, nil
			}
			continue
		}
		out = appendFields(out, v)
	}
	return out, true, nil
}

func tuple(row stream.Row) starlark.Tuple {
	t := make(starlark.Tuple, len(row))
	for i, f := range row {
		t[i] = starlark.String(f)
	}
	return t
}

// appendFields adds the fields a generator value produces.
func appendFields(out stream.Row, v starlark.Value) stream.Row {
	switch x := v.(type) {
	case *starlark.List:
		for i := 0; i < x.Len(); i++ {
			out = append(out, Field(x.Index(i)))
		}
	case starlark.Tuple:
		for _, e := range x {
			out = append(out, Field(e))
		}
	default:
		out = append(out, Field(v))
	}
	return out
}

// Field renders a starlark value as a table field. Strings are taken
// verbatim, floats use the aggregate float format and None is empty.
func Field(v starlark.Value) string {
	switch x := v.(type) {
	case starlark.String:
		return string(x)
	case starlark.Float:
		return accumulator.FormatFloat(float64(x))
	case starlark.NoneType:
		return ""
	default:
		return v.String()
	}
}

// LoadExprFile reads one expression per line. Blank lines and lines
// starting with '#' are skipped.
func LoadExprFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	var exprs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exprs = append(exprs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.IO(path, err)
	}
	return exprs, nil
}

// LoadExecFile runs a starlark module and returns its frozen globals, for
// defining helper functions used by expressions.
func LoadExecFile(path string, operator string, maxSteps uint64) (starlark.StringDict, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	thread := &starlark.Thread{Name: "exec-file"}
	thread.SetMaxExecutionSteps(maxSteps)
	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, src, Builtins())
	if err != nil {
		return nil, errors.Configuration(operator, fmt.Sprintf("exec file %s: %v", path, err)).WithCause(err)
	}
	globals.Freeze()
	return globals, nil
}

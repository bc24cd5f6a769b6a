package operator

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/expr"
	"github.com/kbukum/tabletool/join"
	"github.com/kbukum/tabletool/setops"
	"github.com/kbukum/tabletool/stream"
	"github.com/kbukum/tabletool/validation"
)

const (
	JoinName         = join.OperatorName
	UnionName        = setops.UnionName
	IntersectionName = setops.IntersectionName
	DifferenceName   = setops.DifferenceName
)

// binary holds the inputs of a two-input operator.
type binary struct {
	left, right *Input
}

func (b *binary) Inputs() []*Input { return []*Input{b.left, b.right} }

type keyOptions struct {
	LeftKeys  []int `flag:"k1" validate:"dive,gte=0"`
	RightKeys []int `flag:"k2" validate:"dive,gte=0"`
}

// bindBinary binds both inputs and --k1/--k2, and returns a function that
// resolves them after parsing.
func bindBinary(op string, fs *pflag.FlagSet, lf, rf *inputFlags) func(pipes []Operator) (binary, keyOptions, error) {
	var k1, k2 []string
	fs.StringArrayVar(&k1, "k1", nil, "key columns of table 1")
	fs.StringArrayVar(&k2, "k2", nil, "key columns of table 2")
	return func(pipes []Operator) (binary, keyOptions, error) {
		var (
			b    binary
			keys keyOptions
			err  error
		)
		if keys.LeftKeys, err = ParseColumns(op, k1); err != nil {
			return b, keys, err
		}
		if keys.RightKeys, err = ParseColumns(op, k2); err != nil {
			return b, keys, err
		}
		if err = validation.Validate(op, keys); err != nil {
			return b, keys, err
		}
		if err = validation.New().
			SameLength("k2", len(keys.LeftKeys), len(keys.RightKeys)).
			Error(op); err != nil {
			return b, keys, err
		}
		if b.left, err = lf.input(op, pipes); err != nil {
			return b, keys, err
		}
		if b.right, err = rf.input(op, pipes); err != nil {
			return b, keys, err
		}
		return b, keys, nil
	}
}

// --- tj ---

type joinOp struct {
	binary
	keys       keyOptions
	leftOuter  bool
	rightOuter bool
	null       *nullFlag
	src        exprSource
}

func newJoin(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(JoinName)
	lf := bindInput(fs, 1, false)
	rf := bindInput(fs, 2, false)
	resolve := bindBinary(JoinName, fs, lf, rf)
	o := &joinOp{null: bindNull(fs)}
	fs.BoolVar(&o.leftOuter, "left-outer", false, "keep unmatched rows of table 1")
	fs.BoolVar(&o.rightOuter, "right-outer", false, "keep unmatched rows of table 2")
	bindExprFiles(fs, &o.src)
	if err := parseFlags(JoinName, fs, args); err != nil {
		return nil, err
	}
	o.src.exprs = fs.Args()
	b, keys, err := resolve(pipes)
	if err != nil {
		return nil, err
	}
	o.binary, o.keys = b, keys
	return o, nil
}

func (o *joinOp) Name() string { return JoinName }

func (o *joinOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	opts := join.Options{
		LeftKeys:   o.keys.LeftKeys,
		RightKeys:  o.keys.RightKeys,
		LeftOuter:  o.leftOuter,
		RightOuter: o.rightOuter,
		Null:       o.null.resolve(env.Table.Null),
		Logger:     env.Component(JoinName),
	}
	if !o.src.empty() {
		prog, err := o.src.compile(JoinName, expr.Binary, env)
		if err != nil {
			return nil, err
		}
		opts.Combine = prog.Eval2
	}
	left, err := env.OpenInput(ctx, o.left)
	if err != nil {
		return nil, err
	}
	right, err := env.OpenInput(ctx, o.right)
	if err != nil {
		_ = left.Close()
		return nil, err
	}
	out, err := join.New(left, right, opts)
	if err != nil {
		closeInputs(left, right)
		return nil, err
	}
	return out, nil
}

// closeInputs closes both sides of a binary operator that failed to open.
func closeInputs(left, right stream.Stream) {
	_ = left.Close()
	if right != left {
		_ = right.Close()
	}
}

// --- tu, ti, td ---

type setOp struct {
	binary
	name string
	keys keyOptions
}

func newSet(name string) Factory {
	return func(args []string, pipes []Operator) (Operator, error) {
		fs := newFlagSet(name)
		lf := bindInput(fs, 1, false)
		rf := bindInput(fs, 2, false)
		resolve := bindBinary(name, fs, lf, rf)
		if err := parseFlags(name, fs, args); err != nil {
			return nil, err
		}
		if err := noPositional(name, fs); err != nil {
			return nil, err
		}
		b, keys, err := resolve(pipes)
		if err != nil {
			return nil, err
		}
		return &setOp{binary: b, name: name, keys: keys}, nil
	}
}

func (o *setOp) Name() string { return o.name }

func (o *setOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	left, err := env.OpenInput(ctx, o.left)
	if err != nil {
		return nil, err
	}
	right, err := env.OpenInput(ctx, o.right)
	if err != nil {
		_ = left.Close()
		return nil, err
	}
	if left == right {
		closeInputs(left, right)
		return nil, errors.Configuration(o.name, "both inputs read the same stream")
	}
	opts := setops.Options{LeftKeys: o.keys.LeftKeys, RightKeys: o.keys.RightKeys}
	var out stream.Stream
	switch o.name {
	case IntersectionName:
		out, err = setops.Intersection(left, right, opts)
	case DifferenceName:
		out, err = setops.Difference(left, right, opts)
	default:
		out, err = setops.Union(left, right, opts)
	}
	if err != nil {
		closeInputs(left, right)
		return nil, err
	}
	return out, nil
}

package operator

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/kbukum/tabletool/accumulator"
	"github.com/kbukum/tabletool/aggregate"
	"github.com/kbukum/tabletool/expr"
	"github.com/kbukum/tabletool/graph"
	"github.com/kbukum/tabletool/sorting"
	"github.com/kbukum/tabletool/stream"
	"github.com/kbukum/tabletool/transform"
	"github.com/kbukum/tabletool/validation"
)

const (
	FilterName    = "tf"
	AggregateName = aggregate.OperatorName
	BucketizeName = graph.BucketizeName
	ClosureName   = graph.ClosureName
	SortName      = sorting.OperatorName
	ExpandName    = transform.ExpandName
	PartitionName = transform.PartitionName
)

// unary holds the single input of a one-input operator.
type unary struct {
	in *Input
}

func (u *unary) Inputs() []*Input { return []*Input{u.in} }

// exprSource names the expressions of tf and tj.
type exprSource struct {
	exprs     []string
	exprFiles []string
	execFile  string
}

func bindExprFiles(fs *pflag.FlagSet, src *exprSource) {
	fs.StringArrayVar(&src.exprFiles, "expr-file", nil, "file with one expression per line, evaluated before command line expressions (repeatable)")
	fs.StringVar(&src.execFile, "exec-file", "", "starlark file whose globals expressions may use")
}

func (s *exprSource) empty() bool {
	return len(s.exprs) == 0 && len(s.exprFiles) == 0 && s.execFile == ""
}

// compile loads the expression files and compiles everything for env.
// File expressions come first, in flag order.
func (s *exprSource) compile(op string, arity expr.Arity, env *Env) (*expr.Program, error) {
	var exprs []string
	for _, path := range s.exprFiles {
		more, err := expr.LoadExprFile(path)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, more...)
	}
	exprs = append(exprs, s.exprs...)
	opts := expr.Options{Operator: op, MaxSteps: env.Table.ExprMaxSteps}
	if s.execFile != "" {
		globals, err := expr.LoadExecFile(s.execFile, op, env.Table.ExprMaxSteps)
		if err != nil {
			return nil, err
		}
		opts.Globals = globals
	}
	return expr.Compile(exprs, arity, opts)
}

// --- tf ---

type filterOp struct {
	unary
	src exprSource
}

func newFilter(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(FilterName)
	inf := bindInput(fs, 1, true)
	o := &filterOp{}
	bindExprFiles(fs, &o.src)
	if err := parseFlags(FilterName, fs, args); err != nil {
		return nil, err
	}
	o.src.exprs = fs.Args()
	in, err := inf.input(FilterName, pipes)
	if err != nil {
		return nil, err
	}
	o.in = in
	return o, nil
}

func (o *filterOp) Name() string { return FilterName }

func (o *filterOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	prog, err := o.src.compile(FilterName, expr.Unary, env)
	if err != nil {
		return nil, err
	}
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return transform.Filter(src, prog), nil
}

// --- ta ---

type aggregateOptions struct {
	GroupBy []int `flag:"group-by" validate:"dive,gte=0"`
}

type aggregateOp struct {
	unary
	opts aggregate.Options
}

func newAggregate(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(AggregateName)
	inf := bindInput(fs, 1, true)
	var groups, specs []string
	var streaming bool
	fs.StringArrayVarP(&groups, "group-by", "g", nil, "group-by columns")
	fs.StringArrayVarP(&specs, "aggregate", "a", nil, "aggregate FUNC:COL[:ARG]")
	fs.BoolVar(&streaming, "stream", false, "input is sorted by the group-by columns")
	if err := parseFlags(AggregateName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(AggregateName, fs); err != nil {
		return nil, err
	}
	parsed, err := accumulator.ParseSpecs(specs)
	if err != nil {
		return nil, err
	}
	opts := aggregateOptions{GroupBy: parseGroupColumns(groups)}
	if err := validation.Validate(AggregateName, opts); err != nil {
		return nil, err
	}
	// Plans are validated up front so bad specs fail at composition.
	if _, err := accumulator.NewPlan(parsed); err != nil {
		return nil, err
	}
	in, err := inf.input(AggregateName, pipes)
	if err != nil {
		return nil, err
	}
	return &aggregateOp{
		unary: unary{in: in},
		opts:  aggregate.Options{GroupBy: opts.GroupBy, Specs: parsed, Streaming: streaming},
	}, nil
}

func (o *aggregateOp) Name() string { return AggregateName }

func (o *aggregateOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return aggregate.New(src, o.opts)
}

// --- tb ---

type bucketizeOptions struct {
	LeftKeys  []int `flag:"k1" validate:"min=1,dive,gte=0"`
	RightKeys []int `flag:"k2" validate:"min=1,dive,gte=0"`
}

type bucketizeOp struct {
	unary
	keys bucketizeOptions
	null *nullFlag
}

func newBucketize(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(BucketizeName)
	inf := bindInput(fs, 1, true)
	var k1, k2 []string
	fs.StringArrayVar(&k1, "k1", nil, "columns of the left id")
	fs.StringArrayVar(&k2, "k2", nil, "columns of the right id")
	null := bindNull(fs)
	if err := parseFlags(BucketizeName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(BucketizeName, fs); err != nil {
		return nil, err
	}
	o := &bucketizeOp{null: null}
	var err error
	if o.keys.LeftKeys, err = ParseColumns(BucketizeName, k1); err != nil {
		return nil, err
	}
	if o.keys.RightKeys, err = ParseColumns(BucketizeName, k2); err != nil {
		return nil, err
	}
	if err := validation.Validate(BucketizeName, o.keys); err != nil {
		return nil, err
	}
	if err := validation.New().
		SameLength("k2", len(o.keys.LeftKeys), len(o.keys.RightKeys)).
		Error(BucketizeName); err != nil {
		return nil, err
	}
	if o.in, err = inf.input(BucketizeName, pipes); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *bucketizeOp) Name() string { return BucketizeName }

func (o *bucketizeOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return graph.Bucketize(src, graph.BucketizeOptions{
		LeftKeys:  o.keys.LeftKeys,
		RightKeys: o.keys.RightKeys,
		Null:      o.null.resolve(env.Table.Null),
	})
}

// --- tc ---

type closureOptions struct {
	Parent int `flag:"parent" validate:"gte=0"`
	Child  int `flag:"kid" validate:"gte=0"`
}

type closureOp struct {
	unary
	opts closureOptions
}

func newClosure(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(ClosureName)
	inf := bindInput(fs, 1, true)
	o := &closureOp{opts: closureOptions{Parent: -1, Child: -1}}
	fs.IntVarP(&o.opts.Parent, "parent", "p", -1, "parent column")
	fs.IntVarP(&o.opts.Child, "kid", "k", -1, "child column")
	if err := parseFlags(ClosureName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(ClosureName, fs); err != nil {
		return nil, err
	}
	if err := validation.Validate(ClosureName, o.opts); err != nil {
		return nil, err
	}
	in, err := inf.input(ClosureName, pipes)
	if err != nil {
		return nil, err
	}
	o.in = in
	return o, nil
}

func (o *closureOp) Name() string { return ClosureName }

func (o *closureOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return graph.Closure(src, graph.ClosureOptions{Parent: o.opts.Parent, Child: o.opts.Child}), nil
}

// --- ts ---

type sortOptions struct {
	Keys []sorting.Key `flag:"key" validate:"min=1"`
}

type sortOp struct {
	unary
	keys []sorting.Key
}

func newSort(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(SortName)
	inf := bindInput(fs, 1, true)
	var texts []string
	fs.StringArrayVarP(&texts, "key", "k", nil, "sort key COL[:r]; repeat for more keys")
	if err := parseFlags(SortName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(SortName, fs); err != nil {
		return nil, err
	}
	var fields []string
	for _, t := range texts {
		fields = append(fields, listSep.Split(t, -1)...)
	}
	keys, err := sorting.ParseKeys(nonEmpty(fields))
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(SortName, sortOptions{Keys: keys}); err != nil {
		return nil, err
	}
	in, err := inf.input(SortName, pipes)
	if err != nil {
		return nil, err
	}
	return &sortOp{unary: unary{in: in}, keys: keys}, nil
}

func (o *sortOp) Name() string { return SortName }

func (o *sortOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return sorting.New(src, o.keys), nil
}

// --- tx ---

type expandOptions struct {
	Specs []transform.ExpandSpec `flag:"expand" validate:"min=1"`
}

type expandOp struct {
	unary
	specs []transform.ExpandSpec
}

func newExpand(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(ExpandName)
	inf := bindInput(fs, 1, true)
	var texts []string
	fs.StringArrayVarP(&texts, "expand", "x", nil, "list column COL[:PSS]")
	if err := parseFlags(ExpandName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(ExpandName, fs); err != nil {
		return nil, err
	}
	specs := make([]transform.ExpandSpec, 0, len(texts))
	for _, t := range texts {
		s, err := transform.ParseExpandSpec(t)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	if err := validation.Validate(ExpandName, expandOptions{Specs: specs}); err != nil {
		return nil, err
	}
	in, err := inf.input(ExpandName, pipes)
	if err != nil {
		return nil, err
	}
	return &expandOp{unary: unary{in: in}, specs: specs}, nil
}

func (o *expandOp) Name() string { return ExpandName }

func (o *expandOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	return transform.Expand(src, o.specs), nil
}

// --- tp ---

type partitionOptions struct {
	Template string `flag:"template" validate:"required"`
	Limit    int    `flag:"limit" validate:"gte=-1"`
}

type partitionOp struct {
	unary
	column   int
	opts     partitionOptions
	limitSet bool
	tee      bool
	sep      string
}

func newPartition(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(PartitionName)
	inf := bindInput(fs, 1, true)
	o := &partitionOp{}
	fs.IntVarP(&o.column, "partition", "p", -1, "partition column")
	fs.StringVarP(&o.opts.Template, "template", "t", "", "file name template; "+transform.Placeholder+" is the partition value, "+transform.Downstream+" passes rows downstream")
	fs.IntVarP(&o.opts.Limit, "limit", "L", 0, "maximum number of files (-1 unlimited)")
	fs.BoolVarP(&o.tee, "tee", "T", false, "also pass rows downstream")
	fs.StringVarP(&o.sep, "separator", "s", "", "output field separator")
	if err := parseFlags(PartitionName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(PartitionName, fs); err != nil {
		return nil, err
	}
	if err := validation.Validate(PartitionName, o.opts); err != nil {
		return nil, err
	}
	o.limitSet = fs.Changed("limit")
	in, err := inf.input(PartitionName, pipes)
	if err != nil {
		return nil, err
	}
	o.in = in
	return o, nil
}

func (o *partitionOp) Name() string { return PartitionName }

func (o *partitionOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	limit := env.Table.PartitionLimit
	if o.limitSet {
		limit = o.opts.Limit
	}
	sep := o.sep
	if sep == "" {
		sep = env.Table.Separator
	}
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	out, err := transform.Partition(src, transform.PartitionOptions{
		Column:    o.column,
		Template:  o.opts.Template,
		Limit:     limit,
		Tee:       o.tee,
		Separator: sep,
		Logger:    env.Component(PartitionName),
	})
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return out, nil
}

func nonEmpty(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

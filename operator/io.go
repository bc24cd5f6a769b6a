package operator

import (
	"context"

	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/stream"
	"github.com/kbukum/tabletool/tableio"
)

const (
	ReadName  = "tr"
	WriteName = "tw"
)

type readOp struct {
	in *Input
}

func newRead(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(ReadName)
	inf := bindReadInput(fs)
	if err := parseFlags(ReadName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(ReadName, fs); err != nil {
		return nil, err
	}
	in, err := inf.input(ReadName, pipes)
	if err != nil {
		return nil, err
	}
	return &readOp{in: in}, nil
}

func (o *readOp) Name() string     { return ReadName }
func (o *readOp) Inputs() []*Input { return []*Input{o.in} }

func (o *readOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	return env.OpenInput(ctx, o.in)
}

type writeOp struct {
	in     *Input
	output string
	sep    string
}

func newWrite(args []string, pipes []Operator) (Operator, error) {
	fs := newFlagSet(WriteName)
	inf := bindInput(fs, 1, true)
	o := &writeOp{}
	fs.StringVarP(&o.output, "output", "o", Stdin, "output file (- for stdout)")
	fs.StringVarP(&o.sep, "separator", "s", "", "output field separator")
	if err := parseFlags(WriteName, fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(WriteName, fs); err != nil {
		return nil, err
	}
	in, err := inf.input(WriteName, pipes)
	if err != nil {
		return nil, err
	}
	o.in = in
	return o, nil
}

// NewWriter returns a tw stage that writes upstream rows to standard output.
func NewWriter() Operator {
	return &writeOp{in: &Input{Path: Stdin}, output: Stdin}
}

func (o *writeOp) Name() string     { return WriteName }
func (o *writeOp) Inputs() []*Input { return []*Input{o.in} }

// Open returns an empty stream whose first pull writes every input row.
func (o *writeOp) Open(ctx context.Context, env *Env) (stream.Stream, error) {
	src, err := env.OpenInput(ctx, o.in)
	if err != nil {
		return nil, err
	}
	sep := o.sep
	if sep == "" {
		sep = env.Table.Separator
	}
	drained := false
	return stream.Lazy(func(ctx context.Context) (stream.Stream, error) {
		drained = true
		w, err := o.writer(sep, env)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		n, err := tableio.Copy(ctx, w, src)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		env.Component(WriteName).Debug("table written", logger.Fields(
			logger.FieldPath, w.Name(),
			logger.FieldRows, n,
		))
		if err != nil {
			return nil, err
		}
		return stream.Empty[stream.Row](), nil
	}, func() error {
		if drained {
			return nil
		}
		return src.Close()
	}), nil
}

func (o *writeOp) writer(sep string, env *Env) (*tableio.Writer, error) {
	if o.output == Stdin || o.output == "" {
		return tableio.NewWriter(env.Stdout, sep), nil
	}
	return tableio.Create(o.output, sep)
}

// IsWriter reports whether op writes its rows out itself.
func IsWriter(op Operator) bool {
	_, ok := op.(*writeOp)
	return ok
}

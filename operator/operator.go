package operator

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/tabletool/config"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
	"github.com/kbukum/tabletool/tableio"
)

// Stdin is the path that names standard input.
const Stdin = "-"

// Operator is one configured pipeline stage.
type Operator interface {
	Name() string
	// Open builds the stage's output stream. Rows are not read until the
	// stream is pulled.
	Open(ctx context.Context, env *Env) (stream.Stream, error)
	// Inputs lists the stage's table inputs in positional order.
	Inputs() []*Input
}

// Input is a table source: a file, standard input or another stage.
type Input struct {
	Path      string
	Separator string
	// Comment is used only when CommentSet; otherwise the run default
	// applies. An empty comment prefix disables comments.
	Comment    string
	CommentSet bool
	Pipe       Operator
}

// ReadsStdin reports whether the input would read standard input.
func (in *Input) ReadsStdin() bool {
	return in.Pipe == nil && (in.Path == "" || in.Path == Stdin)
}

func (in *Input) String() string {
	if in.Pipe != nil {
		return "(" + in.Pipe.Name() + ")"
	}
	if in.ReadsStdin() {
		return Stdin
	}
	return in.Path
}

// Attach feeds upstream into the first input of op that reads standard
// input. It reports false when op has no such input.
func Attach(op, upstream Operator) bool {
	for _, in := range op.Inputs() {
		if in.ReadsStdin() {
			in.Pipe = upstream
			return true
		}
	}
	return false
}

// Env is the execution context of one run.
type Env struct {
	RunID   string
	Table   config.TableConfig
	Logger  *logger.Logger
	Stdin   io.Reader
	Stdout  io.Writer
	Metrics *observability.Metrics

	stdin  stream.Stream
	opened map[Operator]stream.Stream
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithTable sets the table defaults.
func WithTable(t config.TableConfig) EnvOption {
	return func(e *Env) { e.Table = t }
}

// WithLogger sets the run logger.
func WithLogger(l *logger.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// WithStdio replaces the standard streams.
func WithStdio(in io.Reader, out io.Writer) EnvOption {
	return func(e *Env) { e.Stdin, e.Stdout = in, out }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) EnvOption {
	return func(e *Env) { e.Metrics = m }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) EnvOption {
	return func(e *Env) { e.RunID = id }
}

// NewEnv creates the context of a new run.
func NewEnv(opts ...EnvOption) *Env {
	e := &Env{
		RunID:  uuid.NewString(),
		Table:  config.Default().Table,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		opened: make(map[Operator]stream.Stream),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Logger == nil {
		e.Logger = logger.GetGlobalLogger()
	}
	e.Logger = e.Logger.WithFields(logger.Fields(logger.FieldRunID, e.RunID))
	return e
}

// Open opens op once per run; later calls return the same stream.
func (e *Env) Open(ctx context.Context, op Operator) (stream.Stream, error) {
	if s, ok := e.opened[op]; ok {
		return s, nil
	}
	s, err := op.Open(ctx, e)
	if err != nil {
		return nil, err
	}
	s = &counted{Stream: s, op: op.Name(), env: e}
	e.opened[op] = s
	return s, nil
}

// OpenInput opens a table input.
func (e *Env) OpenInput(ctx context.Context, in *Input) (stream.Stream, error) {
	if in.Pipe != nil {
		return e.Open(ctx, in.Pipe)
	}
	opts := tableio.ReaderOptions{
		Separator: in.Separator,
		Comment:   e.Table.Comment,
		Logger:    e.Logger,
	}
	if opts.Separator == "" {
		opts.Separator = e.Table.Separator
	}
	if in.CommentSet {
		opts.Comment = in.Comment
	}
	if in.ReadsStdin() {
		if e.stdin == nil {
			e.stdin = tableio.NewReader(e.Stdin, opts)
		}
		return e.stdin, nil
	}
	return tableio.Open(in.Path, opts)
}

// Component returns the run logger tagged with an operator name.
func (e *Env) Component(op string) *logger.Logger {
	return e.Logger.WithFields(logger.Fields(logger.FieldOperator, op))
}

// counted reports the rows a stage produced once it is exhausted.
type counted struct {
	stream.Stream
	op   string
	env  *Env
	rows int64
	done bool
}

func (c *counted) Next(ctx context.Context) (stream.Row, bool, error) {
	row, ok, err := c.Stream.Next(ctx)
	if ok {
		c.rows++
		return row, ok, err
	}
	if err == nil && !c.done {
		c.done = true
		c.env.Metrics.RecordRows(ctx, c.op, c.rows)
		c.env.Logger.Debug("stage exhausted", logger.Fields(
			logger.FieldOperator, c.op,
			logger.FieldRows, c.rows,
		))
	}
	return row, ok, err
}

// Size passes the wrapped stream's byte size through.
func (c *counted) Size() int64 { return stream.SizeOf(c.Stream) }

// pipeToken is the argument placeholder of the n-th sub-pipeline.
const pipeToken = "@pipe:"

// PipeToken returns the placeholder token for sub-pipeline n.
func PipeToken(n int) string {
	return pipeToken + strconv.Itoa(n)
}

func isPipeToken(s string) bool { return strings.HasPrefix(s, pipeToken) }

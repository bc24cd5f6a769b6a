package composer

import (
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/operator"
)

// Structural tokens.
const (
	Pipe      = "|"
	PipeLong  = "--pipe"
	Begin     = "("
	BeginLong = "--begin"
	End       = ")"
	EndLong   = "--end"
)

// Composer builds operator trees from tokens.
type Composer struct {
	registry *operator.Registry
	log      *logger.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger composition is traced to.
func WithLogger(l *logger.Logger) Option {
	return func(c *Composer) { c.log = l }
}

// New creates a Composer over registry; nil means the built-in operators.
func New(registry *operator.Registry, opts ...Option) *Composer {
	if registry == nil {
		registry = operator.Builtin()
	}
	c := &Composer{registry: registry, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("composer")
	return c
}

// frame is one level of subgroup nesting.
type frame struct {
	open     int // position of the "(" that opened the frame
	name     string
	namePos  int
	args     []string
	pipes    []operator.Operator
	upstream operator.Operator
	lastPipe int
}

func (f *frame) reset() {
	f.name, f.namePos, f.args, f.pipes = "", -1, nil, nil
}

// Compose builds the operator tree for tokens. The root is wrapped in a
// writer to standard output unless it already is a writer.
func (c *Composer) Compose(tokens []string) (operator.Operator, error) {
	if len(tokens) == 0 {
		return nil, errors.Composition(-1, "", "empty pipeline")
	}

	stack := []*frame{{open: -1, namePos: -1, lastPipe: -1}}
	for i, tok := range tokens {
		top := stack[len(stack)-1]
		switch tok {
		case Pipe, PipeLong:
			if top.name == "" {
				return nil, errors.Composition(i, tok, "empty stage before pipe")
			}
			op, err := c.stage(top)
			if err != nil {
				return nil, err
			}
			top.upstream = op
			top.lastPipe = i
			top.reset()

		case Begin, BeginLong:
			if top.name == "" {
				return nil, errors.Composition(i, tok, "subgroup must be an argument of an operator")
			}
			stack = append(stack, &frame{open: i, namePos: -1, lastPipe: -1})

		case End, EndLong:
			if len(stack) == 1 {
				return nil, errors.Composition(i, tok, "unmatched "+tok)
			}
			op, err := c.finish(top, i, tok)
			if err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.args = append(parent.args, operator.PipeToken(len(parent.pipes)))
			parent.pipes = append(parent.pipes, op)

		default:
			if top.name != "" {
				top.args = append(top.args, tok)
				continue
			}
			if _, ok := c.registry.Get(tok); !ok {
				return nil, errors.Composition(i, tok, "unknown operator")
			}
			top.name, top.namePos = tok, i
		}
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].open
		return nil, errors.Composition(open, tokens[open], "unmatched "+tokens[open])
	}
	root, err := c.finish(stack[0], len(tokens), "")
	if err != nil {
		return nil, err
	}
	if !operator.IsWriter(root) {
		w := operator.NewWriter()
		operator.Attach(w, root)
		root = w
	}
	c.log.Debug("pipeline composed", logger.Fields("tokens", len(tokens), "root", root.Name()))
	return root, nil
}

// finish closes a frame at position pos and returns its last stage.
func (c *Composer) finish(f *frame, pos int, tok string) (operator.Operator, error) {
	if f.name != "" {
		return c.stage(f)
	}
	if f.upstream == nil {
		if f.open >= 0 {
			return nil, errors.Composition(pos, tok, "empty subgroup")
		}
		return nil, errors.Composition(-1, "", "empty pipeline")
	}
	return nil, errors.Composition(f.lastPipe, Pipe, "empty stage after pipe")
}

// stage builds the pending operator of f and feeds it the frame's upstream.
func (c *Composer) stage(f *frame) (operator.Operator, error) {
	spec, _ := c.registry.Get(f.name)
	op, err := spec.New(f.args, f.pipes)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithDetail("position", f.namePos)
		}
		return nil, err
	}
	if f.upstream != nil && !operator.Attach(op, f.upstream) {
		return nil, errors.Composition(f.namePos, f.name, "no input reads standard input to receive the upstream")
	}
	return op, nil
}

// Describe renders tokens as a single line for logs and spans.
func Describe(tokens []string) string {
	return strings.Join(tokens, " ")
}

package operator

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/tabletool/errors"
)

var (
	listSep  = regexp.MustCompile(`[, ]+`)
	nonDigit = regexp.MustCompile(`[^0-9]+`)
)

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

// parseFlags parses args and wraps pflag failures as configuration errors.
func parseFlags(op string, fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Configuration(op, err.Error()).WithCause(err)
	}
	return nil
}

// ParseColumns parses column lists such as "0,2" or "1 3". Repeated flag
// values are concatenated.
func ParseColumns(op string, values []string) ([]int, error) {
	var cols []int
	for _, v := range values {
		for _, f := range listSep.Split(strings.TrimSpace(v), -1) {
			if f == "" {
				continue
			}
			n, err := strconv.Atoi(f)
			if err != nil || n < 0 {
				return nil, errors.Configuration(op, fmt.Sprintf("bad column %q", f))
			}
			cols = append(cols, n)
		}
	}
	return cols, nil
}

// parseGroupColumns reads every digit run as a column and drops repeats.
func parseGroupColumns(values []string) []int {
	var cols []int
	seen := make(map[int]bool)
	for _, v := range values {
		for _, f := range nonDigit.Split(v, -1) {
			if f == "" {
				continue
			}
			n, err := strconv.Atoi(f)
			if err != nil || seen[n] {
				continue
			}
			seen[n] = true
			cols = append(cols, n)
		}
	}
	return cols
}

// inputFlags binds the flags of one table input.
type inputFlags struct {
	fs       *pflag.FlagSet
	path     string
	sep      string
	comment  string
	comments []string
}

// bindInput binds -N/--fileN, --sN/--separatorN and --cN/--commentN.
// The first input of a one-input operator also answers to -f.
func bindInput(fs *pflag.FlagSet, n int, unary bool) *inputFlags {
	f := &inputFlags{fs: fs}
	num := strconv.Itoa(n)
	fs.StringVarP(&f.path, "file"+num, num, Stdin, "input table "+num+" (- for stdin)")
	if unary {
		fs.StringVarP(&f.path, "file", "f", Stdin, "input table (- for stdin)")
		_ = fs.MarkHidden("file")
	}
	fs.StringVar(&f.sep, "s"+num, "", "separator of input "+num)
	fs.StringVar(&f.sep, "separator"+num, "", "separator of input "+num)
	_ = fs.MarkHidden("separator" + num)
	fs.StringVar(&f.comment, "c"+num, "", "comment prefix of input "+num)
	fs.StringVar(&f.comment, "comment"+num, "", "comment prefix of input "+num)
	_ = fs.MarkHidden("comment" + num)
	f.comments = []string{"c" + num, "comment" + num}
	return f
}

// bindReadInput binds the flags of tr: -f, -s, -c.
func bindReadInput(fs *pflag.FlagSet) *inputFlags {
	f := &inputFlags{fs: fs}
	fs.StringVarP(&f.path, "file", "f", Stdin, "input table (- for stdin)")
	fs.StringVarP(&f.sep, "separator", "s", "", "field separator")
	fs.StringVarP(&f.comment, "comment", "c", "", "comment prefix (empty disables comments)")
	f.comments = []string{"comment"}
	return f
}

// input resolves the parsed flags, including sub-pipeline placeholders.
func (f *inputFlags) input(op string, pipes []Operator) (*Input, error) {
	in := &Input{Path: f.path, Separator: f.sep, Comment: f.comment}
	for _, name := range f.comments {
		if f.fs.Changed(name) {
			in.CommentSet = true
		}
	}
	if isPipeToken(in.Path) {
		p, err := resolvePipe(op, in.Path, pipes)
		if err != nil {
			return nil, err
		}
		in.Pipe = p
		in.Path = ""
	}
	return in, nil
}

func resolvePipe(op, token string, pipes []Operator) (Operator, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(token, pipeToken))
	if err != nil || n < 0 || n >= len(pipes) {
		return nil, errors.Configuration(op, fmt.Sprintf("unknown sub-pipeline %q", token))
	}
	return pipes[n], nil
}

// nullFlag binds -n/--null-string.
type nullFlag struct {
	fs    *pflag.FlagSet
	value string
}

func bindNull(fs *pflag.FlagSet) *nullFlag {
	f := &nullFlag{fs: fs}
	fs.StringVarP(&f.value, "null-string", "n", "", "value that stands for a missing field")
	return f
}

// resolve returns the flag value, or def when the flag was not given.
func (f *nullFlag) resolve(def string) string {
	if f.fs.Changed("null-string") {
		return f.value
	}
	return def
}

// noPositional rejects stray arguments.
func noPositional(op string, fs *pflag.FlagSet) error {
	if fs.NArg() > 0 {
		return errors.Configuration(op, fmt.Sprintf("unexpected arguments %q", fs.Args()))
	}
	return nil
}

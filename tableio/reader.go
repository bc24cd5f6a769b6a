package tableio

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/stream"
)

const (
	DefaultSeparator = "\t"
	DefaultComment   = "#"
	// StdinName is the name reported for rows read from standard input.
	StdinName = "<stdin>"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Separator splits a line into fields. Empty means TAB.
	Separator string
	// Comment is the prefix of lines to skip. Empty disables comments.
	Comment string
	// Name identifies the source in log lines.
	Name string
	// Logger receives DATA_SHAPE warnings. Nil means the global logger.
	Logger *logger.Logger
}

// Reader is a stream.Stream over a delimited text source.
type Reader struct {
	src      *bufio.Reader
	closer   io.Closer
	opts     ReaderOptions
	log      *logger.Logger
	size     int64
	ncols    int
	line     int
	rows     int
	warnings int
	done     bool
}

// NewReader reads rows from r. The size is unknown and the reader does not
// close r.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if opts.Name == "" {
		opts.Name = StdinName
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Reader{
		src:  bufio.NewReaderSize(r, 64*1024),
		opts: opts,
		log:  log.WithComponent("tableio"),
		size: -1,
	}
}

// Open opens the table file at path. Its byte size is known to the join
// side heuristic.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.IO(path, err)
	}
	if opts.Name == "" {
		opts.Name = path
	}
	r := NewReader(f, opts)
	r.closer = f
	if info.Mode().IsRegular() {
		r.size = info.Size()
	}
	return r, nil
}

// Next returns the next data row.
func (r *Reader) Next(ctx context.Context) (stream.Row, bool, error) {
	if r.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for {
		text, err := r.src.ReadString('\n')
		if err != nil && !stderrors.Is(err, io.EOF) {
			r.done = true
			return nil, false, errors.IO(r.opts.Name, err)
		}
		if text == "" {
			r.done = true
			return nil, false, nil
		}
		r.line++
		if text == "\n" || (r.opts.Comment != "" && strings.HasPrefix(text, r.opts.Comment)) {
			if err != nil {
				r.done = true
				return nil, false, nil
			}
			continue
		}

		row := stream.Row(strings.Split(strings.TrimSuffix(text, "\n"), r.opts.Separator))
		r.rows++
		r.checkShape(len(row))
		return row, true, nil
	}
}

func (r *Reader) checkShape(got int) {
	if r.ncols == 0 {
		r.ncols = got
		return
	}
	if got == r.ncols {
		return
	}
	r.warnings++
	w := errors.DataShape(r.line, got, r.ncols)
	r.log.Warn(w.Message, logger.Fields(
		logger.FieldPath, r.opts.Name,
		logger.FieldLine, r.line,
		logger.FieldCode, string(w.Code),
		"got", got,
		"want", r.ncols,
	))
}

// Close releases the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	r.done = true
	if r.closer != nil {
		c := r.closer
		r.closer = nil
		if err := c.Close(); err != nil {
			return errors.IO(r.opts.Name, err)
		}
	}
	return nil
}

// Size returns the source size in bytes, or -1 when unknown.
func (r *Reader) Size() int64 { return r.size }

// Columns returns the column count established by the first row.
func (r *Reader) Columns() int { return r.ncols }

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

// Rows returns the number of data rows returned so far.
func (r *Reader) Rows() int { return r.rows }

// Warnings returns how many ragged rows were reported.
func (r *Reader) Warnings() int { return r.warnings }

// Name returns the source name.
func (r *Reader) Name() string { return r.opts.Name }

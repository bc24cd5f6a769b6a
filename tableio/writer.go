package tableio

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

// StdoutName is the name reported for rows written to standard output.
const StdoutName = "<stdout>"

// Writer writes rows as separator-joined, newline-terminated lines.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	name   string
	sep    string
	rows   int64
}

// NewWriter writes to w. Close flushes but does not close w.
func NewWriter(w io.Writer, sep string) *Writer {
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Writer{w: bufio.NewWriterSize(w, 64*1024), name: StdoutName, sep: sep}
}

// Create truncates or creates the file at path and writes to it.
func Create(path, sep string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	w := NewWriter(f, sep)
	w.closer = f
	w.name = path
	return w, nil
}

// Write writes one row.
func (w *Writer) Write(row stream.Row) error {
	if _, err := w.w.WriteString(strings.Join(row, w.sep)); err != nil {
		return errors.IO(w.name, err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errors.IO(w.name, err)
	}
	w.rows++
	return nil
}

// Flush writes buffered data to the destination.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return errors.IO(w.name, err)
	}
	return nil
}

// Close flushes and closes the file the writer created.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		c := w.closer
		w.closer = nil
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.IO(w.name, cerr)
		}
	}
	return err
}

// Rows returns the number of rows written.
func (w *Writer) Rows() int64 { return w.rows }

// Name returns the destination name.
func (w *Writer) Name() string { return w.name }

// Copy drains s into w and flushes. It returns the number of rows written.
func Copy(ctx context.Context, w *Writer, s stream.Stream) (int64, error) {
	start := w.rows
	err := stream.Drain(ctx, s, func(_ context.Context, row stream.Row) error {
		return w.Write(row)
	})
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return w.rows - start, err
}

package transform

import (
	"context"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/stream"
	"github.com/kbukum/tabletool/tableio"
)

// PartitionName labels errors raised by Partition.
const PartitionName = "tp"

// Placeholder is replaced by the partition value in a file name template.
const Placeholder = "%s"

// Downstream as a file name sends rows on down the pipeline.
const Downstream = "-"

// DefaultPartitionLimit caps the number of files Partition creates.
const DefaultPartitionLimit = 100

// PartitionOptions configures Partition.
type PartitionOptions struct {
	// Column holds the partition value; -1 when the template is constant.
	Column int
	// Template names the output file. Rows whose name is "-" pass
	// downstream instead of going to a file.
	Template string
	// Limit caps the number of files; -1 is unlimited.
	Limit     int
	Tee       bool
	Separator string
	Logger    *logger.Logger
}

// Partition writes every row of src to the file its partition value names.
// With Tee the rows also pass downstream. A row whose file name is "-" is
// passed downstream once and written nowhere.
func Partition(src stream.Stream, opts PartitionOptions) (stream.Stream, error) {
	hasPlaceholder := strings.Contains(opts.Template, Placeholder)
	switch {
	case opts.Template == "":
		return nil, errors.Configuration(PartitionName, "no file name template given")
	case hasPlaceholder && opts.Column < 0:
		return nil, errors.Configuration(PartitionName, "template has "+Placeholder+" but no partition column is given")
	case !hasPlaceholder && opts.Column >= 0:
		return nil, errors.Configuration(PartitionName, "partition column given but template has no "+Placeholder)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &partitioner{src: src, opts: opts, files: make(map[string]*tableio.Writer)}, nil
}

type partitioner struct {
	src    stream.Stream
	opts   PartitionOptions
	files  map[string]*tableio.Writer
	order  []string
	closed bool
}

func (p *partitioner) fileName(row stream.Row) string {
	if p.opts.Column < 0 {
		return p.opts.Template
	}
	return strings.ReplaceAll(p.opts.Template, Placeholder, row.Get(p.opts.Column))
}

func (p *partitioner) writer(name string) (*tableio.Writer, error) {
	if w, ok := p.files[name]; ok {
		return w, nil
	}
	if p.opts.Limit >= 0 && len(p.files)+1 > p.opts.Limit {
		return nil, errors.ResourceExhausted("partition files", p.opts.Limit).WithDetail("file", name)
	}
	w, err := tableio.Create(name, p.opts.Separator)
	if err != nil {
		return nil, err
	}
	p.files[name] = w
	p.order = append(p.order, name)
	p.opts.Logger.Debug("partition file opened", logger.Fields(
		logger.FieldOperator, PartitionName,
		logger.FieldPath, name,
	))
	return w, nil
}

func (p *partitioner) Next(ctx context.Context) (stream.Row, bool, error) {
	for {
		row, ok, err := p.src.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, p.closeFiles()
		}
		name := p.fileName(row)
		if name == Downstream {
			return row, true, nil
		}
		w, err := p.writer(name)
		if err != nil {
			return nil, false, err
		}
		if err := w.Write(row); err != nil {
			return nil, false, err
		}
		if p.opts.Tee {
			return row, true, nil
		}
	}
}

func (p *partitioner) closeFiles() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var first error
	for _, name := range p.order {
		if err := p.files[name].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *partitioner) Close() error {
	err := p.closeFiles()
	if serr := p.src.Close(); err == nil {
		err = serr
	}
	return err
}

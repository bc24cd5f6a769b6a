package stream

import "context"

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Stream is a lazy, finite, forward-only sequence of rows.
type Stream = Iterator[Row]

// Sizer is implemented by streams whose source has a known byte size.
// Size returns -1 when the size is unknown (stdin, pipes, computed rows).
type Sizer interface {
	Size() int64
}

// SizeOf returns the byte size reported by s, or -1.
func SizeOf(s any) int64 {
	if sz, ok := s.(Sizer); ok {
		return sz.Size()
	}
	return -1
}

// --- Constructors ---

// FromSlice creates an iterator over items.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// Empty returns an exhausted iterator.
func Empty[T any]() Iterator[T] {
	return &sliceIter[T]{}
}

// FromFunc creates an iterator from a next function and an optional closer.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error), closer func() error) Iterator[T] {
	return &funcIter[T]{next: next, closer: closer}
}

// Lazy defers open until the first call to Next. Materializing operators
// use it so their blocking phase runs on demand rather than at build time.
// Close closes the opened iterator, if any, and then calls closer.
func Lazy[T any](open func(ctx context.Context) (Iterator[T], error), closer func() error) Iterator[T] {
	return &lazyIter[T]{open: open, closer: closer}
}

// --- Terminals ---

// Drain pulls every value from it and sends each to sink, then closes it.
func Drain[T any](ctx context.Context, it Iterator[T], sink func(context.Context, T) error) (err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sink(ctx, val); err != nil {
			return err
		}
	}
}

// Collect pulls every value from it into a slice, then closes it. On error
// the values read so far are returned with the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var result []T
	err := Drain(ctx, it, func(_ context.Context, v T) error {
		result = append(result, v)
		return nil
	})
	return result, err
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type funcIter[T any] struct {
	next   func(ctx context.Context) (T, bool, error)
	closer func() error
	done   bool
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.done {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.next(ctx)
	if err != nil || !ok {
		it.done = true
	}
	return val, ok, err
}

func (it *funcIter[T]) Close() error {
	it.done = true
	if it.closer != nil {
		c := it.closer
		it.closer = nil
		return c()
	}
	return nil
}

type lazyIter[T any] struct {
	open   func(ctx context.Context) (Iterator[T], error)
	closer func() error
	inner  Iterator[T]
	failed bool
}

func (it *lazyIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.inner == nil {
		var zero T
		if it.failed {
			return zero, false, nil
		}
		inner, err := it.open(ctx)
		if err != nil {
			it.failed = true
			return zero, false, err
		}
		it.inner = inner
	}
	return it.inner.Next(ctx)
}

func (it *lazyIter[T]) Close() error {
	var err error
	if it.inner != nil {
		err = it.inner.Close()
		it.inner = nil
		it.failed = true
	}
	if it.closer != nil {
		c := it.closer
		it.closer = nil
		if cerr := c(); err == nil {
			err = cerr
		}
	}
	return err
}

package beanload

import (
	"context"
	"reflect"
	"sync"
)

// Iterator lazily produces records of type T from a [Source], one row per
// unit of consumption. The cursor is opened on the first call to Next, the
// field binders are derived once from the cursor's column names, and any
// failure while opening, advancing, reading or materializing closes the
// cursor before the error surfaces.
//
// An Iterator is forward-only, single-pass and non-restartable. Individual
// calls are serialized internally, but nothing guards a Next/Get pair:
// sharing one Iterator between concurrent consumers needs external
// synchronization.
type Iterator[T any] struct {
	mutex  sync.Mutex
	ctx    context.Context
	loader *Loader
	source Source

	cursor  Cursor
	binders []fieldBinder
	typ     reflect.Type

	opened     bool
	positioned bool
	closed     bool
	err        error
}

// NewIterator returns an Iterator over src using the given Loader's caches
// and converter registry. [Each] is the same thing bound to the [Default]
// Loader.
func NewIterator[T any](ctx context.Context, loader *Loader, src Source) *Iterator[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	var sample T
	return &Iterator[T]{
		ctx:    ctx,
		loader: loader,
		source: src,
		typ:    reflect.TypeOf(sample),
	}
}

// open runs the query, reads the column names and derives the binders.
// Called with the mutex held, at most once.
func (it *Iterator[T]) open() error {
	cursor, err := it.source.OpenCursor(it.ctx)
	if err != nil {
		return &CursorError{Err: err}
	}
	it.cursor = cursor

	columns, err := cursor.Columns()
	if err != nil {
		it.shutdown()
		return &CursorError{Err: err}
	}
	binders, err := it.loader.deriveBinders(it.typ, columns)
	if err != nil {
		it.shutdown()
		return err
	}
	it.binders = binders
	return nil
}

// Next reports whether a row is available for [Iterator.Get], advancing the
// cursor unless a fetched row is already pending. When the cursor is
// exhausted or fails, Next closes it and returns false; a failure is then
// available from [Iterator.Err] and [Iterator.Close].
func (it *Iterator[T]) Next() bool {
	it.mutex.Lock()
	defer it.mutex.Unlock()

	if it.closed || it.err != nil {
		return false
	}
	if !it.opened {
		it.opened = true
		if err := it.open(); err != nil {
			it.err = err
			it.closed = true
			return false
		}
	}
	if it.positioned {
		return true
	}
	if it.cursor.Next() {
		it.positioned = true
		return true
	}
	if err := it.cursor.Err(); err != nil {
		it.err = &CursorError{Err: err}
	}
	it.shutdown()
	return false
}

// Get materializes the pending row into a fresh record and consumes it, so
// the following Next advances again. Calling Get without a successful Next
// returns [ErrNoElement]. Any materialization failure closes the cursor
// before it is returned.
func (it *Iterator[T]) Get() (T, error) {
	it.mutex.Lock()
	defer it.mutex.Unlock()

	var zero T
	if !it.positioned || it.cursor == nil {
		it.shutdown()
		return zero, ErrNoElement
	}
	it.positioned = false

	record, err := it.loader.materialize(it.typ, it.binders, it.cursor)
	if err != nil {
		it.shutdown()
		return zero, err
	}
	return record.Interface().(T), nil
}

// Err returns the error, if any, that ended iteration. Cursor close
// failures are reported by [Iterator.Close].
func (it *Iterator[T]) Err() error {
	it.mutex.Lock()
	defer it.mutex.Unlock()
	return it.err
}

// Close closes the underlying cursor if it is still open. Close is
// idempotent and returns the error that ended iteration, if any, otherwise
// the error from closing the cursor.
func (it *Iterator[T]) Close() error {
	it.mutex.Lock()
	defer it.mutex.Unlock()
	cerr := it.shutdown()
	if it.err != nil {
		return it.err
	}
	return cerr
}

// shutdown closes the cursor and marks the iterator finished. Called with
// the mutex held. The first close error is retained for later Close calls.
func (it *Iterator[T]) shutdown() error {
	it.closed = true
	it.positioned = false
	if it.cursor == nil {
		return nil
	}
	cerr := it.cursor.Close()
	it.cursor = nil
	if cerr != nil && it.err == nil {
		it.err = &CursorError{Err: cerr}
	}
	return cerr
}

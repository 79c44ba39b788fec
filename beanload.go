package beanload

import (
	"context"
)

// Keyed is implemented by record types that can be collected into a map
// with [KeyedMap].
type Keyed[K comparable] interface {
	// Key returns the map key for this record.
	Key() K
}

// First runs the source and returns the first record, or nil if the result
// is empty. The cursor is closed before First returns whether it produced
// zero rows or one.
//
//	person, err := beanload.First[Person](ctx, beanload.SQL(db, "SELECT id, name FROM person LIMIT 1"))
func First[T any](ctx context.Context, src Source) (*T, error) {
	it := Each[T](ctx, src)
	if !it.Next() {
		return nil, it.Close()
	}
	record, err := it.Get()
	if cerr := it.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Each returns the lazy sequence of records produced by src. The caller
// must drain it or call [Iterator.Close].
func Each[T any](ctx context.Context, src Source) *Iterator[T] {
	return NewIterator[T](ctx, Default(), src)
}

// Collect drains the source into dst, appending one record per row in
// result order, and returns the grown slice.
func Collect[T any](ctx context.Context, dst []T, src Source) ([]T, error) {
	it := Each[T](ctx, src)
	for it.Next() {
		record, err := it.Get()
		if err != nil {
			it.Close()
			return dst, err
		}
		dst = append(dst, record)
	}
	if err := it.Close(); err != nil {
		return dst, err
	}
	return dst, nil
}

// KeyedMap drains the source into m, storing each record under its own
// [Keyed] key, and returns m. A later row with a duplicate key replaces the
// earlier record.
func KeyedMap[K comparable, T Keyed[K]](ctx context.Context, m map[K]T, src Source) (map[K]T, error) {
	it := Each[T](ctx, src)
	for it.Next() {
		record, err := it.Get()
		if err != nil {
			it.Close()
			return m, err
		}
		m[record.Key()] = record
	}
	if err := it.Close(); err != nil {
		return m, err
	}
	return m, nil
}

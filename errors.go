package beanload

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoElement is returned by [Iterator.Get] when no fetched row is
// available, i.e. when Get is called without a preceding successful Next.
var ErrNoElement = errors.New("no row available: Next must find a row before Get")

// UnknownPropertyError reports a result column with no matching bindable
// field on the record type. It indicates a schema/type mismatch at the call
// site and is raised before any row is materialized.
type UnknownPropertyError struct {
	Column string
	Type   reflect.Type
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("column %q has no matching field on type %s", e.Column, e.Type)
}

// UnwritablePropertyError reports a field that resolved for a column but
// cannot be written, such as an unexported field carrying a "db" tag.
type UnwritablePropertyError struct {
	Property string
	Type     reflect.Type
}

func (e *UnwritablePropertyError) Error() string {
	return fmt.Sprintf("field %q of type %s cannot be set", e.Property, e.Type)
}

// ConversionError reports a cell whose raw text could not become the
// declared type of its field. Raw is nil when the cell was NULL.
type ConversionError struct {
	Property string
	Raw      *string
	Err      error
}

func (e *ConversionError) Error() string {
	raw := "NULL"
	if e.Raw != nil {
		raw = fmt.Sprintf("%q", *e.Raw)
	}
	return fmt.Sprintf("cannot convert value %s for %q: %s", raw, e.Property, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// InstantiationError reports a record type no fresh instance could be
// allocated for.
type InstantiationError struct {
	Type reflect.Type
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("unable to instantiate record type %s: not a struct type. "+
		"If the type parameter is a pointer, use the struct type it points to instead", e.Type)
}

// CursorError wraps a failure reported by the underlying cursor or the
// executor that opened it.
type CursorError struct {
	Err error
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("cursor failure: %s", e.Err)
}

func (e *CursorError) Unwrap() error {
	return e.Err
}

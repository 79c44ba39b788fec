package beanload

import (
	"errors"
	"reflect"

	"github.com/simon-engledew/beanload/convert"
	"github.com/simon-engledew/beanload/internal/typeinfo"
)

// fieldBinder pairs one result column with the record field it writes and
// the conversion rule for that field's declared type. Binders are derived
// once per iteration, not once per row.
type fieldBinder struct {
	column string
	field  typeinfo.Field

	// base is the field type with one level of pointer indirection
	// stripped; rules convert to the base type and the materializer boxes
	// the value back into a pointer field.
	base reflect.Type
	rule convert.Rule
}

// deriveBinders resolves every result column against the record type,
// returning the binders in column order. A column with no matching field is
// a caller-level schema mismatch and fails with UnknownPropertyError before
// any row is read.
func (l *Loader) deriveBinders(typ reflect.Type, columns []string) ([]fieldBinder, error) {
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, &InstantiationError{Type: typ}
	}
	info, err := l.types.Lookup(typ)
	if err != nil {
		return nil, err
	}

	binders := make([]fieldBinder, len(columns))
	for i, column := range columns {
		field, ok := info.Field(column)
		if !ok {
			return nil, &UnknownPropertyError{Column: column, Type: typ}
		}
		base := field.Type
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		binders[i] = fieldBinder{
			column: column,
			field:  field,
			base:   base,
			rule:   l.converters.Resolve(base),
		}
	}
	return binders, nil
}

// materialize allocates a fresh record instance and writes the current
// cursor row into it, one binder per column. A record that fails mid-write
// is abandoned, not repaired.
func (l *Loader) materialize(typ reflect.Type, binders []fieldBinder, cursor Cursor) (reflect.Value, error) {
	record := reflect.New(typ).Elem()

	for i, binder := range binders {
		raw, err := cursor.Cell(i)
		if err != nil {
			return reflect.Value{}, &CursorError{Err: err}
		}
		value, err := binder.rule(binder.base, raw)
		if err != nil {
			return reflect.Value{}, &ConversionError{Property: binder.column, Raw: raw, Err: err}
		}
		if !binder.field.Settable {
			return reflect.Value{}, &UnwritablePropertyError{Property: binder.field.Name, Type: typ}
		}
		if err := assign(record.Field(binder.field.Index), binder, value, raw); err != nil {
			return reflect.Value{}, err
		}
	}
	return record, nil
}

// assign writes one converted value into its field, boxing into pointer
// fields and rejecting absent values that the field cannot hold.
func assign(field reflect.Value, binder fieldBinder, value any, raw *string) error {
	if value == nil {
		if canBeNil(field.Kind()) {
			// The zero value already is the absent value.
			return nil
		}
		return &ConversionError{
			Property: binder.column,
			Raw:      raw,
			Err:      errors.New("cannot assign NULL to a field that cannot hold nil"),
		}
	}

	converted := reflect.ValueOf(value)
	if converted.Type() != binder.base {
		if !converted.Type().ConvertibleTo(binder.base) {
			return &ConversionError{
				Property: binder.column,
				Raw:      raw,
				Err:      errors.New("converter returned " + converted.Type().String() + ", want " + binder.base.String()),
			}
		}
		converted = converted.Convert(binder.base)
	}

	if binder.field.Type.Kind() == reflect.Pointer {
		boxed := reflect.New(binder.base)
		boxed.Elem().Set(converted)
		field.Set(boxed)
		return nil
	}
	field.Set(converted)
	return nil
}

func canBeNil(kind reflect.Kind) bool {
	switch kind {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

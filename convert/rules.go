package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// FormatError reports text that the time.Time rule could not parse with the
// active layout.
type FormatError struct {
	Raw    string
	Layout string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to parse the time %q with layout %q", e.Raw, e.Layout)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ConstructionError reports a type the default rule could not build a value
// of from text alone.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to construct a value for %q: %s", e.Type, e.Err)
	}
	return fmt.Sprintf("failed to construct a value for %q: no conversion from text", e.Type)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

var numericTypes = []reflect.Type{
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
}

// numericRule parses text as a numeric literal. A NULL cell reads as "0":
// absent numbers are zero, not an error.
func numericRule(typ reflect.Type, raw *string) (any, error) {
	text := "0"
	if raw != nil {
		text = *raw
	}
	return parseNumeric(typ, text)
}

func parseNumeric(typ reflect.Type, text string) (any, error) {
	v := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(text, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(n)
	default:
		return nil, fmt.Errorf("cannot parse %q as %s", text, typ)
	}
	return v.Interface(), nil
}

// booleanRule treats "1" as true; any other text parses the way
// strconv.ParseBool would parse "true": a case-insensitive "true" is true and
// everything else is false, never an error. Callers cannot distinguish
// malformed input from false. A NULL cell is rejected.
func booleanRule(typ reflect.Type, raw *string) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("cannot convert NULL to %s", typ)
	}
	if *raw == "1" {
		return true, nil
	}
	return strings.EqualFold(*raw, "true"), nil
}

func stringRule(typ reflect.Type, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return *raw, nil
}

// timeRule parses text with the registry's layout, in UTC.
func (r *Registry) timeRule(typ reflect.Type, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	layout := r.TimeLayout()
	t, err := time.ParseInLocation(layout, *raw, time.UTC)
	if err != nil {
		return nil, &FormatError{Raw: *raw, Layout: layout, Err: err}
	}
	return t, nil
}

// unmarshalRule converts through the type's encoding.TextUnmarshaler
// implementation.
func unmarshalRule(typ reflect.Type, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	// The method set of *T contains T's, so the pointer always satisfies
	// the interface when the type was selected for this rule.
	v := reflect.New(typ)
	u := v.Interface().(encoding.TextUnmarshaler)
	if err := u.UnmarshalText([]byte(*raw)); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}

// defaultRule constructs a value of typ from the text alone, for types with
// no registered rule. Named types whose underlying kind carries a textual
// form (strings, numbers, bools) are parsed and converted; anything else
// fails with a ConstructionError. A NULL cell is an absent value, unlike the
// registered numeric rules.
func defaultRule(typ reflect.Type, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch typ.Kind() {
	case reflect.String:
		v := reflect.New(typ).Elem()
		v.SetString(*raw)
		return v.Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		v, err := parseNumeric(typ, *raw)
		if err != nil {
			return nil, &ConstructionError{Type: typ, Err: err}
		}
		return v, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(*raw)
		if err != nil {
			return nil, &ConstructionError{Type: typ, Err: err}
		}
		v := reflect.New(typ).Elem()
		v.SetBool(b)
		return v.Interface(), nil
	}
	return nil, &ConstructionError{Type: typ}
}

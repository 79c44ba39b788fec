// Package typeinfo resolves the fields of a record type that columns can be
// bound to, and caches the result for the life of the process.
package typeinfo

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// Field describes one bindable member of a record type.
type Field struct {
	// Name is the member name within the struct.
	Name string

	// Index for Type.Field.
	Index int

	// Type is the field's declared type.
	Type reflect.Type

	// Column is the column name taken from the field's "db" tag.
	Column string

	// OmitEmpty is true when "omitempty" is a property of the field's
	// "db" tag.
	OmitEmpty bool

	// Settable is false for tagged fields that cannot be written through
	// reflection, i.e. unexported ones. Such a field still resolves, but
	// a write through it fails at materialization time.
	Settable bool
}

// Info holds the resolved fields of one record type, indexed by column name.
// An Info is immutable once built.
type Info struct {
	Type          reflect.Type
	columnToField map[string]Field
}

// Field returns the field bound to the given column name.
func (i *Info) Field(column string) (Field, bool) {
	f, ok := i.columnToField[column]
	return f, ok
}

// Columns returns the column names the record type binds, in no particular
// order.
func (i *Info) Columns() []string {
	cols := make([]string, 0, len(i.columnToField))
	for col := range i.columnToField {
		cols = append(cols, col)
	}
	return cols
}

// Cache resolves record types to their Info, generating each type's entry at
// most once and reusing it for the life of the process. Entries are never
// invalidated; record type shape is assumed immutable.
type Cache struct {
	mutex sync.RWMutex
	infos map[reflect.Type]*Info

	// misses counts generate runs, so tests can observe that concurrent
	// first lookups resolve a type exactly once.
	misses int
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{infos: map[reflect.Type]*Info{}}
}

// Lookup returns the Info for typ, generating and caching it on first use.
// Concurrent first lookups for the same type serialize so that generation
// runs once and every caller observes the same Info.
func (c *Cache) Lookup(typ reflect.Type) (*Info, error) {
	c.mutex.RLock()
	info, found := c.infos[typ]
	c.mutex.RUnlock()
	if found {
		return info, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	// Someone else may have generated the entry since the read lock was
	// dropped.
	if info, found := c.infos[typ]; found {
		return info, nil
	}
	info, err := generate(typ)
	if err != nil {
		return nil, err
	}
	c.misses++
	c.infos[typ] = info
	return info, nil
}

// generate produces the binding information for one record type.
func generate(typ reflect.Type) (*Info, error) {
	if typ == nil {
		return nil, fmt.Errorf("cannot resolve fields of nil type")
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot resolve fields of non-struct type %s", typ)
	}

	info := Info{
		Type:          typ,
		columnToField: make(map[string]Field),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		// Fields without a "db" tag are outside the loader's remit.
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		column, omitEmpty, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %q of type %s: %s", field.Name, typ, err)
		}
		info.columnToField[column] = Field{
			Name:      field.Name,
			Index:     i,
			Type:      field.Type,
			Column:    column,
			OmitEmpty: omitEmpty,
			Settable:  field.IsExported(),
		}
	}

	return &info, nil
}

var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its
// name and whether it contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	// Refuse to parse if there are more than 2 items.
	if len(options) > 2 {
		return "", false, fmt.Errorf("too many options in 'db' tag")
	}
	if len(options) == 2 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, fmt.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, fmt.Errorf("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", false, fmt.Errorf("invalid column name in 'db' tag")
	}

	return name, omitEmpty, nil
}

package beanload

import (
	"reflect"
	"sync"

	"github.com/simon-engledew/beanload/convert"
	"github.com/simon-engledew/beanload/internal/typeinfo"
)

// Loader holds the two process-lifetime caches of the binding engine: the
// record-type field cache and the type-converter registry. A Loader is safe
// for concurrent use.
//
// Most applications use the package-level functions, which share the
// [Default] Loader. Constructing a Loader explicitly gives a scoped registry
// and field cache, which keeps converter registration out of global state.
type Loader struct {
	types      *typeinfo.Cache
	converters *convert.Registry
}

// New returns a Loader with the built-in conversion rules installed.
func New() *Loader {
	return &Loader{
		types:      typeinfo.NewCache(),
		converters: convert.NewRegistry(),
	}
}

var defaultOnce sync.Once
var defaultLoader *Loader

// Default returns the Loader shared by the package-level functions,
// creating it on first use.
func Default() *Loader {
	defaultOnce.Do(func() {
		defaultLoader = New()
	})
	return defaultLoader
}

// RegisterConverter installs or replaces the conversion rule for typ.
//
// Note that types implementing encoding.TextUnmarshaler always convert
// through the built-in unmarshal rule; see [convert.Registry.Resolve].
func (l *Loader) RegisterConverter(typ reflect.Type, rule convert.Rule) {
	l.converters.Register(typ, rule)
}

// UnregisterConverter removes the conversion rule for typ if one is present.
func (l *Loader) UnregisterConverter(typ reflect.Type) {
	l.converters.Unregister(typ)
}

// SetTimeLayout replaces the layout used to parse time.Time cells. The
// default is [convert.DefaultTimeLayout], interpreted in UTC.
func (l *Loader) SetTimeLayout(layout string) {
	l.converters.SetTimeLayout(layout)
}

// RegisterConverter installs or replaces a conversion rule on the [Default]
// Loader.
func RegisterConverter(typ reflect.Type, rule convert.Rule) {
	Default().RegisterConverter(typ, rule)
}

// UnregisterConverter removes a conversion rule from the [Default] Loader.
func UnregisterConverter(typ reflect.Type) {
	Default().UnregisterConverter(typ)
}

// SetTimeLayout replaces the time layout of the [Default] Loader.
func SetTimeLayout(layout string) {
	Default().SetTimeLayout(layout)
}

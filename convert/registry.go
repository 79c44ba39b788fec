// Package convert resolves and applies the rules that turn raw result-set
// text into typed Go values.
//
// A Registry maps a target type to a Rule. Rules for the common scalar kinds
// are installed when the Registry is created and an application can register
// its own with [Registry.Register]. Registration is expected to happen at
// startup, before conversions are running.
package convert

import (
	"encoding"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeLayout is the layout used by the built-in time.Time rule until
// it is replaced with [Registry.SetTimeLayout]. Values are interpreted in UTC.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Rule converts the raw text of a single cell into a value for typ. A nil raw
// pointer is a NULL cell. The returned value must be assignable or
// convertible to typ; a nil value stands for an absent result.
type Rule func(typ reflect.Type, raw *string) (any, error)

// Registry holds the conversion rules for a set of target types.
//
// The rule map is guarded for the benefit of startup-time registration from
// init functions; swapping rules while conversions are in flight is not a
// supported pattern.
type Registry struct {
	mutex sync.RWMutex
	rules map[reflect.Type]Rule

	// timeLayout holds the layout string used by the built-in time rule.
	// Layouts are immutable values, so a swap needs no per-caller copy.
	timeLayout atomic.Value
}

// NewRegistry returns a Registry with the built-in rules installed: the
// integral and floating point types, bool, string and time.Time.
func NewRegistry() *Registry {
	r := &Registry{rules: map[reflect.Type]Rule{}}
	r.timeLayout.Store(DefaultTimeLayout)

	for _, typ := range numericTypes {
		r.Register(typ, numericRule)
	}
	r.Register(reflect.TypeOf(false), booleanRule)
	r.Register(reflect.TypeOf(""), stringRule)
	r.Register(timeType, r.timeRule)

	return r
}

// Register installs rule for typ, replacing any rule registered earlier.
func (r *Registry) Register(typ reflect.Type, rule Rule) {
	r.mutex.Lock()
	r.rules[typ] = rule
	r.mutex.Unlock()
}

// Unregister removes the rule for typ if one is present.
func (r *Registry) Unregister(typ reflect.Type) {
	r.mutex.Lock()
	delete(r.rules, typ)
	r.mutex.Unlock()
}

// SetTimeLayout replaces the layout used by the built-in time.Time rule.
func (r *Registry) SetTimeLayout(layout string) {
	r.timeLayout.Store(layout)
}

// TimeLayout returns the layout currently used by the built-in time.Time
// rule.
func (r *Registry) TimeLayout() string {
	return r.timeLayout.Load().(string)
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// textUnmarshaler reports whether values of typ accept text through
// encoding.TextUnmarshaler. time.Time is excluded: its unmarshaler is fixed
// to RFC 3339 and would shadow the registered time rule and its swappable
// layout.
func textUnmarshaler(typ reflect.Type) bool {
	if typ == timeType {
		return false
	}
	return typ.Implements(unmarshalerType) || reflect.PointerTo(typ).Implements(unmarshalerType)
}

// Resolve returns the Rule used to convert text into values of typ. Types
// accepting text through encoding.TextUnmarshaler always take the built-in
// unmarshal rule, even when a rule was registered for them explicitly.
// Otherwise an explicitly registered rule wins, and any remaining type falls
// through to the default rule, which attempts to construct the value from
// the text alone.
//
// Resolve is deterministic: absent re-registration it returns the same rule
// for the same type on every call.
func (r *Registry) Resolve(typ reflect.Type) Rule {
	if textUnmarshaler(typ) {
		return unmarshalRule
	}
	r.mutex.RLock()
	rule, ok := r.rules[typ]
	r.mutex.RUnlock()
	if ok {
		return rule
	}
	return defaultRule
}

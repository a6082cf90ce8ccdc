package prefstore

import "sort"

// Value is the set of primitive types a preference can hold.
type Value interface {
	string | bool
}

// Key names a preference and fixes the type stored under it.
type Key[T Value] struct {
	name string
}

// StringKey declares a preference holding a string.
func StringKey(name string) Key[string] {
	return Key[string]{name: name}
}

// BoolKey declares a preference holding a boolean.
func BoolKey(name string) Key[bool] {
	return Key[bool]{name: name}
}

func (k Key[T]) Name() string {
	return k.name
}

// Preferences is an immutable snapshot of one preference container.
type Preferences struct {
	values map[string]any
}

// EmptyPreferences returns a snapshot with no keys.
func EmptyPreferences() Preferences {
	return Preferences{}
}

// Get returns the value stored under k. The boolean is false when the key is
// absent or holds a value of another type.
func Get[T Value](p Preferences, k Key[T]) (T, bool) {
	v, ok := p.values[k.name].(T)
	return v, ok
}

// Len returns the number of keys in the snapshot.
func (p Preferences) Len() int {
	return len(p.values)
}

// Keys returns the key names in sorted order.
func (p Preferences) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsMap returns a copy of the raw key/value pairs.
func (p Preferences) AsMap() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Equal reports whether both snapshots hold the same keys and values.
func (p Preferences) Equal(o Preferences) bool {
	if len(p.values) != len(o.values) {
		return false
	}
	for k, v := range p.values {
		ov, ok := o.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (p Preferences) edit() *MutablePreferences {
	m := &MutablePreferences{values: make(map[string]any, len(p.values))}
	for k, v := range p.values {
		m.values[k] = v
	}
	return m
}

// MutablePreferences is handed to Store.Edit callbacks. Changes made through
// it are committed together when the callback returns.
type MutablePreferences struct {
	values map[string]any
}

// Set stores v under k, replacing any previous value.
func Set[T Value](m *MutablePreferences, k Key[T], v T) {
	m.values[k.name] = v
}

// Remove deletes k.
func Remove[T Value](m *MutablePreferences, k Key[T]) {
	delete(m.values, k.name)
}

// Clear deletes every key in the container.
func (m *MutablePreferences) Clear() {
	m.values = make(map[string]any)
}

func (m *MutablePreferences) freeze() Preferences {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return Preferences{values: out}
}

// diff returns the keys that must be written and the keys that must be
// deleted to turn before into after.
func diff(before, after Preferences) (map[string]any, []string) {
	sets := make(map[string]any)
	for k, v := range after.values {
		if old, ok := before.values[k]; !ok || old != v {
			sets[k] = v
		}
	}
	var dels []string
	for k := range before.values {
		if _, ok := after.values[k]; !ok {
			dels = append(dels, k)
		}
	}
	sort.Strings(dels)
	return sets, dels
}

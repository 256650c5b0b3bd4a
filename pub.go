package bmap

import (
	"fmt"
	"iter"
	"log/slog"
)

// EventType names the class of change a notification describes.
type EventType uint8

const (
	// EventAdd is emitted for keys that were not present before the mutation.
	EventAdd EventType = iota + 1
	// EventUpdate is emitted for keys whose value was replaced.
	EventUpdate
	// EventDelete is emitted for keys that were removed.
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventAdd:
		return "add"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	}
	return fmt.Sprintf("EventType(%d)", uint8(e))
}

// ParseEventType converts "add", "update" or "delete" to its EventType.
func ParseEventType(s string) (EventType, error) {
	for _, e := range []EventType{EventAdd, EventUpdate, EventDelete} {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Listener is called with the entries affected by one dispatch.
type Listener[K comparable, V any] func(entries *Map[K, V])

// Entry represents a key and value in the map.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Config controls how entries are encoded and where activity is logged.
type Config struct {
	// Marshal encodes a single key or value for the binary codec, fingerprints,
	// and DefaultCompare. Defaults to JSON.
	Marshal func(interface{}) ([]byte, error)

	// Unmarshal decodes what Marshal produced. Defaults to JSON.
	Unmarshal func([]byte, interface{}) error

	// Logger receives a debug record for every dispatch. Defaults to slog.Default().
	Logger *slog.Logger

	// Cache holds decoded entries by fingerprint for Decode, and may be shared
	// across maps of the same type.
	Cache EntryCache
}

// New returns a map seeded with the given entries. Seeding does not notify.
func New[K comparable, V any](entries ...Entry[K, V]) *Map[K, V] {
	return NewWithConfig(nil, entries...)
}

// NewWithConfig returns a map seeded with the given entries, using config for
// encoding and logging. A nil config means defaults.
func NewWithConfig[K comparable, V any](config *Config, entries ...Entry[K, V]) *Map[K, V] {
	m := &Map[K, V]{config: withDefaults(config)}
	m.refill(entries)
	return m
}

// On registers listener for the given event. Listeners for the same event are
// called in registration order.
func (m *Map[K, V]) On(event EventType, listener Listener[K, V]) *Map[K, V] {
	if m.listeners == nil {
		m.listeners = map[EventType][]Listener[K, V]{}
	}
	m.listeners[event] = append(m.listeners[event], listener)
	return m
}

// Set adds or replaces the value for the given key, notifying add or update
// listeners with the single entry.
func (m *Map[K, V]) Set(key K, value V) *Map[K, V] {
	event := EventUpdate
	if m.set(key, value) {
		event = EventAdd
	}
	if m.hasListeners(event) {
		m.notify(event, m.derive(Entry[K, V]{key, value}))
	}
	return m
}

// BatchSet applies every entry in order, then notifies add listeners once with
// the new keys and update listeners once with the replaced ones.
func (m *Map[K, V]) BatchSet(entries []Entry[K, V]) *Map[K, V] {
	var added, updated []Entry[K, V]
	for _, e := range entries {
		if m.set(e.Key, e.Value) {
			added = append(added, e)
		} else {
			updated = append(updated, e)
		}
	}
	m.notifyEntries(EventAdd, added)
	m.notifyEntries(EventUpdate, updated)
	return m
}

// Get returns the value for the given key, and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.backing().Get(key)
}

// Has reports whether the key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.backing().Get(key)
	return ok
}

// BatchGet returns a new map with the entries for those of the given keys
// that are present, in the order the keys were given.
func (m *Map[K, V]) BatchGet(keys []K) *Map[K, V] {
	result := m.derive()
	for _, key := range keys {
		if value, ok := m.backing().Get(key); ok {
			result.set(key, value)
		}
	}
	return result
}

// Delete removes the entry with the given key, notifying delete listeners if
// it was present. Returns false if the map didn't contain the key.
func (m *Map[K, V]) Delete(key K) bool {
	removed, ok := m.delete(key)
	if !ok {
		return false
	}
	if m.hasListeners(EventDelete) {
		m.notify(EventDelete, m.derive(removed))
	}
	return true
}

// BatchDelete removes every given key, returning for each whether it was
// present, and notifies delete listeners once with all removed entries.
func (m *Map[K, V]) BatchDelete(keys []K) []bool {
	result := make([]bool, len(keys))
	var removed []Entry[K, V]
	for i, key := range keys {
		if e, ok := m.delete(key); ok {
			removed = append(removed, e)
			result[i] = true
		}
	}
	m.notifyEntries(EventDelete, removed)
	return result
}

// Clear removes all entries, notifying delete listeners once with everything
// that was removed.
func (m *Map[K, V]) Clear() {
	var removed []Entry[K, V]
	if m.hasListeners(EventDelete) {
		removed = m.Entries()
	}
	m.reset()
	m.notifyEntries(EventDelete, removed)
}

// Size returns the number of entries in the map.
func (m *Map[K, V]) Size() int {
	return m.backing().Size()
}

// Keys returns the keys in iteration order.
func (m *Map[K, V]) Keys() []K {
	return m.backing().Keys()
}

// Values returns the values in iteration order.
func (m *Map[K, V]) Values() []V {
	return m.backing().Values()
}

// Entries returns a copy of the map's entries in iteration order. This is the
// form the map is serialized in.
func (m *Map[K, V]) Entries() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, m.Size())
	m.each(func(key K, value V) bool {
		entries = append(entries, Entry[K, V]{key, value})
		return true
	})
	return entries
}

// Iter invokes f for every entry in iteration order, stopping at the first error.
func (m *Map[K, V]) Iter(f func(K, V) error) error {
	for _, e := range m.Entries() {
		if err := f(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// All returns an iterator over the map's entries in iteration order. The
// entries are captured when iteration starts.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.Entries() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Clone returns a map with the same entries and config, and no listeners.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return m.derive(m.Entries()...)
}

package bmap

import (
	"fmt"
	"slices"
)

// Filter returns a new map with the entries for which predicate is true.
func (m *Map[K, V]) Filter(predicate func(K, V) bool) *Map[K, V] {
	result := m.derive()
	m.each(func(key K, value V) bool {
		if predicate(key, value) {
			result.set(key, value)
		}
		return true
	})
	return result
}

// Find returns the first entry in iteration order for which predicate is true.
func (m *Map[K, V]) Find(predicate func(K, V) bool) (Entry[K, V], bool) {
	var found Entry[K, V]
	ok := false
	m.each(func(key K, value V) bool {
		if predicate(key, value) {
			found, ok = Entry[K, V]{key, value}, true
			return false
		}
		return true
	})
	return found, ok
}

// Some reports whether predicate is true for at least one entry.
func (m *Map[K, V]) Some(predicate func(K, V) bool) bool {
	_, ok := m.Find(predicate)
	return ok
}

// Every reports whether predicate is true for all entries. It is true for an
// empty map.
func (m *Map[K, V]) Every(predicate func(K, V) bool) bool {
	all := true
	m.each(func(key K, value V) bool {
		all = predicate(key, value)
		return all
	})
	return all
}

// MapEntries returns a new map built from transforming every entry of m in
// iteration order. When two entries transform to the same key, the later
// value wins.
func MapEntries[K comparable, V any, K2 comparable, V2 any](
	m *Map[K, V],
	transform func(K, V, *Map[K, V]) (K2, V2),
) *Map[K2, V2] {
	result := &Map[K2, V2]{config: m.config}
	m.each(func(key K, value V) bool {
		result.set(transform(key, value, m))
		return true
	})
	return result
}

// MapValues returns a new map with the same keys and transformed values.
func MapValues[K comparable, V any, V2 any](m *Map[K, V], transform func(K, V, *Map[K, V]) V2) *Map[K, V2] {
	return MapEntries(m, func(key K, value V, source *Map[K, V]) (K, V2) {
		return key, transform(key, value, source)
	})
}

// MapKeys returns a new map with transformed keys and the same values.
func MapKeys[K comparable, V any, K2 comparable](m *Map[K, V], transform func(K, V, *Map[K, V]) K2) *Map[K2, V] {
	return MapEntries(m, func(key K, value V, source *Map[K, V]) (K2, V) {
		return transform(key, value, source), value
	})
}

// Sort reorders the map in place. Entries that compare equal keep their
// relative order. No listeners are notified.
func (m *Map[K, V]) Sort(compare func(a, b Entry[K, V]) int) *Map[K, V] {
	entries := m.Entries()
	slices.SortStableFunc(entries, compare)
	m.refill(entries)
	return m
}

// SortFunc is like Sort for comparisons that can fail. If compare returns an
// error, the map is left as it was.
func (m *Map[K, V]) SortFunc(compare func(a, b Entry[K, V]) (int, error)) error {
	var err error
	entries := m.Entries()
	slices.SortStableFunc(entries, func(a, b Entry[K, V]) int {
		if err != nil {
			return 0
		}
		var cmp int
		cmp, err = compare(a, b)
		return cmp
	})
	if err != nil {
		return err
	}
	m.refill(entries)
	return nil
}

// SortByKey sorts the map in ascending key order using DefaultCompare with the
// map's configured marshaler.
func (m *Map[K, V]) SortByKey() error {
	order := DefaultCompare(m.conf().Marshal)
	err := m.SortFunc(func(a, b Entry[K, V]) (int, error) {
		return order(a.Key, b.Key)
	})
	if err != nil {
		return fmt.Errorf("keyCompare: %w", err)
	}
	return nil
}

// Merge returns a copy of m with the entries of other added. When a key is in
// both, the new value is resolve(key, existing, incoming); keys only in other
// are added as they are. Neither map is modified and nothing is notified.
func (m *Map[K, V]) Merge(other *Map[K, V], resolve func(key K, existing, incoming V) V) *Map[K, V] {
	merged := m.Clone()
	if other == nil {
		return merged
	}
	other.each(func(key K, incoming V) bool {
		if existing, ok := merged.Get(key); ok {
			merged.set(key, resolve(key, existing, incoming))
		} else {
			merged.set(key, incoming)
		}
		return true
	})
	return merged
}

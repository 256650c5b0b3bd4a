package bmap

import (
	"fmt"
	"reflect"
)

// DiffIter invokes the given callback for every entry that differs between m
// and the given older map: first the entries of m in iteration order that were
// added or changed, then the entries of old that are gone. Callback invocation
// with added==removed==false signifies entries whose values have changed. The
// iteration will stop if the callback returns keepGoing==false or an error.
// Values are compared with reflect.DeepEqual.
func (m *Map[K, V]) DiffIter(
	old *Map[K, V],
	f func(added, removed bool, key K, addedValue, removedValue V) (bool, error),
) error {
	if old == nil {
		old = m.derive()
	}
	var zero V
	var err error
	keepGoing := true
	m.each(func(key K, value V) bool {
		oldValue, present := old.Get(key)
		switch {
		case !present:
			keepGoing, err = f(true, false, key, value, zero)
		case !reflect.DeepEqual(oldValue, value):
			keepGoing, err = f(false, false, key, value, oldValue)
		}
		return keepGoing && err == nil
	})
	if err != nil {
		return fmt.Errorf("callback: %w", err)
	}
	if !keepGoing {
		return nil
	}
	old.each(func(key K, value V) bool {
		if !m.Has(key) {
			keepGoing, err = f(false, true, key, zero, value)
		}
		return keepGoing && err == nil
	})
	if err != nil {
		return fmt.Errorf("callback: %w", err)
	}
	return nil
}

// Diff returns the entries of m that are not in old, the entries of m whose
// values differ from old, and the entries of old that are not in m.
func (m *Map[K, V]) Diff(old *Map[K, V]) (added, updated, deleted *Map[K, V]) {
	added, updated, deleted = m.derive(), m.derive(), m.derive()
	_ = m.DiffIter(old, func(isAdded, isRemoved bool, key K, addedValue, removedValue V) (bool, error) {
		switch {
		case isAdded:
			added.set(key, addedValue)
		case isRemoved:
			deleted.set(key, removedValue)
		default:
			updated.set(key, addedValue)
		}
		return true, nil
	})
	return added, updated, deleted
}

// Replace makes m hold exactly the entries of other. Listeners are notified at
// most once per event, in the order delete, add, update; entries whose value
// didn't change are not reported. Kept keys keep their position and new keys
// are appended in other's order.
func (m *Map[K, V]) Replace(other *Map[K, V]) *Map[K, V] {
	if other == nil {
		other = m.derive()
	}
	added, updated, deleted := other.Diff(m)
	deleted.each(func(key K, _ V) bool {
		m.delete(key)
		return true
	})
	for _, change := range []*Map[K, V]{added, updated} {
		change.each(func(key K, value V) bool {
			m.set(key, value)
			return true
		})
	}
	if deleted.Size() > 0 {
		m.notify(EventDelete, deleted)
	}
	if added.Size() > 0 {
		m.notify(EventAdd, added)
	}
	if updated.Size() > 0 {
		m.notify(EventUpdate, updated)
	}
	return m
}

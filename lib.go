package bmap

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

// Map is an insertion-ordered map that notifies listeners of changes. The zero
// Map is empty and ready to use.
type Map[K comparable, V any] struct {
	store     *linkedhashmap.Map[K, V]
	listeners map[EventType][]Listener[K, V]
	config    *Config
}

var defaultConfig = Config{
	Marshal:   json.Marshal,
	Unmarshal: json.Unmarshal,
}

func withDefaults(config *Config) *Config {
	if config == nil {
		return &defaultConfig
	}
	c := *config
	if c.Marshal == nil {
		c.Marshal = defaultConfig.Marshal
	}
	if c.Unmarshal == nil {
		c.Unmarshal = defaultConfig.Unmarshal
	}
	return &c
}

func (m *Map[K, V]) backing() *linkedhashmap.Map[K, V] {
	if m.store == nil {
		m.store = linkedhashmap.New[K, V]()
	}
	return m.store
}

func (m *Map[K, V]) conf() *Config {
	if m.config == nil {
		return &defaultConfig
	}
	return m.config
}

func (m *Map[K, V]) logger() *slog.Logger {
	if l := m.conf().Logger; l != nil {
		return l
	}
	return slog.Default()
}

// set writes the entry without notifying, returning whether the key is new.
// An existing key keeps its position.
func (m *Map[K, V]) set(key K, value V) bool {
	store := m.backing()
	_, present := store.Get(key)
	store.Put(key, value)
	return !present
}

// delete removes the entry without notifying, returning what was removed.
func (m *Map[K, V]) delete(key K) (Entry[K, V], bool) {
	store := m.backing()
	value, present := store.Get(key)
	if !present {
		return Entry[K, V]{}, false
	}
	store.Remove(key)
	return Entry[K, V]{key, value}, true
}

// reset empties the store without notifying.
func (m *Map[K, V]) reset() {
	m.backing().Clear()
}

// refill replaces the contents with entries, in their order, without notifying.
func (m *Map[K, V]) refill(entries []Entry[K, V]) {
	m.reset()
	for _, e := range entries {
		m.store.Put(e.Key, e.Value)
	}
}

func (m *Map[K, V]) each(f func(K, V) bool) {
	it := m.backing().Iterator()
	for it.Next() {
		if !f(it.Key(), it.Value()) {
			return
		}
	}
}

// derive makes a listener-free map with the same config, holding entries.
func (m *Map[K, V]) derive(entries ...Entry[K, V]) *Map[K, V] {
	d := &Map[K, V]{config: m.config}
	d.refill(entries)
	return d
}

func (m *Map[K, V]) hasListeners(event EventType) bool {
	return len(m.listeners[event]) > 0
}

// notifyEntries dispatches entries to the event's listeners, building the
// payload only when someone is listening.
func (m *Map[K, V]) notifyEntries(event EventType, entries []Entry[K, V]) {
	if len(entries) == 0 || !m.hasListeners(event) {
		return
	}
	m.notify(event, m.derive(entries...))
}

func (m *Map[K, V]) notify(event EventType, entries *Map[K, V]) {
	listeners := slices.Clone(m.listeners[event])
	if len(listeners) == 0 {
		return
	}
	if log := m.logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("dispatching map change",
			slog.String("event", event.String()),
			slog.Int("entries", entries.Size()),
			slog.Int("listeners", len(listeners)),
		)
	}
	for _, listener := range listeners {
		listener(entries)
	}
}

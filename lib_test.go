package bmap

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatch[K comparable, V any] struct {
	event   EventType
	entries []Entry[K, V]
}

type recorder[K comparable, V any] struct {
	dispatches []dispatch[K, V]
}

func record[K comparable, V any](m *Map[K, V]) *recorder[K, V] {
	r := &recorder[K, V]{}
	for _, event := range []EventType{EventAdd, EventUpdate, EventDelete} {
		m.On(event, func(entries *Map[K, V]) {
			r.dispatches = append(r.dispatches, dispatch[K, V]{event, entries.Entries()})
		})
	}
	return r
}

func (r *recorder[K, V]) count(event EventType) int {
	n := 0
	for _, d := range r.dispatches {
		if d.event == event {
			n++
		}
	}
	return n
}

func e[K comparable, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{key, value}
}

func TestNew(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	require.Equal(t, 0, m.Size())
	require.Empty(t, m.Entries())

	m = New(e(1, 2), e(3, 4), e(1, 5))
	require.Equal(t, 2, m.Size())
	require.Equal(t, []Entry[int, int]{{1, 5}, {3, 4}}, m.Entries())
}

func TestZeroValue(t *testing.T) {
	t.Parallel()
	var m Map[string, int]
	_, ok := m.Get("a")
	require.False(t, ok)
	require.False(t, m.Delete("a"))
	m.Set("a", 1)
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	b, err := m.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `[["a",1]]`, string(b))
}

func TestAddEvent(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	var calls []*Map[int, int]
	m.On(EventAdd, func(entries *Map[int, int]) { calls = append(calls, entries) })

	m.Set(1, 2)

	require.Len(t, calls, 1)
	require.Equal(t, 1, calls[0].Size())
	v, ok := calls[0].Get(1)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestUpdateEvent(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	var calls []*Map[int, int]
	m.On(EventUpdate, func(entries *Map[int, int]) { calls = append(calls, entries) })

	m.Set(1, 2).Set(1, 3)

	require.Len(t, calls, 1)
	require.Equal(t, []Entry[int, int]{{1, 3}}, calls[0].Entries())
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	var calls []*Map[int, int]
	m.On(EventDelete, func(entries *Map[int, int]) { calls = append(calls, entries) })

	m.Set(1, 2)
	require.True(t, m.Delete(1))
	require.False(t, m.Delete(1))

	require.Len(t, calls, 1)
	require.Equal(t, []Entry[int, int]{{1, 2}}, calls[0].Entries())
	require.False(t, m.Has(1))
}

func TestListenersCalledInRegistrationOrder(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	var order []string
	m.On(EventAdd, func(*Map[int, int]) { order = append(order, "first") }).
		On(EventAdd, func(*Map[int, int]) { order = append(order, "second") }).
		On(EventUpdate, func(*Map[int, int]) { order = append(order, "update") })

	m.Set(1, 1)

	require.Equal(t, []string{"first", "second"}, order)
}

func TestPayloadDoesNotAliasStore(t *testing.T) {
	t.Parallel()
	m := New(e("a", 1))
	var payload *Map[string, int]
	m.On(EventAdd, func(entries *Map[string, int]) { payload = entries })

	m.Set("b", 2)
	payload.Set("c", 3)
	payload.Delete("b")

	require.Equal(t, []Entry[string, int]{{"a", 1}, {"b", 2}}, m.Entries())
}

func TestPayloadHasNoListeners(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	calls := 0
	var payload *Map[int, int]
	m.On(EventAdd, func(entries *Map[int, int]) {
		calls++
		payload = entries
	})
	m.Set(1, 1)
	payload.Set(2, 2)
	require.Equal(t, 1, calls)
}

// Not parallel: AllocsPerRun counts every allocation in the process.
func TestNoPayloadWithoutListeners(t *testing.T) {
	allocs := func(event EventType, f func(m *Map[int, int])) float64 {
		m := New[int, int]()
		m.On(event, func(*Map[int, int]) {})
		return testing.AllocsPerRun(100, func() { f(m) })
	}
	for name, f := range map[string]func(m *Map[int, int]){
		"delete": func(m *Map[int, int]) {
			m.BatchSet([]Entry[int, int]{{1, 1}})
			m.Delete(1)
		},
		"batch delete": func(m *Map[int, int]) {
			m.BatchSet([]Entry[int, int]{{1, 1}, {2, 2}})
			m.BatchDelete([]int{1, 2})
		},
		"clear": func(m *Map[int, int]) {
			m.BatchSet([]Entry[int, int]{{1, 1}, {2, 2}, {3, 3}})
			m.Clear()
		},
	} {
		listening := allocs(EventDelete, f)
		idle := allocs(EventUpdate, f)
		assert.Less(t, idle, listening, name)
	}

	adds := func(event EventType) float64 {
		m := New[int, int]()
		m.On(event, func(*Map[int, int]) {})
		return testing.AllocsPerRun(100, func() {
			m.BatchSet([]Entry[int, int]{{1, 1}, {2, 2}})
			m.Clear()
		})
	}
	assert.Less(t, adds(EventUpdate), adds(EventAdd))
}

func TestBatchSet(t *testing.T) {
	t.Parallel()
	m := New[int, int]()

	m.BatchSet([]Entry[int, int]{{1, 2}, {3, 4}})

	require.Equal(t, 2, m.Size())
	v, _ := m.Get(1)
	require.Equal(t, 2, v)
	v, _ = m.Get(3)
	require.Equal(t, 4, v)

	s := New[string, int]()
	s.BatchSet([]Entry[string, int]{{"id1", 2}, {"id2", 4}})
	require.Equal(t, []string{"id1", "id2"}, s.Keys())
	require.Equal(t, []int{2, 4}, s.Values())
}

func TestBatchSetEvents(t *testing.T) {
	t.Parallel()
	m := New(e("b", 1), e("d", 1))
	r := record(m)

	m.BatchSet([]Entry[string, int]{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}})

	require.Equal(t, []dispatch[string, int]{
		{EventAdd, []Entry[string, int]{{"a", 1}, {"c", 3}}},
		{EventUpdate, []Entry[string, int]{{"b", 2}, {"d", 4}}},
	}, r.dispatches)
}

func TestBatchSetDuplicateKeys(t *testing.T) {
	t.Parallel()
	m := New[string, int]()
	r := record(m)

	m.BatchSet([]Entry[string, int]{{"a", 1}, {"a", 2}})

	v, _ := m.Get("a")
	require.Equal(t, 2, v)
	require.Equal(t, []dispatch[string, int]{
		{EventAdd, []Entry[string, int]{{"a", 1}}},
		{EventUpdate, []Entry[string, int]{{"a", 2}}},
	}, r.dispatches)
}

func TestBatchSetEmpty(t *testing.T) {
	t.Parallel()
	m := New[string, int]()
	r := record(m)
	m.BatchSet(nil)
	require.Empty(t, r.dispatches)
}

func TestBatchGet(t *testing.T) {
	t.Parallel()
	m := New(e(1, "test1"), e(2, "test2"), e(3, "test3"))
	r := record(m)

	actual := m.BatchGet([]int{3, 7, 2})

	require.Equal(t, []Entry[int, string]{{3, "test3"}, {2, "test2"}}, actual.Entries())
	require.Equal(t, 3, m.Size())
	require.Empty(t, r.dispatches)

	s := New[string, int]()
	s.BatchSet([]Entry[string, int]{{"id1", 2}, {"id2", 4}, {"id3", 6}})
	require.Equal(t, []Entry[string, int]{{"id1", 2}, {"id2", 4}}, s.BatchGet([]string{"id1", "id2"}).Entries())
}

func TestBatchDelete(t *testing.T) {
	t.Parallel()
	m := New(e(1, 2), e(3, 4), e(5, 6))
	r := record(m)

	result := m.BatchDelete([]int{1, 7, 5})

	require.Equal(t, []bool{true, false, true}, result)
	require.Equal(t, []Entry[int, int]{{3, 4}}, m.Entries())
	require.Equal(t, []dispatch[int, int]{
		{EventDelete, []Entry[int, int]{{1, 2}, {5, 6}}},
	}, r.dispatches)
}

func TestBatchDeleteNothingPresent(t *testing.T) {
	t.Parallel()
	m := New(e(1, 2))
	r := record(m)
	require.Equal(t, []bool{false, false}, m.BatchDelete([]int{3, 4}))
	require.Equal(t, []bool{}, m.BatchDelete([]int{}))
	require.Empty(t, r.dispatches)
}

func TestClear(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	r := record(m)
	m.Set(1, 2)
	m.Set(2, 3)
	r.dispatches = nil

	m.Clear()

	require.Equal(t, 0, m.Size())
	require.Equal(t, []dispatch[int, int]{
		{EventDelete, []Entry[int, int]{{1, 2}, {2, 3}}},
	}, r.dispatches)

	m.Clear()
	require.Len(t, r.dispatches, 1)
}

func TestIteration(t *testing.T) {
	t.Parallel()
	m := New(e("z", 1), e("a", 2), e("m", 3))
	m.Set("a", 4)

	require.Equal(t, []string{"z", "a", "m"}, m.Keys())
	require.Equal(t, []int{1, 4, 3}, m.Values())

	var keys []string
	for k, v := range m.All() {
		keys = append(keys, k)
		if v == 4 {
			break
		}
	}
	require.Equal(t, []string{"z", "a"}, keys)

	sum := 0
	require.NoError(t, m.Iter(func(_ string, v int) error {
		sum += v
		return nil
	}))
	require.Equal(t, 8, sum)
}

func TestIterStopsOnError(t *testing.T) {
	t.Parallel()
	m := New(e(1, 1), e(2, 2))
	visited := 0
	err := m.Iter(func(int, int) error {
		visited++
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	require.Equal(t, 1, visited)
}

func TestIterationToleratesMutation(t *testing.T) {
	t.Parallel()
	m := New(e(1, 1), e(2, 2), e(3, 3))
	for k := range m.All() {
		m.Delete(k)
	}
	require.Equal(t, 0, m.Size())
}

func TestClone(t *testing.T) {
	t.Parallel()
	m := New(e(1, 1))
	r := record(m)
	c := m.Clone()
	c.Set(2, 2)
	require.Equal(t, 1, m.Size())
	require.Equal(t, 2, c.Size())
	require.Empty(t, r.dispatches)
}

func TestListenerMutatesDispatchingMap(t *testing.T) {
	t.Parallel()
	m := New[string, int]()
	r := record(m)
	m.On(EventAdd, func(entries *Map[string, int]) {
		if entries.Has("trigger") {
			m.Delete("trigger")
			m.Set("follower", 1)
		}
	})

	m.Set("trigger", 1)

	require.Equal(t, []Entry[string, int]{{"follower", 1}}, m.Entries())
	require.Equal(t, []dispatch[string, int]{
		{EventAdd, []Entry[string, int]{{"trigger", 1}}},
		{EventDelete, []Entry[string, int]{{"trigger", 1}}},
		{EventAdd, []Entry[string, int]{{"follower", 1}}},
	}, r.dispatches)
}

func TestListenerRegisteredDuringDispatch(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	late := 0
	m.On(EventAdd, func(*Map[int, int]) {
		m.On(EventAdd, func(*Map[int, int]) { late++ })
	})
	m.Set(1, 1)
	require.Equal(t, 0, late)
	m.Set(2, 2)
	require.Equal(t, 1, late)
}

func TestListenerPanicPropagates(t *testing.T) {
	t.Parallel()
	m := New[int, int]()
	m.On(EventAdd, func(*Map[int, int]) { panic("boom") })
	require.PanicsWithValue(t, "boom", func() { m.Set(1, 1) })
	require.True(t, m.Has(1))
}

func TestDispatchLogging(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewWithConfig[int, int](&Config{Logger: logger})
	m.Set(1, 1)
	require.Empty(t, buf.String())

	m.On(EventDelete, func(*Map[int, int]) {})
	m.BatchDelete([]int{1, 2})
	require.Contains(t, buf.String(), "event=delete")
	require.Contains(t, buf.String(), "entries=1")
	require.Contains(t, buf.String(), "listeners=1")
}

func TestEventTypeString(t *testing.T) {
	t.Parallel()
	for _, event := range []EventType{EventAdd, EventUpdate, EventDelete} {
		parsed, err := ParseEventType(event.String())
		require.NoError(t, err)
		require.Equal(t, event, parsed)
	}
	_, err := ParseEventType("upsert")
	require.Error(t, err)
	require.Equal(t, "EventType(9)", EventType(9).String())
}

func TestAddUpdateSplit(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("batch set emits one add for new keys and one update for existing keys",
		prop.ForAll(
			func(existing map[uint16]int, incoming []int) bool {
				m := New[uint16, int]()
				for k, v := range existing {
					m.Set(k, v)
				}
				r := record(m)
				batch := make([]Entry[uint16, int], len(incoming))
				var wantAdded, wantUpdated []Entry[uint16, int]
				seen, reported := map[uint16]bool{}, map[uint16]bool{}
				for i, v := range incoming {
					key := uint16(v)
					batch[i] = Entry[uint16, int]{key, v}
					if _, ok := existing[key]; ok || seen[key] {
						if !reported[key] {
							wantUpdated = append(wantUpdated, batch[i])
						}
						reported[key] = true
					} else {
						wantAdded = append(wantAdded, batch[i])
					}
					seen[key] = true
				}
				m.BatchSet(batch)

				var want []dispatch[uint16, int]
				if len(wantAdded) > 0 {
					want = append(want, dispatch[uint16, int]{EventAdd, wantAdded})
				}
				if len(wantUpdated) > 0 {
					want = append(want, dispatch[uint16, int]{EventUpdate, wantUpdated})
				}
				return assert.Equal(t, want, r.dispatches)
			},
			gen.MapOf(gen.UInt16Range(0, 100), gen.Int()),
			gen.SliceOf(gen.IntRange(0, 100)),
		))
	properties.TestingRun(t)
}

func TestDeleteDedup(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("batch delete emits at most one event with only the present keys",
		prop.ForAll(
			func(present []int, keys []int) bool {
				m := New[int, int]()
				for _, k := range present {
					m.Set(k, -k)
				}
				r := record(m)
				var wantRemoved []Entry[int, int]
				wantResult := make([]bool, len(keys))
				gone := map[int]bool{}
				for i, k := range keys {
					if m.Has(k) && !gone[k] {
						wantRemoved = append(wantRemoved, Entry[int, int]{k, -k})
						wantResult[i] = true
						gone[k] = true
					}
				}
				result := m.BatchDelete(keys)
				if !assert.Equal(t, wantResult, result) {
					return false
				}
				if len(wantRemoved) == 0 {
					return assert.Empty(t, r.dispatches)
				}
				return assert.Equal(t, []dispatch[int, int]{{EventDelete, wantRemoved}}, r.dispatches)
			},
			gen.SliceOf(gen.IntRange(0, 50)),
			gen.SliceOf(gen.IntRange(0, 80)),
		))
	properties.TestingRun(t)
}

func TestClearAggregation(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("clear emits one delete with every entry, or nothing when empty",
		prop.ForAll(
			func(keys []string) bool {
				m := New[string, int]()
				for i, k := range keys {
					m.Set(k, i)
				}
				before := m.Entries()
				r := record(m)
				m.Clear()
				if m.Size() != 0 {
					return false
				}
				if len(before) == 0 {
					return len(r.dispatches) == 0
				}
				return assert.Equal(t, []dispatch[string, int]{{EventDelete, before}}, r.dispatches)
			},
			gen.SliceOf(gen.AlphaString()),
		))
	properties.TestingRun(t)
}

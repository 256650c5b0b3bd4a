/*
Package bmap provides an observable, insertion-ordered map. A Map
behaves like an ordinary associative map, but every mutation is
reported to listeners registered for the kind of change it made:
an entry was added, an existing entry was updated, or an entry was
deleted.

Uses

- Keeping views, caches or indexes in step with a source collection

- Batching many writes while publishing one change notification

- Deterministic, stable serialization of ordered key/value data


Notifications

A listener receives a *Map holding exactly the entries affected by
one dispatch. Batched operations (BatchSet, BatchDelete, Clear,
Replace) emit at most one notification per event kind, no matter how
many keys they touch:

	m := bmap.New[string, int]()
	m.On(bmap.EventAdd, func(added *bmap.Map[string, int]) {
		fmt.Println("added", added.Keys())
	})
	m.BatchSet([]bmap.Entry[string, int]{{"a", 1}, {"b", 2}})
	// added [a b]

The payload is built for that dispatch only; it never shares storage
with the map that produced it, and it has no listeners of its own.

Reordering (Sort), seeding (New) and decoding (UnmarshalJSON,
UnmarshalBinary, FromProto) are not mutations in this sense and emit
nothing. Merge and the transforms build new maps without notifying
anyone.

Concurrency

A Map is not safe for concurrent use. Listeners run synchronously, in
registration order, before the mutating call returns. A listener may
mutate the map that notified it; the nested mutation takes effect
immediately and dispatches its own notifications before the outer
dispatch continues. Listeners registered during a dispatch are first
called on the next one.

Serialization

A Map encodes as an array of two-element [key, value] arrays in
iteration order, either as JSON (MarshalJSON), as a compact
length-prefixed binary form (MarshalBinary), or as a protobuf
ListValue (ToProto). Fingerprint hashes the binary form, so two maps
with the same entries in the same order share a fingerprint.
*/
package bmap

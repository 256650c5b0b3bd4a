package bmap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/minio/blake2b-simd"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MarshalJSON encodes the entry as a two-element [key, value] array.
func (e Entry[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.Key, e.Value})
}

// UnmarshalJSON decodes a two-element [key, value] array.
func (e *Entry[K, V]) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("entry has %d elements, expected 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	return nil
}

// MarshalJSON encodes the map as an array of [key, value] arrays in iteration order.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Entries())
}

// UnmarshalJSON replaces the map's entries with the decoded array of
// [key, value] arrays, without notifying. On error the map is unchanged.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	var entries []Entry[K, V]
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if err := checkKeys(entries); err != nil {
		return err
	}
	m.refill(entries)
	return nil
}

// checkKeys rejects decoded keys that can't be map keys, like a JSON array
// decoded into an interface key.
func checkKeys[K comparable, V any](entries []Entry[K, V]) error {
	for i, e := range entries {
		if v := reflect.ValueOf(e.Key); v.IsValid() && !v.Comparable() {
			return fmt.Errorf("key[%d]: %T is not comparable", i, e.Key)
		}
	}
	return nil
}

// ToProto encodes the map as a ListValue of two-element ListValues. Keys and
// values go through their JSON encoding, so numbers become doubles.
func (m *Map[K, V]) ToProto() (*structpb.ListValue, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	list := &structpb.ListValue{}
	if err := protojson.Unmarshal(b, list); err != nil {
		return nil, fmt.Errorf("protojson: %w", err)
	}
	return list, nil
}

// FromProto replaces the map's entries with those in list, without notifying.
func (m *Map[K, V]) FromProto(list *structpb.ListValue) error {
	b, err := protojson.Marshal(list)
	if err != nil {
		return fmt.Errorf("protojson: %w", err)
	}
	if err := m.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func fingerprint(encoded []byte) string {
	hashBytes := blake2b.Sum256(encoded)
	return base64.RawURLEncoding.EncodeToString(hashBytes[:])
}

// Fingerprint returns a hash of the binary encoding. Maps with equal entries in
// the same order, encoded with the same marshaler, have the same fingerprint.
func (m *Map[K, V]) Fingerprint() (string, error) {
	encoded, err := m.MarshalBinary()
	if err != nil {
		return "", err
	}
	return fingerprint(encoded), nil
}

// Decode returns a new map from the binary encoding in data. If config has a
// Cache, entries already decoded from identical bytes are reused.
func Decode[K comparable, V any](config *Config, data []byte) (*Map[K, V], error) {
	m := NewWithConfig[K, V](config)
	cache := m.conf().Cache
	var hash string
	if cache != nil {
		hash = fingerprint(data)
		if cached, ok := cache.Get(hash); ok {
			if entries, ok := cached.([]Entry[K, V]); ok {
				m.refill(entries)
				return m, nil
			}
		}
	}
	entries, err := unmarshalEntries[K, V](data, m.conf().Unmarshal)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	m.refill(entries)
	if cache != nil {
		cache.Add(hash, entries)
	}
	return m, nil
}

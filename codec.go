package bmap

import (
	"encoding/binary"
	"errors"
	"fmt"
)

func appendLength(buf []byte, n int) []byte {
	var tmpbuf [binary.MaxVarintLen64]byte
	len := binary.PutUvarint(tmpbuf[:], uint64(n))
	return append(buf, tmpbuf[:len]...)
}

func appendBody(buf []byte, v interface{}, marshal func(interface{}) ([]byte, error)) ([]byte, error) {
	body, err := marshal(v)
	if err != nil {
		return nil, err
	}
	buf = appendLength(buf, len(body))
	return append(buf, body...), nil
}

func decodeLength(buf []byte, n *int) ([]byte, error) {
	k, size := binary.Uvarint(buf)
	if size <= 0 {
		return nil, errors.New("bad length")
	}
	buf = buf[size:]
	// no count or body can be longer than the remaining input
	if k > uint64(len(buf)) {
		return nil, fmt.Errorf("bad length %d", k)
	}
	*n = int(k)
	return buf, nil
}

func decodeBytes(buf []byte, body *[]byte) ([]byte, error) {
	var err error
	var n int
	buf, err = decodeLength(buf, &n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		*body = nil
		return buf, nil
	}
	if len(buf) < n {
		return nil, errors.New("bad body length")
	}
	*body = buf[:n]
	return buf[n:], nil
}

func decodeBody[T any](buf []byte, out *T, unmarshal func([]byte, interface{}) error) ([]byte, error) {
	var body []byte
	buf, err := decodeBytes(buf, &body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		err = unmarshal(body, out)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func marshalEntries[K comparable, V any](entries []Entry[K, V], marshal func(interface{}) ([]byte, error)) ([]byte, error) {
	buf := appendLength(nil, len(entries))
	var err error
	for i, e := range entries {
		buf, err = appendBody(buf, e.Key, marshal)
		if err != nil {
			return nil, fmt.Errorf("key[%d]: %w", i, err)
		}
		buf, err = appendBody(buf, e.Value, marshal)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
	}
	return buf, nil
}

func unmarshalEntries[K comparable, V any](buf []byte, unmarshal func([]byte, interface{}) error) ([]Entry[K, V], error) {
	var err error
	var total int
	buf, err = decodeLength(buf, &total)
	if err != nil {
		return nil, fmt.Errorf("entry count: %w", err)
	}
	// each entry takes at least two length bytes
	if total > len(buf)/2 {
		return nil, fmt.Errorf("entry count %d exceeds input", total)
	}
	out := make([]Entry[K, V], total)
	for i := 0; i < total; i++ {
		buf, err = decodeBody(buf, &out[i].Key, unmarshal)
		if err != nil {
			return nil, fmt.Errorf("key[%d]: %w", i, err)
		}
		buf, err = decodeBody(buf, &out[i].Value, unmarshal)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(buf))
	}
	if err := checkKeys(out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalBinary encodes the entries in iteration order as a uvarint count
// followed by the length-prefixed encoding of each key and value.
func (m *Map[K, V]) MarshalBinary() ([]byte, error) {
	buf, err := marshalEntries(m.Entries(), m.conf().Marshal)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return buf, nil
}

// UnmarshalBinary replaces the map's entries with those decoded from data,
// without notifying. On error the map is unchanged.
func (m *Map[K, V]) UnmarshalBinary(data []byte) error {
	entries, err := unmarshalEntries[K, V](data, m.conf().Unmarshal)
	if err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	m.refill(entries)
	return nil
}

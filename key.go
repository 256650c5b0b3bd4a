package bmap

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
)

// A Key has a sort order.
type Key interface {
	// Order returns -1 if this key sorts before the argument, 1 if after, and 0 if equal.
	Order(Key) int
}

// DefaultCompare returns a comparison for keys or values of built-in types:
// Key implementations, strings, integers, floats, booleans and byte slices.
// Other values are compared by their marshaled bytes, provided both sides have
// the same type.
func DefaultCompare(marshaler func(interface{}) ([]byte, error)) func(i, i2 interface{}) (int, error) {
	return func(i, i2 interface{}) (int, error) {
		switch v := i.(type) {
		case Key:
			if v2, ok := i2.(Key); ok {
				return v.Order(v2), nil
			}
		case string:
			if v2, ok := i2.(string); ok {
				return cmp.Compare(v, v2), nil
			}
		case int:
			if v2, ok := i2.(int); ok {
				return cmp.Compare(v, v2), nil
			}
		case int64:
			if v2, ok := i2.(int64); ok {
				return cmp.Compare(v, v2), nil
			}
		case uint:
			if v2, ok := i2.(uint); ok {
				return cmp.Compare(v, v2), nil
			}
		case uint64:
			if v2, ok := i2.(uint64); ok {
				return cmp.Compare(v, v2), nil
			}
		case float64:
			if v2, ok := i2.(float64); ok {
				return cmp.Compare(v, v2), nil
			}
		case bool:
			if v2, ok := i2.(bool); ok {
				switch {
				case v == v2:
					return 0, nil
				case !v:
					return -1, nil
				}
				return 1, nil
			}
		case []byte:
			if v2, ok := i2.([]byte); ok {
				return bytes.Compare(v, v2), nil
			}
		default:
			if reflect.TypeOf(v) != reflect.TypeOf(i2) {
				return -1, fmt.Errorf("don't know how to compare %T with %T; implement Key or use Sort", i, i2)
			}
			b, err := marshaler(i)
			if err != nil {
				return -1, fmt.Errorf("marshal left: %w", err)
			}
			b2, err := marshaler(i2)
			if err != nil {
				return -1, fmt.Errorf("marshal right: %w", err)
			}
			return bytes.Compare(b, b2), nil
		}
		return -1, fmt.Errorf("don't know how to compare %T with %T; implement Key or use Sort", i, i2)
	}
}

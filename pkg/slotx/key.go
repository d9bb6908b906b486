package slotx

import (
	"math"
	"reflect"
)

// Key is the invalidation key of a tracker's bound operation: the ordered set
// of outside values the operation closes over. A new operation is only bound
// when the key changes.
type Key []any

// Same reports whether k and other hold the same values element by element.
// Comparable values use ==, floats treat NaN as itself and 0 as distinct from
// -0, maps, slices, pointers and channels compare by identity. Func values
// are never the same unless both are nil, so use a comparable stand-in for
// callbacks.
func (k Key) Same(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if !sameValue(k[i], other[i]) {
			return false
		}
	}
	return true
}

func (k Key) clone() Key {
	if k == nil {
		return nil
	}
	return append(Key(nil), k...)
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Float32, reflect.Float64:
		x, y := va.Float(), vb.Float()
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y && math.Signbit(x) == math.Signbit(y)
	}

	if !va.Type().Comparable() {
		return false
	}
	return equalNoPanic(a, b)
}

// equalNoPanic guards structs and arrays whose interface fields hold
// uncomparable dynamic values.
func equalNoPanic(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

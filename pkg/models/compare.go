package models

import (
	"reflect"
	"strings"
)

// LooseEqual compares snapshot values against persisted rule/condition values.
// Numeric values are normalized to float64 first, since snapshots and stored
// conditions both round-trip through JSON.
func LooseEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)

		return ok && af == bf
	}

	return reflect.DeepEqual(a, b)
}

// compareOrdered compares two values, numerically when both are numeric and
// lexically when both are strings. The second return is false when the pair
// is not comparable.
func compareOrdered(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}

		switch {
		case af > bf:
			return 1, true
		case af < bf:
			return -1, true
		default:
			return 0, true
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)

	if aok && bok {
		return strings.Compare(as, bs), true
	}

	return 0, false
}

// valueIn reports whether member is an element of the list value. The list
// may arrive as []any (JSON), []string or []float64.
func valueIn(list, member any) bool {
	switch v := list.(type) {
	case []any:
		for _, item := range v {
			if LooseEqual(item, member) {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if LooseEqual(item, member) {
				return true
			}
		}
	case []float64:
		for _, item := range v {
			if LooseEqual(item, member) {
				return true
			}
		}
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

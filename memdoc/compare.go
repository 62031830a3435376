package memdoc

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/Alp4ka/gopaginate"
)

func matches(doc gopaginate.Record, conditions []gopaginate.Condition) bool {
	return lo.EveryBy(conditions, func(cond gopaginate.Condition) bool {
		return matchCondition(doc[cond.Field], cond)
	})
}

func matchCondition(value any, cond gopaginate.Condition) bool {
	switch cond.Operator {
	case gopaginate.OperatorEq:
		return equalValues(value, cond.Value)
	case gopaginate.OperatorNe:
		return !equalValues(value, cond.Value)
	case gopaginate.OperatorIn:
		return lo.SomeBy(toSlice(cond.Value), func(item any) bool {
			return equalValues(value, item)
		})
	case gopaginate.OperatorNin:
		return !lo.SomeBy(toSlice(cond.Value), func(item any) bool {
			return equalValues(value, item)
		})
	}

	// Ordering operators never match missing values.
	if value == nil || cond.Value == nil {
		return false
	}

	cmp, ok := compareValues(value, cond.Value)
	if !ok {
		return false
	}

	switch cond.Operator {
	case gopaginate.OperatorGT:
		return cmp > 0
	case gopaginate.OperatorGTE:
		return cmp >= 0
	case gopaginate.OperatorLT:
		return cmp < 0
	case gopaginate.OperatorLTE:
		return cmp <= 0
	default:
		return false
	}
}

// isList reports whether v is a slice or an array, other than raw bytes.
func isList(v any) bool {
	if _, ok := v.([]byte); ok {
		return false
	}

	kind := reflect.ValueOf(v).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}

func toSlice(v any) []any {
	if !isList(v) {
		return []any{v}
	}

	rv := reflect.ValueOf(v)
	ret := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ret = append(ret, rv.Index(i).Interface())
	}

	return ret
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}

	return reflect.DeepEqual(a, b)
}

// compareValues orders two values of comparable kinds: numbers of any width,
// times, strings and booleans. A string is read as a timestamp only when the
// other side is a time.Time. The flag is false for values that cannot be
// ordered against each other.
func compareValues(a, b any) (int, bool) {
	if isNumber(a) && isNumber(b) {
		fa, fb := toFloat64(a), toFloat64(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}

	switch at := a.(type) {
	case time.Time:
		bt, ok := asTime(b)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	case string:
		if bt, ok := b.(time.Time); ok {
			if t, ok := asTime(at); ok {
				return t.Compare(bt), true
			}
			return 0, false
		}
		bt, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(at, bt), true
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return cast.ToInt(at) - cast.ToInt(bt), true
	case fmt.Stringer:
		if bt, ok := b.(fmt.Stringer); ok {
			return strings.Compare(at.String(), bt.String()), true
		}
	}

	return 0, false
}

// asTime returns v as a time, parsing RFC 3339 text such as a timestamp that
// came through a JSON payload.
func asTime(v any) (time.Time, bool) {
	var text []byte
	switch vt := v.(type) {
	case time.Time:
		return vt, true
	case string:
		text = []byte(vt)
	case []byte:
		text = vt
	default:
		return time.Time{}, false
	}

	var t time.Time
	if err := t.UnmarshalText(text); err != nil {
		return time.Time{}, false
	}

	return t, true
}

func toFloat64(v any) float64 {
	if f, err := cast.ToFloat64E(v); err == nil {
		return f
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int())
	case rv.CanUint():
		return float64(rv.Uint())
	case rv.CanFloat():
		return rv.Float()
	default:
		return 0
	}
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// compareForSort orders values the way a document store sorts them: missing
// values first, then values of comparable kinds, anything else by its
// printed form.
func compareForSort(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if cmp, ok := compareValues(a, b); ok {
		return cmp
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

package gopaginate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

type (
	// Filter describes which documents match a query. Keys are field names,
	// values are either a value to compare for equality or an operator map:
	//
	//	Filter{"title": "Book #10"}
	//	Filter{"pages": Filter{"$gte": 100, "$lt": 200}}
	//	Filter{"genre": map[string]any{"$in": []string{"crime", "horror"}}}
	//
	// The paginator passes filters to the executor untouched, and Conditions
	// keeps values as given. Executors decide how a value compares against a
	// stored field.
	Filter map[string]any

	// Condition is a single Operator(Field, Value) predicate. A Filter is the
	// conjunction of its conditions.
	Condition struct {
		Field    string
		Operator Operator
		Value    any
	}
)

// Conditions flattens the filter into a list of conditions sorted by field
// and then by operator, so the result does not depend on map iteration order.
func (f Filter) Conditions() ([]Condition, error) {
	if len(f) == 0 {
		return nil, nil
	}

	fields := lo.Keys(f)
	sort.Strings(fields)

	ret := make([]Condition, 0, len(f))
	for _, field := range fields {
		if field == "" {
			return nil, fmt.Errorf("empty filter field name")
		}

		value := f[field]
		operators, ok := operatorMap(value)
		if !ok {
			ret = append(ret, Condition{Field: field, Operator: OperatorEq, Value: value})
			continue
		}

		keys := lo.Keys(operators)
		sort.Strings(keys)
		for _, key := range keys {
			op := Operator(key)
			if !op.Valid() {
				return nil, fmt.Errorf("unknown operator '%s' for field '%s'", key, field)
			}
			ret = append(ret, Condition{Field: field, Operator: op, Value: operators[key]})
		}
	}

	return ret, nil
}

// operatorMap returns v as an operator map if every key of it starts with '$'.
func operatorMap(v any) (map[string]any, bool) {
	var m map[string]any
	switch vt := v.(type) {
	case Filter:
		m = vt
	case map[string]any:
		m = vt
	default:
		return nil, false
	}

	if len(m) == 0 {
		return nil, false
	}

	return m, lo.EveryBy(lo.Keys(m), func(k string) bool {
		return strings.HasPrefix(k, "$")
	})
}

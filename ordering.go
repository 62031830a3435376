package gopaginate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	return ValidateColumn(o.Column)
}

// ValidateColumn restricts column names to a safe set of symbols, so they can
// be embedded into SQL without quoting.
func ValidateColumn(column string) error {
	if column == "" {
		return fmt.Errorf("empty column name")
	}

	if !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return fmt.Errorf("column name contains forbidden symbols '%s'", column)
	}

	return nil
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Validate checks every ordering in the list. An empty list is valid.
func (o Orderings) Validate() error {
	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from a sort spec. Accepted specs:
//   - nil: no ordering;
//   - Orderings, OrderBy, []OrderBy: used as is;
//   - string: space or comma separated fields, a leading '-' means descending,
//     e.g. "-date title". The form "date desc" is accepted as well;
//   - []string: each element parsed as above;
//   - map[string]any / map[string]int / map[string]string: field to 1, -1,
//     "asc", "desc". Maps have no order, so fields are taken in lexical order.
//
// The same column appearing twice keeps its last position and direction.
func ParseSort(spec any) (Orderings, error) {
	var ret Orderings

	switch vt := spec.(type) {
	case nil:
		return nil, nil
	case Orderings:
		ret = append(ret, vt...)
	case []OrderBy:
		ret = append(ret, vt...)
	case OrderBy:
		ret = Orderings{vt}
	case string:
		parsed, err := parseSortString(vt)
		if err != nil {
			return nil, err
		}
		ret = parsed
	case []string:
		for _, s := range vt {
			parsed, err := parseSortString(s)
			if err != nil {
				return nil, err
			}
			ret = append(ret, parsed...)
		}
	case map[string]int:
		return parseSortMap(lo.MapValues(vt, func(v int, _ string) any { return v }))
	case map[string]string:
		return parseSortMap(lo.MapValues(vt, func(v string, _ string) any { return v }))
	case map[string]any:
		return parseSortMap(vt)
	case Filter:
		return parseSortMap(vt)
	default:
		return nil, fmt.Errorf("unsupported sort spec type %T", spec)
	}

	return dedupOrderings(ret), nil
}

func parseSortString(s string) (Orderings, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})

	// "date desc" form.
	if len(fields) == 2 {
		if dir := Direction(strings.ToUpper(fields[1])); dir.Valid() {
			return Orderings{{Column: fields[0], Direction: dir}}, nil
		}
	}

	ret := make(Orderings, 0, len(fields))
	for _, field := range fields {
		dir := DirectionASC
		switch {
		case strings.HasPrefix(field, "-"):
			dir, field = DirectionDESC, field[1:]
		case strings.HasPrefix(field, "+"):
			field = field[1:]
		}
		if field == "" {
			return nil, fmt.Errorf("invalid sort string '%s'", s)
		}
		ret = append(ret, OrderBy{Column: field, Direction: dir})
	}

	return ret, nil
}

func parseSortMap(m map[string]any) (Orderings, error) {
	keys := lo.Keys(m)
	sort.Strings(keys)

	ret := make(Orderings, 0, len(keys))
	for _, key := range keys {
		dir, err := parseDirection(m[key])
		if err != nil {
			return nil, fmt.Errorf("invalid direction for sort field '%s': %w", key, err)
		}
		ret = append(ret, OrderBy{Column: key, Direction: dir})
	}

	return ret, nil
}

func parseDirection(v any) (Direction, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(s) {
		case "asc", "ascending":
			return DirectionASC, nil
		case "desc", "descending":
			return DirectionDESC, nil
		}
	}

	n, err := cast.ToIntE(v)
	if err != nil {
		return "", err
	}

	switch n {
	case 1:
		return DirectionASC, nil
	case -1:
		return DirectionDESC, nil
	default:
		return "", fmt.Errorf("unexpected direction value %d", n)
	}
}

func dedupOrderings(orderings Orderings) Orderings {
	ret := make(Orderings, 0, len(orderings))
	for _, o := range orderings {
		ret = lo.Reject(ret, func(processed OrderBy, _ int) bool {
			return processed.Column == o.Column
		})
		ret = append(ret, o)
	}

	return ret
}

// ParseSortAliases builds Orderings from a list of strings in the format
// "column asc|desc", as received in API payloads. Column aliases are
// resolved via ColumnMapping. Returns an error naming the closest known alias
// if an alias is not found in the mapping.
func ParseSortAliases(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Split(strings.TrimSpace(stringOrdering), " ")
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, fmt.Errorf("invalid column alias. closest: '%s'", closestAlias(columnAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: direction,
		})
	}

	return ret, Orderings(ret).Validate()
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	sort.Strings(dataSet)
	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}

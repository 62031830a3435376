package gopaginate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Projection lists the fields to keep (Include) or to drop (Exclude) from
// each fetched document. At most one of the lists is non-empty, with the
// exception of the identifier field, which may be excluded from an include
// projection.
type Projection struct {
	Include []string
	Exclude []string
}

func (p Projection) IsEmpty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// ParseSelect builds a Projection from a select spec. Accepted specs:
//   - nil: everything;
//   - Projection: used as is;
//   - string: space or comma separated fields, a leading '-' excludes,
//     e.g. "title date" or "-author";
//   - []string: each element parsed as above;
//   - map[string]any / map[string]int / map[string]bool: field to 1/0.
//
// idField is the only field allowed to be excluded next to included fields.
func ParseSelect(spec any, idField string) (Projection, error) {
	var include, exclude []string

	add := func(field string, keep bool) {
		if keep {
			include = append(include, field)
		} else {
			exclude = append(exclude, field)
		}
	}

	switch vt := spec.(type) {
	case nil:
		return Projection{}, nil
	case Projection:
		include, exclude = vt.Include, vt.Exclude
	case string:
		parseSelectString(vt, add)
	case []string:
		for _, s := range vt {
			parseSelectString(s, add)
		}
	case map[string]int:
		return ParseSelect(lo.MapValues(vt, func(v int, _ string) any { return v }), idField)
	case map[string]bool:
		return ParseSelect(lo.MapValues(vt, func(v bool, _ string) any { return v }), idField)
	case map[string]any:
		keys := lo.Keys(vt)
		sort.Strings(keys)
		for _, key := range keys {
			keep, err := cast.ToBoolE(vt[key])
			if err != nil {
				return Projection{}, fmt.Errorf("invalid select value for field '%s': %w", key, err)
			}
			add(key, keep)
		}
	default:
		return Projection{}, fmt.Errorf("unsupported select spec type %T", spec)
	}

	include, exclude = uniq(include), uniq(exclude)

	if len(include) > 0 && len(lo.Without(exclude, idField)) > 0 {
		return Projection{}, fmt.Errorf("cannot mix inclusion and exclusion in select")
	}

	return Projection{Include: include, Exclude: exclude}, nil
}

func parseSelectString(s string, add func(field string, keep bool)) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})

	for _, field := range fields {
		switch {
		case strings.HasPrefix(field, "-"):
			add(field[1:], false)
		case strings.HasPrefix(field, "+"):
			add(field[1:], true)
		default:
			add(field, true)
		}
	}
}

func uniq(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}

	return lo.Uniq(fields)
}

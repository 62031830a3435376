package memdoc

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/Alp4ka/gopaginate"
)

type populateSpec struct {
	path       string
	projection gopaginate.Projection
}

type query struct {
	collection *Collection
	filter     gopaginate.Filter
	projection gopaginate.Projection
	orderings  gopaginate.Orderings
	skip       int
	limit      int
	lean       bool
	populate   []populateSpec
	err        error
}

func (q *query) Select(spec any) gopaginate.Query {
	projection, err := gopaginate.ParseSelect(spec, IDField)
	if err != nil {
		q.setErr(fmt.Errorf("invalid select: %w", err))
	}
	q.projection = projection

	return q
}

func (q *query) Sort(spec any) gopaginate.Query {
	orderings, err := gopaginate.ParseSort(spec)
	if err != nil {
		q.setErr(fmt.Errorf("invalid sort: %w", err))
	}
	q.orderings = orderings

	return q
}

func (q *query) Skip(n int) gopaginate.Query {
	q.skip = n
	return q
}

// Limit sets the maximum number of documents. Zero means no limit, a negative
// limit is taken by its absolute value.
func (q *query) Limit(n int) gopaginate.Query {
	q.limit = n
	return q
}

func (q *query) Lean(lean bool) gopaginate.Query {
	q.lean = lean
	return q
}

func (q *query) Populate(spec gopaginate.Populate) gopaginate.Query {
	projection, err := gopaginate.ParseSelect(spec.Select, IDField)
	if err != nil {
		q.setErr(fmt.Errorf("invalid populate select for '%s': %w", spec.Path, err))
	}
	q.populate = append(q.populate, populateSpec{path: spec.Path, projection: projection})

	return q
}

func (q *query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Exec - implements gopaginate.Query. dst must be *[]gopaginate.Record for
// lean queries and *[]*Document otherwise.
func (q *query) Exec(ctx context.Context, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.err != nil {
		return q.err
	}
	if q.skip < 0 {
		return fmt.Errorf("skip must be non-negative, got %d", q.skip)
	}

	conditions, err := q.filter.Conditions()
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	docs := q.collection.snapshot(conditions)
	if len(q.orderings) > 0 {
		slices.SortStableFunc(docs, func(a, b gopaginate.Record) int {
			for _, o := range q.orderings {
				cmp := compareForSort(a[o.Column], b[o.Column])
				if o.Direction == gopaginate.DirectionDESC {
					cmp = -cmp
				}
				if cmp != 0 {
					return cmp
				}
			}

			return 0
		})
	}

	docs = docs[min(q.skip, len(docs)):]
	if limit := lo.Ternary(q.limit < 0, -q.limit, q.limit); limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}

	records := lo.Map(docs, func(doc gopaginate.Record, _ int) gopaginate.Record {
		return project(doc, q.projection)
	})

	for _, spec := range q.populate {
		target, ok := q.collection.reference(spec.path)
		if !ok {
			return fmt.Errorf("%w: '%s' in collection '%s'", gopaginate.ErrUnknownPopulatePath, spec.path, q.collection.name)
		}

		for _, record := range records {
			if value, ok := record[spec.path]; ok {
				record[spec.path] = expand(target, value, spec.projection)
			}
		}
	}

	switch out := dst.(type) {
	case *[]gopaginate.Record:
		*out = records
	case *[]*Document:
		*out = lo.Map(records, func(record gopaginate.Record, _ int) *Document {
			return newDocument(record)
		})
	default:
		return fmt.Errorf("%w: %T", gopaginate.ErrUnsupportedDestination, dst)
	}

	return nil
}

// project returns a new record holding the projected fields of doc.
func project(doc gopaginate.Record, projection gopaginate.Projection) gopaginate.Record {
	if len(projection.Include) > 0 {
		ret := make(gopaginate.Record, len(projection.Include)+1)
		if !slices.Contains(projection.Exclude, IDField) {
			if id, ok := doc[IDField]; ok {
				ret[IDField] = id
			}
		}
		for _, field := range projection.Include {
			if value, ok := doc[field]; ok {
				ret[field] = value
			}
		}

		return ret
	}

	return lo.OmitByKeys(doc, projection.Exclude)
}

// expand replaces an identifier, or a list of identifiers, with the
// referenced documents. Dangling identifiers expand to nil.
func expand(target *Collection, value any, projection gopaginate.Projection) any {
	lookup := func(id any) any {
		doc, ok := target.FindByID(id)
		if !ok {
			return nil
		}

		return project(doc, projection)
	}

	if isList(value) {
		return lo.Map(toSlice(value), func(id any, _ int) any {
			return lookup(id)
		})
	}

	return lookup(value)
}

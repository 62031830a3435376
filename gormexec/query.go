package gormexec

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/Alp4ka/gopaginate"
)

type query[T any] struct {
	executor   *Executor[T]
	filter     gopaginate.Filter
	projection gopaginate.Projection
	orderings  gopaginate.Orderings
	skip       int
	limit      int
	hasLimit   bool
	lean       bool
	populate   []gopaginate.Populate
	err        error
}

func (q *query[T]) Select(spec any) gopaginate.Query {
	projection, err := gopaginate.ParseSelect(spec, q.executor.IDField())
	if err != nil {
		q.setErr(fmt.Errorf("invalid select: %w", err))
	}
	q.projection = projection

	return q
}

func (q *query[T]) Sort(spec any) gopaginate.Query {
	orderings, err := gopaginate.ParseSort(spec)
	if err == nil {
		err = orderings.Validate()
	}
	if err != nil {
		q.setErr(fmt.Errorf("invalid sort: %w", err))
	}
	q.orderings = orderings

	return q
}

func (q *query[T]) Skip(n int) gopaginate.Query {
	q.skip = n
	return q
}

// Limit sets the LIMIT clause. Negative values are left to gorm, which
// drops the clause.
func (q *query[T]) Limit(n int) gopaginate.Query {
	q.limit = n
	q.hasLimit = true

	return q
}

func (q *query[T]) Lean(lean bool) gopaginate.Query {
	q.lean = lean
	return q
}

func (q *query[T]) Populate(spec gopaginate.Populate) gopaginate.Query {
	q.populate = append(q.populate, spec)
	return q
}

func (q *query[T]) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Exec - implements gopaginate.Query. dst must be *[]gopaginate.Record for
// lean queries and *[]T otherwise.
func (q *query[T]) Exec(ctx context.Context, dst any) error {
	if q.err != nil {
		return q.err
	}

	tx, err := q.build(ctx)
	if err != nil {
		return err
	}

	switch out := dst.(type) {
	case *[]T:
		return tx.Find(out).Error
	case *[]gopaginate.Record:
		if len(q.populate) == 0 {
			return tx.Find(out).Error
		}

		// Maps cannot be preloaded: fetch models and convert them.
		var items []T
		if err = tx.Find(&items).Error; err != nil {
			return err
		}
		*out = lo.Map(items, func(item T, _ int) gopaginate.Record {
			return q.toLeanRecord(ctx, reflect.ValueOf(&item))
		})

		return nil
	default:
		return fmt.Errorf("%w: %T", gopaginate.ErrUnsupportedDestination, dst)
	}
}

func (q *query[T]) build(ctx context.Context) (*gorm.DB, error) {
	e := q.executor

	tx, err := e.scope(ctx, q.filter)
	if err != nil {
		return nil, err
	}

	if err = validateProjection(q.projection); err != nil {
		return nil, fmt.Errorf("invalid select: %w", err)
	}
	tx = applyProjection(tx, q.projection, e.IDField())

	if len(q.orderings) > 0 {
		tx = tx.Order(q.orderings.ToSQL())
	}
	if q.skip > 0 {
		tx = tx.Offset(q.skip)
	}
	if q.hasLimit {
		tx = tx.Limit(q.limit)
	}

	for _, spec := range q.populate {
		rel, ok := e.relationship(spec.Path)
		if !ok {
			return nil, fmt.Errorf("%w: '%s' in model '%s'", gopaginate.ErrUnknownPopulatePath, spec.Path, e.schema.Name)
		}

		if spec.Select == nil {
			tx = tx.Preload(rel.Name)
			continue
		}

		pk := gopaginate.DefaultIDField
		if rel.FieldSchema.PrioritizedPrimaryField != nil {
			pk = rel.FieldSchema.PrioritizedPrimaryField.DBName
		}
		projection, err := gopaginate.ParseSelect(spec.Select, pk)
		if err == nil {
			err = validateProjection(projection)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid populate select for '%s': %w", spec.Path, err)
		}
		tx = tx.Preload(rel.Name, func(db *gorm.DB) *gorm.DB {
			return applyProjection(db, projection, pk)
		})
	}

	return tx, nil
}

func validateProjection(projection gopaginate.Projection) error {
	for _, column := range append(slices.Clone(projection.Include), projection.Exclude...) {
		if err := gopaginate.ValidateColumn(column); err != nil {
			return err
		}
	}

	return nil
}

// applyProjection selects included columns, always keeping the primary key,
// or omits excluded ones.
func applyProjection(tx *gorm.DB, projection gopaginate.Projection, pk string) *gorm.DB {
	switch {
	case len(projection.Include) > 0:
		include := projection.Include
		if !slices.Contains(projection.Exclude, pk) && !slices.Contains(include, pk) {
			include = append([]string{pk}, include...)
		}
		return tx.Select(include)
	case len(projection.Exclude) > 0:
		return tx.Omit(projection.Exclude...)
	default:
		return tx
	}
}

// toLeanRecord converts a fetched model into a record keyed by column names.
// Populated relations are keyed by their snake case name and converted too.
func (q *query[T]) toLeanRecord(ctx context.Context, rv reflect.Value) gopaginate.Record {
	e := q.executor
	record := modelRecord(ctx, e.schema, rv)

	if len(q.projection.Include) > 0 {
		keep := append(slices.Clone(q.projection.Include), e.IDField())
		record = lo.PickByKeys(record, lo.Without(keep, q.projection.Exclude...))
	}

	for _, spec := range q.populate {
		rel, ok := e.relationship(spec.Path)
		if !ok {
			continue
		}

		value, _ := rel.Field.ValueOf(ctx, reflect.Indirect(rv))
		record[e.db.NamingStrategy.ColumnName("", rel.Name)] = relationRecord(ctx, rel.FieldSchema, value)
	}

	return record
}

func modelRecord(ctx context.Context, sch *schema.Schema, rv reflect.Value) gopaginate.Record {
	rv = reflect.Indirect(rv)
	record := make(gopaginate.Record, len(sch.DBNames))

	for _, field := range sch.Fields {
		if field.DBName == "" {
			continue
		}

		value, _ := field.ValueOf(ctx, rv)
		record[field.DBName] = value
	}

	return record
}

// relationRecord converts a relation value: a model, a pointer to one, or a
// slice of either.
func relationRecord(ctx context.Context, sch *schema.Schema, value any) any {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return modelRecord(ctx, sch, rv)
	case reflect.Struct:
		return modelRecord(ctx, sch, rv)
	case reflect.Slice, reflect.Array:
		ret := make([]gopaginate.Record, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Pointer && elem.IsNil() {
				continue
			}
			ret = append(ret, modelRecord(ctx, sch, elem))
		}
		return ret
	default:
		return value
	}
}

func isSlice(v any) bool {
	kind := reflect.ValueOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

var _ gopaginate.Query = (*query[struct{}])(nil)

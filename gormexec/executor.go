// Package gormexec runs paginated queries against GORM models.
//
//	books, err := gormexec.Register[Book](db, gopaginate.Options{}.WithLimit(20))
//	res, err := books.Paginate(ctx, gopaginate.Filter{"author_id": 7}, gopaginate.Options{}.WithPage(2))
//
// Filters become WHERE conditions, sort specs ORDER BY, select specs
// SELECT/OMIT and populate specs Preload. Lean queries scan rows into maps
// keyed by column names.
package gormexec

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/Alp4ka/gopaginate"
)

// Executor - implements gopaginate.Executor over the model T.
type Executor[T any] struct {
	db     *gorm.DB
	schema *schema.Schema
}

// New parses the schema of T and returns an executor over it.
func New[T any](db *gorm.DB) (*Executor[T], error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is nil")
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("cannot parse model schema: %w", err)
	}

	return &Executor[T]{
		db:     db,
		schema: stmt.Schema,
	}, nil
}

// Register binds a paginator to the model T. defaults are applied under the
// options of every call.
func Register[T any](db *gorm.DB, defaults gopaginate.Options) (*gopaginate.Paginator[T], error) {
	exec, err := New[T](db)
	if err != nil {
		return nil, err
	}

	return gopaginate.New[T](exec).WithDefaults(defaults), nil
}

// IDField - implements gopaginate.IDFielder. Returns the primary key column.
func (e *Executor[T]) IDField() string {
	if e.schema.PrioritizedPrimaryField == nil {
		return gopaginate.DefaultIDField
	}

	return e.schema.PrioritizedPrimaryField.DBName
}

// Find - implements gopaginate.Executor.
func (e *Executor[T]) Find(filter gopaginate.Filter) gopaginate.Query {
	return &query[T]{
		executor: e,
		filter:   filter,
	}
}

// CountMatching - implements gopaginate.Executor.
func (e *Executor[T]) CountMatching(ctx context.Context, filter gopaginate.Filter) (int64, error) {
	tx, err := e.scope(ctx, filter)
	if err != nil {
		return 0, err
	}

	var count int64
	if err = tx.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// scope starts a statement over the model table restricted by filter.
func (e *Executor[T]) scope(ctx context.Context, filter gopaginate.Filter) (*gorm.DB, error) {
	tx := e.db.WithContext(ctx).Model(new(T))

	exprs, err := whereExpressions(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if len(exprs) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: exprs})
	}

	return tx, nil
}

// relationship finds the relation a populate path names.
func (e *Executor[T]) relationship(path string) (*schema.Relationship, bool) {
	relations := e.schema.Relationships.Relations

	name, ok := matchRelation(lo.Keys(relations), path, func(name string) string {
		return e.db.NamingStrategy.ColumnName("", name)
	})
	if !ok {
		return nil, false
	}

	return relations[name], true
}

// matchRelation picks the relation name path refers to. An exact name wins,
// then a case insensitive name, then a name whose column form equals path.
// Names are tried in sorted order so ties always resolve the same way.
func matchRelation(names []string, path string, columnName func(string) string) (string, bool) {
	if lo.Contains(names, path) {
		return path, true
	}

	names = slices.Clone(names)
	slices.Sort(names)

	if name, ok := lo.Find(names, func(name string) bool { return strings.EqualFold(name, path) }); ok {
		return name, true
	}

	return lo.Find(names, func(name string) bool { return columnName(name) == path })
}

// whereExpressions converts filter conditions to gorm expressions of the
// form "column operator ?".
func whereExpressions(filter gopaginate.Filter) ([]clause.Expression, error) {
	conditions, err := filter.Conditions()
	if err != nil {
		return nil, err
	}

	exprs := make([]clause.Expression, 0, len(conditions))
	for _, cond := range conditions {
		if err = gopaginate.ValidateColumn(cond.Field); err != nil {
			return nil, err
		}

		exprs = append(exprs, conditionExpression(cond))
	}

	return exprs, nil
}

// conditionExpression converts a condition into a clause.Expr.
//
// Example:
//
//	Condition{Field: "pages", Operator: "$gte", Value: 100}
//
// Result:
//
//	"pages >= ?" with vars [100]
func conditionExpression(cond gopaginate.Condition) clause.Expression {
	if cond.Value == nil {
		switch cond.Operator {
		case gopaginate.OperatorEq:
			return clause.Expr{SQL: fmt.Sprintf("%s IS NULL", cond.Field)}
		case gopaginate.OperatorNe:
			return clause.Expr{SQL: fmt.Sprintf("%s IS NOT NULL", cond.Field)}
		}
	}

	value := cond.Value
	if cond.Operator.IsSet() {
		value = lo.Ternary[any](isSlice(value), value, []any{value})
	}

	return clause.Expr{
		SQL:  fmt.Sprintf("%s %s ?", cond.Field, cond.Operator.SQL()),
		Vars: []any{value},
	}
}

var (
	_ gopaginate.Executor  = (*Executor[struct{}])(nil)
	_ gopaginate.IDFielder = (*Executor[struct{}])(nil)
)

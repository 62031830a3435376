package gormexec

import (
	"context"
	"database/sql/driver"
	"fmt"
	"slices"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/Alp4ka/gopaginate"
)

const (
	_arg  = "(?:\\$\\d|\\?)"
	_q    = "[`'\"]"
	_cols = "[`\"]?"
)

func Test_Register_Paginate(t *testing.T) {
	tests := []struct {
		name          string
		filter        gopaginate.Filter
		opts          gopaginate.Options
		countQuery    string
		countArgs     []driver.Value
		selectQuery   string
		selectArgs    []driver.Value
		total         int64
		wantPage      *int
		wantOffset    *int
		wantPages     *int
		wantNextToken string
	}{
		{
			name:          "page mode",
			filter:        gopaginate.Filter{"pages": gopaginate.Filter{"$gte": 100}},
			opts:          gopaginate.Options{}.WithPage(2).WithLimit(2).WithSort("-pages"),
			countQuery:    "^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + " WHERE pages >= " + _arg + "$",
			countArgs:     []driver.Value{100},
			selectQuery:   "^SELECT \\* FROM " + _q + "books" + _q + " WHERE pages >= " + _arg + " ORDER BY pages DESC LIMIT 2 OFFSET 2$",
			selectArgs:    []driver.Value{100},
			total:         5,
			wantPage:      ptr(2),
			wantPages:     ptr(3),
			wantNextToken: gopaginate.NewPseudoCursor(3).String(),
		},
		{
			name:        "offset mode",
			filter:      gopaginate.Filter{"author_id": gopaginate.Filter{"$in": []int{1, 2}}, "title": gopaginate.Filter{"$ne": "Emma"}},
			opts:        gopaginate.Options{}.WithOffset(4).WithLimit(3),
			countQuery:  "^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + " WHERE author_id IN \\(" + _arg + "," + _arg + "\\) AND title <> " + _arg + "$",
			countArgs:   []driver.Value{1, 2, "Emma"},
			selectQuery: "^SELECT \\* FROM " + _q + "books" + _q + " WHERE author_id IN \\(" + _arg + "," + _arg + "\\) AND title <> " + _arg + " LIMIT 3 OFFSET 4$",
			selectArgs:  []driver.Value{1, 2, "Emma"},
			total:       5,
			wantOffset:  ptr(4),
		},
		{
			name:        "default mode without filter",
			filter:      nil,
			opts:        gopaginate.Options{},
			countQuery:  "^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + "$",
			selectQuery: "^SELECT \\* FROM " + _q + "books" + _q + " LIMIT 10$",
			total:       1,
			wantPage:    ptr(1),
			wantOffset:  ptr(0),
			wantPages:   ptr(1),
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				count := dbMock.ExpectQuery(tt.countQuery)
				if len(tt.countArgs) > 0 {
					count = count.WithArgs(tt.countArgs...)
				}
				count.WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.total))

				fetch := dbMock.ExpectQuery(tt.selectQuery)
				if len(tt.selectArgs) > 0 {
					fetch = fetch.WithArgs(tt.selectArgs...)
				}
				fetch.WillReturnRows(sqlmock.NewRows([]string{"id", "title", "pages", "author_id"}).
					AddRow(1, "Dune", 412, 1))

				books, err := Register[tBook](db, gopaginate.Options{}.WithLimit(10))
				require.NoError(t, err)

				res, err := books.Paginate(context.Background(), tt.filter, tt.opts)
				require.NoError(t, err)

				require.Len(t, res.Docs, 1)
				assert.Equal(t, "Dune", res.Docs[0].Title)
				assert.Equal(t, tt.total, res.Total)
				assert.Equal(t, tt.wantPage, res.Page)
				assert.Equal(t, tt.wantOffset, res.Offset)
				assert.Equal(t, tt.wantPages, res.Pages)
				assert.Equal(t, tt.wantNextToken, res.NextPageToken)

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_Register_Paginate_ZeroLimitOnlyCounts(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + "$").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

			books, err := Register[tBook](db, gopaginate.Options{})
			require.NoError(t, err)

			res, err := books.Paginate(context.Background(), nil, gopaginate.Options{}.WithLimit(0))
			require.NoError(t, err)

			assert.Empty(t, res.Docs)
			assert.EqualValues(t, 7, res.Total)
			assert.Equal(t, gopaginate.InfinitePages, *res.Pages)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Register_Paginate_SelectAndPopulate(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + "$").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			dbMock.ExpectQuery("^SELECT " + _cols + "id" + _cols + "," + _cols + "title" + _cols + "," + _cols + "author_id" + _cols +
				" FROM " + _q + "books" + _q + " LIMIT 10$").
				WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}).AddRow(1, "Dune", 7))
			dbMock.ExpectQuery("^SELECT " + _cols + "id" + _cols + "," + _cols + "name" + _cols +
				" FROM " + _q + "authors" + _q + " WHERE .*id.*").
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Frank Herbert"))

			books, err := Register[tBook](db, gopaginate.Options{})
			require.NoError(t, err)

			res, err := books.Paginate(context.Background(), nil, gopaginate.Options{
				Select:   "title author_id",
				Populate: []gopaginate.Populate{{Path: "author", Select: "name"}},
			})
			require.NoError(t, err)

			require.Len(t, res.Docs, 1)
			require.NotNil(t, res.Docs[0].Author)
			assert.Equal(t, "Frank Herbert", res.Docs[0].Author.Name)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Register_Paginate_Lean(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + "$").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			dbMock.ExpectQuery("^SELECT \\* FROM " + _q + "books" + _q + " LIMIT 10$").
				WillReturnRows(sqlmock.NewRows([]string{"id", "title", "pages", "author_id"}).AddRow(1, "Dune", 412, 7))

			books, err := Register[tBook](db, gopaginate.Options{}.WithLean(true))
			require.NoError(t, err)
			require.Equal(t, "id", books.GetIDField())

			res, err := books.Paginate(context.Background(), nil, gopaginate.Options{})
			require.NoError(t, err)

			require.True(t, res.IsLean())
			require.Len(t, res.Records, 1)
			assert.Equal(t, "1", res.Records[0]["id"])
			assert.Equal(t, "Dune", res.Records[0]["title"])
			assert.EqualValues(t, 412, res.Records[0]["pages"])
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Register_Paginate_LeanPopulate(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM " + _q + "books" + _q + "$").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			dbMock.ExpectQuery("^SELECT \\* FROM " + _q + "books" + _q + " LIMIT 10$").
				WillReturnRows(sqlmock.NewRows([]string{"id", "title", "pages", "author_id"}).AddRow(1, "Dune", 412, 7))
			dbMock.ExpectQuery("^SELECT \\* FROM " + _q + "authors" + _q + " WHERE .*id.*").
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Frank Herbert"))

			books, err := Register[tBook](db, gopaginate.Options{})
			require.NoError(t, err)

			res, err := books.Paginate(context.Background(), nil,
				gopaginate.Options{}.WithLean(true).WithLeanID(false).WithPopulate("author"))
			require.NoError(t, err)

			require.Len(t, res.Records, 1)
			record := res.Records[0]
			assert.EqualValues(t, 1, record["id"])
			assert.EqualValues(t, 7, record["author_id"])

			author, ok := record["author"].(gopaginate.Record)
			require.True(t, ok, "author is %T", record["author"])
			assert.Equal(t, "Frank Herbert", author["name"])
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Executor_QueryErrors(t *testing.T) {
	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			if err != nil {
				t.Fatalf("gorm open: %v", err)
			}

			exec, err := New[tBook](db)
			require.NoError(t, err)
			ctx := context.Background()

			var books []tBook
			err = exec.Find(nil).Populate(gopaginate.Populate{Path: "publisher"}).Exec(ctx, &books)
			require.ErrorIs(t, err, gopaginate.ErrUnknownPopulatePath)

			err = exec.Find(gopaginate.Filter{"title; DROP TABLE books": 1}).Exec(ctx, &books)
			require.ErrorContains(t, err, "invalid filter")

			_, err = exec.CountMatching(ctx, gopaginate.Filter{"pages": gopaginate.Filter{"$regex": "x"}})
			require.ErrorContains(t, err, "invalid filter")

			err = exec.Find(nil).Sort("-pages;").Exec(ctx, &books)
			require.ErrorContains(t, err, "invalid sort")

			err = exec.Find(nil).Select("title -pages").Exec(ctx, &books)
			require.ErrorContains(t, err, "invalid select")

			var wrong []string
			err = exec.Find(nil).Exec(ctx, &wrong)
			require.ErrorIs(t, err, gopaginate.ErrUnsupportedDestination)

			// None of the above reached the database.
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Executor_relationship(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	exec, err := New[tBook](db)
	require.NoError(t, err)
	require.Equal(t, "id", exec.IDField())

	for _, path := range []string{"Author", "author"} {
		rel, ok := exec.relationship(path)
		require.True(t, ok, path)
		require.Equal(t, "Author", rel.Name)
	}

	_, ok := exec.relationship("publisher")
	require.False(t, ok)

	_, err = New[tBook](nil)
	require.Error(t, err)
}

func Test_matchRelation(t *testing.T) {
	columnName := schema.NamingStrategy{}.ColumnName

	tests := []struct {
		name   string
		names  []string
		path   string
		want   string
		wantOK bool
	}{
		{
			name:   "exact name wins over case insensitive",
			names:  []string{"author", "Author"},
			path:   "Author",
			want:   "Author",
			wantOK: true,
		},
		{
			name:   "exact lower case name",
			names:  []string{"Author", "author"},
			path:   "author",
			want:   "author",
			wantOK: true,
		},
		{
			name:   "case insensitive wins over snake case",
			names:  []string{"CoAuthor", "Co_author"},
			path:   "co_author",
			want:   "Co_author",
			wantOK: true,
		},
		{
			name:   "case insensitive ties resolve in sorted order",
			names:  []string{"EDITOR", "Editor"},
			path:   "editor",
			want:   "EDITOR",
			wantOK: true,
		},
		{
			name:   "snake case name",
			names:  []string{"Author", "CoAuthor"},
			path:   "co_author",
			want:   "CoAuthor",
			wantOK: true,
		},
		{
			name:  "unknown path",
			names: []string{"Author"},
			path:  "publisher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeated runs over shuffled input must agree.
			for i := 0; i < 10; i++ {
				names := lo.Shuffle(slices.Clone(tt.names))

				got, ok := matchRelation(names, tt.path, func(name string) string {
					return columnName("", name)
				})
				require.Equal(t, tt.wantOK, ok)
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_conditionExpression(t *testing.T) {
	tests := []struct {
		name string
		cond gopaginate.Condition
		want clause.Expr
	}{
		{
			name: "equality",
			cond: gopaginate.Condition{Field: "title", Operator: gopaginate.OperatorEq, Value: "Dune"},
			want: clause.Expr{SQL: "title = ?", Vars: []any{"Dune"}},
		},
		{
			name: "null equality",
			cond: gopaginate.Condition{Field: "deleted_at", Operator: gopaginate.OperatorEq},
			want: clause.Expr{SQL: "deleted_at IS NULL"},
		},
		{
			name: "null inequality",
			cond: gopaginate.Condition{Field: "deleted_at", Operator: gopaginate.OperatorNe},
			want: clause.Expr{SQL: "deleted_at IS NOT NULL"},
		},
		{
			name: "range",
			cond: gopaginate.Condition{Field: "pages", Operator: gopaginate.OperatorLT, Value: 300},
			want: clause.Expr{SQL: "pages < ?", Vars: []any{300}},
		},
		{
			name: "set with list",
			cond: gopaginate.Condition{Field: "id", Operator: gopaginate.OperatorIn, Value: []int{1, 2}},
			want: clause.Expr{SQL: "id IN ?", Vars: []any{[]int{1, 2}}},
		},
		{
			name: "set with single value",
			cond: gopaginate.Condition{Field: "id", Operator: gopaginate.OperatorNin, Value: 3},
			want: clause.Expr{SQL: "id NOT IN ?", Vars: []any{[]any{3}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, conditionExpression(tt.cond))
		})
	}
}

func Test_whereExpressions(t *testing.T) {
	exprs, err := whereExpressions(gopaginate.Filter{
		"pages": gopaginate.Filter{"$lt": 500, "$gte": 100},
		"title": "Dune",
	})
	require.NoError(t, err)
	require.Equal(t, []clause.Expression{
		clause.Expr{SQL: "pages >= ?", Vars: []any{100}},
		clause.Expr{SQL: "pages < ?", Vars: []any{500}},
		clause.Expr{SQL: "title = ?", Vars: []any{"Dune"}},
	}, exprs)

	_, err = whereExpressions(gopaginate.Filter{"a b": 1})
	require.Error(t, err)
}

func ptr(v int) *int {
	return &v
}

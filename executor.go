package gopaginate

import (
	"context"
	"errors"
)

// Record is a plain document: field names mapped to values, without any
// behavior attached. Lean queries produce records.
type Record = map[string]any

// DefaultIDField is the identifier field name used when the executor does not
// report one.
const DefaultIDField = "_id"

var (
	// ErrNilExecutor is returned when paginating without an executor bound.
	ErrNilExecutor = errors.New("query executor is nil")
	// ErrUnsupportedDestination is returned by Query.Exec when it cannot fill
	// the destination it was given.
	ErrUnsupportedDestination = errors.New("unsupported query destination")
	// ErrUnknownPopulatePath is returned by Query.Exec when a populate path does
	// not name a known relation.
	ErrUnknownPopulatePath = errors.New("unknown populate path")
)

// Executor runs queries against a document collection.
type Executor interface {
	// Find starts a query over the documents matching filter.
	Find(filter Filter) Query
	// CountMatching counts the documents matching filter.
	CountMatching(ctx context.Context, filter Filter) (int64, error)
}

// Query is a chainable query builder. Builder methods never fail: invalid
// specs are recorded and reported by Exec.
type Query interface {
	Select(spec any) Query
	Sort(spec any) Query
	Skip(n int) Query
	Limit(n int) Query
	Lean(lean bool) Query
	// Populate expands a reference field. Repeated calls add up.
	Populate(spec Populate) Query
	// Exec runs the query and stores the result into dst. A lean query fills
	// *[]Record, otherwise dst points to a slice of the executor's document type.
	Exec(ctx context.Context, dst any) error
}

// IDFielder is implemented by executors whose documents are identified by a
// field other than DefaultIDField.
type IDFielder interface {
	IDField() string
}

// Populate is one expansion spec: the reference field to replace with the
// referenced document and an optional projection for the referenced document.
type Populate struct {
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
	Select any    `json:"select,omitempty" yaml:"select,omitempty" mapstructure:"select"`
}

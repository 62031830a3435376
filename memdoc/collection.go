// Package memdoc is an in-memory document collection implementing
// gopaginate.Executor. Documents are plain records identified by an "_id"
// field; references between collections are expanded with Populate.
package memdoc

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/segmentio/ksuid"

	"github.com/Alp4ka/gopaginate"
)

// IDField identifies documents in a Collection.
const IDField = gopaginate.DefaultIDField

// Collection is a named set of documents, safe for concurrent use.
type Collection struct {
	name string

	mu   sync.RWMutex
	docs []gopaginate.Record
	refs map[string]*Collection
}

func NewCollection(name string) *Collection {
	return &Collection{
		name: name,
		refs: map[string]*Collection{},
	}
}

func (c *Collection) Name() string {
	return c.name
}

// IDField - implements gopaginate.IDFielder.
func (c *Collection) IDField() string {
	return IDField
}

// Insert stores copies of records and returns their identifiers. Records
// without an identifier get a generated one.
func (c *Collection) Insert(records ...gopaginate.Record) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]any, 0, len(records))
	for _, record := range records {
		doc := lo.Assign(record)
		id, ok := doc[IDField]
		if !ok || id == nil {
			id = ksuid.New().String()
			doc[IDField] = id
		}

		if _, exists := c.findByID(id); exists {
			return ids, fmt.Errorf("duplicate %s '%v' in collection '%s'", IDField, id, c.name)
		}

		c.docs = append(c.docs, doc)
		ids = append(ids, id)
	}

	return ids, nil
}

// Reference declares that field holds identifiers of documents in target, so
// the field can be populated.
func (c *Collection) Reference(field string, target *Collection) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refs[field] = target

	return c
}

// FindByID returns a copy of the document with the given identifier.
func (c *Collection) FindByID(id any) (gopaginate.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.findByID(id)
	if !ok {
		return nil, false
	}

	return lo.Assign(doc), true
}

func (c *Collection) findByID(id any) (gopaginate.Record, bool) {
	return lo.Find(c.docs, func(doc gopaginate.Record) bool {
		return equalValues(doc[IDField], id)
	})
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.docs)
}

// Find - implements gopaginate.Executor.
func (c *Collection) Find(filter gopaginate.Filter) gopaginate.Query {
	return &query{
		collection: c,
		filter:     filter,
	}
}

// CountMatching - implements gopaginate.Executor.
func (c *Collection) CountMatching(ctx context.Context, filter gopaginate.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conditions, err := filter.Conditions()
	if err != nil {
		return 0, fmt.Errorf("invalid filter: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return int64(lo.CountBy(c.docs, func(doc gopaginate.Record) bool {
		return matches(doc, conditions)
	})), nil
}

// snapshot returns the documents matching conditions. The records are shared
// with the collection and must not be modified.
func (c *Collection) snapshot(conditions []gopaginate.Condition) []gopaginate.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return lo.Filter(c.docs, func(doc gopaginate.Record, _ int) bool {
		return matches(doc, conditions)
	})
}

func (c *Collection) reference(field string) (*Collection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	target, ok := c.refs[field]

	return target, ok
}

var (
	_ gopaginate.Executor  = (*Collection)(nil)
	_ gopaginate.IDFielder = (*Collection)(nil)
)

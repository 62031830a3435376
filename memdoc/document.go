package memdoc

import (
	"encoding/json"

	"github.com/samber/lo"

	"github.com/Alp4ka/gopaginate"
)

// Document is a fetched document. Unlike a lean record it is read through
// accessors and cannot be modified by the caller.
type Document struct {
	record gopaginate.Record
}

func newDocument(record gopaginate.Record) *Document {
	return &Document{record: record}
}

// ID returns the document identifier.
func (d *Document) ID() any {
	if d == nil {
		return nil
	}

	return d.record[IDField]
}

// Get returns the value of a field, nil if the field is absent.
func (d *Document) Get(field string) any {
	if d == nil {
		return nil
	}

	return d.record[field]
}

// Has reports whether the field is present.
func (d *Document) Has(field string) bool {
	if d == nil {
		return false
	}

	_, ok := d.record[field]

	return ok
}

// Populated returns a populated reference field as a document.
func (d *Document) Populated(field string) (*Document, bool) {
	record, ok := d.Get(field).(gopaginate.Record)
	if !ok {
		return nil, false
	}

	return newDocument(record), true
}

// Record returns a shallow copy of the document fields.
func (d *Document) Record() gopaginate.Record {
	if d == nil {
		return nil
	}

	return lo.Assign(d.record)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.record)
}

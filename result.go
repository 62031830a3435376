package gopaginate

import (
	"encoding/json"
	"math"
)

// InfinitePages is reported as Pages when the limit is zero.
const InfinitePages = math.MaxInt

// Result is a page of documents together with pagination details.
type Result[T any] struct {
	// Docs holds fetched documents when the query was not lean.
	Docs []T
	// Records holds fetched records when the query was lean.
	Records []Record
	// Total number of documents matching the filter, regardless of skip and limit.
	Total int64
	// Limit echoes the effective limit.
	Limit int
	// Offset is set in offset mode and in default mode.
	Offset *int
	// Page is set in page mode and in default mode.
	Page *int
	// Pages is set whenever Page is set.
	Pages *int
	// NextPageToken is a PseudoCursor token for the following page. Empty on
	// the last page.
	NextPageToken string

	lean bool
}

// IsLean reports whether the fetched items are in Records.
func (r *Result[T]) IsLean() bool {
	return r != nil && r.lean
}

// Len returns the number of fetched items.
func (r *Result[T]) Len() int {
	if r == nil {
		return 0
	}
	if r.lean {
		return len(r.Records)
	}

	return len(r.Docs)
}

type resultJSON struct {
	Docs          any    `json:"docs"`
	Total         int64  `json:"total"`
	Limit         int    `json:"limit"`
	Offset        *int   `json:"offset,omitempty"`
	Page          *int   `json:"page,omitempty"`
	Pages         *int   `json:"pages,omitempty"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// MarshalJSON encodes the fetched items under "docs" in both lean and
// non-lean mode.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	var docs any = r.Docs
	if r.lean {
		docs = r.Records
	}

	return json.Marshal(resultJSON{
		Docs:          docs,
		Total:         r.Total,
		Limit:         r.Limit,
		Offset:        r.Offset,
		Page:          r.Page,
		Pages:         r.Pages,
		NextPageToken: r.NextPageToken,
	})
}

// countPages returns ceil(total/limit). A zero limit yields InfinitePages
// unless total is zero too, and a zero result is reported as one page.
func countPages(total int64, limit int) int {
	if limit == 0 {
		if total == 0 {
			return 1
		}

		return InfinitePages
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages == 0 {
		return 1
	}

	return pages
}

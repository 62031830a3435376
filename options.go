package gopaginate

import (
	"github.com/samber/lo"
)

// Options shape a paginated query. Unset (nil) fields fall back to the
// paginator defaults and then to the package defaults:
//
//	Limit: DefaultLimit, Lean: false, LeanWithID: true
//
// Offset takes precedence over Page. A zero Offset or Page counts as unset,
// so Offset: 0 falls through to page mode.
type Options struct {
	// Select is a projection spec, see ParseSelect.
	Select any `json:"select,omitempty" yaml:"select,omitempty" mapstructure:"select"`
	// Sort is a sort spec, see ParseSort.
	Sort any `json:"sort,omitempty" yaml:"sort,omitempty" mapstructure:"sort"`
	// Populate lists reference fields to expand. Each spec is applied on its own.
	Populate []Populate `json:"populate,omitempty" yaml:"populate,omitempty" mapstructure:"populate"`
	// Lean returns plain records instead of documents.
	Lean *bool `json:"lean,omitempty" yaml:"lean,omitempty" mapstructure:"lean"`
	// LeanWithID stamps lean records with a string "id" field.
	LeanWithID *bool `json:"leanWithId,omitempty" yaml:"leanWithId,omitempty" mapstructure:"leanWithId"`
	// Limit is the maximum number of documents to fetch. Zero fetches nothing
	// but still counts.
	Limit *int `json:"limit,omitempty" yaml:"limit,omitempty" mapstructure:"limit"`
	// Offset is the number of matching documents to skip.
	Offset *int `json:"offset,omitempty" yaml:"offset,omitempty" mapstructure:"offset"`
	// Page is a 1-based page number.
	Page *int `json:"page,omitempty" yaml:"page,omitempty" mapstructure:"page"`
}

// WithSelect sets the projection spec.
func (o Options) WithSelect(spec any) Options {
	o.Select = spec
	return o
}

// WithSort sets the sort spec.
func (o Options) WithSort(spec any) Options {
	o.Sort = spec
	return o
}

// WithPopulate appends expansion specs given as paths.
func (o Options) WithPopulate(paths ...string) Options {
	populate := make([]Populate, 0, len(o.Populate)+len(paths))
	populate = append(populate, o.Populate...)
	for _, path := range paths {
		populate = append(populate, Populate{Path: path})
	}
	o.Populate = populate

	return o
}

func (o Options) WithLean(lean bool) Options {
	o.Lean = lo.ToPtr(lean)
	return o
}

func (o Options) WithLeanID(leanWithID bool) Options {
	o.LeanWithID = lo.ToPtr(leanWithID)
	return o
}

func (o Options) WithLimit(limit int) Options {
	o.Limit = lo.ToPtr(limit)
	return o
}

func (o Options) WithOffset(offset int) Options {
	o.Offset = lo.ToPtr(offset)
	return o
}

func (o Options) WithPage(page int) Options {
	o.Page = lo.ToPtr(page)
	return o
}

// Merge returns o with every field set in over replacing the one in o.
func (o Options) Merge(over Options) Options {
	if over.Select != nil {
		o.Select = over.Select
	}
	if over.Sort != nil {
		o.Sort = over.Sort
	}
	if over.Populate != nil {
		o.Populate = over.Populate
	}
	if over.Lean != nil {
		o.Lean = over.Lean
	}
	if over.LeanWithID != nil {
		o.LeanWithID = over.LeanWithID
	}
	if over.Limit != nil {
		o.Limit = over.Limit
	}
	if over.Offset != nil {
		o.Offset = over.Offset
	}
	if over.Page != nil {
		o.Page = over.Page
	}

	return o
}

// clone copies the pointer fields so the copy shares nothing mutable with o.
func (o Options) clone() Options {
	ret := o
	if o.Populate != nil {
		ret.Populate = append(make([]Populate, 0, len(o.Populate)), o.Populate...)
	}
	ret.Lean = clonePtr(o.Lean)
	ret.LeanWithID = clonePtr(o.LeanWithID)
	ret.Limit = clonePtr(o.Limit)
	ret.Offset = clonePtr(o.Offset)
	ret.Page = clonePtr(o.Page)

	return ret
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	return lo.ToPtr(*p)
}

// Mode tells which pagination parameters a result carries.
type Mode string

const (
	// ModeOffset results carry Offset only.
	ModeOffset Mode = "offset"
	// ModePage results carry Page and Pages only.
	ModePage Mode = "page"
	// ModeDefault is used when neither offset nor page is given; results carry
	// Offset, Page and Pages.
	ModeDefault Mode = "default"
)

// plan is the resolved form of Options for a single call.
type plan struct {
	selectSpec any
	sortSpec   any
	populate   []Populate
	lean       bool
	leanWithID bool
	limit      int

	mode   Mode
	skip   int
	offset int
	page   int
}

func resolve(o Options) plan {
	p := plan{
		selectSpec: o.Select,
		sortSpec:   o.Sort,
		populate:   o.Populate,
		lean:       lo.FromPtrOr(o.Lean, false),
		leanWithID: lo.FromPtrOr(o.LeanWithID, true),
		limit:      lo.FromPtrOr(o.Limit, DefaultLimit),
	}

	switch offset, page := lo.FromPtr(o.Offset), lo.FromPtr(o.Page); {
	case offset != 0:
		p.mode = ModeOffset
		p.offset = offset
		p.skip = offset
	case page != 0:
		p.mode = ModePage
		p.page = page
		p.skip = (page - 1) * p.limit
	default:
		p.mode = ModeDefault
		p.page = 1
		p.offset = 0
		p.skip = 0
	}

	return p
}

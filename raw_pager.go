package gopaginate

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var _validate = validator.New(validator.WithRequiredStructEnabled())

// RawPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawPager `json:",inline"`
//	}
type RawPager struct {
	// Limit - maximum number of records to return in the response. Zero means
	// the policy default, larger values are capped by the policy maximum.
	Limit int `json:"limit" validate:"gte=0"`
	// Page - 1-based page number.
	Page int `json:"page,omitempty" validate:"gte=0"`
	// Offset - number of records to skip.
	Offset int `json:"offset,omitempty" validate:"gte=0"`
	// StartToken - token obtained from Result.NextPageToken. Overrides Offset
	// and Page.
	StartToken string `json:"startToken,omitempty" validate:"omitempty,base64rawurl"`
	// Sort - list of "alias asc|desc" strings.
	Sort []string `json:"sort,omitempty" validate:"dive,required"`
}

// Validate checks the payload field constraints.
func (p RawPager) Validate() error {
	if err := _validate.Struct(p); err != nil {
		return fmt.Errorf("invalid pager payload: %w", err)
	}

	return nil
}

// Decode converts RawPager into Options, normalizing Limit, decoding
// StartToken and resolving sort aliases via columnMapping. A nil mapping
// rejects any Sort entry.
func (p RawPager) Decode(columnMapping ColumnMapping) (Options, error) {
	return p.DecodeWithPolicy(columnMapping, DefaultLimitPolicy)
}

// DecodeWithPolicy is Decode with Limit normalized by policy.
func (p RawPager) DecodeWithPolicy(columnMapping ColumnMapping, policy LimitPolicy) (Options, error) {
	if err := policy.Validate(); err != nil {
		return Options{}, err
	}
	if err := p.Validate(); err != nil {
		return Options{}, err
	}

	limit, _ := policy.Apply(p.Limit)
	opts := Options{}.WithLimit(limit)

	cursor, err := DecodePseudoCursor(p.StartToken)
	if err != nil {
		return Options{}, err
	}

	switch {
	case !cursor.IsEmpty():
		opts = opts.WithOffset(cursor.GetOffset())
	case p.Offset != 0:
		opts = opts.WithOffset(p.Offset)
	case p.Page != 0:
		opts = opts.WithPage(p.Page)
	}

	if len(p.Sort) > 0 {
		orderings, err := ParseSortAliases(p.Sort, lo.Ternary(columnMapping == nil, ColumnMapping{}, columnMapping))
		if err != nil {
			return Options{}, err
		}
		opts.Sort = orderings
	}

	return opts, nil
}

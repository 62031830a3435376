package gopaginate

import "fmt"

const (
	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 10
	// MaxLimit caps page sizes requested through RawPager.
	MaxLimit = 100
)

// LimitPolicy bounds page sizes taken from untrusted input, such as an API
// payload decoded into RawPager.
type LimitPolicy struct {
	// Default replaces non-positive limits.
	Default int `json:"default" yaml:"default" mapstructure:"default" validate:"gt=0,ltefield=Max"`
	// Max caps larger limits.
	Max int `json:"max" yaml:"max" mapstructure:"max" validate:"gt=0"`
}

// DefaultLimitPolicy is the policy RawPager.Decode applies.
var DefaultLimitPolicy = LimitPolicy{Default: DefaultLimit, Max: MaxLimit}

func (p LimitPolicy) Validate() error {
	if err := _validate.Struct(p); err != nil {
		return fmt.Errorf("invalid limit policy: %w", err)
	}

	return nil
}

// Apply clamps limit into (0, Max]. A non-positive limit becomes Default. The
// flag reports whether limit was already in range.
func (p LimitPolicy) Apply(limit int) (int, bool) {
	switch {
	case limit <= 0:
		return p.Default, false
	case limit > p.Max:
		return p.Max, false
	default:
		return limit, true
	}
}

// NormalizeLimit applies DefaultLimitPolicy to limit.
func NormalizeLimit(limit int) int {
	ret, _ := DefaultLimitPolicy.Apply(limit)
	return ret
}

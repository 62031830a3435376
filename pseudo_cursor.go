package gopaginate

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

var _encoder = base64.RawURLEncoding

// PseudoCursor is an opaque page token over offset pagination. It is the
// base64-encoded number of documents to skip.
type PseudoCursor struct {
	offset int
}

func NewPseudoCursor(offset int) *PseudoCursor {
	return &PseudoCursor{
		offset: offset,
	}
}

// DecodePseudoCursor attempts to parse a base64-encoded string into *PseudoCursor.
// An empty string decodes into a nil cursor.
func DecodePseudoCursor(b64String string) (*PseudoCursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	offsetBytes, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded pseudo cursor: %w", err)
	}

	offset, err := strconv.Atoi(string(offsetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode pseudo cursor offset value: %w", err)
	}

	if offset < 0 {
		return nil, fmt.Errorf("negative pseudo cursor offset %d", offset)
	}

	return &PseudoCursor{
		offset: offset,
	}, nil
}

// String - implements fmt.Stringer.
func (p *PseudoCursor) String() string {
	if p == nil || p.offset == 0 {
		return ""
	}

	return _encoder.EncodeToString([]byte(strconv.Itoa(p.offset)))
}

// IsEmpty reports whether the cursor points at the start of the dataset.
func (p *PseudoCursor) IsEmpty() bool {
	return p == nil || p.offset == 0
}

// GetOffset returns the numeric offset value.
func (p *PseudoCursor) GetOffset() int {
	if p != nil {
		return p.offset
	}

	return 0
}

// WithOffset sets the numeric offset value and returns the cursor.
func (p *PseudoCursor) WithOffset(offset int) *PseudoCursor {
	if p == nil {
		p = new(PseudoCursor)
	}

	p.offset = offset

	return p
}

var _ fmt.Stringer = (*PseudoCursor)(nil)

// nextPageToken builds the token of the page that follows a page of fetched
// documents starting at skip. Returns an empty token on the last page.
func nextPageToken(skip, fetched int, total int64) string {
	next := skip + fetched
	if fetched == 0 || int64(next) >= total {
		return ""
	}

	return NewPseudoCursor(next).String()
}

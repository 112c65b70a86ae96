package driven

import (
	"github.com/arealis/stac-search-core/internal/core/domain"
)

// CursorCodec encodes and decodes the opaque pagination token. Tokens are
// capability values: tamper-evident, never constructible by hand, and bound
// to the fingerprint of the filter they were issued under.
type CursorCodec interface {
	// Encode produces an opaque token for the given resume point
	Encode(cursor *domain.Cursor) (string, error)

	// Decode validates the token signature and returns the resume point.
	// Fails with domain.ErrInvalidCursor when the token is malformed or
	// tampered with; fingerprint and type checks against the current request
	// are the caller's responsibility.
	Decode(token string) (*domain.Cursor, error)
}

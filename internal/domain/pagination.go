package domain

import (
	"encoding/base64"
	"strconv"
)

// DefaultMaxResults is the page size applied when a request names none.
const DefaultMaxResults = 100

// MaxMaxResults caps the page size a client may request.
const MaxMaxResults = 1000

// PageRequest carries pagination parameters for list operations. The
// token is opaque to clients; internally it is a base64-encoded offset.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset decodes the page token. A missing or malformed token means
// the first page rather than an error, so stale bookmarks degrade to a
// fresh listing.
func (p PageRequest) Offset() int {
	raw, err := base64.StdEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit clamps the requested page size to [1, MaxMaxResults].
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	default:
		return p.MaxResults
	}
}

// EncodePageToken renders an offset as an opaque token. Offset zero is
// the first page and needs no token.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token for the page after the current one,
// or "" when the listing is exhausted.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}

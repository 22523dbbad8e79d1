// Package pagination provides cursor-based pagination utilities.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor marks a position in a result set ordered by creation time, with the
// row ID as a tiebreaker.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode renders the position as an opaque URL-safe token.
func Encode(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + ":" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. Empty input means no cursor and
// yields (nil, nil).
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	tsPart, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("invalid cursor")
	}
	nanos, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// ComputePage trims a slice fetched with limit+1 rows down to the page that
// is actually returned. When the extra row is present it is dropped and a
// cursor pointing at the page's last row is produced.
func ComputePage[T any](items []T, limit int, key func(T) (time.Time, string)) ([]T, string, bool) {
	if len(items) <= limit {
		return items, "", false
	}
	items = items[:limit]
	createdAt, id := key(items[len(items)-1])
	return items, Encode(createdAt, id), true
}

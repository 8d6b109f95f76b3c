package repository

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ember/internal/models"
)

// EncodeCursor builds an opaque pagination token from the last returned post.
// The token carries the (createdAt, id) pair so a follow-up query resumes
// strictly after that element regardless of ordering direction.
func EncodeCursor(p *models.Post) string {
	raw := fmt.Sprintf("%d:%s", p.CreatedAt.UnixNano(), p.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor parses a cursor token. An empty or malformed token means
// "start from the beginning" rather than an error; a cursor is a hint,
// not authoritative input.
func decodeCursor(token string) (time.Time, string, bool) {
	if token == "" {
		return time.Time{}, "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, "", false
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", false
	}
	return time.Unix(0, nanos).UTC(), parts[1], true
}

// normalizeOrder folds unknown values to the default descending order.
func normalizeOrder(order string) string {
	if order == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

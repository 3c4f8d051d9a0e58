package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// URL: /v1/categories?limit=10&offset=20
// → ParsePagination() → Pagination{Limit:10, Offset:20}
// → SQL: SELECT ... LIMIT 10 OFFSET 20
// → NewPage(total, p, rows) → {"count":25,"pages":3,"data":[...]}
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePagination parses ?limit=...&offset=... safely. Bad values fall back
// to the defaults rather than failing the request.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: DefaultLimit}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if offsetStr := strings.TrimSpace(q.Get("offset")); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			p.Offset = offset
		}
	}

	return p
}

// Page is the list envelope returned by every paginated endpoint.
type Page[T any] struct {
	Count int `json:"count"`
	Pages int `json:"pages"`
	Data  []T `json:"data"`
}

// NewPage computes pages = ceil(count/limit). Data is never nil.
func NewPage[T any](count, limit int, data []T) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Count: count, Pages: Pages(count, limit), Data: data}
}

func Pages(count, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(limit)))
}

// Bool reads a boolean query flag; anything unparsable yields def.
func Bool(q url.Values, key string, def bool) bool {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Package utils contains small helpers that do not belong to a domain.
package utils

import (
	"encoding/json"
	"io"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination resolves optional page/limit query values into a page, a
// limit clamped to [1, MaxLimit] and the matching row offset.
func Pagination(page, limit *int) (p, l, offset int) {
	p, l = DefaultPage, DefaultLimit
	if page != nil && *page > 0 {
		p = *page
	}
	if limit != nil && *limit > 0 {
		l = min(*limit, MaxLimit)
	}
	return p, l, (p - 1) * l
}

// WriteJSON writes v to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package common

import (
	"net/http"
	"strconv"
)

// ParsePageSize extracts page and size parameters from the request query.
// Pages are one-based; both values fall back to their defaults when absent or
// malformed.
func ParsePageSize(r *http.Request, defaultSize int) (page, size int) {
	page = 1
	size = defaultSize
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 {
		size = s
	}
	return
}

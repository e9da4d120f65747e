package history

import "math"

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Record `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}

// Offset returns the row offset of a 1-based page. ok is false when the
// offset does not fit in an int; such a page is always empty.
func Offset(page, pageSize int) (offset int, ok bool) {
	if page <= 1 || pageSize <= 0 {
		return 0, true
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"communityevents/internal/domain"
)

// Page query defaults and the largest page a client may ask for.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing
// values take the defaults; anything else must be a positive integer and
// page_size may not exceed MaxPageSize. Errors wrap domain.ErrInvalidInput.
func ParsePagination(r *http.Request) (domain.PaginationParams, error) {
	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), "page", DefaultPage)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	pageSize, err := positiveInt(q.Get("page_size"), "page_size", DefaultPageSize)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	if pageSize > MaxPageSize {
		return domain.PaginationParams{}, fmt.Errorf("%w: page_size must be at most %d", domain.ErrInvalidInput, MaxPageSize)
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}, nil
}

func positiveInt(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, name, raw)
	}
	return v, nil
}

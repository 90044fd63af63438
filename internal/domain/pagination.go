package domain

// fallbackPageSize applies when a caller builds PaginationParams without a size.
const fallbackPageSize = 20

// PaginationParams selects one page of an initiator's events, newest first.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is the number of rows in a page.
func (p PaginationParams) Limit() int {
	if p.PageSize < 1 {
		return fallbackPageSize
	}
	return p.PageSize
}

// Offset is the number of rows skipped before the page. Pages start at 1.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

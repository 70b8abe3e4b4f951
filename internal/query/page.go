package query

import "math"

// Default window used when a request leaves page or limit unset.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest selects a window of a result set. Page is one-based.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest normalizes page and limit: values below one fall back to the
// defaults and limit is capped at maxLimit when maxLimit is positive. Page is
// capped so that Skip cannot overflow.
func NewPageRequest(page, limit, defaultLimit, maxLimit int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}
	return PageRequest{Page: page, Limit: limit}
}

// Skip is the number of matched records before the window. A window past
// the largest representable offset saturates at math.MaxInt.
func (r PageRequest) Skip() int {
	if r.Page < 1 || r.Limit < 1 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.Limit {
		return math.MaxInt
	}
	return (r.Page - 1) * r.Limit
}

// PageResult is the page envelope returned by list operations. TotalCount is
// the number of records matching the predicate, not the size of Items.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
	Page       int
	Limit      int
}

// NewPageResult wraps items for the given request.
func NewPageResult[T any](req PageRequest, items []T, total int) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:      items,
		TotalCount: total,
		Page:       req.Page,
		Limit:      req.Limit,
	}
}

// TotalPages is the number of pages needed to cover TotalCount.
func (p *PageResult[T]) TotalPages() int {
	if p.Limit < 1 || p.TotalCount == 0 {
		return 0
	}
	return (p.TotalCount + p.Limit - 1) / p.Limit
}

func (p *PageResult[T]) HasNextPage() bool {
	return p.Page < p.TotalPages()
}

func (p *PageResult[T]) HasPrevPage() bool {
	return p.Page > 1
}

package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/infrastructure/api/jsonapi"
)

// DefaultPageSize is the page size used when the request does not ask
// for one.
const DefaultPageSize = 20

// MaxPageSize caps the page size a request may ask for.
const MaxPageSize = 100

// PaginationParams holds the page window parsed from a list request.
type PaginationParams struct {
	page     int
	pageSize int
}

// ParsePagination reads the page and page_size query parameters.
// Missing or malformed values fall back to page 1 and DefaultPageSize;
// oversized requests are clamped to MaxPageSize.
func ParsePagination(r *http.Request) PaginationParams {
	params := PaginationParams{page: 1, pageSize: DefaultPageSize}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page >= 1 {
		params.page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && size >= 1 {
		params.pageSize = min(size, MaxPageSize)
	}

	return params
}

// Page returns the 1-indexed page number.
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the number of items per page.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Offset returns the number of rows to skip.
func (p PaginationParams) Offset() int { return (p.page - 1) * p.pageSize }

// Limit returns the number of rows to fetch.
func (p PaginationParams) Limit() int { return p.pageSize }

// Options returns repository options that select this page window.
func (p PaginationParams) Options() []repository.Option {
	return repository.WithPagination(p.Limit(), p.Offset())
}

// pageCount returns how many pages a collection of totalCount rows spans.
func pageCount(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (int(totalCount) + pageSize - 1) / pageSize
}

// PaginationMeta builds the meta object for a paginated collection.
func PaginationMeta(params PaginationParams, totalCount int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        params.Page(),
		"page_size":   params.PageSize(),
		"total_count": totalCount,
		"total_pages": pageCount(totalCount, params.PageSize()),
	}
}

// PaginationLinks builds self/first/last/prev/next links for a paginated
// collection, preserving the request's other query parameters.
func PaginationLinks(r *http.Request, params PaginationParams, totalCount int64) *jsonapi.Links {
	totalPages := pageCount(totalCount, params.PageSize())

	pageURL := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(params.PageSize()))
		return fmt.Sprintf("%s?%s", r.URL.Path, q.Encode())
	}

	links := jsonapi.Links{
		Self:  pageURL(params.Page()),
		First: pageURL(1),
	}
	if totalPages > 0 {
		links.Last = pageURL(totalPages)
	}
	if params.Page() > 1 {
		links.Prev = pageURL(params.Page() - 1)
	}
	if params.Page() < totalPages {
		links.Next = pageURL(params.Page() + 1)
	}

	return &links
}

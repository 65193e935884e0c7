// Package query turns untyped request parameters into bounded, schema-
// validated gorm query stages. Malformed filters are dropped, never
// erroring the whole request.
package query

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Reserved parameter names; everything else is treated as a filter.
var reserved = map[string]struct{}{
	"page":      {},
	"page_size": {},
	"sort":      {},
	"search":    {},
}

// Params is the parsed list-query surface: pagination, sorting, free-text
// search and arbitrary field filters.
type Params struct {
	Page     int
	PageSize int
	Sort     string
	Search   string
	Filters  map[string]string
}

// FromValues extracts Params from raw query values. Page and page size are
// clamped to their valid ranges.
func FromValues(values url.Values) Params {
	p := Params{
		Page:     1,
		PageSize: DefaultPageSize,
		Sort:     values.Get("sort"),
		Search:   values.Get("search"),
		Filters:  map[string]string{},
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(values.Get("page_size")); err == nil && n >= 1 && n <= MaxPageSize {
		p.PageSize = n
	}
	for key, vals := range values {
		if _, ok := reserved[key]; ok || len(vals) == 0 {
			continue
		}
		p.Filters[key] = vals[0]
	}
	return p
}

// Offset is the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Pagination describes the window a list response covers. Total reflects
// filter and search only, never the pagination window itself.
type Pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

// NewPagination computes the page count: ceil(total/pageSize), zero pages
// when nothing matched.
func NewPagination(total int64, page, pageSize int) Pagination {
	pages := 0
	if total > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Pagination{Total: total, Page: page, PageSize: pageSize, Pages: pages}
}

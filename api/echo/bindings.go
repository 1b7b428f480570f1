package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	pageParam     = "page"
	pageSizeParam = "page_size"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination binds the page/page_size query params with clamping. Out-of-range
// values fall back to sane defaults instead of erroring.
type Pagination struct {
	Page     int
	PageSize int
}

func (p *Pagination) Bind(ctx echo.Context) {
	p.Page = 1
	p.PageSize = defaultPageSize

	if raw := ctx.QueryParam(pageParam); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.Page = page
		}
	}
	if raw := ctx.QueryParam(pageSizeParam); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			if size > maxPageSize {
				size = maxPageSize
			}
			p.PageSize = size
		}
	}
}

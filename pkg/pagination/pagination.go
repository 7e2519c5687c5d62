package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside a Postgres bigint OFFSET.
	MaxPage = 1_000_000
)

// Params holds page-based pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext reads ?page and ?limit. Missing or invalid values fall back to
// page 1 and DefaultLimit; limit is capped at MaxLimit and page at MaxPage.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether rows remain after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset()+p.Limit < total
}

// Response wraps a paginated API response.
type Response struct {
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int         `json:"total"`
	Data  interface{} `json:"data"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Data:  data,
	}
}

package audit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-session-audit/internal/validation"
)

const (
	DefaultPage        = 1
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

// PageRequest selects one page of the audit history. Page 1 is the first page.
type PageRequest struct {
	Page     int `json:"page" validate:"min=1"`
	PageSize int `json:"limit" validate:"min=1"`
}

// Offset is the number of entries skipped before this page. ok is false when the
// offset does not fit in an int; such a page lies past the end of every store.
func (p PageRequest) Offset() (offset int, ok bool) {
	if p.Page < 1 || p.PageSize < 1 {
		return 0, false
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return 0, false
	}
	return (p.Page - 1) * p.PageSize, true
}

// ParsePageRequest reads optional page and limit query values. Empty values take the
// defaults; values that are not integers are validation errors.
func ParsePageRequest(page, pageSize string, defaultPageSize int) (PageRequest, error) {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	req := PageRequest{Page: DefaultPage, PageSize: defaultPageSize}

	var fields []validation.FieldError
	if page = strings.TrimSpace(page); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			fields = append(fields, validation.FieldError{Field: "page", Tag: "int", Message: fmt.Sprintf("page must be an integer, got %q", page)})
		}
		req.Page = n
	}
	if pageSize = strings.TrimSpace(pageSize); pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil {
			fields = append(fields, validation.FieldError{Field: "limit", Tag: "int", Message: fmt.Sprintf("limit must be an integer, got %q", pageSize)})
		}
		req.PageSize = n
	}
	if len(fields) > 0 {
		return PageRequest{}, &validation.RequestValidationError{Fields: fields}
	}
	return req, nil
}

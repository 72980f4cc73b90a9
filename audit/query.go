package audit

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-session-audit/internal/validation"
)

// PageResult is one page of joined entries plus the unfiltered size of the store.
type PageResult struct {
	Entries  []*EntryView `json:"logs"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"limit"`
}

// QueryService is the administrative read path.
type QueryService struct {
	repo        Repo
	resolver    IdentityResolver
	maxPageSize int
}

type QueryOption func(*QueryService)

// WithMaxPageSize caps PageRequest.PageSize; larger requests are rejected.
func WithMaxPageSize(n int) QueryOption {
	return func(q *QueryService) {
		q.maxPageSize = n
	}
}

// NewQueryService uses the store's own join when repo implements JoinedLister and
// falls back to resolver otherwise.
func NewQueryService(repo Repo, resolver IdentityResolver, options ...QueryOption) *QueryService {
	q := &QueryService{repo: repo, resolver: resolver}
	for _, opt := range options {
		opt(q)
	}
	if q.maxPageSize <= 0 {
		q.maxPageSize = DefaultMaxPageSize
	}
	return q
}

// ListEntries returns the requested page ordered by LoginTime descending.
// Out-of-range pages are empty. Page boundaries are not stable across concurrent inserts.
func (q *QueryService) ListEntries(ctx context.Context, req PageRequest) (*PageResult, error) {
	if err := q.validate(req); err != nil {
		return nil, err
	}

	entries := []*EntryView{}
	if offset, ok := req.Offset(); ok {
		var err error
		if entries, err = q.page(ctx, offset, req.PageSize); err != nil {
			return nil, err
		}
	}

	total, err := q.repo.Count(ctx)
	if err != nil {
		return nil, storeErr("QueryService.ListEntries count", err)
	}

	return &PageResult{
		Entries:  entries,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (q *QueryService) page(ctx context.Context, offset, limit int) ([]*EntryView, error) {
	if joined, ok := q.repo.(JoinedLister); ok {
		views, err := joined.ListJoined(ctx, offset, limit)
		if err != nil {
			return nil, storeErr("QueryService.ListEntries join", err)
		}
		if views == nil {
			views = []*EntryView{}
		}
		return views, nil
	}

	entries, err := q.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, storeErr("QueryService.ListEntries list", err)
	}
	if q.resolver == nil {
		return nil, fmt.Errorf("QueryService.ListEntries: no identity resolver configured")
	}
	return q.resolver.Resolve(ctx, entries)
}

func (q *QueryService) validate(req PageRequest) error {
	if err := validation.ValidateStruct(&req); err != nil {
		return err
	}
	if req.PageSize > q.maxPageSize {
		return &validation.RequestValidationError{Fields: []validation.FieldError{{
			Field:   "limit",
			Tag:     "max",
			Message: fmt.Sprintf("limit must be at most %d", q.maxPageSize),
		}}}
	}
	return nil
}

package search

import (
	"context"
	"strconv"

	"github.com/hawker-io/hawker/internal/shared"
)

// Result carries one page of search hits with pagination metadata.
type Result struct {
	Hits       []Hit             `json:"hits"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service answers search queries through the versioned cache.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds Service. cache may be nil, disabling caching.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Search runs one query, serving repeated queries from cache until the next
// version bump.
func (s *Service) Search(ctx context.Context, query Query) (Result, error) {
	pagination := shared.NewPagination(query.Page, query.PerPage, 0)
	offset := (pagination.Page - 1) * pagination.PerPage

	key, err := s.cache.BuildKey(ctx, "search", query.Term, categoryToken(query), query.Status,
		query.Condition, priceToken(query.MinPrice), priceToken(query.MaxPrice),
		strconv.Itoa(pagination.Page), strconv.Itoa(pagination.PerPage))
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		hits, total, err := s.repo.Search(ctx, query, pagination.PerPage, offset)
		if err != nil {
			return nil, err
		}
		return Result{
			Hits:       hits,
			Pagination: shared.NewPagination(pagination.Page, pagination.PerPage, total),
		}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// Invalidate bumps the cache version; called after catalog writes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func categoryToken(query Query) string {
	if query.CategoryID == nil {
		return "all"
	}
	return query.CategoryID.String()
}

func priceToken(price *float64) string {
	if price == nil {
		return "any"
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}

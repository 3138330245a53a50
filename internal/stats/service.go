package stats

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Service serves overview snapshots, collapsing concurrent requests into a
// single repository query.
type Service struct {
	repo  Repository
	group singleflight.Group
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Overview returns the aggregated snapshot.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	ch := s.group.DoChan("overview", func() (any, error) {
		return s.repo.Overview(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Overview{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Overview{}, res.Err
		}
		return res.Val.(Overview), nil
	}
}

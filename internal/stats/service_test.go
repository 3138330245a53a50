package stats

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type slowRepo struct {
	calls atomic.Int64
}

func (r *slowRepo) Overview(ctx context.Context) (Overview, error) {
	r.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	return Overview{TotalProducts: 7}, nil
}

func TestOverviewDeduplicatesConcurrentRequests(t *testing.T) {
	repo := &slowRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	const readers = 10
	var wg sync.WaitGroup
	wg.Add(readers)
	results := make(chan Overview, readers)
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			o, err := svc.Overview(ctx)
			results <- o
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for o := range results {
		require.Equal(t, 7, o.TotalProducts)
	}
	require.EqualValues(t, 1, repo.calls.Load())
}

func TestOverviewHonoursCancellation(t *testing.T) {
	repo := &slowRepo{}
	svc := NewService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Overview(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

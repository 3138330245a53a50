package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/hawker-io/hawker/internal/jobs"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestSearchReindexBumpsCache(t *testing.T) {
	invalidator := &countingInvalidator{}
	handler := NewSearchReindexHandler(nil, invalidator, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSearchReindexTask(true)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, 1, invalidator.calls)
}

func TestSearchReindexSkipsRetryOnBadPayload(t *testing.T) {
	invalidator := &countingInvalidator{}
	handler := NewSearchReindexHandler(nil, invalidator, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := handler(context.Background(), asynq.NewTask(TaskSearchReindex, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, invalidator.calls)
}

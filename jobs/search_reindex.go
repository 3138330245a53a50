package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hawker-io/hawker/internal/jobs"
)

// SearchInvalidator bumps the search cache version.
type SearchInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewSearchReindexHandler returns the handler for TaskSearchReindex.
func NewSearchReindexHandler(logger *slog.Logger, search SearchInvalidator, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskSearchReindex)
		var payload SearchReindexPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		err := search.Invalidate(ctx)
		if err != nil {
			logger.Error("search reindex failed", slog.Any("error", err))
		} else {
			logger.Info("search cache invalidated", slog.Bool("force", payload.Force))
		}
		return tracker.End(err)
	}
}

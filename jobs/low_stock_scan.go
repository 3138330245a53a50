package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hawker-io/hawker/internal/inventory"
	jobmetrics "github.com/hawker-io/hawker/internal/jobs"
	"github.com/hawker-io/hawker/internal/shared"
)

// LowStockSource lists tracked subjects under their alert threshold.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]inventory.Record, error)
}

// AuditRecorder persists alert entries. nil disables the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewLowStockScanHandler returns the handler for TaskLowStockScan. The scan
// only surfaces the state; delivery of alerts is someone else's job.
func NewLowStockScanHandler(logger *slog.Logger, source LowStockSource, audit AuditRecorder, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskLowStockScan)
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		records, err := source.LowStock(ctx)
		if err != nil {
			logger.Error("low stock scan failed", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.SetLowStock(len(records))
		for _, rec := range records {
			logger.Warn("low stock",
				slog.String("subject_id", rec.SubjectID.String()),
				slog.String("subject_type", string(rec.SubjectType)),
				slog.Int("quantity", rec.Quantity),
				slog.Int("threshold", rec.LowStockAlert))
			if audit == nil {
				continue
			}
			auditErr := audit.Record(ctx, shared.AuditLog{
				Action:   "inventory.low_stock_alert",
				Entity:   string(rec.SubjectType),
				EntityID: rec.SubjectID.String(),
				Meta: map[string]any{
					"quantity":        rec.Quantity,
					"low_stock_alert": rec.LowStockAlert,
				},
			})
			if auditErr != nil {
				logger.Warn("low stock audit failed", slog.Any("error", auditErr))
			}
		}
		logger.Info("low stock scan finished",
			slog.Int("subjects", len(records)),
			slog.Time("scheduled_for", payload.ScheduledFor.Truncate(time.Second)))
		return tracker.End(nil)
	}
}

package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/shared"
)

// SubjectResolver confirms an inventory subject exists and classifies it.
// Owned by the product catalog.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, id uuid.UUID) (string, error)
}

// AuditPort records ledger mutations for later inspection. nil disables
// auditing.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the inventory ledger. Every quantity change goes
// through appendLocked: per-subject mutex around a row-locking transaction,
// so concurrent movements against one subject serialize and never lose a
// delta, while different subjects proceed in parallel.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	subjects SubjectResolver
	audit    AuditPort
	locks    *shared.KeyedMutex
}

// NewService builds Service. subjects may be nil when existence is enforced
// elsewhere; audit may be nil.
func NewService(logger *slog.Logger, repo Repository, subjects SubjectResolver, audit AuditPort) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		repo:     repo,
		subjects: subjects,
		audit:    audit,
		locks:    shared.NewKeyedMutex(),
	}
}

// Initialize creates the record for a subject. Conflict when one already
// exists. A non-zero opening quantity is recorded as the first ledger entry
// so replaying movements from zero still reproduces the balance.
func (s *Service) Initialize(ctx context.Context, subjectID uuid.UUID, subjectType SubjectType, settings Settings, quantity int) (Record, error) {
	if quantity < 0 {
		return Record{}, shared.Validationf("opening quantity must not be negative")
	}
	if s.subjects != nil {
		if _, err := s.subjects.ResolveSubject(ctx, subjectID); err != nil {
			return Record{}, err
		}
	}
	record, err := s.repo.CreateRecord(ctx, Record{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		SubjectType:    subjectType,
		LowStockAlert:  settings.LowStockAlert,
		Track:          settings.Track,
		AllowBackorder: settings.AllowBackorder,
	})
	if err != nil {
		return Record{}, err
	}
	if quantity > 0 {
		if _, err := s.AppendMovement(ctx, subjectID, MovementInput{
			Type:      MovementIn,
			Quantity:  quantity,
			Reference: "opening stock",
		}); err != nil {
			return Record{}, err
		}
		record.Quantity = quantity
		record.LastSeq = 1
	}
	return record, nil
}

// InitializeSubject opens a tracked record with default settings; used by
// the catalog when a variant is created.
func (s *Service) InitializeSubject(ctx context.Context, subjectID uuid.UUID, subjectType string, quantity int) error {
	_, err := s.Initialize(ctx, subjectID, SubjectType(subjectType), Settings{Track: true}, quantity)
	return err
}

// RemoveSubject drops the record for a deleted subject. Its movements go
// with it; the ledger only outlives its subject in the audit log.
func (s *Service) RemoveSubject(ctx context.Context, subjectID uuid.UUID) error {
	return s.repo.DeleteBySubject(ctx, subjectID)
}

// Get returns the record for a subject.
func (s *Service) Get(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	return s.repo.GetBySubject(ctx, subjectID)
}

// UpdateSettings changes threshold and policy flags in place. A quantity
// baseline that differs from the current balance is recorded as a synthetic
// adjustment, keeping the ledger the sole source of truth for quantity.
func (s *Service) UpdateSettings(ctx context.Context, subjectID uuid.UUID, update SettingsUpdate) (Record, error) {
	if update.Quantity != nil && *update.Quantity < 0 {
		return Record{}, shared.Validationf("quantity baseline must not be negative")
	}
	key := subjectID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var updated Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetRecordForUpdate(ctx, subjectID)
		if err != nil {
			return err
		}
		if update.LowStockAlert != nil {
			record.LowStockAlert = *update.LowStockAlert
		}
		if update.Track != nil {
			record.Track = *update.Track
		}
		if update.AllowBackorder != nil {
			record.AllowBackorder = *update.AllowBackorder
		}
		if update.Quantity != nil && *update.Quantity != record.Quantity {
			delta := *update.Quantity - record.Quantity
			record.LastSeq++
			record.Quantity = *update.Quantity
			movement := Movement{
				ID:        uuid.New(),
				RecordID:  record.ID,
				Seq:       record.LastSeq,
				Type:      MovementAdjustment,
				Delta:     delta,
				Reference: "settings baseline",
				Balance:   record.Quantity,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.InsertMovement(ctx, movement); err != nil {
				return err
			}
		}
		if err := tx.UpdateRecord(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, "inventory.settings_updated", updated, nil)
	return updated, nil
}

// AppendMovement applies one movement atomically: read balance, validate,
// append, commit. Rejected movements leave the ledger unchanged.
func (s *Service) AppendMovement(ctx context.Context, subjectID uuid.UUID, input MovementInput) (Movement, error) {
	delta, err := movementDelta(input)
	if err != nil {
		return Movement{}, err
	}
	key := subjectID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var appended Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetRecordForUpdate(ctx, subjectID)
		if err != nil {
			return err
		}
		balance := record.Quantity + delta
		if balance < 0 && !record.AllowBackorder {
			return shared.InsufficientStockf("movement would drive quantity to %d", balance)
		}
		record.LastSeq++
		record.Quantity = balance
		appended = Movement{
			ID:        uuid.New(),
			RecordID:  record.ID,
			Seq:       record.LastSeq,
			Type:      input.Type,
			Delta:     delta,
			Reference: input.Reference,
			Notes:     input.Notes,
			Balance:   balance,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.InsertMovement(ctx, appended); err != nil {
			return err
		}
		return tx.UpdateRecord(ctx, record)
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, "inventory.movement_appended", Record{ID: appended.RecordID, SubjectID: subjectID}, map[string]any{
		"seq":     appended.Seq,
		"type":    string(appended.Type),
		"delta":   appended.Delta,
		"balance": appended.Balance,
	})
	return appended, nil
}

// Ledger returns the subject's movements in sequence order.
func (s *Service) Ledger(ctx context.Context, subjectID uuid.UUID) ([]Movement, error) {
	record, err := s.repo.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.repo.Movements(ctx, record.ID)
}

// LowStock returns tracked records at or below their alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]Record, error) {
	return s.repo.LowStock(ctx)
}

func (s *Service) recordAudit(ctx context.Context, action string, record Record, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "inventory_record",
		EntityID: record.SubjectID.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err), slog.String("action", action))
	}
}

// movementDelta maps a movement input to its signed delta. in/out carry an
// unsigned magnitude; adjustment carries the sign itself.
func movementDelta(input MovementInput) (int, error) {
	if !input.Type.Known() {
		return 0, shared.Validationf("unknown movement type %q", input.Type)
	}
	switch input.Type {
	case MovementIn:
		if input.Quantity <= 0 {
			return 0, shared.Validationf("in movement requires a positive quantity")
		}
		return input.Quantity, nil
	case MovementOut:
		if input.Quantity <= 0 {
			return 0, shared.Validationf("out movement requires a positive quantity")
		}
		return -input.Quantity, nil
	default:
		if input.Quantity == 0 {
			return 0, shared.Validationf("adjustment requires a non-zero quantity")
		}
		return input.Quantity, nil
	}
}

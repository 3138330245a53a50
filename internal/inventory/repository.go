package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hawker-io/hawker/internal/platform/db"
	"github.com/hawker-io/hawker/internal/shared"
)

// Repository abstracts ledger storage for the service.
type Repository interface {
	CreateRecord(ctx context.Context, record Record) (Record, error)
	GetBySubject(ctx context.Context, subjectID uuid.UUID) (Record, error)
	DeleteBySubject(ctx context.Context, subjectID uuid.UUID) error
	Movements(ctx context.Context, recordID uuid.UUID) ([]Movement, error)
	LowStock(ctx context.Context) ([]Record, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the transactional operations used when appending to
// the ledger. GetRecordForUpdate pins the record row for the duration of the
// transaction so the read-validate-append-commit step is atomic.
type TxRepository interface {
	GetRecordForUpdate(ctx context.Context, subjectID uuid.UUID) (Record, error)
	InsertMovement(ctx context.Context, movement Movement) error
	UpdateRecord(ctx context.Context, record Record) error
}

// PostgresRepository persists inventory records and movements in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const recordColumns = `id, subject_id, subject_type, quantity, low_stock_alert, track_inventory, allow_backorder, last_seq, created_at, updated_at`

// CreateRecord inserts a record; the unique index on subject_id enforces one
// record per subject.
func (r *PostgresRepository) CreateRecord(ctx context.Context, record Record) (Record, error) {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_records (id, subject_id, subject_type, quantity, low_stock_alert, track_inventory, allow_backorder, last_seq, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.SubjectID, string(record.SubjectType), record.Quantity,
		record.LowStockAlert, record.Track, record.AllowBackorder, record.LastSeq,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, shared.Conflictf("inventory record for subject %s already exists", record.SubjectID)
		}
		return Record{}, err
	}
	return record, nil
}

func (r *PostgresRepository) GetBySubject(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE subject_id = $1`, subjectID)
	return scanRecord(row)
}

func (r *PostgresRepository) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_records WHERE subject_id = $1`, subjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("inventory record for subject %s", subjectID)
	}
	return nil
}

func (r *PostgresRepository) Movements(ctx context.Context, recordID uuid.UUID) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, record_id, seq, movement_type, quantity, reference, notes, balance, created_at
		FROM stock_movements WHERE record_id = $1 ORDER BY seq`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var (
			m   Movement
			typ string
		)
		if err := rows.Scan(&m.ID, &m.RecordID, &m.Seq, &typ, &m.Delta, &m.Reference, &m.Notes, &m.Balance, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Type = MovementType(typ)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *PostgresRepository) LowStock(ctx context.Context) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM inventory_records
		WHERE track_inventory AND quantity <= low_stock_alert
		ORDER BY quantity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetRecordForUpdate(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE subject_id = $1 FOR UPDATE`, subjectID)
	return scanRecord(row)
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_movements (id, record_id, seq, movement_type, quantity, reference, notes, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		movement.ID, movement.RecordID, movement.Seq, string(movement.Type), movement.Delta,
		movement.Reference, movement.Notes, movement.Balance, movement.CreatedAt)
	return err
}

func (r *txRepository) UpdateRecord(ctx context.Context, record Record) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE inventory_records
		SET quantity = $2, low_stock_alert = $3, track_inventory = $4, allow_backorder = $5, last_seq = $6, updated_at = $7
		WHERE id = $1`,
		record.ID, record.Quantity, record.LowStockAlert, record.Track,
		record.AllowBackorder, record.LastSeq, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("inventory record %s", record.ID)
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec         Record
		subjectType string
	)
	err := row.Scan(&rec.ID, &rec.SubjectID, &subjectType, &rec.Quantity, &rec.LowStockAlert,
		&rec.Track, &rec.AllowBackorder, &rec.LastSeq, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, shared.NotFoundf("inventory record")
		}
		return Record{}, err
	}
	rec.SubjectType = SubjectType(subjectType)
	return rec, nil
}

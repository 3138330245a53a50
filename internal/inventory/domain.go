// Package inventory keeps per-subject stock state and an append-only
// movement ledger. The ledger is the sole source of truth for quantity:
// folding all movement deltas from zero reproduces the current balance.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// SubjectType classifies the entity an inventory record tracks.
type SubjectType string

const (
	SubjectProduct SubjectType = "product"
	SubjectVariant SubjectType = "variant"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents an inbound movement (restock).
	MovementIn MovementType = "in"
	// MovementOut represents an outbound movement (sale, removal).
	MovementOut MovementType = "out"
	// MovementAdjustment represents a signed manual correction.
	MovementAdjustment MovementType = "adjustment"
)

// Known reports whether t is a recognised movement type.
func (t MovementType) Known() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// Record is the stock state for one subject. Quantity is derived state: it
// must always equal the fold of the subject's movement deltas. LastSeq is
// the sequence number of the newest movement.
type Record struct {
	ID             uuid.UUID   `json:"id"`
	SubjectID      uuid.UUID   `json:"subject_id"`
	SubjectType    SubjectType `json:"subject_type"`
	Quantity       int         `json:"quantity"`
	LowStockAlert  int         `json:"low_stock_alert"`
	Track          bool        `json:"track_inventory"`
	AllowBackorder bool        `json:"allow_backorder"`
	LastSeq        int64       `json:"last_seq"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Movement is one immutable ledger entry. Delta is signed: positive for in,
// negative for out, either sign for adjustment. Balance is the record
// quantity after applying the delta.
type Movement struct {
	ID        uuid.UUID    `json:"id"`
	RecordID  uuid.UUID    `json:"record_id"`
	Seq       int64        `json:"seq"`
	Type      MovementType `json:"movement_type"`
	Delta     int          `json:"quantity"`
	Reference string       `json:"reference,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Balance   int          `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
}

// Settings carries the tracked flags of a record.
type Settings struct {
	LowStockAlert  int
	Track          bool
	AllowBackorder bool
}

// SettingsUpdate is a partial update of a record's settings. Quantity, when
// set and different from the current balance, produces a synthetic
// adjustment movement so the ledger stays complete.
type SettingsUpdate struct {
	Quantity       *int
	LowStockAlert  *int
	Track          *bool
	AllowBackorder *bool
}

// MovementInput carries one requested movement. Quantity is an unsigned
// magnitude for in/out and a signed delta for adjustment.
type MovementInput struct {
	Type      MovementType
	Quantity  int
	Reference string
	Notes     string
}

package inventory

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hawker-io/hawker/internal/shared"
)

// memoryRepo keeps records and movements in maps. WithTx holds the repo
// mutex for the whole callback, mirroring the row lock the SQL repository
// takes with FOR UPDATE.
type memoryRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]Record
	movements map[uuid.UUID][]Movement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		records:   make(map[uuid.UUID]Record),
		movements: make(map[uuid.UUID][]Movement),
	}
}

func (r *memoryRepo) CreateRecord(ctx context.Context, record Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.SubjectID == record.SubjectID {
			return Record{}, shared.Conflictf("inventory record for subject %s already exists", record.SubjectID)
		}
	}
	r.records[record.ID] = record
	return record, nil
}

func (r *memoryRepo) GetBySubject(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySubject(subjectID)
}

func (r *memoryRepo) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.bySubject(subjectID)
	if err != nil {
		return err
	}
	delete(r.records, rec.ID)
	delete(r.movements, rec.ID)
	return nil
}

func (r *memoryRepo) Movements(ctx context.Context, recordID uuid.UUID) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Movement, len(r.movements[recordID]))
	copy(out, r.movements[recordID])
	return out, nil
}

func (r *memoryRepo) LowStock(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Track && rec.Quantity <= rec.LowStockAlert {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.clone()
	if err := fn(ctx, (*memoryTx)(r)); err != nil {
		r.records = snapshot.records
		r.movements = snapshot.movements
		return err
	}
	return nil
}

func (r *memoryRepo) clone() *memoryRepo {
	cp := newMemoryRepo()
	for id, rec := range r.records {
		cp.records[id] = rec
	}
	for id, ms := range r.movements {
		cp.movements[id] = append([]Movement(nil), ms...)
	}
	return cp
}

func (r *memoryRepo) bySubject(subjectID uuid.UUID) (Record, error) {
	for _, rec := range r.records {
		if rec.SubjectID == subjectID {
			return rec, nil
		}
	}
	return Record{}, shared.NotFoundf("inventory record for subject %s", subjectID)
}

type memoryTx memoryRepo

func (t *memoryTx) GetRecordForUpdate(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	return (*memoryRepo)(t).bySubject(subjectID)
}

func (t *memoryTx) InsertMovement(ctx context.Context, movement Movement) error {
	t.movements[movement.RecordID] = append(t.movements[movement.RecordID], movement)
	return nil
}

func (t *memoryTx) UpdateRecord(ctx context.Context, record Record) error {
	if _, ok := t.records[record.ID]; !ok {
		return shared.NotFoundf("inventory record %s", record.ID)
	}
	t.records[record.ID] = record
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(nil, repo, nil, nil), repo
}

func TestInitializeRejectsSecondRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	record, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 0)
	require.NoError(t, err)
	require.Zero(t, record.Quantity)

	_, err = svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 10)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestInitializeOpeningQuantityIsLedgered(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	record, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 40)
	require.NoError(t, err)
	require.Equal(t, 40, record.Quantity)

	ledger, err := svc.Ledger(ctx, subject)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	require.Equal(t, MovementIn, ledger[0].Type)
	require.Equal(t, 40, ledger[0].Delta)
}

func TestLedgerReplayLaw(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true, AllowBackorder: true}, 0)
	require.NoError(t, err)

	inputs := []MovementInput{
		{Type: MovementIn, Quantity: 100},
		{Type: MovementOut, Quantity: 30},
		{Type: MovementAdjustment, Quantity: -5},
		{Type: MovementIn, Quantity: 12},
		{Type: MovementOut, Quantity: 90},
	}
	for _, input := range inputs {
		_, err := svc.AppendMovement(ctx, subject, input)
		require.NoError(t, err)
	}

	record, err := svc.Get(ctx, subject)
	require.NoError(t, err)
	ledger, err := svc.Ledger(ctx, subject)
	require.NoError(t, err)

	balance := 0
	for i, m := range ledger {
		require.Equal(t, int64(i+1), m.Seq)
		balance += m.Delta
		require.Equal(t, balance, m.Balance)
	}
	require.Equal(t, record.Quantity, balance)
}

func TestOutMovementCannotGoNegative(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 0)
	require.NoError(t, err)

	_, err = svc.AppendMovement(ctx, subject, MovementInput{Type: MovementIn, Quantity: 100})
	require.NoError(t, err)
	movement, err := svc.AppendMovement(ctx, subject, MovementInput{Type: MovementOut, Quantity: 25})
	require.NoError(t, err)
	require.Equal(t, 75, movement.Balance)

	_, err = svc.AppendMovement(ctx, subject, MovementInput{Type: MovementOut, Quantity: 200})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	record, err := svc.Get(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 75, record.Quantity)

	ledger, err := svc.Ledger(ctx, subject)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
}

func TestBackorderAllowsNegativeBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true, AllowBackorder: true}, 0)
	require.NoError(t, err)

	movement, err := svc.AppendMovement(ctx, subject, MovementInput{Type: MovementOut, Quantity: 7})
	require.NoError(t, err)
	require.Equal(t, -7, movement.Balance)
}

func TestUpdateSettingsBaselineEmitsSyntheticAdjustment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 10)
	require.NoError(t, err)

	baseline := 25
	track := false
	record, err := svc.UpdateSettings(ctx, subject, SettingsUpdate{Quantity: &baseline, Track: &track})
	require.NoError(t, err)
	require.Equal(t, 25, record.Quantity)
	require.False(t, record.Track)

	ledger, err := svc.Ledger(ctx, subject)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	last := ledger[len(ledger)-1]
	require.Equal(t, MovementAdjustment, last.Type)
	require.Equal(t, 15, last.Delta)

	// Same baseline again: settings-only update, no movement.
	record, err = svc.UpdateSettings(ctx, subject, SettingsUpdate{Quantity: &baseline})
	require.NoError(t, err)
	require.Equal(t, 25, record.Quantity)
	ledger, err = svc.Ledger(ctx, subject)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
}

func TestMovementValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 5)
	require.NoError(t, err)

	_, err = svc.AppendMovement(ctx, subject, MovementInput{Type: "transfer", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AppendMovement(ctx, subject, MovementInput{Type: MovementIn, Quantity: -3})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AppendMovement(ctx, subject, MovementInput{Type: MovementAdjustment, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AppendMovement(ctx, uuid.New(), MovementInput{Type: MovementIn, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConcurrentMovementsLoseNoDelta(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	subject := uuid.New()

	_, err := svc.Initialize(ctx, subject, SubjectVariant, Settings{Track: true}, 0)
	require.NoError(t, err)

	const writers = 50
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.AppendMovement(ctx, subject, MovementInput{Type: MovementIn, Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	record, err := svc.Get(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, writers, record.Quantity)

	ledger, err := svc.Ledger(ctx, subject)
	require.NoError(t, err)
	require.Len(t, ledger, writers)
	seqs := make([]int64, len(ledger))
	for i, m := range ledger {
		seqs[i] = m.Seq
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, seq := range seqs {
		require.Equal(t, int64(i+1), seq)
	}
}

func TestLowStockFiltersUntracked(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	low := uuid.New()
	_, err := svc.Initialize(ctx, low, SubjectVariant, Settings{Track: true, LowStockAlert: 5}, 3)
	require.NoError(t, err)

	healthy := uuid.New()
	_, err = svc.Initialize(ctx, healthy, SubjectVariant, Settings{Track: true, LowStockAlert: 5}, 50)
	require.NoError(t, err)

	untracked := uuid.New()
	_, err = svc.Initialize(ctx, untracked, SubjectVariant, Settings{Track: false, LowStockAlert: 5}, 0)
	require.NoError(t, err)

	records, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, low, records[0].SubjectID)
}

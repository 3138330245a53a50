package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hawker-io/hawker/internal/shared"
)

type stubInventoryService struct {
	initialize     func(ctx context.Context, subjectID uuid.UUID, subjectType SubjectType, settings Settings, quantity int) (Record, error)
	get            func(ctx context.Context, subjectID uuid.UUID) (Record, error)
	updateSettings func(ctx context.Context, subjectID uuid.UUID, update SettingsUpdate) (Record, error)
	appendMovement func(ctx context.Context, subjectID uuid.UUID, input MovementInput) (Movement, error)
	ledger         func(ctx context.Context, subjectID uuid.UUID) ([]Movement, error)
	lowStock       func(ctx context.Context) ([]Record, error)
}

func (s *stubInventoryService) Initialize(ctx context.Context, subjectID uuid.UUID, subjectType SubjectType, settings Settings, quantity int) (Record, error) {
	return s.initialize(ctx, subjectID, subjectType, settings, quantity)
}

func (s *stubInventoryService) Get(ctx context.Context, subjectID uuid.UUID) (Record, error) {
	return s.get(ctx, subjectID)
}

func (s *stubInventoryService) UpdateSettings(ctx context.Context, subjectID uuid.UUID, update SettingsUpdate) (Record, error) {
	return s.updateSettings(ctx, subjectID, update)
}

func (s *stubInventoryService) AppendMovement(ctx context.Context, subjectID uuid.UUID, input MovementInput) (Movement, error) {
	return s.appendMovement(ctx, subjectID, input)
}

func (s *stubInventoryService) Ledger(ctx context.Context, subjectID uuid.UUID) ([]Movement, error) {
	return s.ledger(ctx, subjectID)
}

func (s *stubInventoryService) LowStock(ctx context.Context) ([]Record, error) {
	return s.lowStock(ctx)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func inventoryRouter(t *testing.T, stub *stubInventoryService) http.Handler {
	t.Helper()
	h := NewHandler(nil, stub)
	r := chi.NewRouter()
	r.Route("/inventory", h.MountRoutes)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestInitializeRejectsUnknownSubjectType(t *testing.T) {
	router := inventoryRouter(t, &stubInventoryService{})

	body := `{"subject_type":"warehouse","quantity":5}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inventory/"+uuid.NewString(), strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, decodeEnvelope(t, rec).Success)
}

func TestInitializeCreatesRecord(t *testing.T) {
	subjectID := uuid.New()
	stub := &stubInventoryService{
		initialize: func(_ context.Context, id uuid.UUID, subjectType SubjectType, settings Settings, quantity int) (Record, error) {
			return Record{ID: uuid.New(), SubjectID: id, SubjectType: subjectType, Quantity: quantity, LowStockAlert: settings.LowStockAlert}, nil
		},
	}
	router := inventoryRouter(t, stub)

	body := `{"subject_type":"variant","quantity":12,"low_stock_alert":3,"track_inventory":true}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inventory/"+subjectID.String(), strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	var record Record
	require.NoError(t, json.Unmarshal(env.Data, &record))
	require.Equal(t, subjectID, record.SubjectID)
	require.Equal(t, SubjectVariant, record.SubjectType)
	require.Equal(t, 12, record.Quantity)
}

func TestAppendMovementInsufficientStockIs422(t *testing.T) {
	stub := &stubInventoryService{
		appendMovement: func(_ context.Context, _ uuid.UUID, _ MovementInput) (Movement, error) {
			return Movement{}, shared.InsufficientStockf("movement would drive quantity below zero")
		},
	}
	router := inventoryRouter(t, stub)

	body := `{"movement_type":"out","quantity":50}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inventory/"+uuid.NewString()+"/stock-movements", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.Contains(t, env.Error, "below zero")
}

func TestAppendMovementRejectsUnknownType(t *testing.T) {
	router := inventoryRouter(t, &stubInventoryService{})

	body := `{"movement_type":"teleport","quantity":1}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inventory/"+uuid.NewString()+"/stock-movements", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerReturnsEmptyArrayNotNull(t *testing.T) {
	stub := &stubInventoryService{
		ledger: func(_ context.Context, _ uuid.UUID) ([]Movement, error) {
			return nil, nil
		},
	}
	router := inventoryRouter(t, stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory/"+uuid.NewString()+"/stock-movements", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	require.JSONEq(t, "[]", string(env.Data))
}

func TestLowStockRoute(t *testing.T) {
	stub := &stubInventoryService{
		lowStock: func(_ context.Context) ([]Record, error) {
			return []Record{{ID: uuid.New(), Quantity: 1, LowStockAlert: 5, Track: true}}, nil
		},
	}
	router := inventoryRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/low-stock", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var records []Record
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	require.Equal(t, 1, records[0].Quantity)
}

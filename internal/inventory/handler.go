package inventory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/platform/httpx"
	"github.com/hawker-io/hawker/internal/shared"
)

// InventoryService exposes the ledger operations required by the handler.
type InventoryService interface {
	Initialize(ctx context.Context, subjectID uuid.UUID, subjectType SubjectType, settings Settings, quantity int) (Record, error)
	Get(ctx context.Context, subjectID uuid.UUID) (Record, error)
	UpdateSettings(ctx context.Context, subjectID uuid.UUID, update SettingsUpdate) (Record, error)
	AppendMovement(ctx context.Context, subjectID uuid.UUID, input MovementInput) (Movement, error)
	Ledger(ctx context.Context, subjectID uuid.UUID) ([]Movement, error)
	LowStock(ctx context.Context) ([]Record, error)
}

// Handler wires HTTP endpoints for the inventory ledger.
type Handler struct {
	logger   *slog.Logger
	service  InventoryService
	validate *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service InventoryService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes; subjects are addressed by the
// product or variant id they track.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low-stock", h.lowStock)
	r.Post("/{subjectID}", h.initialize)
	r.Get("/{subjectID}", h.get)
	r.Put("/{subjectID}", h.updateSettings)
	r.Post("/{subjectID}/stock-movements", h.appendMovement)
	r.Get("/{subjectID}/stock-movements", h.ledger)
}

type initializeRequest struct {
	SubjectType    string `json:"subject_type" validate:"required,oneof=product variant"`
	Quantity       int    `json:"quantity" validate:"gte=0"`
	LowStockAlert  int    `json:"low_stock_alert" validate:"gte=0"`
	Track          bool   `json:"track_inventory"`
	AllowBackorder bool   `json:"allow_backorder"`
}

type updateSettingsRequest struct {
	Quantity       *int  `json:"quantity" validate:"omitempty,gte=0"`
	LowStockAlert  *int  `json:"low_stock_alert" validate:"omitempty,gte=0"`
	Track          *bool `json:"track_inventory"`
	AllowBackorder *bool `json:"allow_backorder"`
}

type movementRequest struct {
	Type      string `json:"movement_type" validate:"required,oneof=in out adjustment"`
	Quantity  int    `json:"quantity" validate:"required"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.parseSubjectID(w, r)
	if !ok {
		return
	}
	var req initializeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	record, err := h.service.Initialize(r.Context(), subjectID, SubjectType(req.SubjectType), Settings{
		LowStockAlert:  req.LowStockAlert,
		Track:          req.Track,
		AllowBackorder: req.AllowBackorder,
	}, req.Quantity)
	if err != nil {
		h.logger.Error("initialize inventory failed", slog.Any("error", err), slog.String("subject_id", subjectID.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, record)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.parseSubjectID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), subjectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, record)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.parseSubjectID(w, r)
	if !ok {
		return
	}
	var req updateSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	record, err := h.service.UpdateSettings(r.Context(), subjectID, SettingsUpdate{
		Quantity:       req.Quantity,
		LowStockAlert:  req.LowStockAlert,
		Track:          req.Track,
		AllowBackorder: req.AllowBackorder,
	})
	if err != nil {
		h.logger.Error("update inventory settings failed", slog.Any("error", err), slog.String("subject_id", subjectID.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, record)
}

func (h *Handler) appendMovement(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.parseSubjectID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%s", err.Error()))
		return
	}
	movement, err := h.service.AppendMovement(r.Context(), subjectID, MovementInput{
		Type:      MovementType(req.Type),
		Quantity:  req.Quantity,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logger.Error("append movement failed", slog.Any("error", err), slog.String("subject_id", subjectID.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, movement)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.parseSubjectID(w, r)
	if !ok {
		return
	}
	movements, err := h.service.Ledger(r.Context(), subjectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.OK(w, movements)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.OK(w, records)
}

func (h *Handler) parseSubjectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "subjectID"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid subject id")
		return uuid.Nil, false
	}
	return id, true
}

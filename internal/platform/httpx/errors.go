package httpx

import (
	"errors"
	"net/http"

	"github.com/hawker-io/hawker/internal/shared"
)

// RespondError maps the domain error taxonomy onto the failure envelope.
// Validation is a 400, missing references a 404, conflicts and illegal status
// transitions a 409, rejected stock movements a 422.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrState):
		Fail(w, http.StatusConflict, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInsufficientStock):
		Fail(w, http.StatusUnprocessableEntity, shared.UserSafeMessage(err))
	default:
		Fail(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-birthday-card/internal/model"
	"go-birthday-card/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

func toAPIError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, model.ErrNotFound):
		return apierror.NotFound("Card not found")
	case errors.Is(err, model.ErrPaymentNotFound):
		return apierror.NotFound("Order not found")
	case errors.Is(err, model.ErrInvalidTransition):
		return apierror.Conflict("Card cannot make that transition")
	case errors.Is(err, model.ErrExhaustedRetries):
		return apierror.New("SLUG_EXHAUSTED", "Could not allocate a card link, please try again", "", http.StatusInternalServerError)
	case errors.Is(err, model.ErrStoreUnavailable):
		slog.Error("store unavailable", "error", err)
		return apierror.Unavailable("Storage is temporarily unavailable")
	case errors.Is(err, model.ErrPaymentFailed):
		return apierror.New("PAYMENT_FAILED", "Payment could not be completed", "", http.StatusPaymentRequired)
	case errors.Is(err, model.ErrUnauthorized):
		return apierror.Unauthorized("Authentication required")
	case errors.Is(err, model.ErrInvalidInput):
		return apierror.BadRequest("Invalid input", err.Error())
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
		return apierror.Internal("Unexpected server error")
	}
}

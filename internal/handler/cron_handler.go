package handler

import (
	"net/http"
	"time"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/service"
)

type CronHandler struct {
	sweeper *service.SweepService
}

func NewCronHandler(sweeper *service.SweepService) *CronHandler {
	return &CronHandler{sweeper: sweeper}
}

// Cleanup runs one retention sweep batch.
func (h *CronHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context(), time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SweepResponse{
		SweepResult: result,
		Timestamp:   time.Now().UTC(),
	}, nil)
}

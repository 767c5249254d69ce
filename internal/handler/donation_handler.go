package handler

import (
	"net/http"

	"go-birthday-card/internal/middleware"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/service"
)

type DonationHandler struct {
	service *service.DonationService
}

func NewDonationHandler(service *service.DonationService) *DonationHandler {
	return &DonationHandler{service: service}
}

func (h *DonationHandler) Track(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.TrackDonationRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.Track(r.Context(), payload, middleware.ClientIP(r), r.UserAgent()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]bool{"tracked": true}, nil)
}

// Options returns preset donation amounts in the caller's likely currency.
func (h *DonationHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Vary", "Accept-Language, CF-IPCountry, X-Vercel-IP-Country")
	writeSuccess(w, http.StatusOK, service.DonationOptionsFor(service.DetectCurrency(r.Header)), nil)
}

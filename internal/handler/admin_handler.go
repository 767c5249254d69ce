package handler

import (
	"net/http"
	"strconv"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/service"
	"go-birthday-card/pkg/apierror"
)

type AdminHandler struct {
	service *service.AdminService
	auth    *service.AdminAuth
}

func NewAdminHandler(service *service.AdminService, auth *service.AdminAuth) *AdminHandler {
	return &AdminHandler{service: service, auth: auth}
}

// Session exchanges the admin secret for a short-lived bearer token.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.AdminSessionRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.auth.IssueSession(payload.Token)
	if err != nil {
		writeError(w, apierror.Unauthorized("invalid admin token"))
		return
	}
	writeSuccess(w, http.StatusOK, session, nil)
}

func (h *AdminHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cards, meta, err := h.service.ListCards(r.Context(), model.CardFilter{
		Status: model.CardStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cards, &meta)
}

func (h *AdminHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.service.GetCardDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, detail, nil)
}

func (h *AdminHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.AdminCardAction
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.service.ApplyAction(r.Context(), id, payload.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, card, nil)
}

func (h *AdminHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	hard := false
	if raw := r.URL.Query().Get("hard"); raw != "" {
		hard, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apierror.BadRequest("invalid hard flag", raw))
			return
		}
	}

	dependents, err := h.service.Delete(r.Context(), id, hard)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"id":                 id,
		"hard":               hard,
		"dependents_deleted": dependents,
	}, nil)
}

func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payments, nil)
}

func (h *AdminHandler) ListDeletions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deletions, err := h.service.ListDeletions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, deletions, nil)
}

func (h *AdminHandler) DonationAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.DonationAnalytics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, rows, nil)
}

func pageParams(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

package handler

import (
	"net/http"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/service"
)

type CardHandler struct {
	service *service.CardService
	baseURL string
}

func NewCardHandler(service *service.CardService, baseURL string) *CardHandler {
	return &CardHandler{service: service, baseURL: baseURL}
}

func cardURL(baseURL, slug string) string {
	return baseURL + "/card/" + slug
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateCardRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.CreateCardResponse{
		Slug:      card.SlugValue(),
		URL:       cardURL(h.baseURL, card.SlugValue()),
		Status:    card.Status,
		ExpiresAt: card.ExpiresAt,
	}, nil)
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug, err := slugParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	card, err := h.service.GetPublic(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, card, nil)
}

func (h *CardHandler) Reply(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	slug, err := slugParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ReplyRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.service.AddReply(r.Context(), slug, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.ReplyResponse{ID: reply.ID, Message: "Reply sent"}, nil)
}

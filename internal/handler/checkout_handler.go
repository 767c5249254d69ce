package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/service"
	"go-birthday-card/pkg/apierror"
)

const maxWebhookBody = 1 << 20

type CheckoutHandler struct {
	service  *service.CheckoutService
	provider string
	baseURL  string
}

func NewCheckoutHandler(service *service.CheckoutService, provider string, baseURL string) *CheckoutHandler {
	return &CheckoutHandler{service: service, provider: provider, baseURL: baseURL}
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateCardRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	card, pay, err := h.service.CreateOrder(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.CreateOrderResponse{
		OrderID:  pay.OrderID,
		CardID:   card.ID,
		Provider: h.provider,
	}, nil)
}

func (h *CheckoutHandler) Capture(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	orderID := strings.TrimSpace(chi.URLParam(r, "order_id"))
	if orderID == "" {
		var payload model.CaptureOrderRequest
		if err := decodeAndValidate(r, &payload); err != nil {
			writeError(w, err)
			return
		}
		orderID = strings.TrimSpace(payload.OrderID)
	}

	result, err := h.service.Capture(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.CaptureOrderResponse{
		Slug:             result.Slug,
		URL:              cardURL(h.baseURL, result.Slug),
		AlreadyProcessed: result.AlreadyProcessed,
	}, nil)
}

func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, apierror.BadRequest("unreadable webhook body", ""))
		return
	}

	outcome, err := h.service.HandleWebhook(r.Context(), r.Header, body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": outcome}, nil)
}

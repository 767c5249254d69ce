package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const SignatureHeader = "X-Webhook-Signature"

// Sandbox completes every order it issued. Webhooks are checked against an
// HMAC-SHA256 of the body when a secret is configured.
type Sandbox struct {
	secret []byte

	mu     sync.Mutex
	orders map[string]Order
}

func NewSandbox(webhookSecret string) *Sandbox {
	return &Sandbox{
		secret: []byte(webhookSecret),
		orders: map[string]Order{},
	}
}

func (s *Sandbox) Name() string {
	return "sandbox"
}

func (s *Sandbox) CreateOrder(ctx context.Context, amount string, currency string, description string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	order := Order{
		ID:       strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:17],
		Status:   StatusCreated,
		Amount:   amount,
		Currency: currency,
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	return order, nil
}

func (s *Sandbox) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}

	s.mu.Lock()
	order, ok := s.orders[orderID]
	if ok {
		order.Status = StatusCompleted
		s.orders[orderID] = order
	}
	s.mu.Unlock()

	if !ok {
		return Capture{}, fmt.Errorf("capture %s: %w", orderID, ErrUnknownOrder)
	}

	capture := Capture{
		OrderID:    orderID,
		Status:     StatusCompleted,
		PayerEmail: "sandbox-buyer@example.com",
	}
	raw, err := json.Marshal(map[string]any{
		"id":     orderID,
		"status": StatusCompleted,
		"purchase_units": []map[string]any{{
			"amount": map[string]string{"currency_code": order.Currency, "value": order.Amount},
		}},
		"payer": map[string]string{"email_address": capture.PayerEmail},
	})
	if err != nil {
		return Capture{}, fmt.Errorf("encode capture: %w", err)
	}
	capture.Raw = raw
	return capture, nil
}

func (s *Sandbox) VerifyWebhook(_ context.Context, header http.Header, body []byte) error {
	if len(s.secret) == 0 {
		return nil
	}

	got, err := hex.DecodeString(strings.TrimSpace(header.Get(SignatureHeader)))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, Sign(s.secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

func Sign(secret []byte, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

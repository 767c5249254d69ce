// Package payment abstracts the checkout provider behind the paid card flow.
package payment

import (
	"context"
	"errors"
	"net/http"
)

const (
	StatusCreated   = "CREATED"
	StatusCompleted = "COMPLETED"
)

var (
	ErrUnknownOrder     = errors.New("unknown order")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type Order struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Capture struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	PayerEmail string `json:"payer_email,omitempty"`
	Raw        []byte `json:"-"`
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, amount string, currency string, description string) (Order, error)
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
	VerifyWebhook(ctx context.Context, header http.Header, body []byte) error
}

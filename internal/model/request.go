package model

import "encoding/json"

type CreateCardRequest struct {
	To           string         `json:"to" validate:"required,max=500"`
	Message      string         `json:"message" validate:"required,max=10000"`
	From         string         `json:"from" validate:"required,max=500"`
	TemplateID   string         `json:"templateId" validate:"required,max=64"`
	CakeOptions  map[string]any `json:"cakeOptions"`
	AddOns       map[string]any `json:"addOns"`
	ColorPalette any            `json:"colorPalette"`
	FontChoice   any            `json:"fontChoice"`
}

type ReplyRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Sender  string `json:"sender" validate:"max=500"`
}

type CaptureOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// WebhookEvent is the subset of a payment provider event the service reads.
type WebhookEvent struct {
	EventType string `json:"event_type" validate:"required"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		Payer struct {
			EmailAddress string `json:"email_address"`
		} `json:"payer"`
	} `json:"resource"`
}

type TrackDonationRequest struct {
	Slug     string      `json:"slug" validate:"required,max=64"`
	Provider string      `json:"provider" validate:"required,oneof=bmac paypal stripe"`
	Currency string      `json:"currency" validate:"required,max=8"`
	Amount   json.Number `json:"amount" validate:"required,max=32"`
}

type AdminCardAction struct {
	Action string `json:"action" validate:"required,oneof=flag unflag restore"`
}

type AdminSessionRequest struct {
	Token string `json:"token" validate:"required"`
}

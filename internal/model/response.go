package model

import "time"

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type CreateCardResponse struct {
	Slug      string     `json:"slug"`
	URL       string     `json:"url"`
	Status    CardStatus `json:"status"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	CardID   int64  `json:"card_id"`
	Provider string `json:"provider"`
}

type CaptureOrderResponse struct {
	Slug             string `json:"slug"`
	URL              string `json:"url"`
	AlreadyProcessed bool   `json:"already_processed"`
}

type ReplyResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type SweepResponse struct {
	SweepResult
	Timestamp time.Time `json:"timestamp"`
}

type DonationOption struct {
	Amount int    `json:"amount"`
	Label  string `json:"label"`
}

type DonationOptions struct {
	Currency string           `json:"currency"`
	Symbol   string           `json:"symbol"`
	Options  []DonationOption `json:"options"`
}

type AdminSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

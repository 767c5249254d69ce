package model

import (
	"encoding/json"
	"time"
)

type CardStatus string

const (
	CardStatusPending CardStatus = "pending"
	CardStatusActive  CardStatus = "active"
	CardStatusFlagged CardStatus = "flagged"
	CardStatusDeleted CardStatus = "deleted"
)

// Visible reports whether a card in this status may be served on public paths.
// Every public lookup goes through this check.
func (s CardStatus) Visible() bool {
	return s == CardStatusActive || s == CardStatusFlagged
}

func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusPending, CardStatusActive, CardStatusFlagged, CardStatusDeleted:
		return true
	}
	return false
}

// Card is the shareable record. Slug is nil until the card is activated and
// never changes afterwards; ExpiresAt is fixed at creation.
type Card struct {
	ID         int64           `json:"id"`
	Slug       *string         `json:"slug"`
	TemplateID string          `json:"template_id"`
	Status     CardStatus      `json:"status"`
	Payload    json.RawMessage `json:"card"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
}

func (c Card) SlugValue() string {
	if c.Slug == nil {
		return ""
	}
	return *c.Slug
}

// CardPayload is the content stored inside Card.Payload.
type CardPayload struct {
	To           string         `json:"to"`
	Message      string         `json:"message"`
	From         string         `json:"from"`
	TemplateID   string         `json:"templateId"`
	CakeOptions  map[string]any `json:"cakeOptions"`
	AddOns       map[string]any `json:"addOns"`
	ColorPalette any            `json:"colorPalette"`
	FontChoice   any            `json:"fontChoice"`
	Flagged      bool           `json:"flagged"`
	FlaggedWords []string       `json:"flaggedWords"`
	CreatedAt    string         `json:"createdAt"`
}

// PublicCard is the shape returned to card recipients.
type PublicCard struct {
	Slug       string          `json:"slug"`
	TemplateID string          `json:"templateId"`
	Card       json.RawMessage `json:"card"`
	Status     CardStatus      `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

func (c Card) Public() PublicCard {
	return PublicCard{
		Slug:       c.SlugValue(),
		TemplateID: c.TemplateID,
		Card:       c.Payload,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		ExpiresAt:  c.ExpiresAt,
	}
}

// CardDetail is the admin view of a card with its dependents.
type CardDetail struct {
	Card      Card            `json:"card"`
	Replies   []Reply         `json:"replies"`
	Payments  []Payment       `json:"payments"`
	Deletions []DeletionAudit `json:"deletions"`
}

type CardFilter struct {
	Status CardStatus
	Limit  int
	Offset int
}

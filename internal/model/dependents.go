package model

import "time"

type Reply struct {
	ID        int64     `json:"id"`
	CardID    int64     `json:"card_id"`
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusCompleted PaymentStatus = "completed"
)

type Payment struct {
	ID          int64         `json:"id"`
	CardID      int64         `json:"card_id"`
	OrderID     string        `json:"order_id"`
	Status      PaymentStatus `json:"status"`
	Amount      string        `json:"amount"`
	Currency    string        `json:"currency"`
	PayerEmail  string        `json:"payer_email,omitempty"`
	RawResponse string        `json:"raw_response,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type DonationClick struct {
	ID        int64     `json:"id"`
	CardSlug  string    `json:"card_slug"`
	Provider  string    `json:"provider"`
	Currency  string    `json:"currency"`
	Amount    string    `json:"amount"`
	IPHash    string    `json:"ip_hash,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DonationAnalytics struct {
	Provider   string `json:"provider"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	ClickCount int    `json:"click_count"`
}

const (
	DeletionReasonExpired    = "expired"
	DeletionReasonModeration = "moderation"
)

// DeletionAudit records a soft delete. It is written in the same transaction
// as the status flip it describes.
type DeletionAudit struct {
	ID          int64      `json:"id"`
	CardID      int64      `json:"card_id"`
	Slug        string     `json:"slug,omitempty"`
	DeletedAt   time.Time  `json:"deleted_at"`
	Reason      string     `json:"reason"`
	PriorStatus CardStatus `json:"prior_status"` // what a restore puts back
}

type SweepResult struct {
	RecordsDeleted    int64 `json:"records_deleted"`
	DependentsDeleted int64 `json:"dependents_deleted"`
}

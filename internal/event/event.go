package event

import "time"

type Type string

const (
	TypeCardCreated   Type = "card.created"
	TypeCardActivated Type = "card.activated"
	TypeCardFlagged   Type = "card.flagged"
	TypeCardUnflagged Type = "card.unflagged"
	TypeCardDeleted   Type = "card.deleted"
	TypeCardRestored  Type = "card.restored"
	TypeCardPurged    Type = "card.purged"
	TypeSweepFinished Type = "sweep.finished"
	TypeReplyPosted   Type = "reply.posted"
	TypePaymentDone   Type = "payment.completed"
)

type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	CardID    int64     `json:"card_id,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}

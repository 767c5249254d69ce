package repository

import (
	"context"
	"time"

	"go-birthday-card/internal/model"
)

// Store is the persistence boundary for cards and everything that hangs off
// them. Every status change is a conditional write: the bool results report
// whether the row was in an allowed prior state. Driver failures come back
// wrapped in model.ErrStoreUnavailable.
type Store interface {
	CardStore
	ReplyStore
	PaymentStore
	DonationStore
	DeletionStore

	Ping(ctx context.Context) error
	Close() error
}

type CardStore interface {
	// InsertCard assigns card.ID. A slug collision returns model.ErrSlugTaken.
	InsertCard(ctx context.Context, card *model.Card) error
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	GetCardBySlug(ctx context.Context, slug string) (*model.Card, error)
	// SlugExists checks every row regardless of status.
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, int, error)

	UpdateStatus(ctx context.Context, id int64, from []model.CardStatus, to model.CardStatus, now time.Time) (bool, error)
	// ActivateCard moves a pending card to the live status to and sets the
	// slug, only when none is set yet.
	ActivateCard(ctx context.Context, id int64, slug string, to model.CardStatus, now time.Time) (bool, error)
	// SoftDeleteCard flips a live card to deleted and writes its audit row in
	// the same transaction.
	SoftDeleteCard(ctx context.Context, id int64, reason string, now time.Time) (bool, error)
	// RestoreCard brings a deleted card back while its deadline has not passed.
	RestoreCard(ctx context.Context, id int64, now time.Time) (bool, error)
	// HardDeleteCard removes the card and every dependent row in one
	// transaction. It reports the number of dependents removed and whether
	// the card existed.
	HardDeleteCard(ctx context.Context, id int64) (int64, bool, error)
	// SweepExpired soft-deletes up to limit cards whose deadline is at or
	// before now, clearing their replies and payments, and purges donation
	// clicks older than clickCutoff. All of it commits or none of it does.
	SweepExpired(ctx context.Context, now time.Time, clickCutoff time.Time, limit int) (model.SweepResult, error)
}

type ReplyStore interface {
	InsertReply(ctx context.Context, reply *model.Reply) error
	ListReplies(ctx context.Context, cardID int64) ([]model.Reply, error)
}

type PaymentStore interface {
	// InsertCardWithPayment stores a pending card and its order atomically.
	InsertCardWithPayment(ctx context.Context, card *model.Card, payment *model.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	// CompletePayment marks a created payment completed.
	CompletePayment(ctx context.Context, orderID string, payerEmail string, raw []byte, now time.Time) (bool, error)
	ListPayments(ctx context.Context, limit int, offset int) ([]model.Payment, error)
	ListPaymentsByCard(ctx context.Context, cardID int64) ([]model.Payment, error)
}

type DonationStore interface {
	InsertDonationClick(ctx context.Context, click *model.DonationClick) error
	DonationAnalytics(ctx context.Context) ([]model.DonationAnalytics, error)
}

type DeletionStore interface {
	ListDeletions(ctx context.Context, limit int, offset int) ([]model.DeletionAudit, error)
	ListDeletionsByCard(ctx context.Context, cardID int64) ([]model.DeletionAudit, error)
}

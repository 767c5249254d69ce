package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"go-birthday-card/internal/model"
)

func (s *Store) InsertReply(ctx context.Context, reply *model.Reply) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO replies (card_id, message, sender, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		reply.CardID, reply.Message, reply.Sender, reply.CreatedAt).Scan(&reply.ID)
	if err != nil {
		return unavailable("insert reply", err)
	}
	return nil
}

func (s *Store) ListReplies(ctx context.Context, cardID int64) ([]model.Reply, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, card_id, message, sender, created_at
		 FROM replies WHERE card_id = $1 ORDER BY created_at, id`, cardID)
	if err != nil {
		return nil, unavailable("list replies", err)
	}
	defer rows.Close()

	replies := make([]model.Reply, 0)
	for rows.Next() {
		var r model.Reply
		if err := rows.Scan(&r.ID, &r.CardID, &r.Message, &r.Sender, &r.CreatedAt); err != nil {
			return nil, unavailable("scan reply", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list replies", err)
	}
	return replies, nil
}

const paymentColumns = `id, card_id, order_id, status, amount, currency,
	COALESCE(payer_email, ''), COALESCE(raw_response::text, ''), created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	var status string
	if err := row.Scan(&p.ID, &p.CardID, &p.OrderID, &status, &p.Amount, &p.Currency,
		&p.PayerEmail, &p.RawResponse, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) InsertCardWithPayment(ctx context.Context, card *model.Card, payment *model.Payment) error {
	return s.withTx(ctx, "insert card with payment", func(tx pgx.Tx) error {
		if err := insertCard(ctx, tx, card); err != nil {
			return err
		}
		payment.CardID = card.ID
		return tx.QueryRow(ctx,
			`INSERT INTO payments (card_id, order_id, status, amount, currency, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
			payment.CardID, payment.OrderID, string(payment.Status), payment.Amount,
			payment.Currency, payment.CreatedAt).Scan(&payment.ID)
	})
}

func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrPaymentNotFound
	}
	if err != nil {
		return nil, unavailable("get payment", err)
	}
	return p, nil
}

func (s *Store) CompletePayment(ctx context.Context, orderID string, payerEmail string, raw []byte, now time.Time) (bool, error) {
	var rawArg any
	if len(raw) > 0 {
		rawArg = string(raw)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE payments
		 SET status = 'completed', payer_email = NULLIF($1, ''), raw_response = $2::jsonb, updated_at = $3
		 WHERE order_id = $4 AND status = 'created'`,
		payerEmail, rawArg, now, orderID)
	if err != nil {
		return false, unavailable("complete payment", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) listPayments(ctx context.Context, op string, query string, args ...any) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return payments, nil
}

func (s *Store) ListPayments(ctx context.Context, limit int, offset int) ([]model.Payment, error) {
	return s.listPayments(ctx, "list payments",
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (s *Store) ListPaymentsByCard(ctx context.Context, cardID int64) ([]model.Payment, error) {
	return s.listPayments(ctx, "list card payments",
		`SELECT `+paymentColumns+` FROM payments WHERE card_id = $1 ORDER BY created_at, id`, cardID)
}

func (s *Store) InsertDonationClick(ctx context.Context, click *model.DonationClick) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO donation_clicks (card_slug, provider, currency, amount, ip_hash, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		click.CardSlug, click.Provider, click.Currency, click.Amount,
		click.IPHash, click.UserAgent, click.CreatedAt).Scan(&click.ID)
	if err != nil {
		return unavailable("insert donation click", err)
	}
	return nil
}

func (s *Store) DonationAnalytics(ctx context.Context) ([]model.DonationAnalytics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT provider, currency, amount, COUNT(*)
		 FROM donation_clicks
		 GROUP BY provider, currency, amount
		 ORDER BY COUNT(*) DESC, provider, currency, amount`)
	if err != nil {
		return nil, unavailable("donation analytics", err)
	}
	defer rows.Close()

	out := make([]model.DonationAnalytics, 0)
	for rows.Next() {
		var a model.DonationAnalytics
		if err := rows.Scan(&a.Provider, &a.Currency, &a.Amount, &a.ClickCount); err != nil {
			return nil, unavailable("scan donation analytics", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("donation analytics", err)
	}
	return out, nil
}

func (s *Store) listDeletions(ctx context.Context, op string, query string, args ...any) ([]model.DeletionAudit, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := make([]model.DeletionAudit, 0)
	for rows.Next() {
		var d model.DeletionAudit
		var prior string
		if err := rows.Scan(&d.ID, &d.CardID, &d.Slug, &d.Reason, &d.DeletedAt, &prior); err != nil {
			return nil, unavailable(op, err)
		}
		d.PriorStatus = model.CardStatus(prior)
		d.DeletedAt = d.DeletedAt.UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (s *Store) ListDeletions(ctx context.Context, limit int, offset int) ([]model.DeletionAudit, error) {
	return s.listDeletions(ctx, "list deletions",
		`SELECT id, card_id, COALESCE(slug, ''), reason, deleted_at, prior_status
		 FROM deletion_audit ORDER BY deleted_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (s *Store) ListDeletionsByCard(ctx context.Context, cardID int64) ([]model.DeletionAudit, error) {
	return s.listDeletions(ctx, "list card deletions",
		`SELECT id, card_id, COALESCE(slug, ''), reason, deleted_at, prior_status
		 FROM deletion_audit WHERE card_id = $1 ORDER BY deleted_at, id`, cardID)
}

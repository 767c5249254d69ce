package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"go-birthday-card/internal/model"
)

const cardColumns = `id, slug, template_id, status, payload, created_at, updated_at, expires_at, deleted_at`

// restoredStatus is the status recorded by the latest delete. A card without
// a slug can only go back to pending.
const restoredStatus = `CASE WHEN slug IS NULL THEN 'pending' ELSE COALESCE(
	(SELECT a.prior_status FROM deletion_audit a WHERE a.card_id = cards.id ORDER BY a.id DESC LIMIT 1),
	'active') END`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	var status string
	var payload []byte
	if err := row.Scan(&c.ID, &c.Slug, &c.TemplateID, &status, &payload,
		&c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	c.Status = model.CardStatus(status)
	c.Payload = payload
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	if c.DeletedAt != nil {
		t := c.DeletedAt.UTC()
		c.DeletedAt = &t
	}
	return &c, nil
}

func insertCard(ctx context.Context, q querier, card *model.Card) error {
	err := q.QueryRow(ctx,
		`INSERT INTO cards (slug, template_id, status, payload, created_at, updated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $6)
		 RETURNING id`,
		card.Slug, card.TemplateID, string(card.Status), string(card.Payload),
		card.CreatedAt, card.ExpiresAt).Scan(&card.ID)
	if isUniqueViolation(err) {
		return model.ErrSlugTaken
	}
	if err != nil {
		return unavailable("insert card", err)
	}
	card.UpdatedAt = card.CreatedAt
	return nil
}

func (s *Store) InsertCard(ctx context.Context, card *model.Card) error {
	return insertCard(ctx, s.pool, card)
}

func (s *Store) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	card, err := scanCard(s.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get card", err)
	}
	return card, nil
}

func (s *Store) GetCardBySlug(ctx context.Context, slug string) (*model.Card, error) {
	card, err := scanCard(s.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get card by slug", err)
	}
	return card, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, unavailable("check slug", err)
	}
	return exists, nil
}

func (s *Store) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, int, error) {
	var status *string
	if filter.Status != "" {
		v := string(filter.Status)
		status = &v
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cards WHERE ($1::text IS NULL OR status = $1)`, status).Scan(&total); err != nil {
		return nil, 0, unavailable("count cards", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards
		 WHERE ($1::text IS NULL OR status = $1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, unavailable("list cards", err)
	}
	defer rows.Close()

	cards := make([]model.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, unavailable("scan card", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, unavailable("list cards", err)
	}
	return cards, total, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, from []model.CardStatus, to model.CardStatus, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = ANY($4)`,
		string(to), now, id, statusStrings(from))
	if err != nil {
		return false, unavailable("update card status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ActivateCard(ctx context.Context, id int64, slug string, to model.CardStatus, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET status = $1, slug = $2, updated_at = $3
		 WHERE id = $4 AND status = 'pending' AND slug IS NULL`,
		string(to), slug, now, id)
	if isUniqueViolation(err) {
		return false, model.ErrSlugTaken
	}
	if err != nil {
		return false, unavailable("activate card", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SoftDeleteCard(ctx context.Context, id int64, reason string, now time.Time) (bool, error) {
	flipped := false
	err := s.withTx(ctx, "soft delete card", func(tx pgx.Tx) error {
		var slug *string
		var prior string
		err := tx.QueryRow(ctx,
			`SELECT slug, status FROM cards
			 WHERE id = $1 AND status IN ('pending', 'active', 'flagged')
			 FOR UPDATE`, id).Scan(&slug, &prior)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO deletion_audit (card_id, slug, reason, deleted_at, prior_status) VALUES ($1, $2, $3, $4, $5)`,
			id, slug, reason, now, prior); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE cards SET status = 'deleted', deleted_at = $1, updated_at = $1
			 WHERE id = $2 AND status <> 'deleted'`, now, id)
		if err != nil {
			return err
		}
		flipped = tag.RowsAffected() == 1
		return nil
	})
	return flipped, err
}

func (s *Store) RestoreCard(ctx context.Context, id int64, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET status = `+restoredStatus+`, deleted_at = NULL, updated_at = $1
		 WHERE id = $2 AND status = 'deleted' AND expires_at > $1`, now, id)
	if err != nil {
		return false, unavailable("restore card", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) HardDeleteCard(ctx context.Context, id int64) (int64, bool, error) {
	var dependents int64
	found := false
	err := s.withTx(ctx, "hard delete card", func(tx pgx.Tx) error {
		var slug *string
		err := tx.QueryRow(ctx, `SELECT slug FROM cards WHERE id = $1 FOR UPDATE`, id).Scan(&slug)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		for _, stmt := range []string{
			`DELETE FROM replies WHERE card_id = $1`,
			`DELETE FROM payments WHERE card_id = $1`,
			`DELETE FROM deletion_audit WHERE card_id = $1`,
		} {
			tag, err := tx.Exec(ctx, stmt, id)
			if err != nil {
				return err
			}
			dependents += tag.RowsAffected()
		}

		if slug != nil {
			tag, err := tx.Exec(ctx, `DELETE FROM donation_clicks WHERE card_slug = $1`, *slug)
			if err != nil {
				return err
			}
			dependents += tag.RowsAffected()
		}

		_, err = tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return dependents, found, nil
}

func (s *Store) SweepExpired(ctx context.Context, now time.Time, clickCutoff time.Time, limit int) (model.SweepResult, error) {
	var result model.SweepResult
	err := s.withTx(ctx, "sweep expired cards", func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id FROM cards
			 WHERE status <> 'deleted' AND expires_at <= $1
			 ORDER BY expires_at, id
			 LIMIT $2
			 FOR UPDATE SKIP LOCKED`, now, limit)
		if err != nil {
			return err
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}

		if len(ids) > 0 {
			for _, stmt := range []string{
				`DELETE FROM replies WHERE card_id = ANY($1)`,
				`DELETE FROM payments WHERE card_id = ANY($1)`,
			} {
				tag, err := tx.Exec(ctx, stmt, ids)
				if err != nil {
					return err
				}
				result.DependentsDeleted += tag.RowsAffected()
			}

			if _, err := tx.Exec(ctx,
				`INSERT INTO deletion_audit (card_id, slug, reason, deleted_at, prior_status)
				 SELECT id, slug, $2, $3, status FROM cards WHERE id = ANY($1)`,
				ids, model.DeletionReasonExpired, now); err != nil {
				return err
			}

			tag, err := tx.Exec(ctx,
				`UPDATE cards SET status = 'deleted', deleted_at = $2, updated_at = $2
				 WHERE id = ANY($1) AND status <> 'deleted'`, ids, now)
			if err != nil {
				return err
			}
			result.RecordsDeleted = tag.RowsAffected()
		}

		tag, err := tx.Exec(ctx, `DELETE FROM donation_clicks WHERE created_at < $1`, clickCutoff)
		if err != nil {
			return err
		}
		result.DependentsDeleted += tag.RowsAffected()
		return nil
	})
	if err != nil {
		return model.SweepResult{}, fmt.Errorf("sweep: %w", err)
	}
	return result, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-birthday-card/internal/dbx"
	"go-birthday-card/internal/model"
)

const cardColumns = `id, slug, template_id, status, payload, created_at, updated_at, expires_at, deleted_at`

// restoredStatus is the status recorded by the latest delete. A card without
// a slug can only go back to pending.
const restoredStatus = `CASE WHEN slug IS NULL THEN 'pending' ELSE COALESCE(
	(SELECT a.prior_status FROM deletion_audit a WHERE a.card_id = cards.id ORDER BY a.id DESC LIMIT 1),
	'active') END`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*model.Card, error) {
	var (
		c                             model.Card
		slug                          sql.NullString
		status, payload               string
		createdAt, updatedAt, expires int64
		deletedAt                     sql.NullInt64
	)
	if err := row.Scan(&c.ID, &slug, &c.TemplateID, &status, &payload,
		&createdAt, &updatedAt, &expires, &deletedAt); err != nil {
		return nil, err
	}
	if slug.Valid {
		v := slug.String
		c.Slug = &v
	}
	c.Status = model.CardStatus(status)
	c.Payload = []byte(payload)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.ExpiresAt = fromMillis(expires)
	c.DeletedAt = fromNullMillis(deletedAt)
	return &c, nil
}

func insertCard(ctx context.Context, q dbx.DBTX, card *model.Card) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO cards (slug, template_id, status, payload, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		card.Slug, card.TemplateID, string(card.Status), string(card.Payload),
		toMillis(card.CreatedAt), toMillis(card.CreatedAt), toMillis(card.ExpiresAt))
	if isUniqueViolation(err) {
		return model.ErrSlugTaken
	}
	if err != nil {
		return unavailable("insert card", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("insert card", err)
	}
	card.ID = id
	card.UpdatedAt = card.CreatedAt
	return nil
}

func (s *Store) InsertCard(ctx context.Context, card *model.Card) error {
	return insertCard(ctx, s.db, card)
}

func (s *Store) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get card", err)
	}
	return card, nil
}

func (s *Store) GetCardBySlug(ctx context.Context, slug string) (*model.Card, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get card by slug", err)
	}
	return card, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, unavailable("check slug", err)
	}
	return exists == 1, nil
}

func (s *Store) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, int, error) {
	where := ""
	args := []any{}
	if filter.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`+where, args...).Scan(&total); err != nil {
		return nil, 0, unavailable("count cards", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards`+where+`
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...)
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
	if len(from) == 0 {
		return false, nil
	}
	args := []any{string(to), toMillis(now), id}
	for _, st := range from {
		args = append(args, string(st))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN `+inClause(len(from)), args...)
	if err != nil {
		return false, unavailable("update card status", err)
	}
	return affectedOne(res)
}

func (s *Store) ActivateCard(ctx context.Context, id int64, slug string, to model.CardStatus, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET status = ?, slug = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending' AND slug IS NULL`,
		string(to), slug, toMillis(now), id)
	if isUniqueViolation(err) {
		return false, model.ErrSlugTaken
	}
	if err != nil {
		return false, unavailable("activate card", err)
	}
	return affectedOne(res)
}

func (s *Store) SoftDeleteCard(ctx context.Context, id int64, reason string, now time.Time) (bool, error) {
	flipped := false
	err := s.withTx(ctx, "soft delete card", func(ctx context.Context, tx dbx.DBTX) error {
		var slug sql.NullString
		var prior string
		err := tx.QueryRowContext(ctx,
			`SELECT slug, status FROM cards WHERE id = ? AND status IN ('pending', 'active', 'flagged')`, id).Scan(&slug, &prior)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deletion_audit (card_id, slug, reason, deleted_at, prior_status) VALUES (?, ?, ?, ?, ?)`,
			id, slug, reason, toMillis(now), prior); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE cards SET status = 'deleted', deleted_at = ?, updated_at = ?
			 WHERE id = ? AND status <> 'deleted'`, toMillis(now), toMillis(now), id)
		if err != nil {
			return err
		}
		flipped, err = affectedOne(res)
		return err
	})
	return flipped, err
}

func (s *Store) RestoreCard(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET status = `+restoredStatus+`, deleted_at = NULL, updated_at = ?
		 WHERE id = ? AND status = 'deleted' AND expires_at > ?`, toMillis(now), id, toMillis(now))
	if err != nil {
		return false, unavailable("restore card", err)
	}
	return affectedOne(res)
}

func (s *Store) HardDeleteCard(ctx context.Context, id int64) (int64, bool, error) {
	var dependents int64
	found := false
	err := s.withTx(ctx, "hard delete card", func(ctx context.Context, tx dbx.DBTX) error {
		var slug sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT slug FROM cards WHERE id = ?`, id).Scan(&slug)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		for _, stmt := range []string{
			`DELETE FROM replies WHERE card_id = ?`,
			`DELETE FROM payments WHERE card_id = ?`,
			`DELETE FROM deletion_audit WHERE card_id = ?`,
		} {
			n, err := execCount(ctx, tx, stmt, id)
			if err != nil {
				return err
			}
			dependents += n
		}

		if slug.Valid {
			n, err := execCount(ctx, tx, `DELETE FROM donation_clicks WHERE card_slug = ?`, slug.String)
			if err != nil {
				return err
			}
			dependents += n
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return dependents, found, nil
}

func (s *Store) SweepExpired(ctx context.Context, now time.Time, clickCutoff time.Time, limit int) (model.SweepResult, error) {
	var result model.SweepResult
	err := s.withTx(ctx, "sweep expired cards", func(ctx context.Context, tx dbx.DBTX) error {
		ids, err := expiredIDs(ctx, tx, now, limit)
		if err != nil {
			return err
		}

		if len(ids) > 0 {
			in := inClause(len(ids))
			idArgs := int64Args(ids)

			for _, stmt := range []string{
				`DELETE FROM replies WHERE card_id IN ` + in,
				`DELETE FROM payments WHERE card_id IN ` + in,
			} {
				n, err := execCount(ctx, tx, stmt, idArgs...)
				if err != nil {
					return err
				}
				result.DependentsDeleted += n
			}

			auditArgs := append([]any{model.DeletionReasonExpired, toMillis(now)}, idArgs...)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO deletion_audit (card_id, slug, reason, deleted_at, prior_status)
				 SELECT id, slug, ?, ?, status FROM cards WHERE id IN `+in, auditArgs...); err != nil {
				return err
			}

			flipArgs := append([]any{toMillis(now), toMillis(now)}, idArgs...)
			n, err := execCount(ctx, tx,
				`UPDATE cards SET status = 'deleted', deleted_at = ?, updated_at = ?
				 WHERE status <> 'deleted' AND id IN `+in, flipArgs...)
			if err != nil {
				return err
			}
			result.RecordsDeleted = n
		}

		n, err := execCount(ctx, tx, `DELETE FROM donation_clicks WHERE created_at < ?`, toMillis(clickCutoff))
		if err != nil {
			return err
		}
		result.DependentsDeleted += n
		return nil
	})
	if err != nil {
		return model.SweepResult{}, err
	}
	return result, nil
}

func expiredIDs(ctx context.Context, tx dbx.DBTX, now time.Time, limit int) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM cards
		 WHERE status <> 'deleted' AND expires_at <= ?
		 ORDER BY expires_at, id LIMIT ?`, toMillis(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func execCount(ctx context.Context, q dbx.DBTX, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("rows affected", err)
	}
	return n == 1, nil
}

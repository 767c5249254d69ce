package service

import (
	"context"
	"fmt"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/repository"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100

	ActionFlag    = "flag"
	ActionUnflag  = "unflag"
	ActionRestore = "restore"

	adminActor = "admin"
)

// AdminService backs the moderation endpoints. Every status change goes
// through the lifecycle service so admin actions obey the same transitions
// as everything else.
type AdminService struct {
	store     repository.Store
	lifecycle *LifecycleService
}

func NewAdminService(store repository.Store, lifecycle *LifecycleService) *AdminService {
	return &AdminService{store: store, lifecycle: lifecycle}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultAdminPageSize
	}
	if limit > maxAdminPageSize {
		limit = maxAdminPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *AdminService) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, model.Meta, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.Meta{}, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, filter.Status)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	cards, total, err := s.store.ListCards(ctx, filter)
	if err != nil {
		return nil, model.Meta{}, err
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards, model.Meta{Limit: filter.Limit, Offset: filter.Offset, Total: total}, nil
}

func (s *AdminService) GetCardDetail(ctx context.Context, id int64) (*model.CardDetail, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.ListReplies(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByCard(ctx, id)
	if err != nil {
		return nil, err
	}
	deletions, err := s.store.ListDeletionsByCard(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.CardDetail{
		Card:      *card,
		Replies:   nonNil(replies),
		Payments:  nonNil(payments),
		Deletions: nonNil(deletions),
	}, nil
}

// ApplyAction runs a moderation action and returns the card as it is afterwards.
func (s *AdminService) ApplyAction(ctx context.Context, id int64, action string) (*model.Card, error) {
	var err error
	switch action {
	case ActionFlag:
		err = s.lifecycle.SetFlag(ctx, id, adminActor)
	case ActionUnflag:
		err = s.lifecycle.Unflag(ctx, id, adminActor)
	case ActionRestore:
		err = s.lifecycle.Restore(ctx, id, adminActor)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidInput, action)
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetCard(ctx, id)
}

// Delete soft-deletes by default; hard removes the card and its dependents.
func (s *AdminService) Delete(ctx context.Context, id int64, hard bool) (int64, error) {
	if hard {
		return s.lifecycle.HardDelete(ctx, id, adminActor)
	}
	return 0, s.lifecycle.SoftDelete(ctx, id, model.DeletionReasonModeration, adminActor)
}

func (s *AdminService) ListPayments(ctx context.Context, limit, offset int) ([]model.Payment, error) {
	limit, offset = clampPage(limit, offset)
	payments, err := s.store.ListPayments(ctx, limit, offset)
	return nonNil(payments), err
}

func (s *AdminService) ListDeletions(ctx context.Context, limit, offset int) ([]model.DeletionAudit, error) {
	limit, offset = clampPage(limit, offset)
	deletions, err := s.store.ListDeletions(ctx, limit, offset)
	return nonNil(deletions), err
}

func (s *AdminService) DonationAnalytics(ctx context.Context) ([]model.DonationAnalytics, error) {
	rows, err := s.store.DonationAnalytics(ctx)
	return nonNil(rows), err
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

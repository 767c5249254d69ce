package service

import (
	"context"
	"errors"
	"fmt"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/repository"
)

// LifecycleService owns every card status transition and the public
// visibility rule. Each transition is one conditional write; when it
// matches no row the current state is read back only to pick the error.
type LifecycleService struct {
	store repository.CardStore
	bus   event.Bus
	clock Clock
}

func NewLifecycleService(store repository.CardStore, bus event.Bus, clock Clock) *LifecycleService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &LifecycleService{store: store, bus: bus, clock: clock}
}

// Activate assigns slug to a pending card. A second activation of the same
// card fails with model.ErrInvalidTransition.
func (s *LifecycleService) Activate(ctx context.Context, id int64, slug string) error {
	return s.ActivateAs(ctx, id, slug, model.CardStatusActive)
}

// ActivateAs is Activate with the live status chosen by the caller, so a card
// that needs review becomes public already flagged in the same write.
func (s *LifecycleService) ActivateAs(ctx context.Context, id int64, slug string, to model.CardStatus) error {
	if to != model.CardStatusActive && to != model.CardStatusFlagged {
		return fmt.Errorf("%w: cannot activate into %s", model.ErrInvalidInput, to)
	}
	ok, err := s.store.ActivateCard(ctx, id, slug, to, s.clock.now())
	if err != nil {
		return err
	}
	if !ok {
		return s.rejected(ctx, id, "activate")
	}

	s.publish(event.TypeCardActivated, id, slug, "")
	if to == model.CardStatusFlagged {
		s.publish(event.TypeCardFlagged, id, slug, "moderation")
	}
	return nil
}

// SetFlag marks an active card for review. Flagging a flagged card is a no-op.
func (s *LifecycleService) SetFlag(ctx context.Context, id int64, actor string) error {
	return s.toggle(ctx, id, model.CardStatusActive, model.CardStatusFlagged, event.TypeCardFlagged, actor)
}

// Unflag clears a flag. Unflagging an active card is a no-op.
func (s *LifecycleService) Unflag(ctx context.Context, id int64, actor string) error {
	return s.toggle(ctx, id, model.CardStatusFlagged, model.CardStatusActive, event.TypeCardUnflagged, actor)
}

func (s *LifecycleService) toggle(ctx context.Context, id int64, from, to model.CardStatus, typ event.Type, actor string) error {
	ok, err := s.store.UpdateStatus(ctx, id, []model.CardStatus{from}, to, s.clock.now())
	if err != nil {
		return err
	}
	if ok {
		s.publish(typ, id, "", actor)
		return nil
	}

	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return err
	}
	if card.Status == to {
		return nil
	}
	return fmt.Errorf("%w: cannot move %s card to %s", model.ErrInvalidTransition, card.Status, to)
}

func (s *LifecycleService) SoftDelete(ctx context.Context, id int64, reason string, actor string) error {
	if reason == "" {
		reason = model.DeletionReasonModeration
	}
	ok, err := s.store.SoftDeleteCard(ctx, id, reason, s.clock.now())
	if err != nil {
		return err
	}
	if !ok {
		return s.rejected(ctx, id, "soft delete")
	}

	s.publish(event.TypeCardDeleted, id, "", actor)
	return nil
}

// HardDelete removes the card and its dependents. Deleting a card that no
// longer exists is an invalid transition, not a silent success.
func (s *LifecycleService) HardDelete(ctx context.Context, id int64, actor string) (int64, error) {
	dependents, found, err := s.store.HardDeleteCard(ctx, id)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: card %d does not exist", model.ErrInvalidTransition, id)
	}

	s.bus.Publish(event.Event{
		Type:    event.TypeCardPurged,
		CardID:  id,
		Actor:   actor,
		Payload: map[string]int64{"dependents_deleted": dependents},
	})
	return dependents, nil
}

// Restore reverses a soft delete while the retention deadline is still ahead.
// The deadline itself is left untouched.
func (s *LifecycleService) Restore(ctx context.Context, id int64, actor string) error {
	ok, err := s.store.RestoreCard(ctx, id, s.clock.now())
	if err != nil {
		return err
	}
	if !ok {
		card, err := s.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card.Status == model.CardStatusDeleted {
			return fmt.Errorf("%w: retention deadline has passed", model.ErrInvalidTransition)
		}
		return fmt.Errorf("%w: cannot restore %s card", model.ErrInvalidTransition, card.Status)
	}

	s.publish(event.TypeCardRestored, id, "", actor)
	return nil
}

// FetchPublic resolves a slug for recipients. Cards that are pending,
// deleted or missing are indistinguishable to the caller.
func (s *LifecycleService) FetchPublic(ctx context.Context, slug string) (*model.Card, error) {
	card, err := s.store.GetCardBySlug(ctx, slug)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !card.Status.Visible() {
		return nil, model.ErrNotFound
	}
	return card, nil
}

func (s *LifecycleService) rejected(ctx context.Context, id int64, op string) error {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot %s %s card", model.ErrInvalidTransition, op, card.Status)
}

func (s *LifecycleService) publish(typ event.Type, id int64, slug string, actor string) {
	s.bus.Publish(event.Event{Type: typ, CardID: id, Slug: slug, Actor: actor})
}

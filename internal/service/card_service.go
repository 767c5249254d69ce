package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/moderation"
	"go-birthday-card/internal/repository"
	"go-birthday-card/internal/util"
)

const defaultReplySender = "Anonymous"

type cardStore interface {
	repository.CardStore
	repository.ReplyStore
}

type CardService struct {
	store     cardStore
	lifecycle *LifecycleService
	slugs     *SlugAllocator
	filter    *moderation.Filter
	bus       event.Bus
	clock     Clock
	retention time.Duration
}

func NewCardService(store cardStore, lifecycle *LifecycleService, slugs *SlugAllocator, filter *moderation.Filter, bus event.Bus, clock Clock, retention time.Duration) *CardService {
	if bus == nil {
		bus = event.Nop{}
	}
	if filter == nil {
		filter = moderation.Default()
	}
	return &CardService{
		store:     store,
		lifecycle: lifecycle,
		slugs:     slugs,
		filter:    filter,
		bus:       bus,
		clock:     clock,
		retention: retention,
	}
}

// Create stores a free card under a fresh slug. Profane content is kept
// but the card goes straight to review as flagged.
func (s *CardService) Create(ctx context.Context, req model.CreateCardRequest) (*model.Card, error) {
	now := s.clock.now()
	card, flagged, err := buildCard(s.filter, req, model.CardStatusActive, now, s.retention)
	if err != nil {
		return nil, err
	}
	if flagged {
		card.Status = model.CardStatusFlagged
	}

	_, err = s.slugs.AllocateAndClaim(ctx, func(ctx context.Context, slug string) error {
		card.Slug = &slug
		return s.store.InsertCard(ctx, card)
	})
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	s.bus.Publish(event.Event{Type: event.TypeCardCreated, CardID: card.ID, Slug: card.SlugValue()})
	if flagged {
		s.bus.Publish(event.Event{Type: event.TypeCardFlagged, CardID: card.ID, Slug: card.SlugValue(), Actor: "moderation"})
	}

	return card, nil
}

func (s *CardService) GetPublic(ctx context.Context, slug string) (model.PublicCard, error) {
	card, err := s.lifecycle.FetchPublic(ctx, slug)
	if err != nil {
		return model.PublicCard{}, err
	}
	return card.Public(), nil
}

// AddReply stores a plain-text reply from the recipient with profanity masked.
func (s *CardService) AddReply(ctx context.Context, slug string, req model.ReplyRequest) (*model.Reply, error) {
	card, err := s.lifecycle.FetchPublic(ctx, slug)
	if err != nil {
		return nil, err
	}

	message := s.filter.Check(util.SanitizePlainText(req.Message)).Filtered
	if message == "" {
		return nil, fmt.Errorf("%w: reply message is empty", model.ErrInvalidInput)
	}

	sender := s.filter.Check(util.SanitizeTextField(req.Sender)).Filtered
	if sender == "" {
		sender = defaultReplySender
	}

	reply := &model.Reply{
		CardID:    card.ID,
		Message:   message,
		Sender:    sender,
		CreatedAt: s.clock.now(),
	}
	if err := s.store.InsertReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}

	s.bus.Publish(event.Event{Type: event.TypeReplyPosted, CardID: card.ID, Slug: slug})
	return reply, nil
}

// buildCard sanitizes the request into a card row and reports whether the
// text tripped the profanity filter.
func buildCard(filter *moderation.Filter, req model.CreateCardRequest, status model.CardStatus, now time.Time, retention time.Duration) (*model.Card, bool, error) {
	to := util.SanitizeTextField(req.To)
	from := util.SanitizeTextField(req.From)
	templateID := util.SanitizeTextField(req.TemplateID)
	message := util.SanitizeMessage(req.Message)

	if to == "" || from == "" || templateID == "" || util.StripHTML(message) == "" {
		return nil, false, fmt.Errorf("%w: to, from, message and templateId are required", model.ErrInvalidInput)
	}

	flagged, words := filter.CheckAll(to, from, util.StripHTML(message))

	payload, err := json.Marshal(model.CardPayload{
		To:           to,
		Message:      message,
		From:         from,
		TemplateID:   templateID,
		CakeOptions:  req.CakeOptions,
		AddOns:       req.AddOns,
		ColorPalette: req.ColorPalette,
		FontChoice:   req.FontChoice,
		Flagged:      flagged,
		FlaggedWords: words,
		CreatedAt:    now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: encode card: %v", model.ErrInvalidInput, err)
	}

	return &model.Card{
		TemplateID: templateID,
		Status:     status,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(retention),
	}, flagged, nil
}

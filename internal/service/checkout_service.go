package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/moderation"
	"go-birthday-card/internal/payment"
	"go-birthday-card/internal/repository"
)

const (
	WebhookProcessed        = "processed"
	WebhookAlreadyProcessed = "already_processed"
	WebhookIgnored          = "ignored"

	eventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	eventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
)

type checkoutStore interface {
	repository.CardStore
	repository.PaymentStore
}

type CheckoutResult struct {
	Slug             string
	AlreadyProcessed bool
}

// CheckoutService runs the paid flow: a pending card is stored with its
// order, and the first completed payment activates it. Captures and
// webhooks may repeat or race; every path converges on one slug.
type CheckoutService struct {
	store     checkoutStore
	provider  payment.Provider
	lifecycle *LifecycleService
	slugs     *SlugAllocator
	filter    *moderation.Filter
	bus       event.Bus
	clock     Clock
	retention time.Duration
	price     string
	currency  string
}

type CheckoutConfig struct {
	Retention time.Duration
	Price     string
	Currency  string
}

func NewCheckoutService(store checkoutStore, provider payment.Provider, lifecycle *LifecycleService, slugs *SlugAllocator, filter *moderation.Filter, bus event.Bus, clock Clock, cfg CheckoutConfig) *CheckoutService {
	if bus == nil {
		bus = event.Nop{}
	}
	if filter == nil {
		filter = moderation.Default()
	}
	return &CheckoutService{
		store:     store,
		provider:  provider,
		lifecycle: lifecycle,
		slugs:     slugs,
		filter:    filter,
		bus:       bus,
		clock:     clock,
		retention: cfg.Retention,
		price:     cfg.Price,
		currency:  cfg.Currency,
	}
}

func (s *CheckoutService) CreateOrder(ctx context.Context, req model.CreateCardRequest) (*model.Card, *model.Payment, error) {
	now := s.clock.now()
	card, _, err := buildCard(s.filter, req, model.CardStatusPending, now, s.retention)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.provider.CreateOrder(ctx, s.price, s.currency, "Digital Happy Birthday Card")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create order: %v", model.ErrPaymentFailed, err)
	}

	pay := &model.Payment{
		OrderID:   order.ID,
		Status:    model.PaymentStatusCreated,
		Amount:    s.price,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertCardWithPayment(ctx, card, pay); err != nil {
		return nil, nil, fmt.Errorf("store order: %w", err)
	}

	s.bus.Publish(event.Event{Type: event.TypeCardCreated, CardID: card.ID, Payload: map[string]string{"order_id": order.ID}})
	return card, pay, nil
}

func (s *CheckoutService) Capture(ctx context.Context, orderID string) (CheckoutResult, error) {
	pay, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if pay.Status == model.PaymentStatusCompleted {
		return s.settle(ctx, pay.CardID, true)
	}

	capture, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: capture: %v", model.ErrPaymentFailed, err)
	}
	if capture.Status != payment.StatusCompleted {
		return CheckoutResult{}, fmt.Errorf("%w: capture status %s", model.ErrPaymentFailed, capture.Status)
	}

	won, err := s.store.CompletePayment(ctx, orderID, capture.PayerEmail, capture.Raw, s.clock.now())
	if err != nil {
		return CheckoutResult{}, err
	}
	if won {
		s.bus.Publish(event.Event{Type: event.TypePaymentDone, CardID: pay.CardID, Payload: map[string]string{"order_id": orderID}})
	}
	return s.settle(ctx, pay.CardID, !won)
}

// HandleWebhook verifies and applies a provider event. Unknown orders and
// unhandled event types are acknowledged so the provider stops retrying.
func (s *CheckoutService) HandleWebhook(ctx context.Context, header http.Header, body []byte) (string, error) {
	if err := s.provider.VerifyWebhook(ctx, header, body); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}

	var evt model.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return "", fmt.Errorf("%w: webhook body: %v", model.ErrInvalidInput, err)
	}

	var orderID string
	switch evt.EventType {
	case eventCaptureCompleted:
		orderID = evt.Resource.SupplementaryData.RelatedIDs.OrderID
		if orderID == "" {
			orderID = evt.Resource.ID
		}
	case eventOrderApproved:
		orderID = evt.Resource.ID
	default:
		return WebhookIgnored, nil
	}
	if orderID == "" {
		return "", fmt.Errorf("%w: webhook event has no order id", model.ErrInvalidInput)
	}

	pay, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if errors.Is(err, model.ErrPaymentNotFound) {
		slog.Warn("webhook for unknown order", "order_id", orderID)
		return WebhookIgnored, nil
	}
	if err != nil {
		return "", err
	}

	won := false
	if pay.Status != model.PaymentStatusCompleted {
		won, err = s.store.CompletePayment(ctx, orderID, evt.Resource.Payer.EmailAddress, body, s.clock.now())
		if err != nil {
			return "", err
		}
	}

	result, err := s.settle(ctx, pay.CardID, !won)
	if err != nil {
		return "", err
	}
	if result.AlreadyProcessed {
		return WebhookAlreadyProcessed, nil
	}
	s.bus.Publish(event.Event{Type: event.TypePaymentDone, CardID: pay.CardID, Slug: result.Slug})
	return WebhookProcessed, nil
}

// settle makes sure the paid card is active with a slug. It also heals a
// card left pending by a crash between payment completion and activation.
func (s *CheckoutService) settle(ctx context.Context, cardID int64, already bool) (CheckoutResult, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if card.Slug != nil {
		return CheckoutResult{Slug: *card.Slug, AlreadyProcessed: already}, nil
	}
	if card.Status != model.CardStatusPending {
		return CheckoutResult{}, fmt.Errorf("%w: paid card is %s without a slug", model.ErrInvalidTransition, card.Status)
	}

	live := model.CardStatusActive
	var payload model.CardPayload
	if json.Unmarshal(card.Payload, &payload) == nil && payload.Flagged {
		live = model.CardStatusFlagged
	}

	slug, err := s.slugs.AllocateAndClaim(ctx, func(ctx context.Context, slug string) error {
		return s.lifecycle.ActivateAs(ctx, cardID, slug, live)
	})
	if errors.Is(err, model.ErrInvalidTransition) {
		// a concurrent capture activated it first
		card, gerr := s.store.GetCard(ctx, cardID)
		if gerr != nil {
			return CheckoutResult{}, gerr
		}
		if card.Slug != nil {
			return CheckoutResult{Slug: *card.Slug, AlreadyProcessed: already}, nil
		}
		return CheckoutResult{}, err
	}
	if err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{Slug: slug, AlreadyProcessed: already}, nil
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/repository"
	"go-birthday-card/internal/util"
)

const maxUserAgentRunes = 200

// DonationService records anonymous donation-button clicks. The client IP
// is never stored, only a salted hash prefix.
type DonationService struct {
	store repository.DonationStore
	salt  string
	clock Clock
}

func NewDonationService(store repository.DonationStore, salt string, clock Clock) *DonationService {
	return &DonationService{store: store, salt: salt, clock: clock}
}

func (s *DonationService) Track(ctx context.Context, req model.TrackDonationRequest, clientIP string, userAgent string) (*model.DonationClick, error) {
	slug := util.SanitizeTextField(req.Slug)
	if len(slug) < 4 {
		return nil, fmt.Errorf("%w: invalid card slug", model.ErrInvalidInput)
	}

	ua := []rune(userAgent)
	if len(ua) > maxUserAgentRunes {
		ua = ua[:maxUserAgentRunes]
	}

	click := &model.DonationClick{
		CardSlug:  slug,
		Provider:  req.Provider,
		Currency:  util.SanitizeTextField(req.Currency),
		Amount:    util.SanitizeTextField(req.Amount.String()),
		IPHash:    s.HashIP(clientIP),
		UserAgent: string(ua),
		CreatedAt: s.clock.now(),
	}
	if err := s.store.InsertDonationClick(ctx, click); err != nil {
		return nil, fmt.Errorf("track donation: %w", err)
	}
	return click, nil
}

func (s *DonationService) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *DonationService) Analytics(ctx context.Context) ([]model.DonationAnalytics, error) {
	return s.store.DonationAnalytics(ctx)
}

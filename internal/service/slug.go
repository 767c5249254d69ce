package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go-birthday-card/internal/model"
)

const (
	SlugLength      = 8
	MaxSlugAttempts = 10
	slugAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// SlugGenerator draws fixed-length base62 identifiers. The entropy source
// returns a uniform int in [0, n).
type SlugGenerator struct {
	intN func(n int) int
}

func NewSlugGenerator(intN func(n int) int) *SlugGenerator {
	if intN == nil {
		intN = rand.IntN
	}
	return &SlugGenerator{intN: intN}
}

func (g *SlugGenerator) Generate() string {
	buf := make([]byte, SlugLength)
	for i := range buf {
		buf[i] = slugAlphabet[g.intN(len(slugAlphabet))]
	}
	return string(buf)
}

type slugSource interface {
	Generate() string
}

type slugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SlugAllocator finds a slug no card has ever used. The unique index on
// cards.slug is what actually guarantees uniqueness; the existence check
// only avoids pointless writes.
type SlugAllocator struct {
	source      slugSource
	checker     slugChecker
	maxAttempts int
}

func NewSlugAllocator(source slugSource, checker slugChecker) *SlugAllocator {
	return &SlugAllocator{source: source, checker: checker, maxAttempts: MaxSlugAttempts}
}

func (a *SlugAllocator) Allocate(ctx context.Context) (string, error) {
	return a.AllocateAndClaim(ctx, nil)
}

// AllocateAndClaim hands each free candidate to claim. A claim that fails
// with model.ErrSlugTaken lost a race and counts as another collision.
func (a *SlugAllocator) AllocateAndClaim(ctx context.Context, claim func(ctx context.Context, slug string) error) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := a.source.Generate()
		exists, err := a.checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug candidate: %w", err)
		}
		if exists {
			continue
		}

		if claim == nil {
			return candidate, nil
		}
		err = claim(ctx, candidate)
		if errors.Is(err, model.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %d slug candidates collided", model.ErrExhaustedRetries, a.maxAttempts)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-birthday-card/internal/model"
)

func TestAdminListCardsClampsPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := NewAdminService(env.store, env.lifecycle)

	env.insertCard(t, model.CardStatusActive, "admin001")
	env.insertCard(t, model.CardStatusFlagged, "admin002")
	env.insertCard(t, model.CardStatusPending, "")

	cards, meta, err := admin.ListCards(ctx, model.CardFilter{Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, cards, 3)
	assert.Equal(t, model.Meta{Limit: 100, Offset: 0, Total: 3}, meta)

	cards, meta, err = admin.ListCards(ctx, model.CardFilter{Status: model.CardStatusFlagged})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "admin002", cards[0].SlugValue())
	assert.Equal(t, 20, meta.Limit)

	_, _, err = admin.ListCards(ctx, model.CardFilter{Status: "archived"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAdminActionsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := NewAdminService(env.store, env.lifecycle)
	card := env.insertCard(t, model.CardStatusActive, "admin003")

	got, err := admin.ApplyAction(ctx, card.ID, ActionFlag)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusFlagged, got.Status)

	got, err = admin.ApplyAction(ctx, card.ID, ActionUnflag)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusActive, got.Status)

	_, err = admin.ApplyAction(ctx, card.ID, "archive")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = admin.Delete(ctx, card.ID, false)
	require.NoError(t, err)

	detail, err := admin.GetCardDetail(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusDeleted, detail.Card.Status)
	require.Len(t, detail.Deletions, 1)
	assert.Equal(t, model.DeletionReasonModeration, detail.Deletions[0].Reason)
	assert.NotNil(t, detail.Replies)
	assert.NotNil(t, detail.Payments)

	got, err = admin.ApplyAction(ctx, card.ID, ActionRestore)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusActive, got.Status)

	deletions, err := admin.ListDeletions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, deletions, 1)

	dependents, err := admin.Delete(ctx, card.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dependents)

	_, err = admin.GetCardDetail(ctx, card.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = admin.Delete(ctx, card.ID, true)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

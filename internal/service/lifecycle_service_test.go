package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-birthday-card/internal/model"
)

func TestSetFlagIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusActive, "flagme01")

	require.NoError(t, env.lifecycle.SetFlag(ctx, card.ID, "admin"))
	require.NoError(t, env.lifecycle.SetFlag(ctx, card.ID, "admin"))
	assert.Equal(t, model.CardStatusFlagged, env.status(t, card.ID))

	require.NoError(t, env.lifecycle.Unflag(ctx, card.ID, "admin"))
	require.NoError(t, env.lifecycle.Unflag(ctx, card.ID, "admin"))
	assert.Equal(t, model.CardStatusActive, env.status(t, card.ID))
}

func TestTransitionsRejectedFromWrongState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending := env.insertCard(t, model.CardStatusPending, "")
	assert.ErrorIs(t, env.lifecycle.SetFlag(ctx, pending.ID, "admin"), model.ErrInvalidTransition)
	assert.ErrorIs(t, env.lifecycle.Unflag(ctx, pending.ID, "admin"), model.ErrInvalidTransition)
	assert.ErrorIs(t, env.lifecycle.Restore(ctx, pending.ID, "admin"), model.ErrInvalidTransition)

	deleted := env.insertCard(t, model.CardStatusActive, "gone0001")
	require.NoError(t, env.lifecycle.SoftDelete(ctx, deleted.ID, "", "admin"))
	assert.ErrorIs(t, env.lifecycle.SetFlag(ctx, deleted.ID, "admin"), model.ErrInvalidTransition)
	assert.ErrorIs(t, env.lifecycle.SoftDelete(ctx, deleted.ID, "", "admin"), model.ErrInvalidTransition)

	assert.ErrorIs(t, env.lifecycle.SetFlag(ctx, 4242, "admin"), model.ErrNotFound)
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, 4242, "nobody01"), model.ErrNotFound)
}

func TestFetchPublicHidesPendingAndDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	active := env.insertCard(t, model.CardStatusActive, "visible1")
	flagged := env.insertCard(t, model.CardStatusFlagged, "visible2")
	env.insertCard(t, model.CardStatusPending, "hidden01")
	deleted := env.insertCard(t, model.CardStatusActive, "hidden02")
	require.NoError(t, env.lifecycle.SoftDelete(ctx, deleted.ID, "", "admin"))

	got, err := env.lifecycle.FetchPublic(ctx, "visible1")
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	got, err = env.lifecycle.FetchPublic(ctx, "visible2")
	require.NoError(t, err)
	assert.Equal(t, flagged.ID, got.ID)

	for _, slug := range []string{"hidden01", "hidden02", "missing1"} {
		_, err := env.lifecycle.FetchPublic(ctx, slug)
		assert.ErrorIs(t, err, model.ErrNotFound, slug)
	}
}

func TestSlugNeverChangesAfterActivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusPending, "")

	require.NoError(t, env.lifecycle.Activate(ctx, card.ID, "first001"))
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, card.ID, "second01"), model.ErrInvalidTransition)

	require.NoError(t, env.lifecycle.SetFlag(ctx, card.ID, "admin"))
	require.NoError(t, env.lifecycle.Unflag(ctx, card.ID, "admin"))
	require.NoError(t, env.lifecycle.SoftDelete(ctx, card.ID, "", "admin"))
	require.NoError(t, env.lifecycle.Restore(ctx, card.ID, "admin"))

	got, err := env.store.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "first001", got.SlugValue())
}

func TestConcurrentActivateHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusPending, "")

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.lifecycle.Activate(ctx, card.ID, fmt.Sprintf("racer%03d", i))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, model.CardStatusActive, env.status(t, card.ID))
}

func TestRestoreKeepsDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusActive, "restore1")

	require.NoError(t, env.lifecycle.SoftDelete(ctx, card.ID, model.DeletionReasonModeration, "admin"))
	env.clock.Set(day0.Add(3 * 24 * time.Hour))
	require.NoError(t, env.lifecycle.Restore(ctx, card.ID, "admin"))

	got, err := env.store.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusActive, got.Status)
	assert.True(t, card.ExpiresAt.Equal(got.ExpiresAt))
	assert.Nil(t, got.DeletedAt)

	audits, err := env.store.ListDeletionsByCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, model.DeletionReasonModeration, audits[0].Reason)

	require.NoError(t, env.lifecycle.SoftDelete(ctx, card.ID, "", "admin"))
	env.clock.Set(day0.Add(8 * 24 * time.Hour))
	err = env.lifecycle.Restore(ctx, card.ID, "admin")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, model.CardStatusDeleted, env.status(t, card.ID))
}

func TestRestoreReturnsPriorStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending := env.insertCard(t, model.CardStatusPending, "")
	require.NoError(t, env.lifecycle.SoftDelete(ctx, pending.ID, "", "admin"))
	require.NoError(t, env.lifecycle.Restore(ctx, pending.ID, "admin"))
	assert.Equal(t, model.CardStatusPending, env.status(t, pending.ID))

	// a paid card restored before capture can still be activated
	require.NoError(t, env.lifecycle.Activate(ctx, pending.ID, "abcdEFGH"))
	got, err := env.lifecycle.FetchPublic(ctx, "abcdEFGH")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	flagged := env.insertCard(t, model.CardStatusFlagged, "flagged9")
	require.NoError(t, env.lifecycle.SoftDelete(ctx, flagged.ID, "", "admin"))
	require.NoError(t, env.lifecycle.Restore(ctx, flagged.ID, "admin"))
	assert.Equal(t, model.CardStatusFlagged, env.status(t, flagged.ID))

	// the latest delete wins
	require.NoError(t, env.lifecycle.Unflag(ctx, flagged.ID, "admin"))
	require.NoError(t, env.lifecycle.SoftDelete(ctx, flagged.ID, "", "admin"))
	require.NoError(t, env.lifecycle.Restore(ctx, flagged.ID, "admin"))
	assert.Equal(t, model.CardStatusActive, env.status(t, flagged.ID))
}

func TestHardDeleteRemovesCardAndDependents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusActive, "purge001")

	for i := range 3 {
		require.NoError(t, env.store.InsertReply(ctx, &model.Reply{
			CardID:    card.ID,
			Message:   fmt.Sprintf("thanks %d", i),
			Sender:    "Asha",
			CreatedAt: day0,
		}))
	}
	require.NoError(t, env.store.InsertDonationClick(ctx, &model.DonationClick{
		CardSlug: "purge001", Provider: "bmac", Currency: "INR", Amount: "19", CreatedAt: day0,
	}))

	dependents, err := env.lifecycle.HardDelete(ctx, card.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(4), dependents)

	_, err = env.store.GetCard(ctx, card.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	replies, err := env.store.ListReplies(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, replies)

	_, err = env.lifecycle.HardDelete(ctx, card.ID, "admin")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

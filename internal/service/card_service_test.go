package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-birthday-card/internal/model"
	"go-birthday-card/internal/moderation"
)

func TestCreateCardIsActiveWithSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := cardRequest(`<p>Have a <b>great</b> day</p><script>alert(1)</script>`)
	req.To = "  Asha\u200b "
	card, err := env.cards.Create(ctx, req)
	require.NoError(t, err)

	assert.Regexp(t, slugPattern, card.SlugValue())
	assert.Equal(t, model.CardStatusActive, card.Status)
	assert.True(t, card.ExpiresAt.Equal(day0.Add(testRetention)))

	public, err := env.cards.GetPublic(ctx, card.SlugValue())
	require.NoError(t, err)
	assert.Equal(t, "classic", public.TemplateID)

	var payload model.CardPayload
	require.NoError(t, json.Unmarshal(public.Card, &payload))
	assert.Equal(t, "Asha", payload.To)
	assert.Contains(t, payload.Message, "<b>great</b>")
	assert.NotContains(t, payload.Message, "script")
	assert.False(t, payload.Flagged)
	assert.EqualValues(t, 2, payload.CakeOptions["layers"])
}

func TestCreateCardWithProfanityIsFlagged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	card, err := env.cards.Create(ctx, cardRequest("you damn legend"))
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusFlagged, card.Status)
	assert.Equal(t, model.CardStatusFlagged, env.status(t, card.ID))

	// flagged cards stay reachable by their link
	public, err := env.cards.GetPublic(ctx, card.SlugValue())
	require.NoError(t, err)

	var payload model.CardPayload
	require.NoError(t, json.Unmarshal(public.Card, &payload))
	assert.True(t, payload.Flagged)
	assert.Equal(t, []string{"damn"}, payload.FlaggedWords)
	assert.Equal(t, "you damn legend", payload.Message)
}

func TestCreateProfaneCardIsFlaggedInOneWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store := failingStatusStore{env.store}
	lifecycle := NewLifecycleService(store, env.bus, env.clock.Now)
	cards := NewCardService(store, lifecycle, env.slugs, moderation.Default(), env.bus, env.clock.Now, testRetention)

	card, err := cards.Create(ctx, cardRequest("you are a bastard"))
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusFlagged, card.Status)
	assert.Equal(t, model.CardStatusFlagged, env.status(t, card.ID))

	listed, total, err := env.store.ListCards(ctx, model.CardFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, model.CardStatusFlagged, listed[0].Status)
}

func TestCreateCardRejectsEmptyFields(t *testing.T) {
	env := newTestEnv(t)

	req := cardRequest("<script>only script</script>")
	_, err := env.cards.Create(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	req = cardRequest("hello")
	req.From = "<b></b>"
	_, err = env.cards.Create(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCreateCardSurfacesExhaustedSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.insertCard(t, model.CardStatusDeleted, "samesame")

	env.cards.slugs = NewSlugAllocator(&fixedSource{slugs: []string{"samesame"}}, env.store)
	_, err := env.cards.Create(ctx, cardRequest("hello"))
	assert.ErrorIs(t, err, model.ErrExhaustedRetries)
}

func TestAddReplySanitizesAndMasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.insertCard(t, model.CardStatusActive, "reply001")

	reply, err := env.cards.AddReply(ctx, "reply001", model.ReplyRequest{Message: "<i>thanks</i> you crap friend"})
	require.NoError(t, err)
	assert.Equal(t, "thanks you **** friend", reply.Message)
	assert.Equal(t, "Anonymous", reply.Sender)
	assert.Equal(t, card.ID, reply.CardID)

	replies, err := env.store.ListReplies(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 1)

	env.insertCard(t, model.CardStatusPending, "reply002")
	_, err = env.cards.AddReply(ctx, "reply002", model.ReplyRequest{Message: "hi"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = env.cards.AddReply(ctx, "reply001", model.ReplyRequest{Message: "<b></b>"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

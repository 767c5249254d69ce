package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-birthday-card/internal/database"
	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/moderation"
	sqlitestore "go-birthday-card/internal/repository/sqlite"
)

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const testRetention = 7 * 24 * time.Hour

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type testEnv struct {
	store     *sqlitestore.Store
	clock     *fakeClock
	bus       *event.InMemoryBus
	lifecycle *LifecycleService
	slugs     *SlugAllocator
	cards     *CardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cards.db"))
	require.NoError(t, err)
	require.NoError(t, database.MigrateSQLite(ctx, db))

	store := sqlitestore.New(db)
	t.Cleanup(func() { _ = store.Close() })

	clock := newFakeClock(day0)
	bus := event.NewBus()
	lifecycle := NewLifecycleService(store, bus, clock.Now)
	slugs := NewSlugAllocator(NewSlugGenerator(nil), store)

	return &testEnv{
		store:     store,
		clock:     clock,
		bus:       bus,
		lifecycle: lifecycle,
		slugs:     slugs,
		cards:     NewCardService(store, lifecycle, slugs, moderation.Default(), bus, clock.Now, testRetention),
	}
}

// insertCard stores a card directly, bypassing the services.
func (e *testEnv) insertCard(t *testing.T, status model.CardStatus, slug string) *model.Card {
	t.Helper()
	payload, err := json.Marshal(model.CardPayload{To: "Asha", Message: "Happy birthday", From: "Ravi", TemplateID: "classic"})
	require.NoError(t, err)

	now := e.clock.Now()
	card := &model.Card{
		TemplateID: "classic",
		Status:     status,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(testRetention),
	}
	if slug != "" {
		card.Slug = &slug
	}
	require.NoError(t, e.store.InsertCard(context.Background(), card))
	return card
}

func (e *testEnv) status(t *testing.T, id int64) model.CardStatus {
	t.Helper()
	card, err := e.store.GetCard(context.Background(), id)
	require.NoError(t, err)
	return card.Status
}

// failingStatusStore refuses every plain status update, so a flow that relies
// on a second write after insert or activation shows up as an error.
type failingStatusStore struct {
	*sqlitestore.Store
}

func (failingStatusStore) UpdateStatus(context.Context, int64, []model.CardStatus, model.CardStatus, time.Time) (bool, error) {
	return false, model.ErrStoreUnavailable
}

func cardRequest(message string) model.CreateCardRequest {
	return model.CreateCardRequest{
		To:          "Asha",
		Message:     message,
		From:        "Ravi",
		TemplateID:  "classic",
		CakeOptions: map[string]any{"layers": 2, "candles": 5},
	}
}

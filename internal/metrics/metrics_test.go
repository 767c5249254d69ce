package metrics

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/cards/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/cards/{slug}", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cards/abcd1234", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/cards/{slug}", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordEvents(t *testing.T) {
	bus := event.NewBus()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RecordEvents(ctx, bus, logger)
		close(done)
	}()

	before := testutil.ToFloat64(SweepRecordsDeleted)
	// wait for the subscription to register
	assert.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(event.Event{Type: event.TypeSweepFinished, Payload: model.SweepResult{RecordsDeleted: 2, DependentsDeleted: 5}})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(SweepRecordsDeleted) == before+2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

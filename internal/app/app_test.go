package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-birthday-card/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerPort:      "0",
		RequestTimeout:  5 * time.Second,
		StoreBackend:    config.BackendSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "nested", "cards.db"),
		DBMaxConns:      1,
		RetentionWindow: 7 * 24 * time.Hour,
		SweepBatchSize:  10,
		CronSecret:      "cron",
		AdminToken:      "admin",
		JWTSecret:       "jwt",
		AdminSessionTTL: time.Hour,
		CORSOrigins:     []string{"*"},
		RateLimitRPM:    100,
		PublicBaseURL:   "http://localhost",
		PaymentProvider: "sandbox",
		CardPrice:       "19.00",
		CardCurrency:    "INR",
		LogFormat:       "text",
	}
}

func TestNewOpensSQLiteAndServes(t *testing.T) {
	ctx := context.Background()
	application, err := New(ctx, testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(application.Close)

	result, err := application.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.RecordsDeleted)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpenStoreRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "mongo"

	_, _, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	cfg := testConfig(t)
	cfg.SweepSchedule = "every now and then"

	application, err := New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(application.Close)

	_, err = application.startScheduler(context.Background())
	assert.Error(t, err)

	cfg.SweepSchedule = "@every 1h"
	scheduler, err := application.startScheduler(context.Background())
	require.NoError(t, err)
	require.NotNil(t, scheduler)
	<-scheduler.Stop().Done()
}

func TestIPHashSalt(t *testing.T) {
	assert.Equal(t, "fixed", ipHashSalt("fixed"))
	generated := ipHashSalt("")
	assert.Len(t, generated, 32)
	assert.NotEqual(t, generated, ipHashSalt(""))
}

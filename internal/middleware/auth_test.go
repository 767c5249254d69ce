package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAdmin struct{ accept string }

func (s stubAdmin) Authenticate(credential string) error {
	if credential == s.accept {
		return nil
	}
	return errors.New("unauthorized")
}

func TestRequireAdmin(t *testing.T) {
	mw := NewAuthMiddleware(stubAdmin{accept: "letmein"}, "cron-secret")
	handler := mw.RequireAdmin(okHandler)

	cases := []struct {
		name  string
		setup func(r *http.Request)
		want  int
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer letmein") }, http.StatusOK},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer letmein") }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=letmein" }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin_token", Value: "letmein"}) }, http.StatusOK},
		{"wrong", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/cards", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireCron(t *testing.T) {
	handler := NewAuthMiddleware(stubAdmin{}, "cron-secret").RequireCron(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cron/cleanup?token=cron-secret", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cron/cleanup", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cron/cleanup", nil)
	req.Header.Set("Authorization", "Bearer guess")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unset := NewAuthMiddleware(stubAdmin{}, "").RequireCron(okHandler)
	rec = httptest.NewRecorder()
	unset.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cron/cleanup?token=", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

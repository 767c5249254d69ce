package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go-birthday-card/pkg/apierror"
)

const adminCookieName = "admin_token"

type adminAuthenticator interface {
	Authenticate(credential string) error
}

type AuthMiddleware struct {
	admin      adminAuthenticator
	cronSecret []byte
}

func NewAuthMiddleware(admin adminAuthenticator, cronSecret string) *AuthMiddleware {
	return &AuthMiddleware{admin: admin, cronSecret: []byte(strings.TrimSpace(cronSecret))}
}

// RequireAdmin accepts the admin secret or an admin session token from the
// Authorization header, the token query parameter or the admin_token cookie.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r)
		if credential == "" {
			credential = r.URL.Query().Get("token")
		}
		if credential == "" {
			if cookie, err := r.Cookie(adminCookieName); err == nil {
				credential = cookie.Value
			}
		}

		if credential == "" {
			writeAPIError(w, apierror.Unauthorized("admin credentials required"))
			return
		}
		if err := m.admin.Authenticate(credential); err != nil {
			writeAPIError(w, apierror.Unauthorized("invalid admin credentials"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireCron guards scheduler endpoints with the shared cron secret.
func (m *AuthMiddleware) RequireCron(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r)
		if credential == "" {
			credential = r.URL.Query().Get("token")
		}

		if len(m.cronSecret) == 0 || subtle.ConstantTimeCompare(m.cronSecret, []byte(credential)) != 1 {
			writeAPIError(w, apierror.Unauthorized("invalid cron secret"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

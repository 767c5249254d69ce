package service

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-birthday-card/internal/model"
)

const (
	adminSubject     = "admin"
	adminSessionType = "admin_session"
)

// AdminAuth checks the shared admin secret and issues short-lived sessions
// for it. The secret is matched against a bcrypt hash when one is
// configured, otherwise against the plain token in constant time.
type AdminAuth struct {
	token      []byte
	tokenHash  []byte
	jwtSecret  []byte
	sessionTTL time.Duration
	clock      Clock
}

func NewAdminAuth(token string, tokenHash string, jwtSecret string, sessionTTL time.Duration, clock Clock) *AdminAuth {
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AdminAuth{
		token:      []byte(strings.TrimSpace(token)),
		tokenHash:  []byte(strings.TrimSpace(tokenHash)),
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		clock:      clock,
	}
}

// VerifyToken reports whether candidate is the configured admin secret.
func (a *AdminAuth) VerifyToken(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if len(a.tokenHash) > 0 {
		return bcrypt.CompareHashAndPassword(a.tokenHash, []byte(candidate)) == nil
	}
	if len(a.token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.token, []byte(candidate)) == 1
}

// IssueSession exchanges the admin secret for a signed session token.
func (a *AdminAuth) IssueSession(secret string) (model.AdminSession, error) {
	if !a.VerifyToken(secret) {
		return model.AdminSession{}, fmt.Errorf("%w: invalid admin token", model.ErrUnauthorized)
	}

	now := a.clock.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": adminSubject,
		"typ": adminSessionType,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(a.sessionTTL).Unix(),
	})
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return model.AdminSession{}, fmt.Errorf("sign admin session: %w", err)
	}

	return model.AdminSession{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.sessionTTL.Seconds()),
	}, nil
}

// ValidateSession parses a session token issued by IssueSession.
func (a *AdminAuth) ValidateSession(tokenString string) error {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.clock.now), jwt.WithSubject(adminSubject))
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: invalid session", model.ErrUnauthorized)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("%w: invalid session claims", model.ErrUnauthorized)
	}
	if typ, _ := claims["typ"].(string); typ != adminSessionType {
		return fmt.Errorf("%w: invalid session type", model.ErrUnauthorized)
	}
	return nil
}

// Authenticate accepts either a session token or the raw admin secret.
func (a *AdminAuth) Authenticate(credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("%w: missing admin credential", model.ErrUnauthorized)
	}
	if a.VerifyToken(credential) {
		return nil
	}
	return a.ValidateSession(credential)
}

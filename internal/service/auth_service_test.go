package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-birthday-card/internal/model"
)

func TestAdminAuthPlainToken(t *testing.T) {
	t.Parallel()

	auth := NewAdminAuth("s3cret", "", "jwt-secret", time.Hour, nil)
	assert.True(t, auth.VerifyToken("s3cret"))
	assert.True(t, auth.VerifyToken(" s3cret "))
	assert.False(t, auth.VerifyToken("s3cre"))
	assert.False(t, auth.VerifyToken(""))

	assert.NoError(t, auth.Authenticate("s3cret"))
	assert.ErrorIs(t, auth.Authenticate("nope"), model.ErrUnauthorized)
	assert.ErrorIs(t, auth.Authenticate(""), model.ErrUnauthorized)
}

func TestAdminAuthHashedToken(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAdminAuth("ignored", string(hash), "jwt-secret", time.Hour, nil)
	assert.True(t, auth.VerifyToken("hashed-secret"))
	assert.False(t, auth.VerifyToken("ignored"))
}

func TestAdminSessionRoundTrip(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(day0)
	auth := NewAdminAuth("s3cret", "", "jwt-secret", time.Hour, clock.Now)

	_, err := auth.IssueSession("wrong")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	session, err := auth.IssueSession("s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)

	require.NoError(t, auth.Authenticate(session.AccessToken))

	other := NewAdminAuth("s3cret", "", "different", time.Hour, clock.Now)
	assert.ErrorIs(t, other.ValidateSession(session.AccessToken), model.ErrUnauthorized)

	clock.Set(day0.Add(2 * time.Hour))
	assert.ErrorIs(t, auth.ValidateSession(session.AccessToken), model.ErrUnauthorized)
}

func TestAdminSessionRejectsOtherTokenTypes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(day0)
	auth := NewAdminAuth("s3cret", "", "jwt-secret", time.Hour, clock.Now)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"typ": "access",
		"exp": day0.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	assert.ErrorIs(t, auth.ValidateSession(signed), model.ErrUnauthorized)
}

package auth

import (
	"context"
	"testing"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() models.User {
	return models.User{ID: gocql.TimeUUID(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@shop.test"}
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", 7*24*time.Hour)
	user := testUser()

	token, issued, err := tm.Issue(user)
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Username)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, issued.ID, claims.ID)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), claims.Remaining().Seconds(), 5)
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	_, a, err := tm.Issue(testUser())
	require.NoError(t, err)
	_, b, err := tm.Issue(testUser())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("secret", -time.Minute)
		token, _, err := expired.Issue(testUser())
		require.NoError(t, err)
		_, err = tm.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", time.Hour)
		token, _, err := other.Issue(testUser())
		require.NoError(t, err)
		_, err = tm.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := Claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLocalStrategy(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	user := testUser()
	user.Password = hash
	require.NoError(t, store.Users().Create(ctx, &user))

	st := NewLocalStrategy(store.Users())

	got, err := st.Authenticate(ctx, Credentials{Email: " ADA@shop.test ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = st.Authenticate(ctx, Credentials{Email: "ada@shop.test", Password: "nope"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = st.Authenticate(ctx, Credentials{Email: "ghost@shop.test", Password: "s3cret"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestStrategies_Get(t *testing.T) {
	s := NewStrategies(NewLocalStrategy(repository.NewMemory().Users()))

	st, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderLocal, st.Name())

	_, err = s.Get("ldap")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestIdentityFromGoth(t *testing.T) {
	id := identityFromGoth(goth.User{Provider: "google", UserID: "g-1", Email: "a@b.io", Name: "Ada"})
	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "g-1", id.ProviderID)
	assert.Equal(t, "Ada", id.FirstName)
}

func TestCheckProvider_Unknown(t *testing.T) {
	assert.ErrorIs(t, checkProvider("github"), ErrUnknownProvider)
}

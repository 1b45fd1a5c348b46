package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenConfig(t *testing.T) {
	t.Helper()

	viper.Set("jwt.secret", "test-secret")
	viper.Set("jwt.algorithm", "HS256")
	viper.Set("jwt.access_expire_minutes", 30)
	viper.Set("jwt.refresh_expire_days", 7)
}

func TestTokenRoundTrip(t *testing.T) {
	setupTokenConfig(t)

	access, refresh, err := IssueTokens("user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	email, err := VerifyToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	email, err = VerifyToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestVerifyMalformedToken(t *testing.T) {
	setupTokenConfig(t)

	for _, tok := range []string{"", "nonsense", "one.two", "a.b.c.d"} {
		_, err := VerifyToken(tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tok)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	setupTokenConfig(t)

	access, err := IssueAccessToken("user@example.com", time.Time{})
	require.NoError(t, err)

	viper.Set("jwt.secret", "a-different-secret")
	defer viper.Set("jwt.secret", "test-secret")

	_, err = VerifyToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	setupTokenConfig(t)

	access, err := IssueAccessToken("user@example.com", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = VerifyToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExplicitExpiryOverridesDefault(t *testing.T) {
	setupTokenConfig(t)

	access, err := IssueAccessToken("user@example.com", time.Now().Add(time.Hour))
	require.NoError(t, err)

	token, err := jwt.Parse(access, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	exp, err := token.Claims.GetExpirationTime()
	require.NoError(t, err)

	// Default would have been 30 minutes out
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, 5*time.Second)
}

func TestVerifyTokenWithoutIdentity(t *testing.T) {
	setupTokenConfig(t)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	assert.ErrorIs(t, err, ErrTokenMissingIdentity)
}

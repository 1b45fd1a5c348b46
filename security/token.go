// Package security handles issuing and verifying the signed tokens
// that authenticate requests
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

var (
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenInvalid         = errors.New("token signature is invalid or token has expired")
	ErrTokenMissingIdentity = errors.New("token carries no identity claim")
)

func signingMethod() jwt.SigningMethod {
	switch viper.GetString("jwt.algorithm") {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

func secret() []byte {
	return []byte(viper.GetString("jwt.secret"))
}

// IssueAccessToken mints a short-lived access token for the given user.
// A non-zero explicitExp overrides the configured default expiry.
func IssueAccessToken(email string, explicitExp time.Time) (string, error) {
	exp := explicitExp
	if exp.IsZero() {
		exp = time.Now().Add(time.Duration(viper.GetInt("jwt.access_expire_minutes")) * time.Minute)
	}

	t := jwt.NewWithClaims(signingMethod(), jwt.MapClaims{
		"user_email": email,
		"iat":        time.Now().Unix(),
		"exp":        exp.Unix(),
	})

	return t.SignedString(secret())
}

// IssueRefreshToken mints a longer-lived refresh token bound to the
// same identity.
func IssueRefreshToken(email string) (string, error) {
	t := jwt.NewWithClaims(signingMethod(), jwt.MapClaims{
		"user_email": email,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(time.Duration(viper.GetInt("jwt.refresh_expire_days")) * 24 * time.Hour).Unix(),
	})

	return t.SignedString(secret())
}

// IssueTokens mints an access and a refresh token in one go, which is
// what both login flows hand to the client.
func IssueTokens(email string) (access string, refresh string, err error) {
	access, err = IssueAccessToken(email, time.Time{})
	if err != nil {
		return "", "", err
	}

	refresh, err = IssueRefreshToken(email)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// VerifyToken decodes a token and returns the identity it carries.
// Access and refresh tokens share the same shape so both go through
// here.
func VerifyToken(tokenStr string) (string, error) {
	if len(strings.Split(tokenStr, ".")) != 3 {
		return "", ErrTokenMalformed
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != signingMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return secret(), nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}

	email, ok := claims["user_email"].(string)
	if !ok || email == "" {
		return "", ErrTokenMissingIdentity
	}

	return email, nil
}

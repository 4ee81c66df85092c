package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWTRoundTrip(t *testing.T) {
	uid := primitive.NewObjectID()
	tok, err := signJWT(testSecret, uid)
	require.NoError(t, err)

	got, err := parseJWT(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = parseJWT("other-secret", tok)
	assert.Error(t, err)
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	sub := primitive.NewObjectID().Hex()

	_, err := parseJWT(testSecret, sign(jwt.MapClaims{"sub": sub, "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix()}))
	assert.Error(t, err, "issuer")

	_, err = parseJWT(testSecret, sign(jwt.MapClaims{"sub": sub, "iss": jwtIssuer, "exp": time.Now().Add(-time.Hour).Unix()}))
	assert.Error(t, err, "expired")

	_, err = parseJWT(testSecret, sign(jwt.MapClaims{"sub": sub, "iss": jwtIssuer}))
	assert.Error(t, err, "no exp")

	_, err = parseJWT(testSecret, sign(jwt.MapClaims{"sub": "nope", "iss": jwtIssuer, "exp": time.Now().Add(time.Hour).Unix()}))
	assert.Error(t, err, "bad subject")
}

// Package jwtexp reads the expiry of bearer tokens issued by the backend.
//
// Tokens are never verified here: the backend owns the signing key and remains the
// authority on validity. The exp claim is only used to size storage TTLs.
package jwtexp

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry returns the exp claim of token. ok is false for opaque tokens or tokens
// without an exp claim.
func Expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TTL returns how long token should be kept relative to now. Tokens without a
// readable expiry get fallback; expired tokens get zero.
func TTL(token string, now time.Time, fallback time.Duration) time.Duration {
	exp, ok := Expiry(token)
	if !ok {
		return fallback
	}
	ttl := exp.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

// Expired reports whether token carries an exp claim in the past.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !exp.After(now)
}

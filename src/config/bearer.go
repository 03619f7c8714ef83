package config

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerExpiry reports the exp claim when the bearer token is a JWT. The
// signature is not checked; the API does that.
func BearerExpiry(token string) (time.Time, bool) {
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

package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims carries the session id in the cookie token.
type claims struct {
	jwt.RegisteredClaims
}

func signToken(sessionID string, secret []byte, issuedAt time.Time, ttl time.Duration) (string, error) {
	if sessionID == "" {
		return "", errors.New("session: empty id")
	}
	c := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// parseToken validates a cookie token and returns the session id.
func parseToken(tokenString string, secret []byte) (string, error) {
	if tokenString == "" {
		return "", errors.New("session: empty token")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	c := &claims{}
	token, err := parser.ParseWithClaims(tokenString, c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("session: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || c.Subject == "" {
		return "", errors.New("session: invalid token")
	}
	return c.Subject, nil
}

package jwt

import (
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("jwt: invalid token")

// Claims are the verified claims of a token.
type Claims struct {
	Subject   string
	Audience  []string
	ID        string
	ExpiresAt time.Time
}

// Signer defines methods for signing and verifying JWT tokens.
type Signer interface {
	Sign(subject string, audience []string, duration time.Duration) (token string, err error)
	Verify(tokenString string) (*Claims, error)
}

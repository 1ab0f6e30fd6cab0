package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator validates the shared-secret admin token. It is the only
// authentication in the system; handlers call it through the middleware and
// never compare secrets inline.
type Authenticator interface {
	Authorize(presented string) bool
}

// TokenAuth compares against a plain token (constant time) or, when
// configured, a bcrypt hash of it. With neither configured every request is
// rejected, so an unconfigured deployment fails closed.
type TokenAuth struct {
	token string
	hash  []byte
}

func NewTokenAuth(token, bcryptHash string) *TokenAuth {
	return &TokenAuth{token: token, hash: []byte(bcryptHash)}
}

func (a *TokenAuth) Authorize(presented string) bool {
	if presented == "" {
		return false
	}
	if len(a.hash) > 0 {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(presented)) == nil
	}
	if a.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.token), []byte(presented)) == 1
}

package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims holds JWT claims for the client session token. The token binds
// the username to the user's current auth secret; rotating the secret renders
// all previously issued tokens unverifiable.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	AuthSecret string `json:"authSecret"`
}

// TokenProvider issues and parses HS256-signed session tokens.
// The signing key is process configuration, shared by all instances.
type TokenProvider struct {
	secret []byte
	issuer string
}

// NewTokenProvider returns a TokenProvider that signs with the given HMAC secret.
// issuer is set on claims and validated on parse.
func NewTokenProvider(secret []byte, issuer string) *TokenProvider {
	return &TokenProvider{secret: secret, issuer: issuer}
}

// Issue signs a session token binding username and authSecret.
// Tokens carry no expiry; they are invalidated by rotating the auth secret.
func (p *TokenProvider) Issue(username, authSecret string) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			Issuer:   p.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
		Username:   username,
		AuthSecret: authSecret,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Parse validates the token (signature, iss) and returns the username and
// auth secret it carries. Returns ErrInvalidToken for any parse or
// verification failure.
func (p *TokenProvider) Parse(tokenString string) (username, authSecret string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", "", ErrInvalidToken
	}
	if claims.Username == "" || claims.AuthSecret == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Username, claims.AuthSecret, nil
}

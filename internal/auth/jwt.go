package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity claims issued to factory staff at login.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the stable subject used for audit and stock attribution,
// preferring the registered subject and falling back to the username.
func (c *Claims) Identity() string {
	if c == nil {
		return ""
	}
	if subject := strings.TrimSpace(c.Subject); subject != "" {
		return subject
	}
	return strings.TrimSpace(c.Username)
}

// Verifier checks HS256 bearer tokens against the shared signing secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a token verifier. The secret must not be empty.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty signing secret", ErrInvalidToken)
	}
	return &Verifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Verify parses and validates a bearer token, returning its claims and the
// normalized role.
func (v *Verifier) Verify(tokenString string) (*Claims, Role, error) {
	if v == nil || len(v.secret) == 0 {
		return nil, "", ErrInvalidToken
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, "", ErrUnauthorized
	}
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, "", ErrInvalidToken
	}
	role, ok := NormalizeRole(claims.Role)
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, role, nil
}

package session

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/tenantgate/pkg/rbac"
)

// Claims is the identity token payload
type Claims struct {
	jwt.RegisteredClaims
	UserID      string       `json:"id"`
	Username    string       `json:"username"`
	Permissions []rbac.Grant `json:"permissions"`
}

// User converts the claims into the checker's user type
func (c *Claims) User() *rbac.User {
	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	return &rbac.User{
		ID:          userID,
		Username:    c.Username,
		Permissions: c.Permissions,
	}
}

// JWTProvider verifies HMAC-signed identity tokens
type JWTProvider struct {
	secret []byte
	issuer string
}

// NewJWTProvider creates a provider. An empty issuer accepts any issuer.
func NewJWTProvider(secret []byte, issuer string) *JWTProvider {
	return &JWTProvider{secret: secret, issuer: issuer}
}

// Resolve verifies token and returns the user it describes
func (p *JWTProvider) Resolve(_ context.Context, token string) (*rbac.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	user := claims.User()
	if user.ID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return user, nil
}

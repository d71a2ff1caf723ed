package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/helixlab/helixdash/internal/app/models"
)

// Claims is the access token payload. Backends differ in naming, so both
// user_id and sub are read, and username stands in for a missing name.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid access token")

// DecodeUser reads the user and expiry from an access token. With a secret the
// HMAC signature is verified; without one the token is only decoded, since it
// is an opaque credential for the backend and is used here for display. The
// returned time is zero when the token has no exp claim. Expiry is not
// enforced here.
func DecodeUser(token, secret string) (*models.User, time.Time, error) {
	if token == "" {
		return nil, time.Time{}, ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	)

	if secret != "" {
		parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		if !parsed.Valid {
			return nil, time.Time{}, ErrInvalidToken
		}
	} else {
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	user := &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if user.Name == "" {
		user.Name = claims.Username
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.ID == "" && user.Email == "" {
		return nil, time.Time{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return user, exp, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

// TokenPair bundles the short-lived access token with its refresh companion.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the subject recovered from a validated token.
type Identity struct {
	UserID uuid.UUID
	Role   model.UserRole
}

// Strategy issues and validates signed tokens. An access token is never
// accepted where a refresh token is required and vice versa.
type Strategy interface {
	IssuePair(userID uuid.UUID, role model.UserRole) (TokenPair, error)
	ParseAccess(token string) (*Identity, error)
	ParseRefresh(token string) (*Identity, error)
	Name() string
}

// Options tune token lifetimes. Access and refresh lifetimes are independent
// values in their natural units.
type Options struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTStrategy implements Strategy with HS256 signed JWTs.
type JWTStrategy struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
}

// NewJWTStrategy builds JWTStrategy with provided secret and options.
func NewJWTStrategy(secret string, opts Options) *JWTStrategy {
	accessTTL := opts.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &JWTStrategy{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair generates an access/refresh token pair for the user.
func (s *JWTStrategy) IssuePair(userID uuid.UUID, role model.UserRole) (TokenPair, error) {
	access, err := s.issue(userID, role, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issue(userID, role, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess validates an access token and returns the encoded identity.
func (s *JWTStrategy) ParseAccess(token string) (*Identity, error) {
	return s.parse(token, tokenTypeAccess)
}

// ParseRefresh validates a refresh token and returns the encoded identity.
func (s *JWTStrategy) ParseRefresh(token string) (*Identity, error) {
	return s.parse(token, tokenTypeRefresh)
}

func (s *JWTStrategy) Name() string {
	return "jwt-hs256"
}

func (s *JWTStrategy) issue(userID uuid.UUID, role model.UserRole, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      string(role),
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *JWTStrategy) parse(token, wantType string) (*Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID, Role: model.UserRole(c.Role)}, nil
}

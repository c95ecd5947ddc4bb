package test

import (
	"errors"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied password.
func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return "hash:" + password, nil
}

// Compare validates password against stored hash.
func (h HasherStub) Compare(hash string, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// StrategyStub issues and parses token pairs via function overrides.
type StrategyStub struct {
	IssueFn        func(uuid.UUID, model.UserRole) (pkgAuth.TokenPair, error)
	ParseAccessFn  func(string) (*pkgAuth.Identity, error)
	ParseRefreshFn func(string) (*pkgAuth.Identity, error)
	Identity       pkgAuth.Identity
	NameVal        string
}

// IssuePair returns deterministic tokens for tests.
func (s StrategyStub) IssuePair(userID uuid.UUID, role model.UserRole) (pkgAuth.TokenPair, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID, role)
	}
	return pkgAuth.TokenPair{AccessToken: "access:" + userID.String(), RefreshToken: "refresh:" + userID.String()}, nil
}

// ParseAccess recovers the configured identity from an access token.
func (s StrategyStub) ParseAccess(token string) (*pkgAuth.Identity, error) {
	if s.ParseAccessFn != nil {
		return s.ParseAccessFn(token)
	}
	identity := s.Identity
	return &identity, nil
}

// ParseRefresh recovers the configured identity from a refresh token.
func (s StrategyStub) ParseRefresh(token string) (*pkgAuth.Identity, error) {
	if s.ParseRefreshFn != nil {
		return s.ParseRefreshFn(token)
	}
	identity := s.Identity
	return &identity, nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// TokenResolverStub implements middleware token resolution contract.
type TokenResolverStub struct {
	Identity  *pkgAuth.Identity
	Err       error
	ResolveFn func(string) (*pkgAuth.Identity, error)
}

// ResolveAccess either delegates to override or returns predefined result.
func (s TokenResolverStub) ResolveAccess(token string) (*pkgAuth.Identity, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(token)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Identity == nil {
		return nil, pkgAuth.ErrInvalidToken
	}
	return s.Identity, nil
}

var _ pkgAuth.PasswordHasher = HasherStub{}
var _ pkgAuth.Strategy = StrategyStub{}

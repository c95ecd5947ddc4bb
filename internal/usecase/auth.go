package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	"github.com/medcart/medcart/internal/domain/repository"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
)

// AuthUseCase handles account lifecycle and token management.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy}
}

// Register creates a new customer account and returns a token pair.
func (u *AuthUseCase) Register(ctx context.Context, fullname, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullname == "" || email == "" || password == "" {
		return nil, pkgAuth.TokenPair{}, domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, pkgAuth.TokenPair{}, err
	}

	usr, err := u.users.Create(ctx, fullname, email, hash, model.RoleCustomer)
	if err != nil {
		return nil, pkgAuth.TokenPair{}, err
	}

	pair, err := u.tokens.IssuePair(usr.ID, usr.Role)
	if err != nil {
		return nil, pkgAuth.TokenPair{}, err
	}

	return usr, pair, nil
}

// Authenticate validates credentials and returns a token pair. Unknown email
// and wrong password are deliberately indistinguishable to the caller.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgAuth.TokenPair{}, domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, pkgAuth.TokenPair{}, domainErrors.ErrInvalidCredentials
		}
		return nil, pkgAuth.TokenPair{}, err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, pkgAuth.TokenPair{}, domainErrors.ErrInvalidCredentials
	}

	pair, err := u.tokens.IssuePair(usr.ID, usr.Role)
	if err != nil {
		return nil, pkgAuth.TokenPair{}, err
	}

	return usr, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Access tokens are
// rejected here.
func (u *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (pkgAuth.TokenPair, error) {
	identity, err := u.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return pkgAuth.TokenPair{}, pkgAuth.ErrInvalidToken
	}

	usr, err := u.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return pkgAuth.TokenPair{}, pkgAuth.ErrInvalidToken
		}
		return pkgAuth.TokenPair{}, err
	}

	return u.tokens.IssuePair(usr.ID, usr.Role)
}

// ResolveAccess extracts the identity encoded in an access token.
func (u *AuthUseCase) ResolveAccess(token string) (*pkgAuth.Identity, error) {
	if token == "" {
		return nil, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseAccess(token)
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (u *AuthUseCase) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if next == "" {
		return domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.hasher.Compare(usr.PasswordHash, current); err != nil {
		return domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(next)
	if err != nil {
		return err
	}
	return u.users.UpdatePassword(ctx, userID, hash)
}

// Anonymize blanks account data while keeping owned orders for audit.
func (u *AuthUseCase) Anonymize(ctx context.Context, userID uuid.UUID) error {
	return u.users.Anonymize(ctx, userID)
}

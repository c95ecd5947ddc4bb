package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	testhelpers "github.com/medcart/medcart/internal/test"
	"github.com/medcart/medcart/internal/usecase"
)

func newStrategyStub() testhelpers.StrategyStub {
	return testhelpers.StrategyStub{
		IssueFn: func(userID uuid.UUID, role model.UserRole) (pkgAuth.TokenPair, error) {
			return pkgAuth.TokenPair{AccessToken: "access:" + userID.String(), RefreshToken: "refresh:" + userID.String()}, nil
		},
	}
}

func TestAuthUseCaseRegisterSuccess(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())

	ctx := context.Background()
	user, pair, err := uc.Register(ctx, "Alice Smith", "  Alice@Example.COM ", "password123")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("expected user to have ID assigned")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != model.RoleCustomer {
		t.Fatalf("new accounts must be customers, got %s", user.Role)
	}
	if pair.AccessToken != "access:"+user.ID.String() {
		t.Fatalf("unexpected access token %q", pair.AccessToken)
	}
	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected user in repository: %v", err)
	}
	if stored.PasswordHash != "hash:password123" {
		t.Fatalf("password hash not stored: %v", stored.PasswordHash)
	}
}

func TestAuthUseCaseRegisterDuplicate(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())

	ctx := context.Background()
	if _, _, err := uc.Register(ctx, "Bob", "bob@example.com", "secretsecret"); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	if _, _, err := uc.Register(ctx, "Bob Again", "bob@example.com", "secretsecret"); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAuthUseCaseRegisterEmptyFields(t *testing.T) {
	uc := usecase.NewAuthUseCase(testhelpers.NewUserRepositoryStub(), testhelpers.HasherStub{}, newStrategyStub())
	if _, _, err := uc.Register(context.Background(), "  ", "x@example.com", "pw"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for blank name, got %v", err)
	}
	if _, _, err := uc.Register(context.Background(), "Name", "x@example.com", ""); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthUseCaseAuthenticate(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())
	ctx := context.Background()

	registered, _, err := uc.Register(ctx, "Carol", "carol@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, pair, err := uc.Authenticate(ctx, "Carol@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatal("authenticated a different user")
	}
	if pair.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
}

func TestAuthUseCaseAuthenticateUniformFailure(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())
	ctx := context.Background()

	if _, _, err := uc.Register(ctx, "Dan", "dan@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, wrongPassword := uc.Authenticate(ctx, "dan@example.com", "wrong")
	_, _, unknownEmail := uc.Authenticate(ctx, "nobody@example.com", "whatever")
	if wrongPassword != domainErrors.ErrInvalidCredentials || unknownEmail != domainErrors.ErrInvalidCredentials {
		t.Fatalf("unknown email and wrong password must be indistinguishable, got %v and %v", wrongPassword, unknownEmail)
	}
}

func TestAuthUseCaseRefresh(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	ctx := context.Background()
	user, err := repo.Create(ctx, "Eve", "eve@example.com", "hash:pw", model.RoleCustomer)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	strategy := newStrategyStub()
	strategy.ParseRefreshFn = func(token string) (*pkgAuth.Identity, error) {
		if token != "refresh-token" {
			return nil, pkgAuth.ErrInvalidToken
		}
		return &pkgAuth.Identity{UserID: user.ID, Role: user.Role}, nil
	}
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, strategy)

	pair, err := uc.Refresh(ctx, "refresh-token")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken != "access:"+user.ID.String() {
		t.Fatalf("unexpected access token %q", pair.AccessToken)
	}

	if _, err := uc.Refresh(ctx, "garbage"); err != pkgAuth.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthUseCaseRefreshDeletedUser(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	ghost := uuid.New()
	strategy := newStrategyStub()
	strategy.ParseRefreshFn = func(string) (*pkgAuth.Identity, error) {
		return &pkgAuth.Identity{UserID: ghost, Role: model.RoleCustomer}, nil
	}
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, strategy)

	if _, err := uc.Refresh(context.Background(), "refresh-token"); err != pkgAuth.ErrInvalidToken {
		t.Fatalf("token of a missing user must be invalid, got %v", err)
	}
}

func TestAuthUseCaseChangePassword(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())
	ctx := context.Background()

	user, _, err := uc.Register(ctx, "Frank", "frank@example.com", "old-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := uc.ChangePassword(ctx, user.ID, "wrong", "new-password"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong current password, got %v", err)
	}
	if err := uc.ChangePassword(ctx, user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored, _ := repo.GetByID(ctx, user.ID)
	if stored.PasswordHash != "hash:new-password" {
		t.Fatalf("new hash not stored: %q", stored.PasswordHash)
	}
}

func TestAuthUseCaseAnonymize(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := usecase.NewAuthUseCase(repo, testhelpers.HasherStub{}, newStrategyStub())
	ctx := context.Background()

	user, _, err := uc.Register(ctx, "Grace", "grace@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := uc.Anonymize(ctx, user.ID); err != nil {
		t.Fatalf("anonymize: %v", err)
	}

	stored, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("anonymized row must survive: %v", err)
	}
	if stored.Email == "grace@example.com" || stored.FullName != "" {
		t.Fatalf("personal data not blanked: %+v", stored)
	}
	if _, _, err := uc.Authenticate(ctx, "grace@example.com", "password123"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("anonymized account must not authenticate, got %v", err)
	}
}

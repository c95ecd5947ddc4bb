package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
)

// UserRepository describes persistence operations with user accounts.
type UserRepository interface {
	Create(ctx context.Context, fullname, email, passwordHash string, role model.UserRole) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// Anonymize blanks personal data but keeps the row so owned orders stay
	// valid for audit.
	Anonymize(ctx context.Context, id uuid.UUID) error
}

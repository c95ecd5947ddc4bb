package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
)

// StatusFields carries optional columns applied together with a status change.
// Nil pointers leave the stored value untouched.
type StatusFields struct {
	PrescriptionStatus *model.PrescriptionStatus
	RejectionReason    *string
	Reason             string
}

// OrderRepository describes persistence operations with orders. UpdateStatus
// is a compare-and-swap: it only applies when the stored status still equals
// the expected one, which is the sole concurrency-control primitive of the
// lifecycle.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, expected, next model.OrderStatus, fields StatusFields) (*model.Order, error)
	// ClaimBatchForVerification marks uploaded orders as verifying and returns
	// them. Orders stuck in verifying longer than retryAfter are re-claimed.
	ClaimBatchForVerification(ctx context.Context, limit int, retryAfter time.Duration) ([]model.Order, error)
	History(ctx context.Context, orderID string) ([]model.StatusChange, error)
}

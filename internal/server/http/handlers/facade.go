package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, fullname, email, password string) (*model.User, pkgAuth.TokenPair, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, pkgAuth.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (pkgAuth.TokenPair, error)
	ResolveAccess(token string) (*pkgAuth.Identity, error)
}

// ProfileFacade exposes account self-service operations.
type ProfileFacade interface {
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, items []usecase.NewOrderItem, deliveryAddress, notes string, prescriptionRequired bool) (*model.Order, error)
	Order(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error)
	OrdersByUser(ctx context.Context, actor usecase.Actor, userID uuid.UUID, skip, limit int) ([]model.Order, error)
	OrderHistory(ctx context.Context, actor usecase.Actor, orderID string) ([]model.StatusChange, error)
	OrderDispatches(ctx context.Context, actor usecase.Actor, orderID string) ([]model.DispatchOutcome, error)
	UploadPrescription(ctx context.Context, actor usecase.Actor, orderID, filename, contentType string, document io.Reader) (*model.Order, error)
	CancelOrder(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error)
	ConfirmPayment(ctx context.Context, orderID string) (*model.Order, error)
	StartFulfillment(ctx context.Context, orderID string) (*model.Order, error)
	ConfirmDelivery(ctx context.Context, orderID string) (*model.Order, error)
}

// PharmacyFacade aggregates the full set of operations used across handlers.
type PharmacyFacade interface {
	AuthFacade
	ProfileFacade
	OrderFacade
}

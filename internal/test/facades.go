package test

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/usecase"
)

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	RegisterFn      func(context.Context, string, string, string) (*model.User, pkgAuth.TokenPair, error)
	AuthenticateFn  func(context.Context, string, string) (*model.User, pkgAuth.TokenPair, error)
	RefreshTokensFn func(context.Context, string) (pkgAuth.TokenPair, error)
	ResolveFn       func(string) (*pkgAuth.Identity, error)
}

func stubUser() *model.User {
	return &model.User{ID: uuid.New(), FullName: "Test User", Email: "user@example.com", Role: model.RoleCustomer, CreatedAt: time.Now()}
}

// Register returns user and tokens for successful registration scenarios.
func (s AuthFacadeStub) Register(ctx context.Context, fullname, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, fullname, email, password)
	}
	return stubUser(), pkgAuth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

// Authenticate returns user and tokens for successful login scenarios.
func (s AuthFacadeStub) Authenticate(ctx context.Context, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, email, password)
	}
	return stubUser(), pkgAuth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

// RefreshTokens exchanges a refresh token for a fresh pair.
func (s AuthFacadeStub) RefreshTokens(ctx context.Context, refreshToken string) (pkgAuth.TokenPair, error) {
	if s.RefreshTokensFn != nil {
		return s.RefreshTokensFn(ctx, refreshToken)
	}
	return pkgAuth.TokenPair{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

// ResolveAccess returns the identity encoded in an access token.
func (s AuthFacadeStub) ResolveAccess(token string) (*pkgAuth.Identity, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(token)
	}
	return &pkgAuth.Identity{UserID: uuid.New(), Role: model.RoleCustomer}, nil
}

// ProfileFacadeStub simulates account self-service interactions.
type ProfileFacadeStub struct {
	UserByIDFn       func(context.Context, uuid.UUID) (*model.User, error)
	ChangePasswordFn func(context.Context, uuid.UUID, string, string) error
	DeleteAccountFn  func(context.Context, uuid.UUID) error
}

// UserByID fetches the account behind the identifier.
func (s ProfileFacadeStub) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.UserByIDFn != nil {
		return s.UserByIDFn(ctx, id)
	}
	user := stubUser()
	user.ID = id
	return user, nil
}

// ChangePassword swaps the stored credential.
func (s ProfileFacadeStub) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if s.ChangePasswordFn != nil {
		return s.ChangePasswordFn(ctx, userID, current, next)
	}
	return nil
}

// DeleteAccount removes the account's personal data.
func (s ProfileFacadeStub) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if s.DeleteAccountFn != nil {
		return s.DeleteAccountFn(ctx, userID)
	}
	return nil
}

// OrderFacadeStub simulates order facade interactions for HTTP layer tests.
type OrderFacadeStub struct {
	CreateOrderFn        func(context.Context, uuid.UUID, []usecase.NewOrderItem, string, string, bool) (*model.Order, error)
	OrderFn              func(context.Context, usecase.Actor, string) (*model.Order, error)
	OrdersByUserFn       func(context.Context, usecase.Actor, uuid.UUID, int, int) ([]model.Order, error)
	OrderHistoryFn       func(context.Context, usecase.Actor, string) ([]model.StatusChange, error)
	OrderDispatchesFn    func(context.Context, usecase.Actor, string) ([]model.DispatchOutcome, error)
	UploadPrescriptionFn func(context.Context, usecase.Actor, string, string, string, io.Reader) (*model.Order, error)
	CancelOrderFn        func(context.Context, usecase.Actor, string) (*model.Order, error)
	ConfirmPaymentFn     func(context.Context, string) (*model.Order, error)
	StartFulfillmentFn   func(context.Context, string) (*model.Order, error)
	ConfirmDeliveryFn    func(context.Context, string) (*model.Order, error)
}

// StubOrder builds a plausible order for handler tests.
func StubOrder(userID uuid.UUID, status model.OrderStatus) *model.Order {
	now := time.Now()
	return &model.Order{
		ID:                   model.NewOrderID(),
		UserID:               userID,
		Status:               status,
		PrescriptionRequired: true,
		DeliveryAddress:      "1 Main St",
		Subtotal:             100,
		DeliveryFee:          5,
		TotalAmount:          105,
		Items: []model.OrderItem{
			{MedicationName: "Amoxicillin", Dosage: "500mg", Quantity: 2, UnitPrice: 50, TotalPrice: 100},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateOrder returns a freshly built order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, userID uuid.UUID, items []usecase.NewOrderItem, deliveryAddress, notes string, prescriptionRequired bool) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, userID, items, deliveryAddress, notes, prescriptionRequired)
	}
	order := StubOrder(userID, model.OrderStatusPending)
	order.PrescriptionRequired = prescriptionRequired
	return order, nil
}

// Order fetches one order.
func (s OrderFacadeStub) Order(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, actor, orderID)
	}
	order := StubOrder(actor.ID, model.OrderStatusPending)
	order.ID = orderID
	return order, nil
}

// OrdersByUser lists the user's orders.
func (s OrderFacadeStub) OrdersByUser(ctx context.Context, actor usecase.Actor, userID uuid.UUID, skip, limit int) ([]model.Order, error) {
	if s.OrdersByUserFn != nil {
		return s.OrdersByUserFn(ctx, actor, userID, skip, limit)
	}
	return []model.Order{*StubOrder(userID, model.OrderStatusPending)}, nil
}

// OrderHistory returns the order's transition log.
func (s OrderFacadeStub) OrderHistory(ctx context.Context, actor usecase.Actor, orderID string) ([]model.StatusChange, error) {
	if s.OrderHistoryFn != nil {
		return s.OrderHistoryFn(ctx, actor, orderID)
	}
	return nil, nil
}

// OrderDispatches returns pharmacy notification outcomes.
func (s OrderFacadeStub) OrderDispatches(ctx context.Context, actor usecase.Actor, orderID string) ([]model.DispatchOutcome, error) {
	if s.OrderDispatchesFn != nil {
		return s.OrderDispatchesFn(ctx, actor, orderID)
	}
	return nil, nil
}

// UploadPrescription attaches a document to the order.
func (s OrderFacadeStub) UploadPrescription(ctx context.Context, actor usecase.Actor, orderID, filename, contentType string, document io.Reader) (*model.Order, error) {
	if s.UploadPrescriptionFn != nil {
		return s.UploadPrescriptionFn(ctx, actor, orderID, filename, contentType, document)
	}
	order := StubOrder(actor.ID, model.OrderStatusPrescriptionUploaded)
	order.ID = orderID
	return order, nil
}

// CancelOrder cancels the order.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error) {
	if s.CancelOrderFn != nil {
		return s.CancelOrderFn(ctx, actor, orderID)
	}
	order := StubOrder(actor.ID, model.OrderStatusCancelled)
	order.ID = orderID
	return order, nil
}

// ConfirmPayment marks the order paid.
func (s OrderFacadeStub) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, error) {
	if s.ConfirmPaymentFn != nil {
		return s.ConfirmPaymentFn(ctx, orderID)
	}
	order := StubOrder(uuid.New(), model.OrderStatusPaid)
	order.ID = orderID
	return order, nil
}

// StartFulfillment marks the order processing.
func (s OrderFacadeStub) StartFulfillment(ctx context.Context, orderID string) (*model.Order, error) {
	if s.StartFulfillmentFn != nil {
		return s.StartFulfillmentFn(ctx, orderID)
	}
	order := StubOrder(uuid.New(), model.OrderStatusProcessing)
	order.ID = orderID
	return order, nil
}

// ConfirmDelivery marks the order delivered.
func (s OrderFacadeStub) ConfirmDelivery(ctx context.Context, orderID string) (*model.Order, error) {
	if s.ConfirmDeliveryFn != nil {
		return s.ConfirmDeliveryFn(ctx, orderID)
	}
	order := StubOrder(uuid.New(), model.OrderStatusDelivered)
	order.ID = orderID
	return order, nil
}

// PharmacyFacadeStub aggregates facade dependencies for HTTP layer tests.
type PharmacyFacadeStub struct {
	AuthFacadeStub
	ProfileFacadeStub
	OrderFacadeStub
}

// WorkerFacadeStub simulates the verification worker's view of the
// application.
type WorkerFacadeStub struct {
	OrdersForVerificationFn func(context.Context, int) ([]model.Order, error)
	ActivePrescriptionFn    func(context.Context, string) (*model.PrescriptionAsset, error)
	OpenDocumentFn          func(string) (io.ReadCloser, error)
	VerifyDocumentFn        func(context.Context, string, string, io.Reader) (*model.VerificationResult, error)
	CompleteVerificationFn  func(context.Context, string, int64, bool, string) error
	MatchPharmaciesFn       func(context.Context, model.Order) ([]model.PharmacyMatch, error)
	NotifyPharmaciesFn      func(context.Context, string, []model.PharmacyMatch) (model.DispatchReport, error)
}

// OrdersForVerification returns the configured batch, empty by default.
func (s *WorkerFacadeStub) OrdersForVerification(ctx context.Context, limit int) ([]model.Order, error) {
	if s.OrdersForVerificationFn != nil {
		return s.OrdersForVerificationFn(ctx, limit)
	}
	return nil, nil
}

// ActivePrescription returns the asset under verification.
func (s *WorkerFacadeStub) ActivePrescription(ctx context.Context, orderID string) (*model.PrescriptionAsset, error) {
	if s.ActivePrescriptionFn != nil {
		return s.ActivePrescriptionFn(ctx, orderID)
	}
	return &model.PrescriptionAsset{ID: 1, OrderID: orderID, FilePath: orderID + "_rx.pdf", ContentType: "application/pdf", Active: true}, nil
}

// OpenDocument opens the stored prescription file.
func (s *WorkerFacadeStub) OpenDocument(path string) (io.ReadCloser, error) {
	if s.OpenDocumentFn != nil {
		return s.OpenDocumentFn(path)
	}
	return io.NopCloser(newStaticReader("doc")), nil
}

// VerifyDocument returns the configured verdict, valid by default.
func (s *WorkerFacadeStub) VerifyDocument(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error) {
	if s.VerifyDocumentFn != nil {
		return s.VerifyDocumentFn(ctx, filename, contentType, document)
	}
	return &model.VerificationResult{Valid: true}, nil
}

// CompleteVerification records the verdict.
func (s *WorkerFacadeStub) CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error {
	if s.CompleteVerificationFn != nil {
		return s.CompleteVerificationFn(ctx, orderID, assetID, valid, reason)
	}
	return nil
}

// MatchPharmacies returns candidate pharmacies, none by default.
func (s *WorkerFacadeStub) MatchPharmacies(ctx context.Context, order model.Order) ([]model.PharmacyMatch, error) {
	if s.MatchPharmaciesFn != nil {
		return s.MatchPharmaciesFn(ctx, order)
	}
	return nil, nil
}

// NotifyPharmacies fans out notifications and reports the outcome.
func (s *WorkerFacadeStub) NotifyPharmacies(ctx context.Context, orderID string, matches []model.PharmacyMatch) (model.DispatchReport, error) {
	if s.NotifyPharmaciesFn != nil {
		return s.NotifyPharmaciesFn(ctx, orderID, matches)
	}
	return model.DispatchReport{OrderID: orderID}, nil
}

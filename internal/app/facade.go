package app

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/dispatch"
	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/usecase"
)

// VerifierProvider analyses prescription documents.
type VerifierProvider interface {
	Verify(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error)
}

// MatcherProvider finds candidate pharmacies for an order.
type MatcherProvider interface {
	Match(ctx context.Context, items []model.OrderItem, deliveryAddress string) ([]model.PharmacyMatch, error)
}

// PharmacyFacade aggregates the application operations exposed to the HTTP
// layer and the verification worker.
type PharmacyFacade struct {
	auth       *usecase.AuthUseCase
	orders     *usecase.OrderUseCase
	verifier   VerifierProvider
	matcher    MatcherProvider
	dispatcher *dispatch.Dispatcher
}

// NewPharmacyFacade constructs the facade.
func NewPharmacyFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	verifier VerifierProvider,
	matcher MatcherProvider,
	dispatcher *dispatch.Dispatcher,
) *PharmacyFacade {
	return &PharmacyFacade{auth: auth, orders: orders, verifier: verifier, matcher: matcher, dispatcher: dispatcher}
}

// --- identity ---

func (f *PharmacyFacade) Register(ctx context.Context, fullname, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	return f.auth.Register(ctx, fullname, email, password)
}

func (f *PharmacyFacade) Authenticate(ctx context.Context, email, password string) (*model.User, pkgAuth.TokenPair, error) {
	return f.auth.Authenticate(ctx, email, password)
}

func (f *PharmacyFacade) RefreshTokens(ctx context.Context, refreshToken string) (pkgAuth.TokenPair, error) {
	return f.auth.Refresh(ctx, refreshToken)
}

func (f *PharmacyFacade) ResolveAccess(token string) (*pkgAuth.Identity, error) {
	return f.auth.ResolveAccess(token)
}

func (f *PharmacyFacade) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.auth.GetByID(ctx, id)
}

func (f *PharmacyFacade) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	return f.auth.ChangePassword(ctx, userID, current, next)
}

func (f *PharmacyFacade) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return f.auth.Anonymize(ctx, userID)
}

// --- order lifecycle ---

func (f *PharmacyFacade) CreateOrder(ctx context.Context, userID uuid.UUID, items []usecase.NewOrderItem, deliveryAddress, notes string, prescriptionRequired bool) (*model.Order, error) {
	return f.orders.Create(ctx, userID, items, deliveryAddress, notes, prescriptionRequired)
}

func (f *PharmacyFacade) Order(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error) {
	return f.orders.Get(ctx, actor, orderID)
}

func (f *PharmacyFacade) OrdersByUser(ctx context.Context, actor usecase.Actor, userID uuid.UUID, skip, limit int) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, actor, userID, skip, limit)
}

func (f *PharmacyFacade) OrderHistory(ctx context.Context, actor usecase.Actor, orderID string) ([]model.StatusChange, error) {
	return f.orders.History(ctx, actor, orderID)
}

func (f *PharmacyFacade) OrderDispatches(ctx context.Context, actor usecase.Actor, orderID string) ([]model.DispatchOutcome, error) {
	return f.orders.DispatchOutcomes(ctx, actor, orderID)
}

func (f *PharmacyFacade) UploadPrescription(ctx context.Context, actor usecase.Actor, orderID, filename, contentType string, document io.Reader) (*model.Order, error) {
	return f.orders.UploadPrescription(ctx, actor, orderID, filename, contentType, document)
}

func (f *PharmacyFacade) CancelOrder(ctx context.Context, actor usecase.Actor, orderID string) (*model.Order, error) {
	return f.orders.Cancel(ctx, actor, orderID)
}

func (f *PharmacyFacade) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, error) {
	return f.orders.ConfirmPayment(ctx, orderID)
}

func (f *PharmacyFacade) StartFulfillment(ctx context.Context, orderID string) (*model.Order, error) {
	return f.orders.StartFulfillment(ctx, orderID)
}

func (f *PharmacyFacade) ConfirmDelivery(ctx context.Context, orderID string) (*model.Order, error) {
	return f.orders.ConfirmDelivery(ctx, orderID)
}

// --- verification worker ---

func (f *PharmacyFacade) OrdersForVerification(ctx context.Context, limit int) ([]model.Order, error) {
	return f.orders.ClaimForVerification(ctx, limit)
}

func (f *PharmacyFacade) ActivePrescription(ctx context.Context, orderID string) (*model.PrescriptionAsset, error) {
	return f.orders.ActiveAsset(ctx, orderID)
}

func (f *PharmacyFacade) OpenDocument(path string) (io.ReadCloser, error) {
	return f.orders.OpenDocument(path)
}

func (f *PharmacyFacade) VerifyDocument(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error) {
	return f.verifier.Verify(ctx, filename, contentType, document)
}

func (f *PharmacyFacade) CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error {
	return f.orders.CompleteVerification(ctx, orderID, assetID, valid, reason)
}

func (f *PharmacyFacade) MatchPharmacies(ctx context.Context, order model.Order) ([]model.PharmacyMatch, error) {
	return f.matcher.Match(ctx, order.Items, order.DeliveryAddress)
}

// NotifyPharmacies fans the order out to matched pharmacies, persists the
// per-pharmacy outcomes, and returns the aggregate report.
func (f *PharmacyFacade) NotifyPharmacies(ctx context.Context, orderID string, matches []model.PharmacyMatch) (model.DispatchReport, error) {
	report := f.dispatcher.Dispatch(ctx, orderID, matches)
	if err := f.orders.RecordDispatches(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

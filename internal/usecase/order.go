package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	"github.com/medcart/medcart/internal/domain/repository"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role model.UserRole
}

func (a Actor) mayAccess(order *model.Order) bool {
	return a.Role.Staff() || order.UserID == a.ID
}

// FileStore abstracts prescription document storage.
type FileStore interface {
	Save(orderID, filename string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
}

// NewOrderItem is one requested medication line of a new order.
type NewOrderItem struct {
	MedicationName string
	Dosage         string
	Quantity       int
	UnitPrice      float64
}

// OrderOptions carries lifecycle tunables resolved from configuration.
type OrderOptions struct {
	DeliveryFee      float64
	VerifyRetryAfter time.Duration
}

// OrderUseCase drives the order through its state machine. All coordination
// between concurrent requests goes through the store's compare-and-swap
// status update; there is no in-process locking.
type OrderUseCase struct {
	orders        repository.OrderRepository
	prescriptions repository.PrescriptionRepository
	dispatches    repository.DispatchRepository
	files         FileStore
	opts          OrderOptions
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	prescriptions repository.PrescriptionRepository,
	dispatches repository.DispatchRepository,
	files FileStore,
	opts OrderOptions,
) *OrderUseCase {
	return &OrderUseCase{
		orders:        orders,
		prescriptions: prescriptions,
		dispatches:    dispatches,
		files:         files,
		opts:          opts,
	}
}

// Create places a new order. Medication names and prices are snapshotted into
// the items. When no prescription is required the verification path is
// skipped entirely and the order starts out awaiting payment.
func (u *OrderUseCase) Create(ctx context.Context, userID uuid.UUID, items []NewOrderItem, deliveryAddress, notes string, prescriptionRequired bool) (*model.Order, error) {
	if len(items) == 0 || deliveryAddress == "" {
		return nil, domainErrors.ErrInvalidOrder
	}

	order := &model.Order{
		ID:                   model.NewOrderID(),
		UserID:               userID,
		Status:               model.OrderStatusPending,
		PrescriptionRequired: prescriptionRequired,
		DeliveryAddress:      deliveryAddress,
		DeliveryFee:          u.opts.DeliveryFee,
		Notes:                notes,
	}

	for _, item := range items {
		if item.MedicationName == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, domainErrors.ErrInvalidOrder
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		order.Items = append(order.Items, model.OrderItem{
			MedicationName: item.MedicationName,
			Dosage:         item.Dosage,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     lineTotal,
		})
		order.Subtotal += lineTotal
	}
	order.TotalAmount = order.Subtotal + order.DeliveryFee

	if prescriptionRequired {
		pending := model.PrescriptionStatusPending
		order.PrescriptionStatus = &pending
	} else {
		waived, _ := model.Transition(model.OrderStatusPending, model.EventPrescriptionWaived)
		order.Status = waived
	}

	if err := u.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns the order with items; customers only see their own orders.
func (u *OrderUseCase) Get(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.mayAccess(order) {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// ListByUser returns a page of the user's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, actor Actor, userID uuid.UUID, skip, limit int) ([]model.Order, error) {
	if !actor.Role.Staff() && actor.ID != userID {
		return nil, domainErrors.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}
	return u.orders.ListByUser(ctx, userID, limit, skip)
}

// History returns the persisted transition log of an order.
func (u *OrderUseCase) History(ctx context.Context, actor Actor, orderID string) ([]model.StatusChange, error) {
	if _, err := u.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return u.orders.History(ctx, orderID)
}

// DispatchOutcomes exposes the pharmacy notification results for an order.
func (u *OrderUseCase) DispatchOutcomes(ctx context.Context, actor Actor, orderID string) ([]model.DispatchOutcome, error) {
	if _, err := u.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return u.dispatches.ListByOrder(ctx, orderID)
}

// UploadPrescription stores the document and moves the order to
// prescription_uploaded. A disallowed content type fails before anything is
// written or any verifier is involved. Re-uploading after a rejection
// supersedes the old asset and resets the prescription verdict.
func (u *OrderUseCase) UploadPrescription(ctx context.Context, actor Actor, orderID, filename, contentType string, document io.Reader) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.mayAccess(order) {
		return nil, domainErrors.ErrForbidden
	}
	if !order.PrescriptionRequired {
		return nil, domainErrors.ErrInvalidTransition
	}
	if !model.AllowedContentType(contentType) {
		return nil, domainErrors.ErrUnsupportedFileType
	}
	if _, ok := model.Transition(order.Status, model.EventPrescriptionUploaded); !ok {
		return nil, domainErrors.ErrInvalidTransition
	}

	path, err := u.files.Save(orderID, filename, document)
	if err != nil {
		return nil, err
	}

	asset := &model.PrescriptionAsset{FilePath: path, ContentType: contentType}
	if err := u.prescriptions.Attach(ctx, orderID, order.Status, asset); err != nil {
		return nil, err
	}
	return u.orders.GetByID(ctx, orderID)
}

// Cancel marks the order cancelled unless it already reached a terminal
// state. A cancellation racing another transition loses with a state
// conflict and may be retried by the caller.
func (u *OrderUseCase) Cancel(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.mayAccess(order) {
		return nil, domainErrors.ErrForbidden
	}

	next, ok := model.Transition(order.Status, model.EventCancelRequested)
	if !ok {
		return nil, domainErrors.ErrOrderTerminal
	}
	return u.orders.UpdateStatus(ctx, orderID, order.Status, next, repository.StatusFields{Reason: "cancellation requested"})
}

// ConfirmPayment moves a verified order to paid.
func (u *OrderUseCase) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, error) {
	return u.applyEvent(ctx, orderID, model.EventPaymentConfirmed, "payment confirmed")
}

// StartFulfillment moves a paid order to processing.
func (u *OrderUseCase) StartFulfillment(ctx context.Context, orderID string) (*model.Order, error) {
	return u.applyEvent(ctx, orderID, model.EventFulfillmentStarted, "fulfillment started")
}

// ConfirmDelivery moves a processing order to delivered.
func (u *OrderUseCase) ConfirmDelivery(ctx context.Context, orderID string) (*model.Order, error) {
	return u.applyEvent(ctx, orderID, model.EventDeliveryConfirmed, "delivery confirmed")
}

func (u *OrderUseCase) applyEvent(ctx context.Context, orderID string, event model.Event, reason string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, ok := model.Transition(order.Status, event)
	if !ok {
		return nil, domainErrors.ErrInvalidTransition
	}
	return u.orders.UpdateStatus(ctx, orderID, order.Status, next, repository.StatusFields{Reason: reason})
}

// ClaimForVerification hands a batch of uploaded orders to the verification
// worker, marking them verifying.
func (u *OrderUseCase) ClaimForVerification(ctx context.Context, limit int) ([]model.Order, error) {
	return u.orders.ClaimBatchForVerification(ctx, limit, u.opts.VerifyRetryAfter)
}

// ActiveAsset returns the prescription document currently under review.
func (u *OrderUseCase) ActiveAsset(ctx context.Context, orderID string) (*model.PrescriptionAsset, error) {
	return u.prescriptions.Active(ctx, orderID)
}

// OpenDocument opens a stored prescription document for streaming to the
// verifier.
func (u *OrderUseCase) OpenDocument(path string) (io.ReadCloser, error) {
	return u.files.Open(path)
}

// CompleteVerification applies the verifier's verdict. The compare-and-swap
// from verifying guarantees a duplicate completion is rejected rather than
// double-applied.
func (u *OrderUseCase) CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error {
	return u.prescriptions.CompleteVerification(ctx, orderID, assetID, valid, reason)
}

// RecordDispatches persists the fan-out report for later status queries.
func (u *OrderUseCase) RecordDispatches(ctx context.Context, report model.DispatchReport) error {
	return u.dispatches.Record(ctx, report)
}

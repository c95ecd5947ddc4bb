package test

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	"github.com/medcart/medcart/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[uuid.UUID]*model.User
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[uuid.UUID]*model.User),
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, fullname, email, passwordHash string, role model.UserRole) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	user := &model.User{
		ID:           uuid.New(),
		FullName:     fullname,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	s.Users[email] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdatePassword swaps the stored hash.
func (s *UserRepositoryStub) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// Anonymize blanks personal fields while keeping the row.
func (s *UserRepositoryStub) Anonymize(ctx context.Context, id uuid.UUID) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	delete(s.Users, user.Email)
	user.FullName = ""
	user.Email = "deleted+" + id.String() + "@invalid.local"
	user.PasswordHash = ""
	return nil
}

// OrderUpdateCall records one compare-and-swap attempt.
type OrderUpdateCall struct {
	OrderID  string
	Expected model.OrderStatus
	Next     model.OrderStatus
	Fields   repository.StatusFields
}

// OrderRepositoryStub keeps orders in-memory and mimics the store's
// compare-and-swap semantics. Function fields override individual methods.
type OrderRepositoryStub struct {
	CreateFn       func(context.Context, *model.Order) error
	GetByIDFn      func(context.Context, string) (*model.Order, error)
	ListByUserFn   func(context.Context, uuid.UUID, int, int) ([]model.Order, error)
	UpdateStatusFn func(context.Context, string, model.OrderStatus, model.OrderStatus, repository.StatusFields) (*model.Order, error)
	ClaimFn        func(context.Context, int, time.Duration) ([]model.Order, error)
	HistoryFn      func(context.Context, string) ([]model.StatusChange, error)

	Orders      map[string]*model.Order
	Changes     map[string][]model.StatusChange
	UpdateCalls []OrderUpdateCall
}

// NewOrderRepositoryStub constructs stub repository with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		Orders:  make(map[string]*model.Order),
		Changes: make(map[string][]model.StatusChange),
	}
}

// Create stores the order and the waiver transition when the order skipped
// the prescription path.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.Orders[order.ID] = order
	if order.Status != model.OrderStatusPending {
		s.Changes[order.ID] = append(s.Changes[order.ID], model.StatusChange{
			OrderID:    order.ID,
			FromStatus: model.OrderStatusPending,
			ToStatus:   order.Status,
			CreatedAt:  now,
		})
	}
	return nil
}

// GetByID fetches the stored order or returns not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if order, ok := s.Orders[id]; ok {
		return order, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns the user's orders honoring limit and offset.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID, limit, offset)
	}
	var owned []model.Order
	for _, order := range s.Orders {
		if order.UserID == userID {
			owned = append(owned, *order)
		}
	}
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit > 0 && limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

// UpdateStatus applies the transition only when the stored status still
// matches the expected one.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID string, expected, next model.OrderStatus, fields repository.StatusFields) (*model.Order, error) {
	s.UpdateCalls = append(s.UpdateCalls, OrderUpdateCall{OrderID: orderID, Expected: expected, Next: next, Fields: fields})
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, expected, next, fields)
	}
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != expected {
		return nil, domainErrors.ErrStateConflict
	}
	order.Status = next
	if fields.PrescriptionStatus != nil {
		order.PrescriptionStatus = fields.PrescriptionStatus
	}
	if fields.RejectionReason != nil {
		order.RejectionReason = *fields.RejectionReason
	}
	order.UpdatedAt = time.Now()
	s.Changes[orderID] = append(s.Changes[orderID], model.StatusChange{
		OrderID:    orderID,
		FromStatus: expected,
		ToStatus:   next,
		Reason:     fields.Reason,
		CreatedAt:  order.UpdatedAt,
	})
	return order, nil
}

// ClaimBatchForVerification claims uploaded orders up to the limit.
func (s *OrderRepositoryStub) ClaimBatchForVerification(ctx context.Context, limit int, retryAfter time.Duration) ([]model.Order, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit, retryAfter)
	}
	var claimed []model.Order
	for _, order := range s.Orders {
		if len(claimed) == limit {
			break
		}
		if order.Status == model.OrderStatusPrescriptionUploaded {
			order.Status = model.OrderStatusVerifying
			claimed = append(claimed, *order)
		}
	}
	return claimed, nil
}

// History returns recorded transitions for the order.
func (s *OrderRepositoryStub) History(ctx context.Context, orderID string) ([]model.StatusChange, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, orderID)
	}
	return s.Changes[orderID], nil
}

// PrescriptionRepositoryStub keeps the active asset per order in-memory.
type PrescriptionRepositoryStub struct {
	AttachFn   func(context.Context, string, model.OrderStatus, *model.PrescriptionAsset) error
	ActiveFn   func(context.Context, string) (*model.PrescriptionAsset, error)
	CompleteFn func(context.Context, string, int64, bool, string) error

	Orders *OrderRepositoryStub
	Assets map[string]*model.PrescriptionAsset
	NextID int64

	CompleteCalls []PrescriptionVerdict
}

// PrescriptionVerdict records one CompleteVerification invocation.
type PrescriptionVerdict struct {
	OrderID string
	AssetID int64
	Valid   bool
	Reason  string
}

// NewPrescriptionRepositoryStub constructs the stub bound to an order stub so
// attach and completion move the order like the real store does.
func NewPrescriptionRepositoryStub(orders *OrderRepositoryStub) *PrescriptionRepositoryStub {
	return &PrescriptionRepositoryStub{
		Orders: orders,
		Assets: make(map[string]*model.PrescriptionAsset),
		NextID: 1,
	}
}

// Attach stores the asset as active and moves the order to
// prescription_uploaded via the order stub's compare-and-swap.
func (s *PrescriptionRepositoryStub) Attach(ctx context.Context, orderID string, expected model.OrderStatus, asset *model.PrescriptionAsset) error {
	if s.AttachFn != nil {
		return s.AttachFn(ctx, orderID, expected, asset)
	}
	pending := model.PrescriptionStatusPending
	if _, err := s.Orders.UpdateStatus(ctx, orderID, expected, model.OrderStatusPrescriptionUploaded, repository.StatusFields{
		PrescriptionStatus: &pending,
		Reason:             "prescription uploaded",
	}); err != nil {
		return err
	}
	asset.ID = s.NextID
	s.NextID++
	asset.OrderID = orderID
	asset.Active = true
	asset.UploadedAt = time.Now()
	s.Assets[orderID] = asset
	return nil
}

// Active returns the active asset or not found.
func (s *PrescriptionRepositoryStub) Active(ctx context.Context, orderID string) (*model.PrescriptionAsset, error) {
	if s.ActiveFn != nil {
		return s.ActiveFn(ctx, orderID)
	}
	if asset, ok := s.Assets[orderID]; ok {
		return asset, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CompleteVerification records the verdict and moves the order out of
// verifying.
func (s *PrescriptionRepositoryStub) CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error {
	s.CompleteCalls = append(s.CompleteCalls, PrescriptionVerdict{OrderID: orderID, AssetID: assetID, Valid: valid, Reason: reason})
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, orderID, assetID, valid, reason)
	}
	verdict := model.PrescriptionStatusValid
	next := model.OrderStatusVerified
	fields := repository.StatusFields{Reason: "prescription verified"}
	if !valid {
		verdict = model.PrescriptionStatusInvalid
		next = model.OrderStatusRejected
		fields.Reason = "prescription rejected"
		fields.RejectionReason = &reason
	}
	fields.PrescriptionStatus = &verdict
	if _, err := s.Orders.UpdateStatus(ctx, orderID, model.OrderStatusVerifying, next, fields); err != nil {
		return err
	}
	if asset, ok := s.Assets[orderID]; ok && asset.ID == assetID {
		asset.Verdict = verdict
		asset.VerdictReason = reason
		now := time.Now()
		asset.VerifiedAt = &now
	}
	return nil
}

// DispatchRepositoryStub records dispatch reports in-memory.
type DispatchRepositoryStub struct {
	RecordFn func(context.Context, model.DispatchReport) error

	Reports []model.DispatchReport
	Err     error
}

// Record appends the report.
func (s *DispatchRepositoryStub) Record(ctx context.Context, report model.DispatchReport) error {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, report)
	}
	if s.Err != nil {
		return s.Err
	}
	s.Reports = append(s.Reports, report)
	return nil
}

// ListByOrder flattens recorded outcomes for the order.
func (s *DispatchRepositoryStub) ListByOrder(ctx context.Context, orderID string) ([]model.DispatchOutcome, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var outcomes []model.DispatchOutcome
	for _, report := range s.Reports {
		if report.OrderID == orderID {
			outcomes = append(outcomes, report.Outcomes...)
		}
	}
	return outcomes, nil
}

package model

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus describes the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "pending"
	OrderStatusPrescriptionUploaded OrderStatus = "prescription_uploaded"
	OrderStatusVerifying            OrderStatus = "verifying"
	OrderStatusVerified             OrderStatus = "verified"
	OrderStatusRejected             OrderStatus = "rejected"
	OrderStatusPaymentPending       OrderStatus = "payment_pending"
	OrderStatusPaid                 OrderStatus = "paid"
	OrderStatusProcessing           OrderStatus = "processing"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusCancelled            OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PrescriptionStatus tracks the verification verdict attached to an order.
type PrescriptionStatus string

const (
	PrescriptionStatusPending PrescriptionStatus = "pending"
	PrescriptionStatusValid   PrescriptionStatus = "valid"
	PrescriptionStatusInvalid PrescriptionStatus = "invalid"
)

// Event names a lifecycle trigger applied to an order.
type Event string

const (
	EventPrescriptionWaived   Event = "prescription_waived"
	EventPrescriptionUploaded Event = "prescription_uploaded"
	EventVerificationStarted  Event = "verification_started"
	EventVerifierValid        Event = "verifier_valid"
	EventVerifierInvalid      Event = "verifier_invalid"
	EventPaymentConfirmed     Event = "payment_confirmed"
	EventFulfillmentStarted   Event = "fulfillment_started"
	EventDeliveryConfirmed    Event = "delivery_confirmed"
	EventCancelRequested      Event = "cancel_requested"
)

// transitions is the single source of truth for legal lifecycle moves.
// Cancellation is handled separately: it applies from any non-terminal state.
var transitions = map[OrderStatus]map[Event]OrderStatus{
	OrderStatusPending: {
		EventPrescriptionWaived:   OrderStatusPaymentPending,
		EventPrescriptionUploaded: OrderStatusPrescriptionUploaded,
	},
	OrderStatusPrescriptionUploaded: {
		EventVerificationStarted: OrderStatusVerifying,
	},
	OrderStatusVerifying: {
		EventVerifierValid:   OrderStatusVerified,
		EventVerifierInvalid: OrderStatusRejected,
	},
	OrderStatusRejected: {
		EventPrescriptionUploaded: OrderStatusPrescriptionUploaded,
	},
	OrderStatusVerified: {
		EventPaymentConfirmed: OrderStatusPaid,
	},
	OrderStatusPaymentPending: {
		EventPaymentConfirmed: OrderStatusPaid,
	},
	OrderStatusPaid: {
		EventFulfillmentStarted: OrderStatusProcessing,
	},
	OrderStatusProcessing: {
		EventDeliveryConfirmed: OrderStatusDelivered,
	},
}

// Transition resolves the target status for an event, or reports that the
// event is not legal from the given status.
func Transition(from OrderStatus, event Event) (OrderStatus, bool) {
	if event == EventCancelRequested {
		if from.Terminal() {
			return "", false
		}
		return OrderStatusCancelled, true
	}
	to, ok := transitions[from][event]
	return to, ok
}

// Order is a medication order placed by a customer.
type Order struct {
	ID                   string
	UserID               uuid.UUID
	Status               OrderStatus
	PrescriptionRequired bool
	PrescriptionStatus   *PrescriptionStatus
	DeliveryAddress      string
	Subtotal             float64
	DeliveryFee          float64
	TotalAmount          float64
	Notes                string
	RejectionReason      string
	Items                []OrderItem
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderItem is one medication line. The name is a snapshot taken at order
// time and never follows later catalog changes.
type OrderItem struct {
	ID             int64
	OrderID        string
	MedicationName string
	Dosage         string
	Quantity       int
	UnitPrice      float64
	TotalPrice     float64
}

// StatusChange is one persisted lifecycle transition.
type StatusChange struct {
	ID         int64
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Reason     string
	CreatedAt  time.Time
}

// NewOrderID generates an opaque order identifier, e.g. ORD_3F29A1B4C8D0.
func NewOrderID() string {
	u := uuid.New()
	return "ORD_" + strings.ToUpper(hex.EncodeToString(u[:6]))
}

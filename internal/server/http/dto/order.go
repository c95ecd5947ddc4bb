package dto

import "time"

// OrderItemRequest is one medication line of a new order.
type OrderItemRequest struct {
	MedicationName string  `json:"medication_name" binding:"required"`
	Dosage         string  `json:"dosage"`
	Quantity       int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice      float64 `json:"unit_price" binding:"gte=0"`
}

// CreateOrderRequest describes the order creation payload. Prescription
// requirement defaults to true when omitted.
type CreateOrderRequest struct {
	Items                []OrderItemRequest `json:"medications" binding:"required,min=1,dive"`
	DeliveryAddress      string             `json:"delivery_address" binding:"required"`
	Notes                string             `json:"notes"`
	PrescriptionRequired *bool              `json:"prescription_required"`
}

// OrderItemResponse mirrors one stored medication line.
type OrderItemResponse struct {
	MedicationName string  `json:"medication_name"`
	Dosage         string  `json:"dosage,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
}

// OrderResponse is the public representation of an order.
type OrderResponse struct {
	OrderID              string              `json:"order_id"`
	UserID               string              `json:"user_id"`
	Status               string              `json:"status"`
	PrescriptionRequired bool                `json:"prescription_required"`
	PrescriptionStatus   *string             `json:"prescription_status,omitempty"`
	Medications          []OrderItemResponse `json:"medications"`
	DeliveryAddress      string              `json:"delivery_address"`
	Subtotal             float64             `json:"subtotal"`
	DeliveryFee          float64             `json:"delivery_fee"`
	TotalAmount          float64             `json:"total_amount"`
	Notes                string              `json:"notes,omitempty"`
	RejectionReason      string              `json:"rejection_reason,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Message              string              `json:"message,omitempty"`
}

// StatusChangeResponse is one entry of the order's transition log.
type StatusChangeResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DispatchOutcomeResponse is one pharmacy notification result.
type DispatchOutcomeResponse struct {
	PharmacyID   string `json:"pharmacy_id"`
	PharmacyName string `json:"pharmacy_name,omitempty"`
	Attempts     int    `json:"attempts"`
	Succeeded    bool   `json:"succeeded"`
	Reason       string `json:"reason,omitempty"`
}

// OrderListResponse is a page of a user's orders.
type OrderListResponse struct {
	UserID      string          `json:"user_id"`
	TotalOrders int             `json:"total_orders"`
	Orders      []OrderResponse `json:"orders"`
}

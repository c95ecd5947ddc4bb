package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes customers from pharmacy staff.
type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RolePharmacist UserRole = "pharmacist"
	RoleAdmin      UserRole = "admin"
)

// Staff reports whether the role may operate fulfillment endpoints and read
// orders it does not own.
func (r UserRole) Staff() bool {
	return r == RolePharmacist || r == RoleAdmin
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/server/http/dto"
	"github.com/medcart/medcart/internal/server/http/middleware"
	"github.com/medcart/medcart/internal/usecase"
)

// CurrentActor extracts the authenticated identity from gin context.
func CurrentActor(c *gin.Context) usecase.Actor {
	var actor usecase.Actor
	if val, ok := c.Get(middleware.UserIDContextKey); ok {
		if id, ok := val.(uuid.UUID); ok {
			actor.ID = id
		}
	}
	if val, ok := c.Get(middleware.UserRoleContextKey); ok {
		if role, ok := val.(model.UserRole); ok {
			actor.Role = role
		}
	}
	return actor
}

// respondError maps domain errors to a stable error kind plus HTTP status.
// State conflicts are expected concurrency outcomes, not server failures.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "duplicate_email", Message: "email already registered"})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid_credentials", Message: "invalid email or password"})
	case errors.Is(err, pkgAuth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid_token", Message: "token is expired or malformed"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden", Message: "operation not permitted for this user"})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "resource not found"})
	case errors.Is(err, domainErrors.ErrInvalidOrder):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid_order", Message: "order payload is invalid"})
	case errors.Is(err, domainErrors.ErrUnsupportedFileType):
		c.JSON(http.StatusUnsupportedMediaType, dto.ErrorResponse{Error: "unsupported_file_type", Message: "only JPEG, PNG and PDF prescriptions are accepted"})
	case errors.Is(err, domainErrors.ErrOrderTerminal):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "order_terminal", Message: "order already reached a terminal state"})
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "invalid_transition", Message: "operation is not allowed in the current order state"})
	case errors.Is(err, domainErrors.ErrStateConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "state_conflict", Message: "order changed concurrently, retry the operation"})
	case errors.Is(err, domainErrors.ErrVerificationUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "verification_unavailable", Message: "prescription verification is temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: "unexpected internal error"})
	}
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID.String(),
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func toOrderResponse(order *model.Order, message string) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:              order.ID,
		UserID:               order.UserID.String(),
		Status:               string(order.Status),
		PrescriptionRequired: order.PrescriptionRequired,
		Medications:          make([]dto.OrderItemResponse, 0, len(order.Items)),
		DeliveryAddress:      order.DeliveryAddress,
		Subtotal:             order.Subtotal,
		DeliveryFee:          order.DeliveryFee,
		TotalAmount:          order.TotalAmount,
		Notes:                order.Notes,
		RejectionReason:      order.RejectionReason,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
		Message:              message,
	}
	if order.PrescriptionStatus != nil {
		status := string(*order.PrescriptionStatus)
		resp.PrescriptionStatus = &status
	}
	for _, item := range order.Items {
		resp.Medications = append(resp.Medications, dto.OrderItemResponse{
			MedicationName: item.MedicationName,
			Dosage:         item.Dosage,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
		})
	}
	return resp
}

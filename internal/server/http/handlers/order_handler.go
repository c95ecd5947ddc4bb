package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/server/http/dto"
	"github.com/medcart/medcart/internal/usecase"
)

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	facade OrderFacade
}

func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	items := make([]usecase.NewOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.NewOrderItem{
			MedicationName: item.MedicationName,
			Dosage:         item.Dosage,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
		})
	}

	prescriptionRequired := true
	if req.PrescriptionRequired != nil {
		prescriptionRequired = *req.PrescriptionRequired
	}

	actor := CurrentActor(c)
	order, err := h.facade.CreateOrder(c.Request.Context(), actor.ID, items, req.DeliveryAddress, req.Notes, prescriptionRequired)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "order created, upload a prescription to proceed"
	if !order.PrescriptionRequired {
		message = "order created, awaiting payment"
	}
	c.JSON(http.StatusCreated, toOrderResponse(order, message))
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), CurrentActor(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, ""))
}

func (h *OrderHandler) ListByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "user id must be a UUID"})
		return
	}

	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", 0)

	orders, err := h.facade.OrdersByUser(c.Request.Context(), CurrentActor(c), userID, skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.OrderListResponse{
		UserID:      userID.String(),
		TotalOrders: len(orders),
		Orders:      make([]dto.OrderResponse, 0, len(orders)),
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&orders[i], ""))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) History(c *gin.Context) {
	changes, err := h.facade.OrderHistory(c.Request.Context(), CurrentActor(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.StatusChangeResponse, 0, len(changes))
	for _, change := range changes {
		resp = append(resp, dto.StatusChangeResponse{
			FromStatus: string(change.FromStatus),
			ToStatus:   string(change.ToStatus),
			Reason:     change.Reason,
			CreatedAt:  change.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Dispatches(c *gin.Context) {
	outcomes, err := h.facade.OrderDispatches(c.Request.Context(), CurrentActor(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.DispatchOutcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		resp = append(resp, dto.DispatchOutcomeResponse{
			PharmacyID:   outcome.PharmacyID,
			PharmacyName: outcome.PharmacyName,
			Attempts:     outcome.Attempts,
			Succeeded:    outcome.Succeeded,
			Reason:       outcome.Reason,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UploadPrescription(c *gin.Context) {
	fileHeader, err := c.FormFile("prescription")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "multipart field 'prescription' required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "cannot read uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	order, err := h.facade.UploadPrescription(c.Request.Context(), CurrentActor(c), c.Param("orderID"), fileHeader.Filename, contentType, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, "prescription uploaded, verification pending"))
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.facade.CancelOrder(c.Request.Context(), CurrentActor(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, "order cancelled"))
}

func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	order, err := h.facade.ConfirmPayment(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, "payment confirmed"))
}

func (h *OrderHandler) StartFulfillment(c *gin.Context) {
	order, err := h.facade.StartFulfillment(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, "order is being prepared"))
}

func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	order, err := h.facade.ConfirmDelivery(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, "order delivered"))
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}

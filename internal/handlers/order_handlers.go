package handlers

import (
	"net/http"

	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/models"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder opens an order in the current shift.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if !bindJSON(c, "CreateOrder", &req) {
		return
	}
	req.CreatedBy = middleware.CurrentUserID(c)

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateOrder", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching orders with filters and pagination.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if !bindQuery(c, "GetOrders", &filters) {
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetOrders", err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondPage(c, orders, total, filters.Page, filters.PageSize)
}

// GetOrderByID handles fetching a single order with its items and payments.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetOrderByID", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req services.OrderItemRequest
	if !bindJSON(c, "AddItem", &req) {
		return
	}
	order, err := h.orderService.AddItem(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "AddItem", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	itemID, ok := utils.ParamID(c, "itemId")
	if !ok {
		return
	}
	var body struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if !bindJSON(c, "UpdateItemQuantity", &body) {
		return
	}
	order, err := h.orderService.UpdateItemQuantity(c.Request.Context(), id, itemID, body.Quantity)
	if err != nil {
		respondServiceError(c, "UpdateItemQuantity", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	itemID, ok := utils.ParamID(c, "itemId")
	if !ok {
		return
	}
	order, err := h.orderService.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondServiceError(c, "RemoveItem", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ApplyDiscount replaces the order discount; totals are recomputed.
func (h *OrderHandler) ApplyDiscount(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req services.DiscountRequest
	if !bindJSON(c, "ApplyDiscount", &req) {
		return
	}
	order, err := h.orderService.ApplyDiscount(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "ApplyDiscount", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CompleteOrder takes payment. Repeating the call for a completed order
// returns the stored result without writing anything.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var tender pricing.Tender
	if !bindJSON(c, "CompleteOrder", &tender) {
		return
	}
	result, err := h.orderService.CompleteOrder(c.Request.Context(), id, tender)
	if err != nil {
		respondServiceError(c, "CompleteOrder", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, "CancelOrder", &req) {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondServiceError(c, "CancelOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelCompletedOrder reverses a completed order. Admin only.
func (h *OrderHandler) CancelCompletedOrder(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, "CancelCompletedOrder", &req) {
		return
	}
	if utils.IsEmpty(req.Reason) {
		utils.RespondValidationFailed(c, "reason is required")
		return
	}
	order, err := h.orderService.CancelCompletedOrder(c.Request.Context(), id, req.Reason, middleware.CurrentUserID(c))
	if err != nil {
		respondServiceError(c, "CancelCompletedOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) MarkOutForDelivery(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.MarkOutForDelivery(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "MarkOutForDelivery", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetReceipt(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.orderService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetReceipt", err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// PlaceExternalOrder accepts a pre-priced order from the web channel. The
// external reference makes the call idempotent: a replay answers 200 with the
// existing order instead of 201.
func (h *OrderHandler) PlaceExternalOrder(c *gin.Context) {
	var req services.ExternalOrderRequest
	if !bindJSON(c, "PlaceExternalOrder", &req) {
		return
	}
	result, err := h.orderService.PlaceExternalOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "PlaceExternalOrder", err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

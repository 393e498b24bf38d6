package handlers

import (
	"net/http"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

// CreateCustomer handles the creation of a new customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if !bindJSON(c, "CreateCustomer", &req) {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles fetching all customers.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetCustomers", err)
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, customers)
}

// GetCustomerByID handles fetching a single customer by ID.
func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetCustomerByID", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles updating an existing customer.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if !bindJSON(c, "UpdateCustomer", &req) {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

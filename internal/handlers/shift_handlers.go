package handlers

import (
	"net/http"

	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShiftHandler serves the cashier shift lifecycle and drawer expenses.
type ShiftHandler struct {
	shiftService services.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(ss services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: ss}
}

// StartShift opens a shift for the authenticated cashier.
func (h *ShiftHandler) StartShift(c *gin.Context) {
	var req services.StartShiftRequest
	if !bindJSON(c, "StartShift", &req) {
		return
	}
	req.CashierID = middleware.CurrentUserID(c)

	shift, err := h.shiftService.StartShift(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "StartShift", err)
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// EndShift closes the open shift against the counted cash.
func (h *ShiftHandler) EndShift(c *gin.Context) {
	var req services.EndShiftRequest
	if !bindJSON(c, "EndShift", &req) {
		return
	}
	shift, err := h.shiftService.EndShift(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "EndShift", err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *ShiftHandler) GetCurrentShift(c *gin.Context) {
	shift, err := h.shiftService.CurrentShift(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetCurrentShift", err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *ShiftHandler) GetShiftByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	shift, err := h.shiftService.GetShift(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetShiftByID", err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *ShiftHandler) GetShifts(c *gin.Context) {
	var filters models.ShiftFilters
	if !bindQuery(c, "GetShifts", &filters) {
		return
	}
	shifts, total, err := h.shiftService.ListShifts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetShifts", err)
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	respondPage(c, shifts, total, filters.Page, filters.PageSize)
}

// AddExpense records cash paid out of the drawer of the open shift.
func (h *ShiftHandler) AddExpense(c *gin.Context) {
	var req services.AddExpenseRequest
	if !bindJSON(c, "AddExpense", &req) {
		return
	}
	expense, err := h.shiftService.AddExpense(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "AddExpense", err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ShiftHandler) CreateExpenseType(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, "CreateExpenseType", &body) {
		return
	}
	et, err := h.shiftService.CreateExpenseType(c.Request.Context(), body.Name)
	if err != nil {
		respondServiceError(c, "CreateExpenseType", err)
		return
	}
	c.JSON(http.StatusCreated, et)
}

func (h *ShiftHandler) GetExpenseTypes(c *gin.Context) {
	types, err := h.shiftService.ListExpenseTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetExpenseTypes", err)
		return
	}
	if types == nil {
		types = []models.ExpenseType{}
	}
	c.JSON(http.StatusOK, types)
}

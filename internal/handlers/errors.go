package handlers

import (
	"errors"
	"net/http"

	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

type errorStatus struct {
	target error
	status int
	code   string
}

// serviceErrors maps service sentinels to HTTP responses. The first match wins.
var serviceErrors = []errorStatus{
	{services.ErrDayNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrShiftNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrOrderItemNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrTableNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrCustomerNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrDocumentNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrProductNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrExpenseTypeNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrSettingNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized},

	{services.ErrValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidDiscount, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidPayment, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrCyclicRecipe, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrRoleNotFound, http.StatusBadRequest, utils.ErrCodeBadRequest},

	{services.ErrConflict, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrPhoneNumberExists, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrUsernameExists, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrDayAlreadyOpen, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrDayClosed, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrLedgersStillOpen, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrShiftAlreadyOpen, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrNoActiveShift, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrdersStillProcessing, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrderNotProcessing, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrTableAlreadyReserved, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrInvoiceAlreadyClosed, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrInsufficientStock, http.StatusConflict, utils.ErrCodeConflict},
}

// respondServiceError writes the response for an error returned by a service.
// Unknown errors are logged and hidden behind a 500.
func respondServiceError(c *gin.Context, op string, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			utils.LogWarn(op+": request rejected", map[string]interface{}{"error": err.Error(), "status": m.status})
			utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, capitalize(m.target.Error()), err.Error()))
			return
		}
	}
	utils.LogError(err, op+": unexpected error")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", ""))
}

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogWarn(op+": failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return false
	}
	return true
}

// bindQuery decodes query parameters into dst and answers 400 on failure.
func bindQuery(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		utils.LogWarn(op+": failed to bind query", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters", err.Error()))
		return false
	}
	return true
}

func respondPage(c *gin.Context, data interface{}, total, page, pageSize int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

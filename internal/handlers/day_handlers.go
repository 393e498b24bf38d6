package handlers

import (
	"net/http"

	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DayHandler serves the accounting day. All routes are admin only.
type DayHandler struct {
	dayService services.DayService
}

func NewDayHandler(ds services.DayService) *DayHandler {
	return &DayHandler{dayService: ds}
}

func (h *DayHandler) OpenDay(c *gin.Context) {
	day, err := h.dayService.OpenDay(c.Request.Context())
	if err != nil {
		respondServiceError(c, "OpenDay", err)
		return
	}
	c.JSON(http.StatusCreated, day)
}

func (h *DayHandler) CloseDay(c *gin.Context) {
	day, err := h.dayService.CloseDay(c.Request.Context())
	if err != nil {
		respondServiceError(c, "CloseDay", err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *DayHandler) GetCurrentDay(c *gin.Context) {
	day, err := h.dayService.CurrentDay(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetCurrentDay", err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *DayHandler) GetDayByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	day, err := h.dayService.GetDay(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetDayByID", err)
		return
	}
	c.JSON(http.StatusOK, day)
}

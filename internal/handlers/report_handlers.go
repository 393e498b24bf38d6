package handlers

import (
	"net/http"

	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves read-only shift and day reports.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetShiftStats aggregates one or more shifts: /reports/shifts?shift_id=1&shift_id=2
func (h *ReportHandler) GetShiftStats(c *gin.Context) {
	raw := c.QueryArray("shift_id")
	if len(raw) == 0 {
		utils.RespondValidationFailed(c, "at least one shift_id is required")
		return
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := utils.StrToInt64(s)
		if err != nil || id <= 0 {
			utils.RespondValidationFailed(c, "invalid shift_id "+s)
			return
		}
		ids = append(ids, id)
	}

	stats, err := h.reportService.ShiftStats(c.Request.Context(), ids...)
	if err != nil {
		respondServiceError(c, "GetShiftStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetDayReport values the consumption recorded in a day snapshot.
func (h *ReportHandler) GetDayReport(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	report, err := h.reportService.DayReport(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetDayReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

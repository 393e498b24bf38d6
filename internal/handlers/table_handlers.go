package handlers

import (
	"net/http"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler serves dine-in tables. Reservation follows the order
// lifecycle and has no endpoint of its own.
type TableHandler struct {
	tableService services.TableService
}

func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, "CreateTable", &body) {
		return
	}
	table, err := h.tableService.CreateTable(c.Request.Context(), body.Name)
	if err != nil {
		respondServiceError(c, "CreateTable", err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *TableHandler) GetTables(c *gin.Context) {
	tables, err := h.tableService.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetTables", err)
		return
	}
	if tables == nil {
		tables = []models.DiningTable{}
	}
	c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) GetTableByID(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	table, err := h.tableService.GetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetTableByID", err)
		return
	}
	c.JSON(http.StatusOK, table)
}

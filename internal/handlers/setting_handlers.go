package handlers

import (
	"net/http"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler exposes application settings such as the pricing rates.
type SettingHandler struct {
	settingService services.SettingService
}

func NewSettingHandler(ss services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: ss}
}

// GetApplicationSettings retrieves all application settings
func (h *SettingHandler) GetApplicationSettings(c *gin.Context) {
	settings, err := h.settingService.ListSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetApplicationSettings", err)
		return
	}
	if settings == nil {
		settings = []models.ApplicationSetting{}
	}
	c.JSON(http.StatusOK, settings)
}

// GetApplicationSettingByKey retrieves a specific application setting by its key
func (h *SettingHandler) GetApplicationSettingByKey(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, "GetApplicationSettingByKey", err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// CreateOrUpdateApplicationSetting creates a new setting or updates an existing one by key
func (h *SettingHandler) CreateOrUpdateApplicationSetting(c *gin.Context) {
	var setting models.ApplicationSetting
	if !bindJSON(c, "CreateOrUpdateApplicationSetting", &setting) {
		return
	}
	if utils.IsEmpty(setting.SettingKey) {
		utils.RespondValidationFailed(c, "setting_key cannot be empty")
		return
	}

	saved, err := h.settingService.UpsertSetting(c.Request.Context(), setting)
	if err != nil {
		respondServiceError(c, "CreateOrUpdateApplicationSetting", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteApplicationSettingByKey deletes an application setting by its key
func (h *SettingHandler) DeleteApplicationSettingByKey(c *gin.Context) {
	key := c.Param("key")
	if err := h.settingService.DeleteSetting(c.Request.Context(), key); err != nil {
		respondServiceError(c, "DeleteApplicationSettingByKey", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application setting '" + key + "' deleted successfully"})
}
